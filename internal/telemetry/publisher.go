// Package telemetry mirrors the simulated vehicle's state into Redis.
package telemetry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/sirupsen/logrus"
)

const DefaultKey = "ev-powertrain"

// Publisher writes each snapshot to a Redis hash and announces it on the
// key's channel. OnTick never blocks: frames queue in a single slot and a
// newer frame replaces one not yet sent.
type Publisher struct {
	redis  *redis.Client
	key    string
	frames chan *sim.Snapshot
}

func NewPublisher(client *redis.Client, key string) *Publisher {
	if key == "" {
		key = DefaultKey
	}
	return &Publisher{
		redis:  client,
		key:    key,
		frames: make(chan *sim.Snapshot, 1),
	}
}

// Dial connects to addr and checks the connection.
func Dial(ctx context.Context, addr, key string) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}
	logrus.Infof("publishing telemetry to redis %s key %s", addr, key)
	return NewPublisher(client, key), nil
}

func (p *Publisher) Key() string { return p.key }

func (p *Publisher) OnTick(snap *sim.Snapshot) {
	select {
	case p.frames <- snap:
		return
	default:
	}
	// drop the stale frame
	select {
	case <-p.frames:
	default:
	}
	select {
	case p.frames <- snap:
	default:
	}
}

// Run sends queued frames until ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap := <-p.frames:
			if err := p.Publish(ctx, snap); err != nil && ctx.Err() == nil {
				logrus.Warnf("telemetry: %v", err)
			}
		}
	}
}

// Publish writes one frame.
func (p *Publisher) Publish(ctx context.Context, snap *sim.Snapshot) error {
	pipe := p.redis.Pipeline()
	pipe.HSet(ctx, p.key, Fields(snap))
	pipe.Publish(ctx, p.key, "state")

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish state: %w", err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.redis.Close()
}

// Fields maps a snapshot to the hash fields stored under the key.
func Fields(snap *sim.Snapshot) map[string]interface{} {
	s := snap.State
	return map[string]interface{}{
		"speed":           format(s.Speed),
		"soc":             format(s.SoC),
		"battery:temp":    format(s.BatteryTemp),
		"battery:voltage": format(s.Voltage),
		"battery:current": format(s.Current),
		"motor:torque":    format(s.MotorTorque),
		"motor:rpm":       strconv.Itoa(int(s.MotorRPM)),
		"distance":        format(s.Distance),
		"energy":          format(s.EnergyConsumed),
		"efficiency":      format(s.Efficiency),
		"drive-mode":      snap.Params.DriveMode,
		"regen":           map[bool]string{true: "on", false: "off"}[snap.Params.RegenBraking],
		"state":           snap.Lifecycle.String(),
	}
}

func format(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

var _ sim.Observer = (*Publisher)(nil)
