package viz

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/history"
	"github.com/san-kum/evsim/internal/metrics"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
	"github.com/san-kum/evsim/internal/storage"
)

const (
	commandStep = 0.1
	maxCommand  = 1.5
	plotHeight  = 6
	plotWidth   = 60
)

// plotted channels, toggled with 1-4
var plotChannels = [...]history.Channel{
	history.Voltage,
	history.Current,
	history.Speed,
	history.Temperature,
}

type changedMsg struct{}

// waitForChange blocks on the simulator's change signal.
func waitForChange(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-ch
		return changedMsg{}
	}
}

// Model is the dashboard state. The simulator is shared; everything else is
// owned by the Bubble Tea loop.
type Model struct {
	sim       *sim.Simulator
	store     *storage.Store
	collector *metrics.Collector

	snap     *sim.Snapshot
	specs    []physics.ParamSpec
	selected int
	plots    [len(plotChannels)]bool
	status   string
	failed   bool
	showHelp bool
	width    int
	scratch  []float64
}

// NewModel builds a dashboard for s. store and collector may be nil.
func NewModel(s *sim.Simulator, store *storage.Store, collector *metrics.Collector) Model {
	return Model{
		sim:       s,
		store:     store,
		collector: collector,
		snap:      s.Snapshot(),
		specs:     physics.ParamSpecs(),
		plots:     [len(plotChannels)]bool{true, true, true, true},
		status:    "press s to start",
		width:     plotWidth,
		scratch:   make([]float64, 0, history.Capacity),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForChange(m.sim.Changed())
}

// Update handles input and change notifications.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case changedMsg:
		m.snap = m.sim.Snapshot()
		return m, waitForChange(m.sim.Changed())
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		if quit := m.handleKey(msg.String()); quit {
			return m, tea.Quit
		}
		m.snap = m.sim.Snapshot()
	}
	return m, nil
}

func (m *Model) handleKey(key string) bool {
	switch key {
	case "q", "ctrl+c":
		return true
	case "s":
		m.report(m.sim.Start(), "started")
	case " ", "space":
		m.report(m.sim.TogglePause(), m.sim.Lifecycle().String())
	case "x":
		m.report(m.sim.Stop(), "stopped")
	case "r":
		m.report(m.sim.Reset(), "reset to defaults")
	case "up", "k":
		m.nudgeCommand(commandStep)
	case "down", "j":
		m.nudgeCommand(-commandStep)
	case "0":
		m.sim.SetCommand(0)
		m.report(nil, "command zeroed")
	case "m":
		next := physics.NextDriveMode(m.sim.Params().DriveMode)
		m.report(m.sim.SetDriveMode(next), "drive mode "+next)
	case "b":
		on := !m.sim.Params().RegenBraking
		m.sim.SetRegenBraking(on)
		m.report(nil, "regen "+onOff(on))
	case "tab":
		m.selected = (m.selected + 1) % len(m.specs)
	case "shift+tab":
		m.selected = (m.selected + len(m.specs) - 1) % len(m.specs)
	case "+", "=":
		m.adjustParam(1)
	case "-", "_":
		m.adjustParam(-1)
	case "1", "2", "3", "4":
		i := int(key[0] - '1')
		m.plots[i] = !m.plots[i]
	case "e":
		m.export()
	case "?":
		m.showHelp = !m.showHelp
	}
	return false
}

func (m *Model) report(err error, ok string) {
	if err != nil {
		m.status, m.failed = err.Error(), true
		return
	}
	m.status, m.failed = ok, false
}

func (m *Model) nudgeCommand(delta float64) {
	cmd := math.Round((m.sim.Command()+delta)*10) / 10
	cmd = math.Max(-maxCommand, math.Min(maxCommand, cmd))
	m.sim.SetCommand(cmd)
	m.report(nil, fmt.Sprintf("command %+.1f m/s²", cmd))
}

func (m *Model) adjustParam(dir float64) {
	spec := m.specs[m.selected]
	cur, _ := m.sim.Params().Get(spec.Name)
	next := math.Round((cur+dir*spec.Step)/spec.Step) * spec.Step
	if err := m.sim.SetParameter(spec.Name, next); err != nil {
		m.report(err, "")
		return
	}
	m.report(nil, fmt.Sprintf("%s = %s", spec.Label, formatValue(next)))
}

func (m *Model) export() {
	if m.store == nil {
		m.report(fmt.Errorf("export disabled"), "")
		return
	}
	snap := m.sim.Snapshot()
	path, err := m.store.Export(snap.Params, snap.History)
	if err != nil {
		m.report(err, "")
		return
	}
	m.report(nil, "exported "+path)
}

// View renders the dashboard.
func (m Model) View() string {
	if m.showHelp {
		return panelStyle.Render(helpText())
	}

	snap := m.snap
	header := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("EV POWERTRAIN"), "  ",
		lifecycleBadge(snap.Lifecycle), "  ",
		subtle.Render(fmt.Sprintf("mode %s · regen %s · cmd %+.1f m/s²",
			snap.Params.DriveMode, onOff(snap.Params.RegenBraking), snap.Command)),
	)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		panelStyle.Render(m.stateView()),
		panelStyle.Render(m.paramView()),
	)

	var b strings.Builder
	b.WriteString(header + "\n")
	b.WriteString(body + "\n")
	for i, ch := range plotChannels {
		if !m.plots[i] {
			continue
		}
		b.WriteString(m.plot(ch) + "\n")
	}

	status := subtle.Render(m.status)
	if m.failed {
		status = errorStyle.Render(m.status)
	}
	b.WriteString(Separator(m.width) + "\n")
	b.WriteString(status + "\n")
	b.WriteString(keyHint.Render("s start · space pause · x stop · r reset · ↑↓ cmd · m mode · b regen · tab/+/- params · 1-4 plots · e export · ? help · q quit"))
	return b.String()
}

func (m Model) stateView() string {
	st := m.snap.State
	rows := []struct {
		label string
		value string
	}{
		{"Speed", fmt.Sprintf("%.1f km/h", st.Speed)},
		{"SoC", fmt.Sprintf("%.1f %%", st.SoC)},
		{"", ProgressBar(st.SoC/100, 20)},
		{"Battery", fmt.Sprintf("%.1f °C", st.BatteryTemp)},
		{"Voltage", fmt.Sprintf("%.1f V", st.Voltage)},
		{"Current", fmt.Sprintf("%.1f A", st.Current)},
		{"Power", fmt.Sprintf("%.1f kW", st.Power)},
		{"Torque", fmt.Sprintf("%.0f Nm", st.MotorTorque)},
		{"Motor", fmt.Sprintf("%.0f rpm", st.MotorRPM)},
		{"Distance", fmt.Sprintf("%.3f km", st.Distance)},
		{"Energy", fmt.Sprintf("%.3f kWh", st.EnergyConsumed)},
		{"Recovered", fmt.Sprintf("%.3f kWh", st.EnergyRecovered)},
		{"Efficiency", fmt.Sprintf("%.0f Wh/km", st.Efficiency)},
		{"Time", fmt.Sprintf("%.1f s", st.Time)},
	}

	var b strings.Builder
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label) + valueStyle.Render(r.value) + "\n")
	}
	if m.collector != nil {
		vals := m.collector.Values()
		b.WriteString(labelStyle.Render("Regen share") + valueStyle.Render(fmt.Sprintf("%.0f %%", vals["regen_recovery"]*100)) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) paramView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Parameters") + "\n")
	for i, spec := range m.specs {
		line := fmt.Sprintf("%-18s %8s %s", spec.Label, formatValue(spec.Value(m.snap.Params)), spec.Unit)
		if i == m.selected {
			b.WriteString(activeParamStyle.Render("▸ "+line) + "\n")
			continue
		}
		b.WriteString("  " + line + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) plot(ch history.Channel) string {
	if m.snap.History == nil {
		return ""
	}
	m.scratch = m.snap.History.Channel(ch, m.scratch)
	width := plotWidth
	if m.width > 20 && m.width-15 < width {
		width = m.width - 15
	}
	return asciigraph.Plot(m.scratch,
		asciigraph.Height(plotHeight),
		asciigraph.Width(width),
		asciigraph.Caption(ch.Label()),
	)
}

func lifecycleBadge(l dynamo.Lifecycle) string {
	switch l {
	case dynamo.Running:
		return statusRunning.Render("● RUNNING")
	case dynamo.Paused:
		return statusPaused.Render("❚❚ PAUSED")
	default:
		return statusStopped.Render("■ STOPPED")
	}
}

func helpText() string {
	return titleStyle.Render("Keys") + `

  s        start
  space    pause / resume
  x        stop (state kept)
  r        reset to defaults
  ↑ / ↓    drive command ±0.1 m/s²
  0        zero command
  m        next drive mode
  b        toggle regenerative braking
  tab      select parameter
  + / -    adjust selected parameter
  1-4      toggle voltage, current, speed, temperature plots
  e        export history to CSV
  ?        close help
  q        quit`
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func formatValue(v float64) string {
	if v != 0 && math.Abs(v) < 0.1 {
		return fmt.Sprintf("%.3f", v)
	}
	return fmt.Sprintf("%.2f", v)
}
