package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/evsim/internal/dynamo"
	"github.com/san-kum/evsim/internal/physics"
	"github.com/san-kum/evsim/internal/sim"
)

// StateExport is the JSON document written for a finished run.
type StateExport struct {
	Lifecycle string         `json:"lifecycle"`
	Ticks     uint64         `json:"ticks"`
	Command   float64        `json:"command"`
	State     dynamo.State   `json:"state"`
	Params    physics.Params `json:"params"`
}

// ExportJSON writes the snapshot as indented JSON.
func ExportJSON(w io.Writer, snap *sim.Snapshot) error {
	data := StateExport{
		Lifecycle: snap.Lifecycle.String(),
		Ticks:     snap.Ticks,
		Command:   snap.Command,
		State:     snap.State,
		Params:    snap.Params,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
