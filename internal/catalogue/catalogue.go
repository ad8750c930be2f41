// Package catalogue implements the Autonomous Science Data Product
// database: durable storage of data-product records, their metadata, and
// the downlink lifecycle state the planner and ground operators drive them
// through.
package catalogue

import (
	"github.com/NASA-AMMOS/synopsis/internal/metadata"
)

// DownlinkState tracks where a data product sits in the downlink pipeline.
type DownlinkState int

const (
	Untransmitted DownlinkState = iota
	Transmitted
	Downlinked
)

func (s DownlinkState) String() string {
	switch s {
	case Untransmitted:
		return "untransmitted"
	case Transmitted:
		return "transmitted"
	case Downlinked:
		return "downlinked"
	default:
		return "unknown"
	}
}

// Record is a single catalogued data product: identity, instrument and type,
// storage location, size, the planner's utility estimate and assigned
// priority bin, downlink lifecycle state, and an open metadata bag.
type Record struct {
	ID                     int64
	InstrumentName         string
	Type                   string
	URI                    string
	Size                   int64
	ScienceUtilityEstimate float64
	PriorityBin            int
	DownlinkState          DownlinkState
	Metadata               metadata.Entry
}

// Entry projects a Record into the metadata.Entry shape the rule AST and
// planner operate over, injecting the reserved fields so they always win
// over any colliding user metadata key.
func (r Record) Entry() metadata.Entry {
	e := r.Metadata.Clone()
	if e == nil {
		e = metadata.Entry{}
	}
	e[metadata.FieldID] = metadata.Int(r.ID)
	e[metadata.FieldInstrumentName] = metadata.String(r.InstrumentName)
	e[metadata.FieldType] = metadata.String(r.Type)
	e[metadata.FieldSize] = metadata.Int(r.Size)
	e[metadata.FieldSUE] = metadata.Float(r.ScienceUtilityEstimate)
	e[metadata.FieldPriorityBin] = metadata.Int(int64(r.PriorityBin))
	return e
}
