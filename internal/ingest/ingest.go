// Package ingest implements the Autonomous Science Data System (ASDS)
// collaborator: the thin glue that turns an incoming data product file
// pair into a catalogue row. Real ASDS implementations would do
// instrument-specific processing here; PassthroughASDS simply forwards
// the declared metadata.
package ingest

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/NASA-AMMOS/synopsis/internal/catalogue"
	"github.com/NASA-AMMOS/synopsis/internal/metadata"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
)

// DataProductMessage describes an incoming ASDP: the raw data file plus an
// optional sidecar metadata file declaring its science utility estimate,
// priority bin, and free-form metadata fields.
type DataProductMessage struct {
	InstrumentName string
	Type           string
	URI            string
	UseMetadata    bool
	MetadataURI    string
}

// ASDS submits a data product message for processing, returning the
// catalogue ID assigned to the resulting row.
type ASDS interface {
	ProcessDataProduct(msg DataProductMessage) (int64, error)
}

// Catalogue is the narrow slice of catalogue.Store ingestion needs.
type Catalogue interface {
	InsertDataProduct(rec catalogue.Record) (int64, error)
}

// PassthroughASDS forwards a file pair's declared metadata straight into a
// new catalogue row, computing size from the file on disk. Useful when
// ASDPs are produced directly by an instrument with no further processing
// step.
type PassthroughASDS struct {
	Catalogue Catalogue
	Logger    obslog.Logger
}

// NewPassthroughASDS constructs a PassthroughASDS backed by cat.
func NewPassthroughASDS(cat Catalogue, logger obslog.Logger) *PassthroughASDS {
	return &PassthroughASDS{Catalogue: cat, Logger: logger}
}

// ProcessDataProduct implements ASDS.
func (p *PassthroughASDS) ProcessDataProduct(msg DataProductMessage) (int64, error) {
	return p.submitDataProduct(msg)
}

func (p *PassthroughASDS) submitDataProduct(msg DataProductMessage) (int64, error) {
	info, err := os.Stat(msg.URI)
	if err != nil {
		return 0, fmt.Errorf("ingest: stat asdp file: %w", err)
	}
	size := info.Size()
	if size == 0 {
		return 0, fmt.Errorf("ingest: asdp %q has zero size, rejecting at ingestion", msg.URI)
	}

	sue := 0.0
	bin := 0
	meta := metadata.Entry{}

	if msg.UseMetadata {
		data, err := os.ReadFile(msg.MetadataURI)
		if err != nil {
			return 0, fmt.Errorf("ingest: read metadata file: %w", err)
		}
		if !gjson.ValidBytes(data) {
			return 0, fmt.Errorf("ingest: metadata file %q is not valid JSON", msg.MetadataURI)
		}
		doc := gjson.ParseBytes(data)

		sueNode := doc.Get("science_utility_estimate")
		if sueNode.Type != gjson.Number {
			obslog.Log(p.Logger, obslog.Error, "non-numeric ASDP science_utility_estimate metadata value")
			return 0, fmt.Errorf("ingest: non-numeric science_utility_estimate in %q", msg.MetadataURI)
		}
		sue = sueNode.Float()

		binNode := doc.Get("priority_bin")
		if binNode.Type != gjson.Number || binNode.Float() != float64(int(binNode.Int())) {
			obslog.Log(p.Logger, obslog.Error, "priority_bin is not an integer")
			return 0, fmt.Errorf("ingest: non-integer priority_bin in %q", msg.MetadataURI)
		}
		bin = int(binNode.Int())

		metaNode := doc.Get("metadata")
		if !metaNode.Exists() {
			obslog.Log(p.Logger, obslog.Error, "metadata field is not a JSON object")
			return 0, fmt.Errorf("ingest: metadata field missing or not an object in %q", msg.MetadataURI)
		}
		if metaNode.IsObject() {
			metaNode.ForEach(func(key, val gjson.Result) bool {
				switch val.Type {
				case gjson.Number:
					if looksFloat(val.Raw) {
						meta[key.String()] = metadata.Float(val.Float())
					} else {
						meta[key.String()] = metadata.Int(val.Int())
					}
				case gjson.String:
					meta[key.String()] = metadata.String(val.String())
				default:
					obslog.Log(p.Logger, obslog.Warn, "unsupported metadata type for field %q, skipping", key.String())
				}
				return true
			})
		} else {
			obslog.Log(p.Logger, obslog.Error, "metadata field is not a JSON object")
			return 0, fmt.Errorf("ingest: metadata field is not an object in %q", msg.MetadataURI)
		}
	} else {
		obslog.Log(p.Logger, obslog.Warn, "no metadata provided for asdp %q", msg.URI)
	}

	rec := catalogue.Record{
		InstrumentName:         msg.InstrumentName,
		Type:                   msg.Type,
		URI:                    msg.URI,
		Size:                   size,
		ScienceUtilityEstimate: sue,
		PriorityBin:            bin,
		DownlinkState:          catalogue.Untransmitted,
		Metadata:               meta,
	}

	id, err := p.Catalogue.InsertDataProduct(rec)
	if err != nil {
		return 0, fmt.Errorf("ingest: insert data product: %w", err)
	}
	return id, nil
}

// looksFloat reports whether a raw JSON number token contains a decimal
// point or exponent, distinguishing "3" from "3.0" the way the original's
// is_number_integer/is_number check does.
func looksFloat(raw string) bool {
	for _, c := range raw {
		if c == '.' || c == 'e' || c == 'E' {
			return true
		}
	}
	return false
}

// key identifies an ASDS registered for a specific (instrument, type) pair.
// Instrument-wide registrations are kept separately, keyed by instrument
// name alone.
type key struct {
	instrument string
	typ        string
}

// Registry maps (instrument[, type]) to an ASDS, mirroring the original
// Application::add_asds overload pair: one registration per instrument,
// optionally narrowed to a specific data product type.
type Registry struct {
	byInstrumentType map[key]ASDS
	byInstrument     map[string]ASDS
}

// NewRegistry constructs an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byInstrumentType: map[key]ASDS{},
		byInstrument:     map[string]ASDS{},
	}
}

// Register associates asds with every data product type instrument
// produces.
func (r *Registry) Register(instrument string, asds ASDS) {
	r.byInstrument[instrument] = asds
}

// RegisterType associates asds with a specific (instrument, type) pair,
// taking precedence over an instrument-wide registration.
func (r *Registry) RegisterType(instrument, typ string, asds ASDS) {
	r.byInstrumentType[key{instrument: instrument, typ: typ}] = asds
}

// Lookup returns the ASDS registered for (instrument, typ), preferring an
// exact (instrument, type) match over an instrument-wide one.
func (r *Registry) Lookup(instrument, typ string) (ASDS, bool) {
	if asds, ok := r.byInstrumentType[key{instrument: instrument, typ: typ}]; ok {
		return asds, true
	}
	asds, ok := r.byInstrument[instrument]
	return asds, ok
}

// Dispatch routes msg to the ASDS registered for its instrument/type and
// submits it. Returns an error if no ASDS is registered.
func (r *Registry) Dispatch(msg DataProductMessage) (int64, error) {
	asds, ok := r.Lookup(msg.InstrumentName, msg.Type)
	if !ok {
		return 0, fmt.Errorf("ingest: no ASDS registered for instrument %q type %q", msg.InstrumentName, msg.Type)
	}
	return asds.ProcessDataProduct(msg)
}
