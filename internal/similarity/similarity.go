// Package similarity implements diversity-aware discounting for the
// maximum marginal relevance planner: per-instrument similarity functions
// over weighted diversity descriptors, a pairwise cache keyed by ASDP id,
// and alpha-mixed discount factors per priority bin.
package similarity

import (
	"math"

	"github.com/NASA-AMMOS/synopsis/internal/metadata"
	"github.com/NASA-AMMOS/synopsis/internal/obslog"
)

// sqEuclideanDist returns the squared Euclidean distance between two
// diversity descriptors, truncating to the shorter length.
func sqEuclideanDist(dd1, dd2 []float64) float64 {
	n := len(dd1)
	if len(dd2) < n {
		n = len(dd2)
	}
	var acc float64
	for i := 0; i < n; i++ {
		diff := dd1[i] - dd2[i]
		acc += diff * diff
	}
	return acc
}

// gaussianSimilarity computes exp(-||dd1-dd2||^2 / sigma^2).
func gaussianSimilarity(sigma float64, dd1, dd2 []float64) float64 {
	distSq := sqEuclideanDist(dd1, dd2)
	return math.Exp(-(distSq / (sigma * sigma)))
}

// Params holds the named numeric parameters for a similarity function,
// e.g. {"sigma": 1.0} for the Gaussian kernel.
type Params map[string]float64

// Function is a generic, configurable similarity function: it extracts a
// weighted diversity descriptor from each ASDP and compares the two
// descriptors using the configured kernel.
type Function struct {
	DiversityDescriptors []string
	DDFactors            []float64
	SimilarityType       string
	SimilarityParams     Params
	Logger               obslog.Logger
}

// extractDD builds the weighted diversity descriptor vector for an ASDP.
// Missing or non-numeric fields contribute 0 and are logged.
func (f Function) extractDD(asdp metadata.Entry) []float64 {
	dd := make([]float64, len(f.DiversityDescriptors))
	for i, key := range f.DiversityDescriptors {
		v := asdp.Get(key)
		var di float64
		if v.IsNumeric() && !math.IsNaN(v.Numeric()) {
			di = v.Numeric()
		} else {
			obslog.Log(f.Logger, obslog.Warn, "diversity descriptor field %q missing or non-numeric", key)
		}
		if i < len(f.DDFactors) {
			di *= f.DDFactors[i]
		}
		dd[i] = di
	}
	return dd
}

// Similarity computes the similarity value between two ASDPs, in [0, 1]
// for the supported kernels. Unknown kernel types return 0 and log.
func (f Function) Similarity(asdp1, asdp2 metadata.Entry) float64 {
	dd1 := f.extractDD(asdp1)
	dd2 := f.extractDD(asdp2)

	switch f.SimilarityType {
	case "gaussian":
		sigma := 1.0
		if s, ok := f.SimilarityParams["sigma"]; ok {
			sigma = s
		} else {
			obslog.Log(f.Logger, obslog.Warn, "gaussian similarity function missing sigma parameter, defaulting to 1.0")
		}
		return gaussianSimilarity(sigma, dd1, dd2)
	default:
		obslog.Log(f.Logger, obslog.Warn, "unknown similarity type %q", f.SimilarityType)
		return 0
	}
}

// InstrumentType pairs an instrument name with an ASDP type, the key under
// which similarity functions are registered.
type InstrumentType struct {
	Instrument string
	Type       string
}

// FunctionMap maps instrument/type pairs to similarity functions.
type FunctionMap map[InstrumentType]Function

type cacheKey struct {
	lo, hi int64
}

// Config holds the similarity configuration across priority bins: per-bin
// alpha values and per-bin (or default) similarity function maps, plus the
// pairwise similarity cache built up as the planner runs.
type Config struct {
	Alpha            map[int]float64
	DefaultAlpha     float64
	Functions        map[int]FunctionMap
	DefaultFunctions FunctionMap
	Logger           obslog.Logger

	cache map[cacheKey]float64
}

// NewConfig constructs a Config with DefaultAlpha 1.0 and no similarity
// functions, matching the original's no-config fallback. With no function
// registered MaxSimilarity is 0, so every discount factor is 1.
func NewConfig(logger obslog.Logger) *Config {
	return &Config{
		DefaultAlpha:     1.0,
		Functions:        map[int]FunctionMap{},
		DefaultFunctions: FunctionMap{},
		Logger:           logger,
		cache:            map[cacheKey]float64{},
	}
}

func instrumentTypeOf(asdp metadata.Entry) InstrumentType {
	return InstrumentType{
		Instrument: asdp.Get(metadata.FieldInstrumentName).Str(),
		Type:       asdp.Get(metadata.FieldType).Str(),
	}
}

// getCachedSimilarity returns the similarity between asdp1 and asdp2,
// computing and caching it on first access. The cache key is the pair of
// ASDP ids sorted so that (a, b) and (b, a) hit the same entry.
func (c *Config) getCachedSimilarity(fn Function, asdp1, asdp2 metadata.Entry) float64 {
	id1 := asdp1.Get(metadata.FieldID).Int64()
	id2 := asdp2.Get(metadata.FieldID).Int64()

	key := cacheKey{lo: id1, hi: id2}
	if id1 > id2 {
		key = cacheKey{lo: id2, hi: id1}
	}

	if c.cache == nil {
		c.cache = map[cacheKey]float64{}
	}
	if v, ok := c.cache[key]; ok {
		return v
	}

	v := fn.Similarity(asdp1, asdp2)
	c.cache[key] = v
	return v
}

func (c *Config) functionsFor(bin int) FunctionMap {
	if fm, ok := c.Functions[bin]; ok {
		return fm
	}
	return c.DefaultFunctions
}

// MaxSimilarity returns the maximum similarity between asdp and every
// queued ASDP of the same instrument/type, using the similarity function
// registered for that pair in bin (or the default map). Returns 0 if the
// queue is empty or no function is registered for asdp's instrument/type.
func (c *Config) MaxSimilarity(bin int, queue []metadata.Entry, asdp metadata.Entry) float64 {
	if len(queue) == 0 {
		return 0
	}

	it := instrumentTypeOf(asdp)
	fn, ok := c.functionsFor(bin)[it]
	if !ok {
		return 0
	}

	var maxSim float64
	for _, other := range queue {
		if instrumentTypeOf(other) != it {
			continue
		}
		sim := c.getCachedSimilarity(fn, asdp, other)
		if sim > maxSim {
			maxSim = sim
		}
	}
	return maxSim
}

// DiscountFactor returns the alpha-mixed discount factor for asdp relative
// to queue in bin: (1 - alpha) + alpha * (1 - max_similarity).
func (c *Config) DiscountFactor(bin int, queue []metadata.Entry, asdp metadata.Entry) float64 {
	maxSim := c.MaxSimilarity(bin, queue, asdp)
	alpha := c.DefaultAlpha
	if a, ok := c.Alpha[bin]; ok {
		alpha = a
	}
	return (1.0 - alpha) + alpha*(1.0-maxSim)
}
