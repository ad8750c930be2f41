package config

import (
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/NASA-AMMOS/synopsis/internal/obslog"
	"github.com/NASA-AMMOS/synopsis/internal/similarity"
)

// LoadSimilarityConfig parses a similarity configuration document of the
// form {"alphas": {...}, "functions": {...}}, both keyed by "default" or a
// decimal bin number. Malformed entries are dropped with a log; an empty or
// absent document yields a Config with DefaultAlpha 1.0 and no functions,
// the no-discount fallback.
func LoadSimilarityConfig(data []byte, logger obslog.Logger) *similarity.Config {
	cfg := similarity.NewConfig(logger)
	if len(data) == 0 {
		return cfg
	}

	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		obslog.Log(logger, obslog.Warn, "similarity configuration document is not a JSON object, using defaults")
		return cfg
	}

	cfg.Alpha = map[int]float64{}
	doc.Get("alphas").ForEach(func(key, val gjson.Result) bool {
		if val.Type != gjson.Number {
			obslog.Log(logger, obslog.Warn, "alpha for key %q is not a number, skipping", key.String())
			return true
		}
		if key.String() == "default" {
			cfg.DefaultAlpha = val.Float()
			return true
		}
		bin, err := strconv.Atoi(key.String())
		if err != nil {
			obslog.Log(logger, obslog.Warn, "alpha key %q is neither \"default\" nor an integer bin, skipping", key.String())
			return true
		}
		cfg.Alpha[bin] = val.Float()
		return true
	})

	doc.Get("functions").ForEach(func(key, val gjson.Result) bool {
		fm := parseFunctionList(val, logger)
		if key.String() == "default" {
			cfg.DefaultFunctions = fm
			return true
		}
		bin, err := strconv.Atoi(key.String())
		if err != nil {
			obslog.Log(logger, obslog.Warn, "function map key %q is neither \"default\" nor an integer bin, skipping", key.String())
			return true
		}
		cfg.Functions[bin] = fm
		return true
	})

	return cfg
}

// parseFunctionList parses a bin's function list: an array of
// {"key": [instrument, type], "function": {...}} entries.
func parseFunctionList(arr gjson.Result, logger obslog.Logger) similarity.FunctionMap {
	fm := similarity.FunctionMap{}
	for _, entry := range arr.Array() {
		keyArr := entry.Get("key")
		if !keyArr.IsArray() || len(keyArr.Array()) != 2 {
			obslog.Log(logger, obslog.Warn, "similarity function entry has malformed key, dropping")
			continue
		}
		pair := keyArr.Array()
		it := similarity.InstrumentType{
			Instrument: pair[0].String(),
			Type:       pair[1].String(),
		}

		fn, ok := parseFunction(entry.Get("function"), logger)
		if !ok {
			obslog.Log(logger, obslog.Warn, "similarity function for %v is malformed, dropping", it)
			continue
		}
		fn.Logger = logger
		fm[it] = fn
	}
	return fm
}

func parseFunction(obj gjson.Result, logger obslog.Logger) (similarity.Function, bool) {
	descriptors := obj.Get("diversity_descriptor")
	weights := obj.Get("weights")
	if !descriptors.IsArray() || !weights.IsArray() {
		return similarity.Function{}, false
	}
	descArr := descriptors.Array()
	weightArr := weights.Array()
	if len(descArr) != len(weightArr) {
		obslog.Log(logger, obslog.Warn, "diversity_descriptor and weights length mismatch (%d vs %d), dropping", len(descArr), len(weightArr))
		return similarity.Function{}, false
	}

	var dd []string
	var factors []float64
	for i := range descArr {
		if descArr[i].Type != gjson.String || weightArr[i].Type != gjson.Number {
			return similarity.Function{}, false
		}
		dd = append(dd, descArr[i].String())
		factors = append(factors, weightArr[i].Float())
	}

	params := similarity.Params{}
	obj.Get("similarity_parameters").ForEach(func(k, v gjson.Result) bool {
		if v.Type == gjson.Number {
			params[k.String()] = v.Float()
		}
		return true
	})

	return similarity.Function{
		DiversityDescriptors: dd,
		DDFactors:            factors,
		SimilarityType:       obj.Get("similarity_type").String(),
		SimilarityParams:     params,
	}, true
}
