package formula

import (
	"fmt"
	"math"
)

type builtinFunc func(params ...interface{}) (interface{}, error)

// builtins is the closed set of functions callable from a formula.
var builtins = map[string]builtinFunc{
	"sum":   fnSum,
	"avg":   fnAvg,
	"max":   fnMax,
	"min":   fnMin,
	"round": fnRound,
	"ceil":  fnCeil,
	"floor": fnFloor,
}

// Functions returns the names of the built-in functions in a stable order.
func Functions() []string {
	return []string{"avg", "ceil", "floor", "max", "min", "round", "sum"}
}

func fnSum(params ...interface{}) (interface{}, error) {
	total := 0.0
	for _, v := range flatten(params) {
		total += v
	}
	return total, nil
}

func fnAvg(params ...interface{}) (interface{}, error) {
	values := flatten(params)
	if len(values) == 0 {
		return 0.0, nil
	}
	total := 0.0
	for _, v := range values {
		total += v
	}
	return total / float64(len(values)), nil
}

func fnMax(params ...interface{}) (interface{}, error) {
	values := flatten(params)
	if len(values) == 0 {
		return 0.0, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		if v > best {
			best = v
		}
	}
	return best, nil
}

func fnMin(params ...interface{}) (interface{}, error) {
	values := flatten(params)
	if len(values) == 0 {
		return 0.0, nil
	}
	best := values[0]
	for _, v := range values[1:] {
		if v < best {
			best = v
		}
	}
	return best, nil
}

func fnRound(params ...interface{}) (interface{}, error) {
	if len(params) == 0 || len(params) > 2 {
		return nil, fmt.Errorf("round expects 1 or 2 arguments, got %d", len(params))
	}
	value, ok := toFloat(params[0])
	if !ok {
		return nil, fmt.Errorf("round expects a number, got %T", params[0])
	}
	decimals := 2.0
	if len(params) == 2 {
		d, ok := toFloat(params[1])
		if !ok {
			return nil, fmt.Errorf("round expects numeric decimals, got %T", params[1])
		}
		decimals = math.Trunc(d)
	}
	factor := math.Pow(10, decimals)
	return math.Round(value*factor) / factor, nil
}

func fnCeil(params ...interface{}) (interface{}, error) {
	value, err := single("ceil", params)
	if err != nil {
		return nil, err
	}
	return math.Ceil(value), nil
}

func fnFloor(params ...interface{}) (interface{}, error) {
	value, err := single("floor", params)
	if err != nil {
		return nil, err
	}
	return math.Floor(value), nil
}

func single(name string, params []interface{}) (float64, error) {
	if len(params) != 1 {
		return 0, fmt.Errorf("%s expects 1 argument, got %d", name, len(params))
	}
	value, ok := toFloat(params[0])
	if !ok {
		return 0, fmt.Errorf("%s expects a number, got %T", name, params[0])
	}
	return value, nil
}

// flatten collects every finite number from scalar and slice arguments,
// silently dropping anything else.
func flatten(params []interface{}) []float64 {
	values := make([]float64, 0, len(params))
	for _, p := range params {
		switch typed := p.(type) {
		case []float64:
			for _, v := range typed {
				if isFinite(v) {
					values = append(values, v)
				}
			}
		case []interface{}:
			for _, item := range typed {
				if v, ok := toFloat(item); ok && isFinite(v) {
					values = append(values, v)
				}
			}
		default:
			if v, ok := toFloat(p); ok && isFinite(v) {
				values = append(values, v)
			}
		}
	}
	return values
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
