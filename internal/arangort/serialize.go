package arangort

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/hanpama/aqlgraph/internal/schema"
)

// SerializeLeafValue converts database values to GraphQL leaf values.
// Numbers decoded from JSON arrive as float64 or json.Number.
func (r *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	switch typeName {
	case "Int":
		return serializeInt(value)
	case "Float":
		f, ok := toFloat(value)
		if !ok {
			return nil, fmt.Errorf("Float cannot represent %v", value)
		}
		return f, nil
	case "String":
		switch v := value.(type) {
		case string:
			return v, nil
		case bool, float64, int, int64, json.Number:
			return fmt.Sprint(v), nil
		}
		return nil, fmt.Errorf("String cannot represent %v", value)
	case "Boolean":
		if b, ok := value.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("Boolean cannot represent %v", value)
	case "ID":
		switch v := value.(type) {
		case string:
			return v, nil
		case json.Number:
			return v.String(), nil
		}
		if n, err := serializeInt(value); err == nil {
			return strconv.Itoa(n.(int)), nil
		}
		return nil, fmt.Errorf("ID cannot represent %v", value)
	}

	t := r.schema.Types[typeName]
	if t != nil && t.Kind == schema.TypeKindEnum {
		name, ok := value.(string)
		if ok {
			for _, ev := range t.EnumValues {
				if ev.Name == name {
					return name, nil
				}
			}
		}
		return nil, fmt.Errorf("enum %s cannot represent %v", typeName, value)
	}
	// custom scalars are passed through as decoded
	return value, nil
}

func serializeInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n), nil
		}
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("Int cannot represent %v", value)
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	}
	return 0, false
}
