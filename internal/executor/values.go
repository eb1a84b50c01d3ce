package executor

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/aqlgraph/internal/language"
	schema "github.com/hanpama/aqlgraph/internal/schema"
)

// coerceVariableValues coerces the provided variables against the operation's
// variable definitions. Variables neither provided nor defaulted are left out.
func coerceVariableValues(
	sch *schema.Schema,
	operation *language.OperationDefinition,
	variableValues map[string]any,
) (map[string]any, error) {
	coerced := make(map[string]any)
	for _, def := range operation.VariableDefinitions {
		name := def.Variable
		val, ok := variableValues[name]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				val = language.ValueToGo(def.DefaultValue, nil)
			case def.Type.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, def.Type.String())
			default:
				continue
			}
		}
		cv, err := coerceValue(sch, val, schema.TypeRefFromAST(def.Type))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %w", name, def.Type.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces field arguments and fills in defaults.
// Arguments bound to variables that were not provided fall back to their
// default.
func coerceArgumentValues(
	fieldDef *schema.Field,
	arguments language.ArgumentList,
	variableValues map[string]any,
	state *executionState,
	path Path,
) map[string]any {
	coerced := make(map[string]any)
	for _, arg := range arguments {
		argDef := fieldDef.Argument(arg.Name)
		if argDef == nil {
			continue
		}
		if arg.Value.Kind == language.Variable {
			if _, ok := variableValues[arg.Value.Raw]; !ok {
				continue
			}
		}
		cv, err := coerceValue(state.schema, language.ValueToGo(arg.Value, variableValues), argDef.Type)
		if err != nil {
			state.addError(fmt.Sprintf("argument '%s' cannot be coerced: %v", arg.Name, err), path)
			continue
		}
		coerced[arg.Name] = cv
	}
	for _, argDef := range fieldDef.Arguments {
		if _, ok := coerced[argDef.Name]; ok {
			continue
		}
		if argDef.DefaultValue != nil {
			coerced[argDef.Name] = argDef.DefaultValue
		} else if schema.IsNonNull(argDef.Type) {
			state.addError(fmt.Sprintf("argument '%s' of required type was not provided", argDef.Name), path)
		}
	}
	return coerced
}

func coerceValue(sch *schema.Schema, value any, t *schema.TypeRef) (any, error) {
	if schema.IsNonNull(t) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(sch, value, schema.Unwrap(t))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(t) {
		inner := schema.Unwrap(t)
		items, ok := value.([]any)
		if !ok {
			// A single value is coerced to a list of one.
			v, err := coerceValue(sch, value, inner)
			if err != nil {
				return nil, err
			}
			return []any{v}, nil
		}
		out := make([]any, len(items))
		for i, item := range items {
			v, err := coerceValue(sch, item, inner)
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = v
		}
		return out, nil
	}

	name := schema.GetNamedType(t)
	switch name {
	case "Int":
		return coerceToInt(value)
	case "Float":
		return coerceToFloat(value)
	case "String":
		return coerceToString(value)
	case "Boolean":
		return coerceToBoolean(value)
	case "ID":
		return coerceToID(value)
	}
	var typ *schema.Type
	if sch != nil {
		typ = sch.Types[name]
	}
	if typ == nil {
		return value, nil
	}
	switch typ.Kind {
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, typ, value)
	case schema.TypeKindEnum:
		if s, ok := value.(string); ok {
			for _, ev := range typ.EnumValues {
				if ev.Name == s {
					return s, nil
				}
			}
		}
		return nil, fmt.Errorf("cannot coerce %v to enum %s", value, name)
	default:
		// custom scalars pass through
		return value, nil
	}
}

func coerceInputObject(sch *schema.Schema, typ *schema.Type, value any) (any, error) {
	m, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("cannot coerce %v (%T) to %s", value, value, typ.Name)
	}
	known := make(map[string]bool, len(typ.InputFields))
	out := make(map[string]any, len(typ.InputFields))
	for _, f := range typ.InputFields {
		known[f.Name] = true
		v, ok := m[f.Name]
		if !ok {
			if f.DefaultValue != nil {
				out[f.Name] = f.DefaultValue
			} else if schema.IsNonNull(f.Type) {
				return nil, fmt.Errorf("required field '%s' of %s was not provided", f.Name, typ.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, v, f.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of %s: %w", f.Name, typ.Name, err)
		}
		out[f.Name] = cv
	}
	for k := range m {
		if !known[k] {
			return nil, fmt.Errorf("unknown field '%s' of %s", k, typ.Name)
		}
	}
	return out, nil
}

func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to String", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to Boolean", value, value)
}

func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatInt(int64(v), 10), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
