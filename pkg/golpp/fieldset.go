package golpp

import "fmt"

// FieldSet offers typed helpers on top of the decoded record.
type FieldSet struct {
	data *Fields
}

// FieldSet returns a FieldSet wrapper for the result's fields.
func (r Result) FieldSet() FieldSet {
	return FieldSet{data: r.Fields}
}

// Map exposes the fields as a plain map for callers that still need raw access.
func (fs FieldSet) Map() map[string]any {
	return fs.data.Map()
}

// Keys returns the field keys in decode order.
func (fs FieldSet) Keys() []string {
	return fs.data.Keys()
}

// Raw returns the stored value without conversions.
func (fs FieldSet) Raw(key string) (any, bool) {
	return fs.data.Get(key)
}

// Float returns the field coerced to float64.
func (fs FieldSet) Float(key string) (float64, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return 0, fmt.Errorf("field %q missing", key)
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
}

// Int returns the field coerced to int64. Scaled values are truncated.
func (fs FieldSet) Int(key string) (int64, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return 0, fmt.Errorf("field %q missing", key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case float64:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
}

// Bool reports whether a digital input or output field is set.
func (fs FieldSet) Bool(key string) (bool, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return false, fmt.Errorf("field %q missing", key)
	}
	n, ok := v.(int)
	if !ok {
		return false, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
	return n != 0, nil
}

// String returns the field as a string.
func (fs FieldSet) String(key string) (string, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return "", fmt.Errorf("field %q missing", key)
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String(), nil
	}
	return fmt.Sprintf("%v", v), nil
}

// Vector returns an accelerometer field.
func (fs FieldSet) Vector(key string) (Vector, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return Vector{}, fmt.Errorf("field %q missing", key)
	}
	vec, ok := v.(Vector)
	if !ok {
		return Vector{}, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
	return vec, nil
}

// Coordinate returns a GPS field.
func (fs FieldSet) Coordinate(key string) (Coordinate, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return Coordinate{}, fmt.Errorf("field %q missing", key)
	}
	c, ok := v.(Coordinate)
	if !ok {
		return Coordinate{}, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
	return c, nil
}

// Bytes returns the raw bytes of a custom type field.
func (fs FieldSet) Bytes(key string) ([]byte, error) {
	v, ok := fs.Raw(key)
	if !ok {
		return nil, fmt.Errorf("field %q missing", key)
	}
	raw, ok := v.(Raw)
	if !ok {
		return nil, fmt.Errorf("field %q has unsupported type %T", key, v)
	}
	return []byte(raw), nil
}
