package types

import (
	"encoding/json"
)

// Optional is a JSON field that distinguishes absent, explicit null, and a
// present value. Patch requests merge field-by-field: absent fields leave the
// stored value unchanged, null clears a nullable field.
type Optional[T any] struct {
	provided bool
	null     bool
	value    T
}

// UnmarshalJSON implements the json.Unmarshaler interface. It is only invoked
// for keys present in the input, so the zero Optional means "absent".
func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.provided = true
	if string(data) == "null" {
		o.null = true
		return nil
	}
	return json.Unmarshal(data, &o.value)
}

// Provided reports whether the key appeared in the input at all.
func (o Optional[T]) Provided() bool {
	return o.provided
}

// Null reports whether the key was explicitly set to null.
func (o Optional[T]) Null() bool {
	return o.provided && o.null
}

// Present reports whether the key carries a non-null value.
func (o Optional[T]) Present() bool {
	return o.provided && !o.null
}

// Get returns the carried value (the zero value when not present).
func (o Optional[T]) Get() T {
	return o.value
}
