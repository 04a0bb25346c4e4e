// Package utils holds small generic helpers for the optional (nullable)
// fields of API payloads.
package utils

// Value dereferences v, giving the zero value for nil
func Value[T any](v *T) T {
	if v == nil {
		return *new(T)
	}
	return *v
}

// OrNil points at v, or is nil when v is the zero value, so an empty
// optional field travels as null.
func OrNil[T comparable](v T) *T {
	var zero T
	if v == zero {
		return nil
	}
	return &v
}
