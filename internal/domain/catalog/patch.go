package catalog

// Patch distinguishes "field not mentioned" from "field explicitly set",
// including explicit set-to-zero. Update operations only touch fields whose
// patch is set, so partial updates never clobber unspecified fields.
type Patch[T any] struct {
	set   bool
	value T
}

// Set builds a patch that carries a value.
func Set[T any](v T) Patch[T] {
	return Patch[T]{set: true, value: v}
}

// Unset builds an empty patch (field untouched).
func Unset[T any]() Patch[T] {
	return Patch[T]{}
}

// IsSet reports whether the field was mentioned.
func (p Patch[T]) IsSet() bool { return p.set }

// Value returns the carried value and whether it was set.
func (p Patch[T]) Value() (T, bool) { return p.value, p.set }

// Or returns the carried value when set, otherwise fallback.
func (p Patch[T]) Or(fallback T) T {
	if p.set {
		return p.value
	}
	return fallback
}
