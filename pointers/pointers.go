package pointers

// To returns a pointer to v. It makes optional DTO fields and test
// fixtures readable where Go forbids taking the address of a literal.
func To[T any](v T) *T {
	return &v
}

// From dereferences p, returning T's zero value when p is nil.
func From[T any](p *T) T {
	if p == nil {
		var zero T

		return zero
	}

	return *p
}
