package reactive

// Maybe holds either a plain value or a reactive source of one.
// The zero value is a literal zero T.
type Maybe[T any] struct {
	value  T
	source Readable[T]
}

// Literal wraps a plain value.
func Literal[T any](value T) Maybe[T] {
	return Maybe[T]{value: value}
}

// FromCell wraps a reactive source. A nil source behaves like Literal(zero).
func FromCell[T any](source Readable[T]) Maybe[T] {
	return Maybe[T]{source: source}
}

// IsReactive reports whether the value comes from a reactive source.
func (m Maybe[T]) IsReactive() bool {
	return m.source != nil
}

// Resolve returns the current value, registering a dependency on the source in
// a tracked context.
func (m Maybe[T]) Resolve() T {
	if m.source == nil {
		return m.value
	}
	return m.source.Get()
}

// Peek returns the current value without registering a dependency.
func (m Maybe[T]) Peek() T {
	if m.source == nil {
		return m.value
	}
	return m.source.Peek()
}
