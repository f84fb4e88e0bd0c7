package reactive

// Readable is a typed reactive value.
type Readable[T any] interface {
	Get() T
	Peek() T
}

// Cell is a typed view over a host mutable cell.
type Cell[T any] struct {
	raw AnyCell
}

// NewCell creates a host cell holding initial.
func NewCell[T any](caps Capabilities, initial T) Cell[T] {
	return Cell[T]{raw: caps.MakeCell(initial)}
}

// Get reads the value, registering a dependency in a tracked context.
func (c Cell[T]) Get() T {
	if c.raw == nil {
		var zero T
		return zero
	}
	return as[T](c.raw.Get())
}

// Peek reads the value without registering a dependency.
func (c Cell[T]) Peek() T {
	if c.raw == nil {
		var zero T
		return zero
	}
	return as[T](c.raw.Peek())
}

// Set replaces the value.
func (c Cell[T]) Set(value T) {
	if c.raw == nil {
		return
	}
	c.raw.Set(value)
}

// Update replaces the value using fn applied to the untracked current value.
func (c Cell[T]) Update(fn func(T) T) {
	if c.raw == nil || fn == nil {
		return
	}
	c.raw.Set(fn(c.Peek()))
}

// Raw returns the host cell.
func (c Cell[T]) Raw() AnyCell {
	return c.raw
}

// Derived is a typed view over a host read-only cell.
type Derived[T any] struct {
	raw AnyReadable
}

// NewDerived creates a host derived cell computed by fn.
func NewDerived[T any](caps Capabilities, fn func() T) Derived[T] {
	return Derived[T]{raw: caps.MakeDerived(func() any { return fn() })}
}

// Get reads the derived value, registering a dependency in a tracked context.
func (d Derived[T]) Get() T {
	if d.raw == nil {
		var zero T
		return zero
	}
	return as[T](d.raw.Get())
}

// Peek reads the derived value without registering a dependency.
func (d Derived[T]) Peek() T {
	if d.raw == nil {
		var zero T
		return zero
	}
	return as[T](d.raw.Peek())
}

// Raw returns the host cell.
func (d Derived[T]) Raw() AnyReadable {
	return d.raw
}

// as converts a stored value back to T; a nil interface yields the zero value.
func as[T any](v any) T {
	if typed, ok := v.(T); ok {
		return typed
	}
	var zero T
	return zero
}
