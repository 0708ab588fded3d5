package backend

// DoubleBuffer holds the A/B pair of cell-state resources and the flag
// naming the current one. Companion resources bound to one buffer, such as
// bind groups, are selected with Select and never rebuilt on Swap.
//
// The zero value is unallocated; every accessor panics on it.
type DoubleBuffer[T any] struct {
	a, b      T
	aCurrent  bool
	allocated bool
}

// NewDoubleBuffer returns a pair with a as the current buffer.
func NewDoubleBuffer[T any](a, b T) *DoubleBuffer[T] {
	return &DoubleBuffer[T]{a: a, b: b, aCurrent: true, allocated: true}
}

// Current returns the read-authoritative buffer.
func (d *DoubleBuffer[T]) Current() T {
	d.mustBeAllocated()
	return Select(d.aCurrent, d.a, d.b)
}

// Next returns the write target of the next step.
func (d *DoubleBuffer[T]) Next() T {
	d.mustBeAllocated()
	return Select(d.aCurrent, d.b, d.a)
}

// Swap exchanges the current and next roles.
func (d *DoubleBuffer[T]) Swap() {
	d.mustBeAllocated()
	d.aCurrent = !d.aCurrent
}

// ACurrent reports whether A is the current buffer.
func (d *DoubleBuffer[T]) ACurrent() bool {
	d.mustBeAllocated()
	return d.aCurrent
}

// Both returns A and B regardless of role, for edits that must reach both.
func (d *DoubleBuffer[T]) Both() [2]T {
	d.mustBeAllocated()
	return [2]T{d.a, d.b}
}

// Allocated reports whether the pair has been created.
func (d *DoubleBuffer[T]) Allocated() bool {
	return d != nil && d.allocated
}

func (d *DoubleBuffer[T]) mustBeAllocated() {
	if !d.Allocated() {
		panic("backend: state buffers used before allocation")
	}
}

// Select returns ifA when aCurrent is set and ifB otherwise.
func Select[T any](aCurrent bool, ifA, ifB T) T {
	if aCurrent {
		return ifA
	}
	return ifB
}
