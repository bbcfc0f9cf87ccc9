package dsp

// Sample is the set of scalar types a LinearRamp can glide over.
type Sample interface {
	~float32 | ~float64
}

// LinearRamp glides a control value from a start to an end value over a fixed
// number of steps. Next is branchless: once the steps are used up the ramp keeps
// returning the value it stopped at.
type LinearRamp[T Sample] struct {
	current   T
	increment T
	remaining int
}

// NewLinearRamp returns a ramp that holds value until it is reset.
func NewLinearRamp[T Sample](value T) LinearRamp[T] {
	return LinearRamp[T]{current: value}
}

// Reset starts a new ramp from start towards end over steps calls to Next.
// A non-positive step count yields a ramp pinned at start.
func (r *LinearRamp[T]) Reset(start, end T, steps int) {
	r.current = start
	r.increment = 0
	r.remaining = 0
	if steps > 0 {
		r.increment = (end - start) / T(steps)
		r.remaining = steps
	}
}

// Next returns the current value and advances the ramp by one step.
func (r *LinearRamp[T]) Next() T {
	value := r.current

	active := b2i(r.remaining > 0)
	r.current += r.increment * T(active)
	r.remaining -= active

	return value
}

// Value returns the value the next call to Next will return.
func (r *LinearRamp[T]) Value() T { return r.current }

// Remaining returns how many steps are left before the ramp stops moving.
func (r *LinearRamp[T]) Remaining() int { return r.remaining }

// Increment returns the per-step increment.
func (r *LinearRamp[T]) Increment() T { return r.increment }

// Active reports whether the ramp is still moving.
func (r *LinearRamp[T]) Active() bool { return r.remaining > 0 }

// The compiler lowers this to a SETcc on amd64/arm64.
func b2i(b bool) int {
	var i int
	if b {
		i = 1
	}
	return i
}
