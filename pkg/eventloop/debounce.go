package eventloop

import "time"

// Debouncer coalesces bursts of calls into a single invocation fired once the
// window passes without a new call. The invocation always receives the
// argument of the last call in the burst.
type Debouncer[T any] struct {
	loop   *Loop
	window time.Duration
	fn     func(T)

	timer   *Timer
	pending T
	armed   bool
}

// Debounce wraps fn so it runs at most once per window of inactivity.
func Debounce[T any](loop *Loop, window time.Duration, fn func(T)) *Debouncer[T] {
	return &Debouncer[T]{loop: loop, window: window, fn: fn}
}

// Call records arg and restarts the window.
func (d *Debouncer[T]) Call(arg T) {
	if d == nil || d.loop == nil {
		return
	}
	d.timer.Stop()
	d.pending = arg
	d.armed = true
	d.timer = d.loop.AfterFunc(d.window, d.fire)
}

// Cancel drops any pending invocation. Safe to call repeatedly.
func (d *Debouncer[T]) Cancel() {
	if d == nil {
		return
	}
	d.timer.Stop()
	d.timer = nil
	d.clear()
}

// Flush runs the pending invocation immediately, if any.
func (d *Debouncer[T]) Flush() {
	if d == nil || !d.armed {
		return
	}
	d.timer.Stop()
	d.fire()
}

// Pending reports whether an invocation is waiting for its window to close.
func (d *Debouncer[T]) Pending() bool {
	return d != nil && d.armed
}

func (d *Debouncer[T]) fire() {
	if !d.armed {
		return
	}
	arg := d.pending
	d.timer = nil
	d.clear()
	if d.fn != nil {
		d.fn(arg)
	}
}

func (d *Debouncer[T]) clear() {
	var zero T
	d.pending = zero
	d.armed = false
}
