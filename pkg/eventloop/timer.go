package eventloop

import "time"

// TimerState describes where a Timer is in its lifecycle.
type TimerState int

const (
	// TimerPending timers are queued and will fire once due.
	TimerPending TimerState = iota
	// TimerFired timers have run their callback.
	TimerFired
	// TimerStopped timers were cancelled before firing.
	TimerStopped
)

func (s TimerState) String() string {
	switch s {
	case TimerPending:
		return "pending"
	case TimerFired:
		return "fired"
	case TimerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Timer is a one-shot callback scheduled on a Loop.
type Timer struct {
	loop     *Loop
	deadline time.Time
	seq      uint64
	fn       func()
	state    TimerState
	index    int
}

// Stop cancels the timer. It reports whether the call prevented the callback
// from running; stopping a fired, stopped or nil timer is a no-op.
func (t *Timer) Stop() bool {
	if t == nil || t.loop == nil {
		return false
	}
	return t.loop.cancel(t)
}

// State reports the timer's lifecycle state.
func (t *Timer) State() TimerState {
	if t == nil || t.loop == nil {
		return TimerStopped
	}
	t.loop.mu.Lock()
	defer t.loop.mu.Unlock()
	return t.state
}

// Deadline is the loop time at which the timer fires.
func (t *Timer) Deadline() time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.deadline
}

// timerQueue orders timers by deadline, breaking ties by scheduling order.
type timerQueue []*Timer

func (q timerQueue) Len() int { return len(q) }

func (q timerQueue) Less(i, j int) bool {
	if q[i].deadline.Equal(q[j].deadline) {
		return q[i].seq < q[j].seq
	}
	return q[i].deadline.Before(q[j].deadline)
}

func (q timerQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *timerQueue) Push(x any) {
	t := x.(*Timer)
	t.index = len(*q)
	*q = append(*q, t)
}

func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.index = -1
	*q = old[:n-1]
	return t
}
