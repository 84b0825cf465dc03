// Package eventloop provides the single-threaded cooperative loop that every
// formguard handler runs on: posted tasks and due timers execute one at a
// time, to completion, on whichever goroutine drives the loop. Time comes from
// a clockz.Clock so hosts can run against the wall clock while tests advance
// a fake one and drain due work with RunDue.
package eventloop

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/zoobzio/clockz"
)

// Option configures a Loop.
type Option func(*Loop)

// WithClock swaps the time source. Use clockz.NewFakeClock for deterministic
// tests.
func WithClock(clock clockz.Clock) Option {
	return func(l *Loop) {
		if clock != nil {
			l.clock = clock
		}
	}
}

// WithLogger attaches a logger for trace output.
func WithLogger(logger logr.Logger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// Loop queues tasks and timers. The queue itself is guarded so Post and
// AfterFunc may be called from any goroutine, but callbacks only ever run on
// the goroutine calling RunDue or Run.
type Loop struct {
	clock  clockz.Clock
	logger logr.Logger

	mu     sync.Mutex
	tasks  []func()
	timers timerQueue
	seq    uint64
	wake   chan struct{}
}

// New constructs a Loop on the real clock.
func New(options ...Option) *Loop {
	l := &Loop{
		clock:  clockz.RealClock,
		logger: logr.Discard(),
		wake:   make(chan struct{}, 1),
	}
	for _, opt := range options {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Now returns the loop's current time.
func (l *Loop) Now() time.Time {
	return l.clock.Now()
}

// Clock exposes the loop's time source.
func (l *Loop) Clock() clockz.Clock {
	return l.clock
}

// Post queues fn to run on the loop after the current handler completes.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.tasks = append(l.tasks, fn)
	l.mu.Unlock()
	l.signal()
}

// AfterFunc schedules fn to run once d has elapsed on the loop clock. The
// returned Timer can be stopped any number of times.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *Timer {
	if d < 0 {
		d = 0
	}
	l.mu.Lock()
	l.seq++
	t := &Timer{
		loop:     l,
		deadline: l.clock.Now().Add(d),
		seq:      l.seq,
		fn:       fn,
		state:    TimerPending,
	}
	heap.Push(&l.timers, t)
	l.mu.Unlock()
	l.signal()
	l.logger.V(2).Info("timer scheduled", "delay", d, "seq", t.seq)
	return t
}

// Pending returns the number of queued tasks plus pending timers.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.tasks) + len(l.timers)
}

// RunDue drains queued tasks and fires every timer whose deadline has passed,
// including timers scheduled by the callbacks themselves when already due.
// It returns how many callbacks ran. RunDue must not be called concurrently
// with itself or with Run.
func (l *Loop) RunDue() int {
	ran := 0
	for {
		if fn := l.nextTask(); fn != nil {
			fn()
			ran++
			continue
		}
		if t := l.nextDueTimer(); t != nil {
			if t.fn != nil {
				t.fn()
			}
			ran++
			continue
		}
		return ran
	}
}

// Run drives the loop against its clock until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.RunDue()

		wait, ok := l.untilNext()
		var timer clockz.Timer
		var timerC <-chan time.Time
		if ok {
			timer = l.clock.NewTimer(wait)
			timerC = timer.C()
		}

		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return ctx.Err()
		case <-l.wake:
		case <-timerC:
		}
		if timer != nil {
			timer.Stop()
		}
	}
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) nextTask() func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) == 0 {
		return nil
	}
	fn := l.tasks[0]
	l.tasks[0] = nil
	l.tasks = l.tasks[1:]
	return fn
}

func (l *Loop) nextDueTimer() *Timer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.timers) == 0 {
		return nil
	}
	top := l.timers[0]
	if top.deadline.After(l.clock.Now()) {
		return nil
	}
	heap.Pop(&l.timers)
	top.state = TimerFired
	return top
}

func (l *Loop) untilNext() (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.tasks) > 0 {
		return 0, true
	}
	if len(l.timers) == 0 {
		return 0, false
	}
	wait := l.timers[0].deadline.Sub(l.clock.Now())
	if wait < 0 {
		wait = 0
	}
	return wait, true
}

func (l *Loop) cancel(t *Timer) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if t.state != TimerPending {
		return false
	}
	t.state = TimerStopped
	if t.index >= 0 && t.index < len(l.timers) && l.timers[t.index] == t {
		heap.Remove(&l.timers, t.index)
	}
	return true
}
