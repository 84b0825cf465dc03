package feedback

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/capitan"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/eventloop"
	"github.com/goliatone/go-formguard/pkg/signals"
)

// NoticeState is the lifecycle position of a notice.
type NoticeState int

const (
	// NoticePending notices are visible and waiting for their TTL.
	NoticePending NoticeState = iota
	// NoticeDismissing notices are playing their exit transition.
	NoticeDismissing
	// NoticeRemoved notices have been detached; nothing else can happen.
	NoticeRemoved
)

func (s NoticeState) String() string {
	switch s {
	case NoticePending:
		return "pending"
	case NoticeDismissing:
		return "dismissing"
	case NoticeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

type noticeEvent int

const (
	eventExpire noticeEvent = iota
	eventDismiss
	eventDetach
	eventRemove
)

func (e noticeEvent) String() string {
	switch e {
	case eventExpire:
		return "expired"
	case eventDismiss:
		return "dismissed"
	case eventDetach:
		return "detached"
	default:
		return "removed"
	}
}

const (
	classDismissing = "is-dismissing"
	attrNoticeID    = "data-notice-id"
	attrNoticeState = "data-state"
)

// Notice is a transient message managed by a Scheduler. The pointer doubles
// as the handle callers use to dismiss it early.
type Notice struct {
	ID        string
	Message   string
	Severity  Severity
	CreatedAt time.Time
	TTL       time.Duration

	scheduler *Scheduler
	node      *html.Node
	state     NoticeState
	ttlTimer  *eventloop.Timer
	exitTimer *eventloop.Timer
}

// State reports the current lifecycle state.
func (n *Notice) State() NoticeState {
	if n == nil {
		return NoticeRemoved
	}
	return n.state
}

// Node returns the notice element.
func (n *Notice) Node() *html.Node {
	if n == nil {
		return nil
	}
	return n.node
}

// Dismiss starts the exit transition now and cancels the TTL timer. It
// reports false when the notice is already leaving or gone.
func (n *Notice) Dismiss() bool {
	if n == nil {
		return false
	}
	return n.transition(eventDismiss)
}

// Remove detaches the notice immediately, skipping the exit transition.
func (n *Notice) Remove() bool {
	if n == nil {
		return false
	}
	return n.transition(eventRemove)
}

// transition is the only place notice state changes. Every event is valid in
// every state; the ones that do not apply are no-ops, which is what makes a
// racing manual dismiss and TTL expiry detach the node exactly once.
func (n *Notice) transition(ev noticeEvent) bool {
	from := n.state
	switch {
	case from == NoticePending && (ev == eventExpire || ev == eventDismiss):
		n.ttlTimer.Stop()
		n.state = NoticeDismissing
		n.playExit(ev)
	case from == NoticeDismissing && ev == eventDetach:
		n.state = NoticeRemoved
		n.detach()
	case from != NoticeRemoved && ev == eventRemove:
		n.ttlTimer.Stop()
		n.exitTimer.Stop()
		n.state = NoticeRemoved
		n.detach()
	default:
		return false
	}

	s := n.scheduler
	dom.SetAttr(n.node, attrNoticeState, n.state.String())
	s.logger.V(1).Info("notice transition", "notice", n.ID, "event", ev.String(), "from", from.String(), "to", n.state.String())
	capitan.Emit(context.Background(), signals.NoticeStateChanged,
		signals.KeyNotice.Field(n.ID),
		signals.KeyOldState.Field(from.String()),
		signals.KeyNewState.Field(n.state.String()),
	)
	return true
}

func (n *Notice) playExit(ev noticeEvent) {
	s := n.scheduler
	exit := s.cfg.ExitDuration
	animation := "slideOut"
	if ev == eventExpire {
		animation = "fadeOut"
	}
	dom.AddClass(n.node, classDismissing)
	dom.SetStyle(n.node, "animation", fmt.Sprintf("%s %dms ease-out", animation, exit.Milliseconds()))
	n.exitTimer = s.loop.AfterFunc(exit, func() {
		n.transition(eventDetach)
	})
}

func (n *Notice) detach() {
	dom.Detach(n.node)
	n.scheduler.forget(n)
}
