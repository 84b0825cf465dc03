package feedback

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/zoobzio/capitan"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/eventloop"
	"github.com/goliatone/go-formguard/pkg/signals"
)

const (
	// ClassNotice marks flash messages, server-rendered or created here.
	ClassNotice = "message"
	// ClassNoticeClose marks the manual dismiss control.
	ClassNoticeClose = "message-close"
	// ClassRegion marks the overlay region created when the page has none.
	ClassRegion = "notice-region"
)

// Config tunes timings and placement.
type Config struct {
	// NoticeTTL applies to adopted server flashes and ShowNotice calls with
	// a non-positive ttl.
	NoticeTTL time.Duration
	// NotifyTTL applies to Notify.
	NotifyTTL time.Duration
	// ExitDuration is how long the exit transition plays before detach.
	ExitDuration time.Duration
	// RegionClasses are tried in order to find the overlay region.
	RegionClasses []string
	// WarningRatio is the share of a counter's cap after which it warns.
	WarningRatio float64
}

// DefaultConfig mirrors the historical page behaviour.
func DefaultConfig() Config {
	return Config{
		NoticeTTL:     5 * time.Second,
		NotifyTTL:     5 * time.Second,
		ExitDuration:  500 * time.Millisecond,
		RegionClasses: []string{ClassRegion, "container"},
		WarningRatio:  0.9,
	}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithConfig replaces the configuration; zero fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Scheduler) {
		def := DefaultConfig()
		if cfg.NoticeTTL <= 0 {
			cfg.NoticeTTL = def.NoticeTTL
		}
		if cfg.NotifyTTL <= 0 {
			cfg.NotifyTTL = def.NotifyTTL
		}
		if cfg.ExitDuration < 0 {
			cfg.ExitDuration = 0
		}
		if len(cfg.RegionClasses) == 0 {
			cfg.RegionClasses = def.RegionClasses
		}
		if cfg.WarningRatio <= 0 || cfg.WarningRatio > 1 {
			cfg.WarningRatio = def.WarningRatio
		}
		s.cfg = cfg
	}
}

// WithPalette sets severity colours.
func WithPalette(p Palette) Option {
	return func(s *Scheduler) {
		if p != nil {
			s.palette = p
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger logr.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// Scheduler owns every transient element on a page: notices with timed
// two-phase removal, counters and scroll-driven visibility.
type Scheduler struct {
	loop    *eventloop.Loop
	doc     *dom.Document
	cfg     Config
	palette Palette
	logger  logr.Logger

	region  *html.Node
	notices map[string]*Notice
	seq     map[*Notice]int
	next    int
}

// NewScheduler binds a scheduler to a document and loop.
func NewScheduler(loop *eventloop.Loop, doc *dom.Document, options ...Option) *Scheduler {
	s := &Scheduler{
		loop:    loop,
		doc:     doc,
		cfg:     DefaultConfig(),
		palette: DefaultPalette(),
		logger:  logr.Discard(),
		notices: make(map[string]*Notice),
		seq:     make(map[*Notice]int),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Config returns the effective configuration.
func (s *Scheduler) Config() Config {
	return s.cfg
}

// Palette returns the severity colours in use.
func (s *Scheduler) Palette() Palette {
	return s.palette
}

// ShowNotice inserts a notice into the overlay region and schedules its
// removal after ttl (NoticeTTL when ttl <= 0).
func (s *Scheduler) ShowNotice(message string, severity Severity, ttl time.Duration) *Notice {
	return s.show(strings.TrimSpace(message), severity, ttl)
}

// ShowHTML is ShowNotice for a message received as markup, such as a
// server-rendered error snippet. Tags are stripped and only the text is kept.
func (s *Scheduler) ShowHTML(markup string, severity Severity, ttl time.Duration) *Notice {
	return s.show(plainText(markup), severity, ttl)
}

func (s *Scheduler) show(text string, severity Severity, ttl time.Duration) *Notice {
	if ttl <= 0 {
		ttl = s.cfg.NoticeTTL
	}

	node := dom.CreateElement("div")
	body := dom.CreateElement("span", dom.A("class", "message-text"))
	dom.SetText(body, text)
	dom.Append(node, body)

	n := s.manage(node, text, severity, ttl)
	region := s.overlay()
	dom.InsertBefore(region, node, region.FirstChild)
	return n
}

// Notify is the page-wide notification function: a notice with the
// configured NotifyTTL and a severity parsed from its name.
func (s *Scheduler) Notify(message, severity string) *Notice {
	return s.ShowNotice(message, ParseSeverity(severity), s.cfg.NotifyTTL)
}

// Adopt takes over a server-rendered flash message in place, giving it a
// close control and the standard auto-hide lifecycle. Adopting a node twice
// returns the existing notice.
func (s *Scheduler) Adopt(node *html.Node) *Notice {
	if node == nil {
		return nil
	}
	if id := dom.Attr(node, attrNoticeID); id != "" {
		if existing, ok := s.notices[id]; ok {
			return existing
		}
	}
	return s.manage(node, strings.TrimSpace(dom.Text(node)), severityFromClasses(node), s.cfg.NoticeTTL)
}

// AdoptAll adopts every `.message` element that is not already managed.
func (s *Scheduler) AdoptAll() []*Notice {
	var out []*Notice
	for _, node := range s.doc.Find("//*[" + dom.ClassPredicate(ClassNotice) + "]") {
		if n := s.Adopt(node); n != nil {
			out = append(out, n)
		}
	}
	return out
}

func (s *Scheduler) manage(node *html.Node, text string, severity Severity, ttl time.Duration) *Notice {
	n := &Notice{
		ID:        s.doc.NextID("notice"),
		Message:   text,
		Severity:  severity,
		CreatedAt: s.loop.Now(),
		TTL:       ttl,
		scheduler: s,
		node:      node,
		state:     NoticePending,
	}
	if existing := dom.Attr(node, "id"); existing != "" {
		n.ID = existing
	}

	dom.SetAttr(node, "id", n.ID)
	dom.SetAttr(node, attrNoticeID, n.ID)
	dom.SetAttr(node, attrNoticeState, n.state.String())
	dom.SetAttr(node, "data-severity", string(severity))
	dom.AddClass(node, ClassNotice, "message-"+severity.messageClass())
	if severity == SeverityDanger {
		dom.SetAttr(node, "role", "alert")
	} else {
		dom.SetAttr(node, "role", "status")
	}
	dom.SetStyle(node, "border-color", s.palette.Color(noticeToken(severity)))

	if dom.ChildWithClass(node, ClassNoticeClose, "", "") == nil {
		closeBtn := dom.CreateElement("button",
			dom.A("type", "button"),
			dom.A("class", ClassNoticeClose),
			dom.A(attrNoticeID, n.ID),
			dom.A("aria-label", "Dismiss notification"),
		)
		dom.SetText(closeBtn, "×")
		dom.Append(node, closeBtn)
	} else {
		dom.SetAttr(dom.ChildWithClass(node, ClassNoticeClose, "", ""), attrNoticeID, n.ID)
	}

	n.ttlTimer = s.loop.AfterFunc(ttl, func() {
		n.transition(eventExpire)
	})

	s.next++
	s.notices[n.ID] = n
	s.seq[n] = s.next

	s.logger.V(1).Info("notice shown", "notice", n.ID, "severity", string(severity), "ttl", ttl)
	capitan.Emit(context.Background(), signals.NoticeShown,
		signals.KeyNotice.Field(n.ID),
		signals.KeySeverity.Field(string(severity)),
		signals.KeyMessage.Field(text),
		signals.KeyTTL.Field(ttl),
	)
	return n
}

func (s *Scheduler) forget(n *Notice) {
	if s.notices[n.ID] == n {
		delete(s.notices, n.ID)
	}
	delete(s.seq, n)
}

// Notice returns a live notice by id.
func (s *Scheduler) Notice(id string) *Notice {
	return s.notices[id]
}

// Dismiss dismisses a live notice by id.
func (s *Scheduler) Dismiss(id string) bool {
	return s.notices[id].Dismiss()
}

// HandleClick dismisses the notice whose close control contains target. It
// reports whether the click belonged to a close control.
func (s *Scheduler) HandleClick(target *html.Node) bool {
	for cur := target; cur != nil; cur = cur.Parent {
		if dom.IsElement(cur) && dom.HasClass(cur, ClassNoticeClose) {
			s.Dismiss(dom.Attr(cur, attrNoticeID))
			return true
		}
	}
	return false
}

// Active lists the notices that are not yet removed, oldest first.
func (s *Scheduler) Active() []*Notice {
	out := make([]*Notice, 0, len(s.notices))
	for _, n := range s.notices {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return s.seq[out[i]] < s.seq[out[j]] })
	return out
}

// Clear removes every live notice immediately.
func (s *Scheduler) Clear() {
	for _, n := range s.Active() {
		n.Remove()
	}
}

func (s *Scheduler) overlay() *html.Node {
	if s.region != nil && dom.Contains(s.doc.Root(), s.region) {
		return s.region
	}
	for _, class := range s.cfg.RegionClasses {
		if node := s.doc.FindOne("//*[" + dom.ClassPredicate(class) + "]"); node != nil {
			s.region = node
			return node
		}
	}
	region := dom.CreateElement("div",
		dom.A("class", ClassRegion),
		dom.A("aria-live", "polite"),
	)
	dom.Append(s.doc.Body(), region)
	s.region = region
	return region
}

func severityFromClasses(node *html.Node) Severity {
	for _, class := range dom.Classes(node) {
		if rest, ok := strings.CutPrefix(class, ClassNotice+"-"); ok && rest != "close" && rest != "text" {
			return ParseSeverity(rest)
		}
	}
	return SeverityInfo
}
