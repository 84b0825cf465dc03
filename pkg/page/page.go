// Package page binds the validation engine and the feedback scheduler to a
// parsed document and exposes the browser events a host forwards to it.
//
// A Page is not safe for concurrent use. Hosts dispatch events from the
// goroutine that drives the page's event loop, the same goroutine that runs
// timer callbacks, so every handler runs to completion before the next one.
package page

import (
	"errors"
	"fmt"
	"io"
	"net/url"

	"github.com/go-logr/logr"
	"github.com/zoobzio/clockz"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/eventloop"
	"github.com/goliatone/go-formguard/pkg/feedback"
	"github.com/goliatone/go-formguard/pkg/validation"
)

// ErrNoDocument is returned by New when doc is nil.
var ErrNoDocument = errors.New("page: document is required")

// Confirmer asks the user to confirm a destructive action.
type Confirmer interface {
	Confirm(message string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(message string) bool

// Confirm implements Confirmer.
func (fn ConfirmFunc) Confirm(message string) bool {
	return fn(message)
}

// Submitter performs a native form submission. It is only used when filter
// forms auto-submit.
type Submitter interface {
	Submit(form *html.Node) error
}

// SubmitFunc adapts a function to Submitter.
type SubmitFunc func(form *html.Node) error

// Submit implements Submitter.
func (fn SubmitFunc) Submit(form *html.Node) error {
	return fn(form)
}

// QueryFunc receives the current values of a search or filter form once its
// debounce window closes.
type QueryFunc func(form *html.Node, values url.Values)

// Option configures a Page.
type Option func(*options)

type options struct {
	cfg       config.Config
	loop      *eventloop.Loop
	clock     clockz.Clock
	logger    logr.Logger
	palette   feedback.Palette
	confirmer Confirmer
	submitter Submitter
	onSearch  QueryFunc
	onFilter  QueryFunc
}

// WithConfig replaces the default configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLoop runs the page on an existing loop.
func WithLoop(loop *eventloop.Loop) Option {
	return func(o *options) {
		o.loop = loop
	}
}

// WithClock sets the clock of the loop created when WithLoop is not given.
func WithClock(clock clockz.Clock) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithLogger attaches a logger, shared with the engine, scheduler and loop.
func WithLogger(logger logr.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPalette overrides the palette derived from the config theme.
func WithPalette(p feedback.Palette) Option {
	return func(o *options) {
		o.palette = p
	}
}

// WithConfirmer installs the destructive-action prompt. Without one, actions
// proceed unconfirmed.
func WithConfirmer(c Confirmer) Option {
	return func(o *options) {
		o.confirmer = c
	}
}

// WithSubmitter installs the native submission used by filter auto-submit.
func WithSubmitter(s Submitter) Option {
	return func(o *options) {
		o.submitter = s
	}
}

// WithSearch sets the hook fired after search input settles.
func WithSearch(fn QueryFunc) Option {
	return func(o *options) {
		o.onSearch = fn
	}
}

// WithFilter sets the hook fired after filter changes settle.
func WithFilter(fn QueryFunc) Option {
	return func(o *options) {
		o.onFilter = fn
	}
}

// Page is a bound document.
type Page struct {
	doc       *dom.Document
	cfg       config.Config
	loop      *eventloop.Loop
	logger    logr.Logger
	engine    *validation.Engine
	scheduler *feedback.Scheduler
	confirmer Confirmer
	submitter Submitter
	onSearch  QueryFunc
	onFilter  QueryFunc

	forms     []*validation.Form
	counters  map[*html.Node]*feedback.Counter
	toggles   map[*html.Node]*html.Node
	files     map[*html.Node]*fileBinding
	loading   map[*html.Node]*loadingState
	searches  map[*html.Node]*eventloop.Debouncer[*html.Node]
	filters   map[*html.Node]*eventloop.Debouncer[*html.Node]
	backToTop *feedback.ScrollVisibility
	offset    int
}

// Load parses markup from r and binds it.
func Load(r io.Reader, opts ...Option) (*Page, error) {
	doc, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return New(doc, opts...)
}

// New binds every form and enhancement in doc.
func New(doc *dom.Document, opts ...Option) (*Page, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	o := options{cfg: config.Default(), logger: logr.Discard()}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	loop := o.loop
	if loop == nil {
		loopOpts := []eventloop.Option{eventloop.WithLogger(o.logger.WithName("loop"))}
		if o.clock != nil {
			loopOpts = append(loopOpts, eventloop.WithClock(o.clock))
		}
		loop = eventloop.New(loopOpts...)
	}

	engineOpts := append(o.cfg.EngineOptions(), validation.WithLogger(o.logger.WithName("validation")))
	engine, err := validation.NewEngine(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("page: %w", err)
	}

	palette := o.palette
	if palette == nil {
		palette = o.cfg.Palette()
	}

	p := &Page{
		doc:    doc,
		cfg:    o.cfg,
		loop:   loop,
		logger: o.logger,
		engine: engine,
		scheduler: feedback.NewScheduler(loop, doc,
			feedback.WithConfig(o.cfg.Feedback()),
			feedback.WithPalette(palette),
			feedback.WithLogger(o.logger.WithName("feedback")),
		),
		confirmer: o.confirmer,
		submitter: o.submitter,
		onSearch:  o.onSearch,
		onFilter:  o.onFilter,
		counters:  make(map[*html.Node]*feedback.Counter),
		toggles:   make(map[*html.Node]*html.Node),
		files:     make(map[*html.Node]*fileBinding),
		loading:   make(map[*html.Node]*loadingState),
		searches:  make(map[*html.Node]*eventloop.Debouncer[*html.Node]),
		filters:   make(map[*html.Node]*eventloop.Debouncer[*html.Node]),
	}
	p.bind()
	return p, nil
}

func (p *Page) bind() {
	feedback.InstallStyles(p.doc)

	// Forms are bound before any enhancement rewraps controls so each
	// control keeps its original container and kind.
	for _, node := range p.doc.Find("//form") {
		p.forms = append(p.forms, validation.BindForm(node, p.cfg.Validation.ConfirmPairs))
	}
	for _, textarea := range p.doc.Find("//textarea[@maxlength]") {
		if c := p.scheduler.BindCounter(textarea, 0); c != nil {
			p.counters[textarea] = c
		}
	}
	adopted := p.scheduler.AdoptAll()

	p.bindPasswordToggles()
	p.bindFileInputs()
	p.bindBackToTop()
	p.bindQueries()

	p.logger.V(1).Info("page bound",
		"forms", len(p.forms),
		"counters", len(p.counters),
		"flashes", len(adopted),
		"toggles", len(p.toggles),
		"files", len(p.files),
	)
}

// Document returns the bound document.
func (p *Page) Document() *dom.Document {
	return p.doc
}

// Loop returns the event loop driving timers.
func (p *Page) Loop() *eventloop.Loop {
	return p.loop
}

// Engine returns the validation engine.
func (p *Page) Engine() *validation.Engine {
	return p.engine
}

// Scheduler returns the feedback scheduler.
func (p *Page) Scheduler() *feedback.Scheduler {
	return p.scheduler
}

// Config returns the effective configuration.
func (p *Page) Config() config.Config {
	return p.cfg
}

// Forms lists bound forms in document order.
func (p *Page) Forms() []*validation.Form {
	return append([]*validation.Form(nil), p.forms...)
}

// Form finds a bound form by its id, name or action attribute.
func (p *Page) Form(id string) *validation.Form {
	for _, f := range p.forms {
		if f.ID == id {
			return f
		}
	}
	return nil
}

// Counter returns the counter bound to textarea.
func (p *Page) Counter(textarea *html.Node) *feedback.Counter {
	return p.counters[textarea]
}

// Render writes the current document.
func (p *Page) Render(w io.Writer) error {
	return p.doc.Render(w)
}

// Notify is the page-wide notification function exposed to other scripts.
func (p *Page) Notify(message, severity string) *feedback.Notice {
	return p.scheduler.Notify(message, severity)
}

// NotifyHTML is Notify for a message a host received as markup, for example
// an error fragment returned by an XHR endpoint. Only its text is shown.
func (p *Page) NotifyHTML(markup, severity string) *feedback.Notice {
	return p.scheduler.ShowHTML(markup, feedback.ParseSeverity(severity), p.cfg.Notices.NotifyTTL)
}

// ApplyServerErrors renders a server-side error payload into form: field
// messages become annotations and form-level messages become error notices.
func (p *Page) ApplyServerErrors(form *validation.Form, payload map[string][]string) []*feedback.Notice {
	if form == nil {
		return nil
	}
	var notices []*feedback.Notice
	for _, message := range p.engine.ApplyServerErrors(form, payload) {
		notices = append(notices, p.scheduler.ShowNotice(message, feedback.SeverityDanger, 0))
	}
	return notices
}

func (p *Page) formFor(node *html.Node) *validation.Form {
	formNode := dom.Closest(node, "form")
	for _, f := range p.forms {
		if f.Node == formNode {
			return f
		}
	}
	return nil
}

func (p *Page) controlFor(node *html.Node) *validation.Control {
	if f := p.formFor(node); f != nil {
		return f.ControlFor(node)
	}
	return nil
}
