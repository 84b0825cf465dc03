package feedback

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/dom"
)

const (
	// ClassCounter marks a character counter readout.
	ClassCounter   = "char-counter"
	attrCounterFor = "data-counter-for"
)

// CounterSeverity grades a counter from scratch: danger once nothing
// remains, warning once length reaches warnRatio of max, info otherwise.
func CounterSeverity(length, max int, warnRatio float64) Severity {
	if max <= 0 {
		return SeverityInfo
	}
	switch {
	case max-length <= 0:
		return SeverityDanger
	case float64(length) >= warnRatio*float64(max):
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Counter is a live character readout bound to a textarea.
type Counter struct {
	scheduler *Scheduler
	field     *html.Node
	readout   *html.Node
	max       int
}

// BindCounter creates (or reuses) the readout that follows textarea. A
// non-positive max falls back to the field's maxlength attribute; nil is
// returned when neither yields a cap.
func (s *Scheduler) BindCounter(textarea *html.Node, max int) *Counter {
	if textarea == nil {
		return nil
	}
	if max <= 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(dom.Attr(textarea, "maxlength"))); err == nil {
			max = n
		}
	}
	if max <= 0 {
		return nil
	}

	key := dom.Attr(textarea, "id")
	if key == "" {
		key = dom.Attr(textarea, "name")
	}
	if key == "" {
		key = s.doc.NextID("counter-field")
		dom.SetAttr(textarea, "id", key)
	}

	readout := dom.ChildWithClass(textarea.Parent, ClassCounter, attrCounterFor, key)
	if readout == nil {
		readout = dom.CreateElement("div",
			dom.A("class", ClassCounter),
			dom.A(attrCounterFor, key),
			dom.A("aria-live", "polite"),
		)
		dom.InsertAfter(textarea, readout)
	}

	c := &Counter{scheduler: s, field: textarea, readout: readout, max: max}
	c.Update()
	return c
}

// Readout returns the readout element.
func (c *Counter) Readout() *html.Node {
	if c == nil {
		return nil
	}
	return c.readout
}

// Field returns the bound textarea.
func (c *Counter) Field() *html.Node {
	if c == nil {
		return nil
	}
	return c.field
}

// Max returns the nominal cap.
func (c *Counter) Max() int {
	if c == nil {
		return 0
	}
	return c.max
}

// Length counts the field value in UTF-16 code units, matching how browsers
// enforce maxlength.
func (c *Counter) Length() int {
	if c == nil {
		return 0
	}
	return len(utf16.Encode([]rune(dom.Value(c.field))))
}

// Remaining may be negative when the content exceeds the nominal cap.
func (c *Counter) Remaining() int {
	return c.Max() - c.Length()
}

// Severity is recomputed on every call.
func (c *Counter) Severity() Severity {
	if c == nil {
		return SeverityInfo
	}
	return CounterSeverity(c.Length(), c.max, c.scheduler.cfg.WarningRatio)
}

// Update re-renders the readout from the current field value.
func (c *Counter) Update() {
	if c == nil {
		return
	}
	length := c.Length()
	sev := CounterSeverity(length, c.max, c.scheduler.cfg.WarningRatio)

	dom.SetText(c.readout, fmt.Sprintf("%d / %d", length, c.max))
	for _, other := range []Severity{SeverityInfo, SeverityWarning, SeverityDanger} {
		dom.SetClass(c.readout, ClassCounter+"--"+string(other), other == sev)
	}
	dom.SetAttr(c.readout, "data-severity", string(sev))
	dom.SetAttr(c.readout, "data-remaining", fmt.Sprint(c.max-length))
	dom.SetStyle(c.readout, "color", c.scheduler.palette.Color(counterToken(sev)))
}
