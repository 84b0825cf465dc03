package page_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/zoobzio/clockz"
	"golang.org/x/net/html"

	"github.com/goliatone/go-formguard/pkg/config"
	"github.com/goliatone/go-formguard/pkg/dom"
	"github.com/goliatone/go-formguard/pkg/feedback"
	"github.com/goliatone/go-formguard/pkg/page"
	"github.com/goliatone/go-formguard/pkg/validation"
)

const jobForm = `<html><head></head><body>
<div class="container">
  <form id="apply" method="post">
    <div class="form-group"><label for="id_name">Name</label><input id="id_name" name="name" type="text" required></div>
    <div class="form-group"><label for="id_email">Email</label><input id="id_email" name="email" type="email"></div>
    <div class="form-group"><textarea id="id_cover" name="cover" maxlength="100"></textarea></div>
    <button type="submit">Apply</button>
  </form>
</div>
</body></html>`

func load(t *testing.T, markup string, opts ...page.Option) (*page.Page, *clockz.FakeClock) {
	t.Helper()
	clock := clockz.NewFakeClock()
	p, err := page.Load(strings.NewReader(markup), append([]page.Option{page.WithClock(clock)}, opts...)...)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return p, clock
}

func advance(p *page.Page, clock *clockz.FakeClock, d time.Duration) {
	clock.Advance(d)
	p.Loop().RunDue()
}

func annotationTexts(p *page.Page) []string {
	var out []string
	for _, n := range p.Document().Find("//*[" + dom.ClassPredicate(validation.ClassAnnotation) + "]") {
		out = append(out, dom.Attr(n, validation.AttrAnnotationFor)+": "+dom.Text(n))
	}
	return out
}

func TestSubmit_VetoThenAllow(t *testing.T) {
	p, clock := load(t, jobForm)
	doc := p.Document()
	form := doc.ByID("apply")
	dom.SetValue(doc.ByID("id_email"), "bad")

	res := p.Submit(form)
	if res.Allowed {
		t.Fatalf("expected submit to be vetoed")
	}
	want := []string{
		"id_name: This field is required",
		"id_email: Please enter a valid email address",
	}
	if diff := cmp.Diff(want, annotationTexts(p)); diff != "" {
		t.Fatalf("annotations mismatch (-want +got):\n%s", diff)
	}
	if res.Notice == nil || res.Notice.Message != "Please fix the errors in the form" || res.Notice.Severity != feedback.SeverityDanger {
		t.Fatalf("expected veto notice, got %+v", res.Notice)
	}
	button := doc.FindOne("//button[@type='submit']")
	if p.Loading(button) {
		t.Fatalf("vetoed submit must not enter loading state")
	}

	dom.SetValue(doc.ByID("id_name"), "Ada")
	dom.SetValue(doc.ByID("id_email"), "ada@example.com")
	res = p.Submit(form)
	if !res.Allowed || !res.Report.Valid {
		t.Fatalf("expected submit to proceed, got %+v", res.Report)
	}
	if got := annotationTexts(p); len(got) != 0 {
		t.Fatalf("expected annotations cleared, got %v", got)
	}

	if !p.Loading(button) || dom.Text(button) != "Processing..." || !dom.HasAttr(button, "disabled") {
		t.Fatalf("expected loading state, got %s", dom.OuterHTML(button))
	}
	advance(p, clock, 10*time.Second)
	if p.Loading(button) || dom.Text(button) != "Apply" || dom.HasAttr(button, "disabled") {
		t.Fatalf("expected button restored, got %s", dom.OuterHTML(button))
	}
}

func TestInput_RevalidatesOnlyTarget(t *testing.T) {
	p, _ := load(t, jobForm)
	doc := p.Document()

	email := doc.ByID("id_email")
	dom.SetValue(email, "nope")
	res := p.Input(email)
	if res.Valid || res.Rule != validation.RuleEmail {
		t.Fatalf("expected email failure, got %+v", res)
	}
	if diff := cmp.Diff([]string{"id_email: Please enter a valid email address"}, annotationTexts(p)); diff != "" {
		t.Fatalf("annotations mismatch (-want +got):\n%s", diff)
	}

	p.Input(email)
	if got := len(annotationTexts(p)); got != 1 {
		t.Fatalf("expected one annotation after repeat, got %d", got)
	}
	if dom.Value(email) != "nope" {
		t.Fatalf("validation must not change the value")
	}
}

func TestInput_UpdatesCounter(t *testing.T) {
	p, _ := load(t, jobForm)
	cover := p.Document().ByID("id_cover")

	dom.SetValue(cover, strings.Repeat("x", 95))
	p.Input(cover)
	c := p.Counter(cover)
	if got := dom.Text(c.Readout()); got != "95 / 100" || c.Severity() != feedback.SeverityWarning {
		t.Fatalf("unexpected counter %q %s", got, c.Severity())
	}

	dom.SetValue(cover, strings.Repeat("x", 100))
	p.Input(cover)
	if got := dom.Text(c.Readout()); got != "100 / 100" || c.Severity() != feedback.SeverityDanger {
		t.Fatalf("unexpected counter %q %s", got, c.Severity())
	}
}

const registration = `<html><body>
<form id="register">
  <div class="form-group"><input id="id_password1" name="password1" type="password" required></div>
  <div class="form-group"><input id="id_password2" name="password2" type="password" required></div>
  <button type="submit">Register</button>
</form>
</body></html>`

func TestPasswordToggle_KeepsValidationKind(t *testing.T) {
	p, _ := load(t, registration)
	doc := p.Document()
	field := doc.ByID("id_password1")

	toggle := dom.FindOne(dom.ParentElement(field), ".//button")
	if toggle == nil || !dom.HasClass(dom.ParentElement(field), "password-field") {
		t.Fatalf("expected wrapped field with toggle")
	}
	if p.Click(toggle) {
		t.Fatalf("toggle click should not proceed")
	}
	if dom.Attr(field, "type") != "text" {
		t.Fatalf("expected plain text after toggle")
	}

	dom.SetValue(field, "short")
	if res := p.Input(field); res.Valid || res.Rule != validation.RulePassword {
		t.Fatalf("expected password rule to still apply, got %+v", res)
	}

	annotation := validation.Annotation(p.Form("register").Control("id_password1"))
	if annotation == nil || !dom.HasClass(dom.ParentElement(annotation), "form-group") {
		t.Fatalf("expected annotation in the original container")
	}

	p.Click(toggle)
	if dom.Attr(field, "type") != "password" {
		t.Fatalf("expected masked again")
	}
}

func TestConfirmPasswords(t *testing.T) {
	p, _ := load(t, registration)
	doc := p.Document()
	pw1, pw2 := doc.ByID("id_password1"), doc.ByID("id_password2")

	dom.SetValue(pw1, "correcthorse")
	dom.SetValue(pw2, "correcthorse ")
	if res := p.Input(pw2); !res.Valid {
		t.Fatalf("expected trimmed match to be valid, got %+v", res)
	}
	dom.SetValue(pw1, "correcthorse2")
	if res := p.Input(pw2); res.Valid || res.Message != "Passwords do not match" {
		t.Fatalf("expected mismatch, got %+v", res)
	}
}

func TestFocusBlur(t *testing.T) {
	p, _ := load(t, jobForm)
	name := p.Document().ByID("id_name")
	group := dom.ParentElement(name)

	p.Focus(name)
	if !dom.HasClass(group, "focused") {
		t.Fatalf("expected focused")
	}
	dom.SetValue(name, "Ada")
	p.Blur(name)
	if dom.HasClass(group, "focused") || !dom.HasClass(group, "filled") {
		t.Fatalf("unexpected classes %v", dom.Classes(group))
	}
	dom.SetValue(name, "")
	p.Blur(name)
	if dom.HasClass(group, "filled") {
		t.Fatalf("expected filled cleared")
	}
}

const actions = `<html><body>
<a id="del" href="/jobs/4/delete/">Delete</a>
<a id="plain" href="/jobs/4/">View</a>
<button id="custom" data-confirm="Withdraw application?">Withdraw</button>
<form><button id="danger" type="submit" class="btn btn-danger">Remove</button></form>
</body></html>`

func TestClick_ConfirmsDestructiveActions(t *testing.T) {
	var prompts []string
	answer := false
	p, _ := load(t, actions, page.WithConfirmer(page.ConfirmFunc(func(msg string) bool {
		prompts = append(prompts, msg)
		return answer
	})))
	doc := p.Document()

	if p.Click(doc.ByID("del")) {
		t.Fatalf("expected declined delete to be cancelled")
	}
	if !p.Click(doc.ByID("plain")) {
		t.Fatalf("expected plain link to proceed")
	}
	answer = true
	if !p.Click(doc.ByID("custom")) || !p.Click(doc.ByID("danger")) {
		t.Fatalf("expected confirmed actions to proceed")
	}

	want := []string{
		"Are you sure you want to delete this? This action cannot be undone.",
		"Withdraw application?",
		"Are you sure you want to delete this? This action cannot be undone.",
	}
	if diff := cmp.Diff(want, prompts); diff != "" {
		t.Fatalf("prompts mismatch (-want +got):\n%s", diff)
	}
}

func TestClick_WithoutConfirmerProceeds(t *testing.T) {
	p, _ := load(t, actions)
	if !p.Click(p.Document().ByID("del")) {
		t.Fatalf("expected action to proceed without a confirmer")
	}
}

func TestNotify_AndFlashLifecycle(t *testing.T) {
	p, clock := load(t, `<html><body><div class="container"><div class="message message-info">Welcome back</div></div></body></html>`)

	n := p.Notify("Job saved", "success")
	flashes := p.Scheduler().Active()
	if len(flashes) != 2 {
		t.Fatalf("expected flash and notice, got %d", len(flashes))
	}

	closeBtn := dom.FindOne(n.Node(), ".//button")
	if p.Click(closeBtn) {
		t.Fatalf("close click should not proceed")
	}
	advance(p, clock, 500*time.Millisecond)
	if n.State() != feedback.NoticeRemoved {
		t.Fatalf("expected dismissed notice removed, got %s", n.State())
	}

	advance(p, clock, 5*time.Second)
	advance(p, clock, time.Second)
	if len(p.Scheduler().Active()) != 0 {
		t.Fatalf("expected flash to auto-hide")
	}
}

func TestScroll_BackToTop(t *testing.T) {
	p, _ := load(t, jobForm)
	btn := p.Document().FindOne("//*[" + dom.ClassPredicate("back-to-top") + "]")
	if btn == nil {
		t.Fatalf("expected back-to-top control")
	}

	p.Scroll(301)
	if !dom.HasClass(btn, "visible") {
		t.Fatalf("expected visible past threshold")
	}
	if p.Click(btn) {
		t.Fatalf("back-to-top click should not proceed")
	}
	if p.Offset() != 0 || dom.HasClass(btn, "visible") {
		t.Fatalf("expected scroll reset to top")
	}
	if p.Loop().Pending() != 0 {
		t.Fatalf("scroll must not schedule timers")
	}
}

const listing = `<html><body>
<form class="search-form"><input name="q" type="search"></form>
<div class="filters"><form id="filters"><select name="type"><option value="">Any</option><option value="remote" selected>Remote</option></select></form></div>
</body></html>`

func TestSearch_Debounced(t *testing.T) {
	var queries []string
	p, clock := load(t, listing, page.WithSearch(func(_ *html.Node, values url.Values) {
		queries = append(queries, values.Get("q"))
	}))
	q := p.Document().FindOne("//input[@name='q']")

	for _, text := range []string{"g", "go", "gol", "gola"} {
		dom.SetValue(q, text)
		p.Input(q)
		advance(p, clock, 100*time.Millisecond)
	}
	if len(queries) != 0 {
		t.Fatalf("expected no search mid-burst, got %v", queries)
	}
	advance(p, clock, 300*time.Millisecond)
	if diff := cmp.Diff([]string{"gola"}, queries); diff != "" {
		t.Fatalf("queries mismatch (-want +got):\n%s", diff)
	}
}

func TestFilter_AutoSubmitOffByDefault(t *testing.T) {
	var filtered []string
	submitted := 0
	submitter := page.SubmitFunc(func(*html.Node) error {
		submitted++
		return nil
	})
	onFilter := page.WithFilter(func(_ *html.Node, values url.Values) {
		filtered = append(filtered, values.Get("type"))
	})

	p, clock := load(t, listing, page.WithSubmitter(submitter), onFilter)
	sel := p.Document().FindOne("//select")
	p.Change(sel)
	advance(p, clock, 500*time.Millisecond)
	if diff := cmp.Diff([]string{"remote"}, filtered); diff != "" {
		t.Fatalf("filter mismatch (-want +got):\n%s", diff)
	}
	if submitted != 0 {
		t.Fatalf("expected no auto-submit by default")
	}

	cfg := config.Default()
	cfg.Page.FilterAutoSubmit = true
	p, clock = load(t, listing, page.WithConfig(cfg), page.WithSubmitter(submitter))
	p.Change(p.Document().FindOne("//select"))
	advance(p, clock, 500*time.Millisecond)
	if submitted != 1 {
		t.Fatalf("expected one auto-submit, got %d", submitted)
	}
}

const upload = `<html><body><form id="company">
<div class="form-group"><input id="logo" name="logo" type="file" accept="image/*" data-label="Upload Company Logo"></div>
</form></body></html>`

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestSelectFile_PreviewIsAsync(t *testing.T) {
	p, _ := load(t, upload)
	doc := p.Document()
	input := doc.ByID("logo")
	label := doc.FindOne("//label")
	preview := doc.FindOne("//img")

	if dom.Text(label) != "Upload Company Logo" || dom.Style(preview, "display") != "none" {
		t.Fatalf("unexpected initial markup %s", doc.String())
	}

	p.SelectFile(input, &page.File{Name: "logo.png", Type: "image/png", Content: strings.NewReader("png")})
	if dom.Text(label) != "logo.png" || !dom.HasClass(label, "has-file") {
		t.Fatalf("expected label updated synchronously")
	}
	if dom.HasAttr(preview, "src") {
		t.Fatalf("expected preview to wait for the read")
	}

	p.Loop().RunDue()
	if got := dom.Attr(preview, "src"); got != "data:image/png;base64,cG5n" {
		t.Fatalf("unexpected src %q", got)
	}
	if dom.Style(preview, "display") != "block" {
		t.Fatalf("expected preview shown")
	}

	p.SelectFile(input, nil)
	if dom.Text(label) != "Upload Company Logo" || dom.HasClass(label, "has-file") || dom.HasAttr(preview, "src") {
		t.Fatalf("expected reset, got %s", dom.OuterHTML(dom.ParentElement(input)))
	}
}

func TestSelectFile_StaleAndFailedReads(t *testing.T) {
	p, _ := load(t, upload)
	doc := p.Document()
	input := doc.ByID("logo")
	preview := doc.FindOne("//img")

	p.SelectFile(input, &page.File{Name: "a.png", Type: "image/png", Content: strings.NewReader("a")})
	p.SelectFile(input, &page.File{Name: "b.png", Type: "image/png", Content: strings.NewReader("b")})
	p.Loop().RunDue()
	if got := dom.Attr(preview, "src"); got != "data:image/png;base64,Yg==" {
		t.Fatalf("expected latest selection to win, got %q", got)
	}

	p.SelectFile(input, &page.File{Name: "c.png", Type: "image/png", Content: failingReader{}})
	p.Loop().RunDue()
	if dom.HasAttr(preview, "src") {
		t.Fatalf("expected preview cleared after failed read")
	}
	active := p.Scheduler().Active()
	if len(active) != 1 || active[0].Message != "Could not read c.png" {
		t.Fatalf("expected error notice, got %d notices", len(active))
	}
}

func TestApplyServerErrors(t *testing.T) {
	p, _ := load(t, jobForm)
	notices := p.ApplyServerErrors(p.Form("apply"), map[string][]string{
		"email":   {"Already registered"},
		"__all__": {"Applications are closed"},
	})
	if diff := cmp.Diff([]string{"id_email: Already registered"}, annotationTexts(p)); diff != "" {
		t.Fatalf("annotations mismatch (-want +got):\n%s", diff)
	}
	if len(notices) != 1 || notices[0].Message != "Applications are closed" {
		t.Fatalf("expected form-level notice")
	}
}

func TestApplyServerErrors_ClearedOnUnconstrainedControl(t *testing.T) {
	p, _ := load(t, jobForm)
	doc := p.Document()
	form := p.Form("apply")

	p.ApplyServerErrors(form, map[string][]string{"cover": {"Cover letter looks copied"}})
	if diff := cmp.Diff([]string{"id_cover: Cover letter looks copied"}, annotationTexts(p)); diff != "" {
		t.Fatalf("annotations mismatch (-want +got):\n%s", diff)
	}

	cover := doc.ByID("id_cover")
	dom.SetValue(cover, "Rewritten from scratch")
	if res := p.Input(cover); !res.Valid {
		t.Fatalf("expected unconstrained control to be valid, got %+v", res)
	}
	if got := annotationTexts(p); len(got) != 0 {
		t.Fatalf("expected input to clear the server annotation, got %v", got)
	}

	p.ApplyServerErrors(form, map[string][]string{"cover": {"Cover letter looks copied"}})
	dom.SetValue(doc.ByID("id_name"), "Ada")
	res := p.Submit(form.Node)
	if !res.Allowed {
		t.Fatalf("expected submit allowed, got %+v", res.Report)
	}
	if got := annotationTexts(p); len(got) != 0 {
		t.Fatalf("expected submit to clear the server annotation, got %v", got)
	}
	if _, ok := res.Report.Results["id_cover"]; ok {
		t.Fatalf("expected unconstrained control left out of the report")
	}
}

func TestApplyServerErrors_FormLevelOrder(t *testing.T) {
	p, _ := load(t, jobForm)
	notices := p.ApplyServerErrors(p.Form("apply"), map[string][]string{
		"non_field_errors": {"Second"},
		"__all__":          {"First"},
		"zz.unknown":       {"Third"},
	})

	var got []string
	for _, n := range notices {
		got = append(got, n.Message)
	}
	if diff := cmp.Diff([]string{"First", "Second", "Third"}, got); diff != "" {
		t.Fatalf("notice order mismatch (-want +got):\n%s", diff)
	}
}

func TestNotifyHTML_ShowsTextOnly(t *testing.T) {
	p, _ := load(t, jobForm)

	literal := p.Notify("Use the <email> field", "warning")
	if literal.Message != "Use the <email> field" {
		t.Fatalf("expected literal message, got %q", literal.Message)
	}
	fragment := p.NotifyHTML(`<p>Saved <em>draft</em></p>`, "success")
	if fragment.Message != "Saved draft" || fragment.Severity != feedback.SeveritySuccess {
		t.Fatalf("unexpected notice %q %s", fragment.Message, fragment.Severity)
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Notices.WarningRatio = 3
	doc, err := dom.ParseString(jobForm)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := page.New(doc, page.WithConfig(cfg)); err == nil {
		t.Fatalf("expected config error")
	}
	if _, err := page.New(nil); !errors.Is(err, page.ErrNoDocument) {
		t.Fatalf("expected ErrNoDocument, got %v", err)
	}
}
