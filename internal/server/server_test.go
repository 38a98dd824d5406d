package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/db"
	"github.com/Zachkp/portfolio/internal/scrollspy"
	"github.com/Zachkp/portfolio/internal/typing"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

// idleScheduler never fires, so a view session only emits its first
// typing frame.
type idleScheduler struct{}

type idleTimer struct{}

func (idleTimer) Stop() bool { return true }

func (idleScheduler) AfterFunc(time.Duration, func()) typing.Timer { return idleTimer{} }

// recordingSender captures deliveries and can be made to block or fail.
type recordingSender struct {
	mu      sync.Mutex
	drafts  []contact.Draft
	err     error
	started chan struct{}
	release chan struct{}
}

func (r *recordingSender) Send(ctx context.Context, _ contact.Credentials, d contact.Draft) error {
	r.mu.Lock()
	r.drafts = append(r.drafts, d)
	started, release, err := r.started, r.release, r.err
	r.mu.Unlock()
	if started != nil {
		close(started)
	}
	if release != nil {
		<-release
	}
	return err
}

func (r *recordingSender) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.drafts)
}

type testEnv struct {
	srv    *Server
	db     *db.DB
	sender *recordingSender
}

func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Server.Mode = "test"
	cfg.Contact.ServiceID = "svc"
	cfg.Contact.TemplateID = "tpl"
	cfg.Contact.PublicKey = "pk"
	cfg.Admin = config.AdminConfig{Username: "owner", Password: "s3cret"}
	if mutate != nil {
		mutate(cfg)
	}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	site, err := content.Default()
	if err != nil {
		t.Fatalf("content.Default: %v", err)
	}

	sender := &recordingSender{}
	srv, err := New(Options{
		Config:    cfg,
		DB:        database,
		Site:      site,
		Sender:    sender,
		Scheduler: idleScheduler{},
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:       func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, db: database, sender: sender}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func cookieFrom(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("response has no %s cookie", name)
	return nil
}

func parseHTML(t *testing.T, body io.Reader) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		t.Fatalf("parsing HTML: %v", err)
	}
	return doc
}

func contactRequest(form url.Values, visitor *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if visitor != nil {
		req.AddCookie(visitor)
	}
	return req
}

func completeForm() url.Values {
	return url.Values{
		"name":    {"Ada"},
		"email":   {"ada@example.com"},
		"subject": {"Hello"},
		"message": {"Nice site"},
	}
}

func TestIndexRendersPage(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	cookie := cookieFrom(t, rec, visitorCookie)
	if cookie.Value == "" || !cookie.HttpOnly {
		t.Errorf("visitor cookie = %+v", cookie)
	}

	doc := parseHTML(t, rec.Body)
	if cls, _ := doc.Find("html").Attr("class"); cls != "dark" {
		t.Errorf("html class = %q, want dark", cls)
	}

	var sections []string
	doc.Find(".nav-link").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-section")
		sections = append(sections, id)
	})
	if got, want := strings.Join(sections, ","), "home,about,skills,projects,contact"; got != want {
		t.Errorf("nav = %s, want %s", got, want)
	}
	if active := doc.Find(".nav-link.active"); active.Length() != 1 || active.Text() != "Home" {
		t.Errorf("active nav = %d %q", active.Length(), active.Text())
	}
	for _, id := range scrollspy.Sections {
		if doc.Find("section#"+string(id)).Length() != 1 {
			t.Errorf("missing section %s", id)
		}
	}
	if n := doc.Find(".particle").Length(); n != content.ParticleCount {
		t.Errorf("particles = %d", n)
	}

	site, _ := content.Default()
	for _, id := range site.RevealIDs() {
		if doc.Find("#"+id+".reveal").Length() != 1 {
			t.Errorf("reveal element %q missing", id)
		}
	}
	var ids []string
	if err := json.Unmarshal([]byte(doc.Find("#reveal-ids").Text()), &ids); err != nil {
		t.Fatalf("reveal-ids: %v", err)
	}
	if len(ids) != len(site.RevealIDs()) {
		t.Errorf("reveal-ids = %d entries", len(ids))
	}
	form := doc.Find("#contact-form form")
	if v, _ := form.Attr("hx-disabled-elt"); v == "" {
		t.Error("contact form does not disable its submit button while sending")
	}
	if v, _ := form.Attr("hx-sync"); v != "this:drop" {
		t.Errorf("contact form hx-sync = %q", v)
	}
	if doc.Find("#typed-name").Length() != 1 || doc.Find("#typed-role").Length() != 1 {
		t.Error("typing targets missing")
	}
}

func TestVisitorCookieIsReused(t *testing.T) {
	env := newTestEnv(t, nil)
	first := cookieFrom(t, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)), visitorCookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(first)
	rec := env.do(t, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookie {
			t.Fatalf("cookie reissued: %q", c.Value)
		}
	}
}

func TestThemeTogglePersists(t *testing.T) {
	env := newTestEnv(t, nil)
	visitor := cookieFrom(t, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)), visitorCookie)

	req := httptest.NewRequest(http.MethodPost, "/theme", nil)
	req.AddCookie(visitor)
	rec := env.do(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle status = %d", rec.Code)
	}
	var body struct{ Theme string }
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil || body.Theme != "light" {
		t.Fatalf("toggle body = %s (%v)", rec.Body.String(), err)
	}

	// A reload by the same visitor renders light.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(visitor)
	doc := parseHTML(t, env.do(t, req).Body)
	if cls, _ := doc.Find("html").Attr("class"); cls != "light" {
		t.Errorf("html class after toggle = %q", cls)
	}

	// Someone else still gets the default.
	doc = parseHTML(t, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)).Body)
	if cls, _ := doc.Find("html").Attr("class"); cls != "dark" {
		t.Errorf("other visitor class = %q", cls)
	}

	req = httptest.NewRequest(http.MethodGet, "/theme", nil)
	req.AddCookie(visitor)
	if rec := env.do(t, req); !strings.Contains(rec.Body.String(), `"light"`) {
		t.Errorf("GET /theme = %s", rec.Body.String())
	}
}

func TestContactSuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, contactRequest(completeForm(), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	doc := parseHTML(t, rec.Body)
	if doc.Find(".alert.success").Length() != 1 {
		t.Fatalf("no success alert in %s", rec.Body.String())
	}
	if v, _ := doc.Find(`input[name="name"]`).Attr("value"); v != "" {
		t.Errorf("form not cleared: name = %q", v)
	}
	if env.sender.calls() != 1 {
		t.Fatalf("sender calls = %d", env.sender.calls())
	}
	if got := env.sender.drafts[0]; got.Email != "ada@example.com" || got.Subject != "Hello" {
		t.Errorf("delivered draft = %+v", got)
	}

	msgs, err := env.db.RecentMessages(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 1 || msgs[0].Status != db.MessageSuccess || msgs[0].Name != "Ada" {
		t.Errorf("recorded = %+v", msgs)
	}
}

func TestContactNotConfigured(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) { c.Contact.PublicKey = "" })
	rec := env.do(t, contactRequest(completeForm(), nil))
	doc := parseHTML(t, rec.Body)

	if !strings.Contains(doc.Find(".alert.error").Text(), "not set up") {
		t.Fatalf("error alert = %q", doc.Find(".alert.error").Text())
	}
	if v, _ := doc.Find(`input[name="email"]`).Attr("value"); v != "ada@example.com" {
		t.Errorf("draft not kept: email = %q", v)
	}
	if env.sender.calls() != 0 {
		t.Error("sender called without credentials")
	}
	msgs, _ := env.db.RecentMessages(context.Background(), 10)
	if len(msgs) != 1 || msgs[0].Status != db.MessageFailed {
		t.Errorf("recorded = %+v", msgs)
	}
}

func TestContactFailureKeepsDraftAcrossReload(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sender.err = errors.New("provider said no")
	visitor := cookieFrom(t, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)), visitorCookie)

	rec := env.do(t, contactRequest(completeForm(), visitor))
	doc := parseHTML(t, rec.Body)
	if !strings.Contains(doc.Find(".alert.error").Text(), "error sending") {
		t.Fatalf("error alert = %q", doc.Find(".alert.error").Text())
	}

	req := httptest.NewRequest(http.MethodGet, "/contact-form", nil)
	req.AddCookie(visitor)
	doc = parseHTML(t, env.do(t, req).Body)
	if doc.Find(".alert").Length() != 0 {
		t.Error("dismissed form still shows an alert")
	}
	if v := doc.Find(`textarea[name="message"]`).Text(); v != "Nice site" {
		t.Errorf("kept message = %q", v)
	}

	msgs, _ := env.db.RecentMessages(context.Background(), 10)
	if len(msgs) != 1 || msgs[0].Error == "" {
		t.Errorf("recorded = %+v", msgs)
	}
}

func TestContactMissingFields(t *testing.T) {
	env := newTestEnv(t, nil)
	form := completeForm()
	form.Set("subject", "")
	doc := parseHTML(t, env.do(t, contactRequest(form, nil)).Body)
	if !strings.Contains(doc.Find(".alert.error").Text(), "Please fill in") {
		t.Errorf("alert = %q", doc.Find(".alert.error").Text())
	}
	if env.sender.calls() != 0 {
		t.Error("sender called with missing fields")
	}
}

func TestContactSingleInFlight(t *testing.T) {
	env := newTestEnv(t, nil)
	env.sender.started = make(chan struct{})
	env.sender.release = make(chan struct{})
	visitor := cookieFrom(t, env.do(t, httptest.NewRequest(http.MethodGet, "/", nil)), visitorCookie)

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		env.srv.Handler().ServeHTTP(rec, contactRequest(completeForm(), visitor))
		first <- rec
	}()
	<-env.sender.started

	rec := env.do(t, contactRequest(completeForm(), visitor))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second submit status = %d, want 429", rec.Code)
	}

	close(env.sender.release)
	if r := <-first; r.Code != http.StatusOK || !strings.Contains(r.Body.String(), "Thank you") {
		t.Fatalf("first submit = %d %s", r.Code, r.Body.String())
	}
	if env.sender.calls() != 1 {
		t.Errorf("sender calls = %d", env.sender.calls())
	}
}

func TestContactGatesStayBounded(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config) {
		c.Contact.PublicKey = ""
		c.Contact.MaxDrafts = 8
	})
	for range 50 {
		env.do(t, contactRequest(completeForm(), nil))
	}
	if n := env.srv.gates.size(); n != 8 {
		t.Fatalf("gates after unconfigured posts = %d, want 8", n)
	}

	env.srv.creds = fullCreds
	env.sender.err = errors.New("provider said no")
	for range 50 {
		env.do(t, contactRequest(completeForm(), nil))
	}
	for range 50 {
		req := httptest.NewRequest(http.MethodPost, "/contact", nil)
		req.Header.Set("Content-Type", "application/json")
		if rec := env.do(t, req); rec.Code != http.StatusBadRequest {
			t.Fatalf("bodyless post status = %d", rec.Code)
		}
	}
	if n := env.srv.gates.size(); n > 8 {
		t.Fatalf("gates after failed posts = %d, want at most 8", n)
	}

	env.sender.err = nil
	before := env.srv.gates.size()
	env.do(t, contactRequest(completeForm(), nil))
	if n := env.srv.gates.size(); n > before {
		t.Errorf("successful post left a gate behind: %d -> %d", before, n)
	}
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Fatalf("healthz = %d %s", rec.Code, rec.Body.String())
	}
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, nil)
	for _, path := range []string{"/static/app.js", "/static/style.css"} {
		if rec := env.do(t, httptest.NewRequest(http.MethodGet, path, nil)); rec.Code != http.StatusOK {
			t.Errorf("%s = %d", path, rec.Code)
		}
	}
}

func TestPrivacyPage(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, httptest.NewRequest(http.MethodGet, "/privacy", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "12 months") {
		t.Fatalf("privacy = %d", rec.Code)
	}
}

func TestHumanDuration(t *testing.T) {
	tests := map[time.Duration]string{
		0:                    "",
		365 * 24 * time.Hour: "12 months",
		30 * 24 * time.Hour:  "30 days",
		90 * time.Minute:     "1h30m0s",
	}
	for d, want := range tests {
		if got := humanDuration(d); got != want {
			t.Errorf("humanDuration(%v) = %q, want %q", d, got, want)
		}
	}
}
