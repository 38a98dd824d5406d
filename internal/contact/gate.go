// Package contact forwards the contact form to a mail delivery provider,
// allowing at most one submission in flight.
package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
)

var (
	// ErrNotConfigured means a delivery credential is missing. No network
	// call is made.
	ErrNotConfigured = errors.New("contact: delivery credentials not configured")
	// ErrMissingFields means a required form field is empty.
	ErrMissingFields = errors.New("contact: required fields missing")
	// ErrInFlight means a submission is already being sent.
	ErrInFlight = errors.New("contact: submission already in flight")
	// ErrUnknownField is returned by SetField for names outside the form.
	ErrUnknownField = errors.New("contact: unknown field")
)

// Draft is the form as typed by the visitor.
type Draft struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

// Missing returns the names of required fields that are blank.
func (d Draft) Missing() []string {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", d.Name},
		{"email", d.Email},
		{"subject", d.Subject},
		{"message", d.Message},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}
	return missing
}

// IsZero reports whether every field is empty.
func (d Draft) IsZero() bool { return d == Draft{} }

// Params returns the template parameters sent to the provider.
func (d Draft) Params() map[string]string {
	return map[string]string{
		"name":       d.Name,
		"from_email": d.Email,
		"subject":    d.Subject,
		"message":    d.Message,
	}
}

// Status is the outcome of the latest submission.
type Status int

const (
	Idle Status = iota
	Sending
	Success
	Failed
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sending:
		return "sending"
	case Success:
		return "success"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Credentials identify the delivery endpoint, the message template and the
// key authorising the request.
type Credentials struct {
	ServiceID  string
	TemplateID string
	PublicKey  string
}

// Complete reports whether all three values are present.
func (c Credentials) Complete() bool {
	return c.ServiceID != "" && c.TemplateID != "" && c.PublicKey != ""
}

// Sender delivers one message.
type Sender interface {
	Send(ctx context.Context, creds Credentials, d Draft) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, creds Credentials, d Draft) error

func (f SenderFunc) Send(ctx context.Context, creds Credentials, d Draft) error {
	return f(ctx, creds, d)
}

// Gate owns one form draft and its submission status.
type Gate struct {
	sender Sender
	creds  Credentials
	log    *slog.Logger

	mu     sync.Mutex
	draft  Draft
	status Status
}

// NewGate returns an idle gate with an empty draft.
func NewGate(sender Sender, creds Credentials, log *slog.Logger) *Gate {
	if log == nil {
		log = slog.Default()
	}
	return &Gate{sender: sender, creds: creds, log: log}
}

// Status returns the current submission status.
func (g *Gate) Status() Status {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.status
}

// Draft returns a copy of the current draft.
func (g *Gate) Draft() Draft {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.draft
}

// SetDraft replaces the whole draft.
func (g *Gate) SetDraft(d Draft) {
	g.mu.Lock()
	g.draft = d
	g.mu.Unlock()
}

// SetField updates one field of the draft by its form name.
func (g *Gate) SetField(name, value string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch name {
	case "name":
		g.draft.Name = value
	case "email":
		g.draft.Email = value
	case "subject":
		g.draft.Subject = value
	case "message":
		g.draft.Message = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// Dismiss returns a finished submission to Idle. It does nothing while a
// submission is in flight.
func (g *Gate) Dismiss() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.status != Sending {
		g.status = Idle
	}
}

// Submit sends the current draft. The draft is cleared only when delivery
// succeeds; on any failure it is kept so the visitor can try again.
func (g *Gate) Submit(ctx context.Context) error {
	g.mu.Lock()
	if g.status == Sending {
		g.mu.Unlock()
		return ErrInFlight
	}
	return g.submitLocked(ctx)
}

// SubmitDraft replaces the draft with d and sends it. While a submission is
// in flight it returns ErrInFlight and leaves that submission's draft alone.
func (g *Gate) SubmitDraft(ctx context.Context, d Draft) error {
	g.mu.Lock()
	if g.status == Sending {
		g.mu.Unlock()
		return ErrInFlight
	}
	g.draft = d
	return g.submitLocked(ctx)
}

// submitLocked is called with g.mu held and releases it.
func (g *Gate) submitLocked(ctx context.Context) error {
	if !g.creds.Complete() {
		g.status = Failed
		g.mu.Unlock()
		g.log.Warn("contact submission rejected", "error", ErrNotConfigured)
		return ErrNotConfigured
	}
	if missing := g.draft.Missing(); len(missing) > 0 {
		g.status = Failed
		g.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	g.status = Sending
	draft := g.draft
	g.mu.Unlock()

	err := g.sender.Send(ctx, g.creds, draft)

	g.mu.Lock()
	defer g.mu.Unlock()
	if err != nil {
		g.status = Failed
		g.log.Error("contact delivery failed", "error", err, "from", draft.Email)
		return fmt.Errorf("delivering message: %w", err)
	}
	g.status = Success
	g.draft = Draft{}
	g.log.Info("contact message sent", "from", draft.Email, "subject", draft.Subject)
	return nil
}
