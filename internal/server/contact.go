package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/db"
)

const (
	msgSent          = "Thank you for your message! I'll get back to you soon."
	msgFailed        = "Sorry, there was an error sending your message. Please try again later."
	msgNotConfigured = "The contact form is not set up yet. Please reach out through one of the links on this page."
	msgMissing       = "Please fill in your name, email, subject and message."
	msgInFlight      = "Your previous message is still being sent."
)

// savedDraft returns the draft kept from a failed submission, if any.
func (s *Server) savedDraft(visitor string) contact.Draft {
	if g, ok := s.gates.lookup(visitor); ok {
		return g.Draft()
	}
	return contact.Draft{}
}

// handleContactForm dismisses any finished submission and renders the form
// with whatever draft is kept.
func (s *Server) handleContactForm(c *gin.Context) {
	view := formView{}
	if g, ok := s.gates.lookup(currentVisitor(c)); ok {
		g.Dismiss()
		view.Draft = g.Draft()
	}
	c.HTML(http.StatusOK, "contact.html", view)
}

func (s *Server) handleContact(c *gin.Context) {
	visitor := currentVisitor(c)

	var draft contact.Draft
	if err := c.ShouldBind(&draft); err != nil {
		c.HTML(http.StatusBadRequest, "contact-error.html", formView{Draft: s.savedDraft(visitor), Error: msgMissing})
		return
	}

	g := s.gates.acquire(visitor)
	err := g.SubmitDraft(c.Request.Context(), draft)
	if errors.Is(err, contact.ErrInFlight) {
		c.HTML(http.StatusTooManyRequests, "contact-error.html", formView{Draft: draft, Error: msgInFlight})
		return
	}
	s.recordMessage(c.Request.Context(), draft, err)
	s.gates.release(visitor, g)

	if err != nil {
		view := formView{Draft: g.Draft(), Error: msgFailed}
		switch {
		case errors.Is(err, contact.ErrNotConfigured):
			view.Error = msgNotConfigured
		case errors.Is(err, contact.ErrMissingFields):
			view.Error = msgMissing
		}
		c.HTML(http.StatusOK, "contact-error.html", view)
		return
	}
	c.HTML(http.StatusOK, "contact-success.html", formView{Success: msgSent})
}

// recordMessage stores the attempt for the admin console. Storage errors are
// logged and do not change what the visitor sees.
func (s *Server) recordMessage(ctx context.Context, d contact.Draft, sendErr error) {
	m := db.Message{
		ID:        uuid.NewString(),
		Name:      d.Name,
		Email:     d.Email,
		Subject:   d.Subject,
		Message:   d.Message,
		Status:    db.MessageSuccess,
		CreatedAt: s.now(),
	}
	if sendErr != nil {
		m.Status = db.MessageFailed
		m.Error = sendErr.Error()
	}
	if err := s.db.InsertMessage(context.WithoutCancel(ctx), m); err != nil {
		s.log.Error("recording contact message", "error", err)
	}
}
