// Package server serves the portfolio page, its live view sessions, the
// contact form and the admin console.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/db"
	"github.com/Zachkp/portfolio/internal/typing"
	"github.com/Zachkp/portfolio/web"
)

const (
	visitorCookie = "visitor_id"
	visitorKey    = "visitor_id"
	cookieMaxAge  = 365 * 24 * 60 * 60
)

// Options wires a Server to its dependencies.
type Options struct {
	Config *config.Config
	DB     *db.DB
	Site   *content.Site
	// Sender delivers contact messages. Nil uses the configured provider.
	Sender contact.Sender
	// Scheduler drives typing animations. Nil uses real timers.
	Scheduler typing.Scheduler
	Logger    *slog.Logger
	// Now is the clock for visitor records. Nil uses time.Now.
	Now func() time.Time
}

// Server is the site's HTTP front end.
type Server struct {
	cfg    *config.Config
	db     *db.DB
	site   *content.Site
	sender contact.Sender
	creds  contact.Credentials
	sched  typing.Scheduler
	log    *slog.Logger
	now    func() time.Time

	engine   *gin.Engine
	admin    *adminAuth
	upgrader websocket.Upgrader

	gates *gateRegistry

	// ctx is cancelled by Close to end hijacked websocket connections,
	// which http.Server.Shutdown does not track.
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds the gin engine and registers every route.
func New(opts Options) (*Server, error) {
	if opts.Config == nil {
		return nil, errors.New("server: config is required")
	}
	if opts.DB == nil {
		return nil, errors.New("server: database is required")
	}
	if opts.Site == nil {
		return nil, errors.New("server: site content is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Sender == nil {
		opts.Sender = opts.Config.Sender()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:    opts.Config,
		db:     opts.DB,
		site:   opts.Site,
		sender: opts.Sender,
		creds:  opts.Config.Credentials(),
		sched:  opts.Scheduler,
		log:    opts.Logger,
		now:    opts.Now,
		ctx:    ctx,
		cancel: cancel,
	}
	ttl, maxDrafts := opts.Config.Contact.DraftTTL, opts.Config.Contact.MaxDrafts
	if ttl <= 0 {
		ttl = time.Hour
	}
	if maxDrafts <= 0 {
		maxDrafts = 1024
	}
	s.gates = newGateRegistry(ttl, maxDrafts, opts.Now,
		func(visitor string) *contact.Gate {
			return contact.NewGate(s.sender, s.creds, s.log.With("visitor", visitor))
		})
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	admin, err := newAdminAuth(opts.Config.Admin, opts.Logger)
	if err != nil {
		cancel()
		return nil, err
	}
	s.admin = admin

	if !s.creds.Complete() {
		s.log.Warn("contact form delivery credentials are not configured; submissions will fail")
	}

	if err := s.buildEngine(); err != nil {
		cancel()
		return nil, err
	}
	return s, nil
}

func (s *Server) buildEngine() error {
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	r.GET("/healthz", s.handleHealth)
	r.GET("/privacy", s.handlePrivacy)

	pages := r.Group("/")
	if s.cfg.Server.TrackVisitors {
		pages.Use(s.visitorTracking())
	}
	pages.Use(s.visitorID())
	pages.GET("/", s.handleIndex)
	pages.GET("/theme", s.handleTheme)
	pages.POST("/theme", s.handleThemeToggle)
	pages.GET("/contact-form", s.handleContactForm)
	pages.POST("/contact", s.handleContact)
	pages.GET("/ws", s.handleWS)

	s.setupAdminRoutes(r)
	s.engine = r
	return nil
}

// Handler returns the HTTP handler serving every route.
func (s *Server) Handler() http.Handler { return s.engine }

// Run listens on the configured address until ctx is done, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	if s.cfg.Server.TrackVisitors {
		go s.retentionLoop(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("portfolio server listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	s.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// Close ends every open view session.
func (s *Server) Close() {
	s.cancel()
}

// requestLogger logs each request once it completes.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if strings.HasPrefix(c.Request.URL.Path, "/static/") {
			level = slog.LevelDebug
		}
		s.log.Log(c.Request.Context(), level, "request completed",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// visitorID issues the visitor_id cookie that scopes preferences and the
// contact draft.
func (s *Server) visitorID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := c.Cookie(visitorCookie)
		if err != nil || uuid.Validate(id) != nil {
			id = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(visitorCookie, id, cookieMaxAge, "/", "", false, true)
		}
		c.Set(visitorKey, id)
		c.Next()
	}
}

func currentVisitor(c *gin.Context) string {
	return c.GetString(visitorKey)
}
