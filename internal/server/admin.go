package server

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/config"
	"github.com/Zachkp/portfolio/internal/db"
	"github.com/Zachkp/portfolio/internal/theme"
)

const (
	adminCookie      = "admin_token"
	recentLimit      = 50
	visitorPageLimit = 200
)

// AdminStats is the dashboard summary.
type AdminStats struct {
	db.VisitCounts
	TotalMessages  int64        `json:"total_messages"`
	FailedMessages int64        `json:"failed_messages"`
	DarkThemes     int64        `json:"dark_themes"`
	LightThemes    int64        `json:"light_themes"`
	RecentVisitors []db.Visit   `json:"recent_visitors"`
	RecentMessages []db.Message `json:"recent_messages"`
}

// adminAuth holds the per-process session token and the salt used to hash
// client addresses. Both change on every restart.
type adminAuth struct {
	token    string
	salt     string
	username string
	password string
}

func newAdminAuth(cfg config.AdminConfig, log *slog.Logger) (*adminAuth, error) {
	token, err := randomHex()
	if err != nil {
		return nil, fmt.Errorf("generating admin token: %w", err)
	}
	salt, err := randomHex()
	if err != nil {
		return nil, fmt.Errorf("generating hashing salt: %w", err)
	}
	a := &adminAuth{token: token, salt: salt, username: cfg.Username, password: cfg.Password}

	// Development defaults; release builds must configure credentials.
	if gin.Mode() == gin.DebugMode {
		if a.username == "" {
			a.username = "admin"
			log.Warn("using default admin username; set admin.username")
		}
		if a.password == "" {
			a.password = "admin123"
			log.Warn("using default admin password; set admin.password")
		}
		log.Debug("admin session token", "token", token)
	}
	if !a.enabled() {
		log.Warn("admin console disabled: admin.username and admin.password are not set")
	}
	return a, nil
}

func randomHex() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func (a *adminAuth) enabled() bool {
	return a.username != "" && a.password != ""
}

// check compares credentials in constant time.
func (a *adminAuth) check(username, password string) bool {
	if !a.enabled() {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password)) == 1
	return userOK && passOK
}

// hashIP returns a salted, truncated hash so raw addresses are never stored.
func (a *adminAuth) hashIP(ip string) string {
	sum := sha256.Sum256([]byte(ip + a.salt))
	return hex.EncodeToString(sum[:])[:16]
}

func (s *Server) adminAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(adminCookie)
		if err != nil || subtle.ConstantTimeCompare([]byte(token), []byte(s.admin.token)) != 1 {
			c.Redirect(http.StatusFound, "/admin/login")
			c.Abort()
			return
		}
		c.Next()
	}
}

// visitorTracking records page views with a hashed client address. Static
// assets, the admin console and DNT requests are skipped.
func (s *Server) visitorTracking() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if c.Request.Method != http.MethodGet ||
			strings.HasPrefix(path, "/static/") ||
			strings.HasPrefix(path, "/admin") ||
			strings.HasPrefix(path, "/favicon") ||
			path == "/ws" ||
			c.GetHeader("DNT") == "1" {
			c.Next()
			return
		}

		err := s.db.RecordVisit(c.Request.Context(), s.admin.hashIP(c.ClientIP()), c.GetHeader("User-Agent"), path, s.now())
		if err != nil {
			s.log.Error("recording visitor", "error", err)
		}
		c.Next()
	}
}

// cleanupVisitors removes visitor rows older than the retention window.
func (s *Server) cleanupVisitors(ctx context.Context) (int64, error) {
	if s.cfg.Server.Retention <= 0 {
		return 0, nil
	}
	removed, err := s.db.PruneVisits(ctx, s.now().Add(-s.cfg.Server.Retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.log.Info("privacy cleanup removed old visitor records", "removed", removed)
	}
	return removed, nil
}

// retentionLoop prunes visitor rows at startup and daily afterwards.
func (s *Server) retentionLoop(ctx context.Context) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()
	for {
		if _, err := s.cleanupVisitors(ctx); err != nil {
			s.log.Error("cleaning up visitor data", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) adminStats(ctx context.Context) (*AdminStats, error) {
	stats := &AdminStats{}
	var err error

	if stats.VisitCounts, err = s.db.CountVisits(ctx, s.now()); err != nil {
		return nil, err
	}
	if stats.TotalMessages, stats.FailedMessages, err = s.db.CountMessages(ctx); err != nil {
		return nil, err
	}
	themes, err := theme.Counts(ctx, s.db)
	if err != nil {
		return nil, err
	}
	stats.DarkThemes = themes[theme.Dark]
	stats.LightThemes = themes[theme.Light]

	if stats.RecentVisitors, err = s.db.RecentVisits(ctx, recentLimit); err != nil {
		return nil, err
	}
	if stats.RecentMessages, err = s.db.RecentMessages(ctx, recentLimit); err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Server) setupAdminRoutes(r *gin.Engine) {
	r.GET("/admin/login", func(c *gin.Context) {
		c.HTML(http.StatusOK, "admin-login.html", gin.H{"title": "Admin Login"})
	})

	r.POST("/admin/login", func(c *gin.Context) {
		who := s.admin.hashIP(c.ClientIP())
		if !s.admin.check(c.PostForm("username"), c.PostForm("password")) {
			s.log.Warn("failed admin login", "client", who)
			c.HTML(http.StatusUnauthorized, "admin-login.html", gin.H{
				"title": "Admin Login",
				"error": "Invalid credentials",
			})
			return
		}
		c.SetSameSite(http.SameSiteStrictMode)
		c.SetCookie(adminCookie, s.admin.token, 24*60*60, "/admin", "", false, true)
		s.log.Info("admin login", "client", who)
		c.Redirect(http.StatusFound, "/admin/dashboard")
	})

	r.GET("/admin/logout", func(c *gin.Context) {
		c.SetCookie(adminCookie, "", -1, "/admin", "", false, true)
		s.log.Info("admin logout", "client", s.admin.hashIP(c.ClientIP()))
		c.Redirect(http.StatusFound, "/admin/login")
	})

	admin := r.Group("/admin")
	admin.Use(s.adminAuthMiddleware())

	admin.GET("/dashboard", func(c *gin.Context) {
		stats, err := s.adminStats(c.Request.Context())
		if err != nil {
			s.log.Error("loading admin stats", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load statistics"})
			return
		}
		c.HTML(http.StatusOK, "admin-dashboard.html", gin.H{"stats": stats})
	})

	admin.GET("/api/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	admin.GET("/visitors", func(c *gin.Context) {
		visitors, err := s.db.RecentVisits(c.Request.Context(), visitorPageLimit)
		if err != nil {
			s.log.Error("loading visitors", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load visitors"})
			return
		}
		c.HTML(http.StatusOK, "admin-visitors.html", gin.H{"visitors": visitors})
	})

	admin.GET("/messages", func(c *gin.Context) {
		messages, err := s.db.RecentMessages(c.Request.Context(), visitorPageLimit)
		if err != nil {
			s.log.Error("loading contact messages", "error", err)
			c.HTML(http.StatusInternalServerError, "admin-error.html", gin.H{"error": "Failed to load messages"})
			return
		}
		c.HTML(http.StatusOK, "admin-messages.html", gin.H{"messages": messages})
	})

	admin.POST("/privacy/cleanup", func(c *gin.Context) {
		removed, err := s.cleanupVisitors(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Privacy cleanup complete", "removed": removed})
	})

	admin.GET("/export/stats", func(c *gin.Context) {
		stats, err := s.adminStats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.Header("Content-Disposition", "attachment; filename=admin-stats.json")
		s.log.Info("admin stats exported", "client", s.admin.hashIP(c.ClientIP()))
		c.JSON(http.StatusOK, stats)
	})
}
