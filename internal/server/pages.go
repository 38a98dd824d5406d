package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Zachkp/portfolio/internal/contact"
	"github.com/Zachkp/portfolio/internal/content"
	"github.com/Zachkp/portfolio/internal/scrollspy"
	"github.com/Zachkp/portfolio/internal/theme"
)

type navItem struct {
	ID    scrollspy.SectionID
	Label string
}

var navLabels = map[scrollspy.SectionID]string{
	scrollspy.Home:     "Home",
	scrollspy.About:    "About",
	scrollspy.Skills:   "Skills",
	scrollspy.Projects: "Projects",
	scrollspy.Contact:  "Contact",
}

func navItems() []navItem {
	items := make([]navItem, 0, len(scrollspy.Sections))
	for _, id := range scrollspy.Sections {
		items = append(items, navItem{ID: id, Label: navLabels[id]})
	}
	return items
}

// formView feeds the contact-form template.
type formView struct {
	Draft   contact.Draft
	Error   string
	Success string
}

func (s *Server) themeStore(c *gin.Context) *theme.Store {
	storage := theme.NewSQLiteStorage(s.db, currentVisitor(c))
	return theme.Load(c.Request.Context(), storage, s.log)
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{
		"Site":      s.site,
		"Theme":     s.themeStore(c).Current(),
		"Nav":       navItems(),
		"Active":    scrollspy.Home,
		"Particles": content.Particles(content.ParticleCount, nil),
		"RevealIDs": s.site.RevealIDs(),
		"Form":      formView{Draft: s.savedDraft(currentVisitor(c))},
		"Year":      s.now().Year(),
	})
}

func (s *Server) handleTheme(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"theme": s.themeStore(c).Current()})
}

func (s *Server) handleThemeToggle(c *gin.Context) {
	store := s.themeStore(c)
	p, err := store.Toggle(c.Request.Context())
	if err != nil {
		s.log.Error("persisting theme", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"theme": store.Current(),
			"error": "could not save theme preference",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": p})
}

func (s *Server) handlePrivacy(c *gin.Context) {
	c.HTML(http.StatusOK, "privacy.html", gin.H{
		"title":     "Privacy Policy",
		"theme":     theme.Default,
		"retention": humanDuration(s.cfg.Server.Retention),
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	if err := s.db.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func humanDuration(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	switch {
	case d <= 0:
		return ""
	case days >= 365 && days%365 == 0:
		return fmt.Sprintf("%d months", days/365*12)
	case days >= 1:
		return fmt.Sprintf("%d days", days)
	default:
		return d.String()
	}
}
