// Package content loads the portfolio's copy from YAML and renders its
// Markdown fields to HTML.
package content

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"os"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSite []byte

type Skill struct {
	Name  string `yaml:"name"`
	Level int    `yaml:"level"`
}

type SkillGroup struct {
	Title  string  `yaml:"title"`
	ID     string  `yaml:"id"`
	Skills []Skill `yaml:"skills"`
}

type Experience struct {
	Title       string `yaml:"title"`
	Company     string `yaml:"company"`
	Period      string `yaml:"period"`
	Description string `yaml:"description"`
}

type Project struct {
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Tech        []string      `yaml:"tech"`
	Demo        string        `yaml:"demo"`
	Code        string        `yaml:"code"`
	Image       string        `yaml:"image"`
	HTML        template.HTML `yaml:"-"`
}

type ContactItem struct {
	Icon  string `yaml:"icon"`
	Label string `yaml:"label"`
	Value string `yaml:"value"`
}

type Social struct {
	Name string `yaml:"name"`
	Href string `yaml:"href"`
}

// Site is everything the page template shows apart from live state.
type Site struct {
	Name        string        `yaml:"name"`
	Role        string        `yaml:"role"`
	Tagline     string        `yaml:"tagline"`
	About       string        `yaml:"about"`
	AboutHTML   template.HTML `yaml:"-"`
	SkillGroups []SkillGroup  `yaml:"skill_groups"`
	Tools       []string      `yaml:"tools"`
	Experience  []Experience  `yaml:"experience"`
	Projects    []Project     `yaml:"projects"`
	ContactInfo []ContactItem `yaml:"contact_info"`
	Socials     []Social      `yaml:"socials"`
}

// Default returns the embedded site content.
func Default() (*Site, error) {
	return Parse(defaultSite)
}

// LoadFile reads site content from path.
func LoadFile(path string) (*Site, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading content %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML content and renders its Markdown fields.
func Parse(data []byte) (*Site, error) {
	var site Site
	if err := yaml.Unmarshal(data, &site); err != nil {
		return nil, fmt.Errorf("decoding content: %w", err)
	}
	if site.Name == "" {
		return nil, errors.New("content: name is required")
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var err error
	if site.AboutHTML, err = render(md, site.About); err != nil {
		return nil, fmt.Errorf("rendering about: %w", err)
	}
	for i := range site.Projects {
		p := &site.Projects[i]
		if p.HTML, err = render(md, p.Description); err != nil {
			return nil, fmt.Errorf("rendering project %q: %w", p.Title, err)
		}
		if p.Code == "" {
			p.Code = "#"
		}
	}
	for _, g := range site.SkillGroups {
		for _, s := range g.Skills {
			if s.Level < 0 || s.Level > 100 {
				return nil, fmt.Errorf("content: skill %q level %d out of range", s.Name, s.Level)
			}
		}
	}
	return &site, nil
}

// RevealIDs lists the element ids the page tags for reveal-on-scroll, in
// page order.
func (s *Site) RevealIDs() []string {
	ids := []string{"about-title", "about-content", "skills-title"}
	for _, g := range s.SkillGroups {
		ids = append(ids, g.ID)
	}
	if len(s.Tools) > 0 {
		ids = append(ids, "tools-tech")
	}
	for i := range s.Experience {
		ids = append(ids, fmt.Sprintf("exp-%d", i))
	}
	ids = append(ids, "projects-title")
	for i := range s.Projects {
		ids = append(ids, fmt.Sprintf("project-%d", i))
	}
	return append(ids, "contact-title", "contact-info", "contact-form")
}

func render(md goldmark.Markdown, src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}
