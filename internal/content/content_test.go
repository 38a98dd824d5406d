package content

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
)

func TestDefault(t *testing.T) {
	site, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if site.Name == "" || site.Role == "" {
		t.Fatalf("name/role missing: %+v", site)
	}
	if !strings.Contains(string(site.AboutHTML), "<strong>Computer Science</strong>") {
		t.Fatalf("about not rendered as markdown: %s", site.AboutHTML)
	}
	if len(site.Projects) == 0 {
		t.Fatal("no projects")
	}
	for _, p := range site.Projects {
		if !strings.HasPrefix(string(p.HTML), "<p>") {
			t.Errorf("project %q html = %q", p.Title, p.HTML)
		}
		if p.Code != "#" {
			t.Errorf("project %q code = %q, want placeholder", p.Title, p.Code)
		}
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"no name", "role: dev\n"},
		{"bad yaml", "name: [\n"},
		{"level out of range", "name: x\nskill_groups:\n  - id: g\n    skills:\n      - { name: Go, level: 120 }\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "site.yaml")
	if err := os.WriteFile(path, []byte("name: Zach\nrole: Go developer\nabout: Hi *there*\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	site, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if site.Role != "Go developer" {
		t.Fatalf("role = %q", site.Role)
	}
	if !strings.Contains(string(site.AboutHTML), "<em>there</em>") {
		t.Fatalf("about = %s", site.AboutHTML)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestRevealIDs(t *testing.T) {
	site, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	ids := site.RevealIDs()
	seen := make(map[string]bool)
	for _, id := range ids {
		if seen[id] {
			t.Fatalf("duplicate reveal id %q", id)
		}
		seen[id] = true
	}
	for _, want := range []string{"about-title", "tech-skills", "tools-tech", "exp-1", "project-0", "contact-form"} {
		if !seen[want] {
			t.Errorf("missing reveal id %q", want)
		}
	}
}

func TestParticles(t *testing.T) {
	ps := Particles(ParticleCount, rand.New(rand.NewPCG(1, 2)))
	if len(ps) != ParticleCount {
		t.Fatalf("len = %d", len(ps))
	}
	for _, p := range ps {
		w, err := strconv.ParseFloat(strings.TrimSuffix(p.Width, "px"), 64)
		if err != nil || w < 2 || w > 6 {
			t.Fatalf("width %q out of range", p.Width)
		}
		d, err := strconv.ParseFloat(strings.TrimSuffix(p.Duration, "s"), 64)
		if err != nil || d < 10 || d > 20 {
			t.Fatalf("duration %q out of range", p.Duration)
		}
	}
	if len(Particles(3, nil)) != 3 {
		t.Fatal("nil rng not handled")
	}
}
