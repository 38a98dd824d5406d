package web

import (
	"io/fs"
	"testing"
)

func TestTemplatesParse(t *testing.T) {
	tmpl, err := Templates()
	if err != nil {
		t.Fatalf("Templates: %v", err)
	}
	for _, name := range []string{
		"index.html", "contact.html", "contact-success.html", "contact-error.html",
		"contact-form", "privacy.html", "admin-login.html", "admin-dashboard.html",
		"admin-visitors.html", "admin-messages.html", "admin-error.html", "admin-nav",
	} {
		if tmpl.Lookup(name) == nil {
			t.Errorf("template %q not defined", name)
		}
	}
}

func TestStatic(t *testing.T) {
	for _, name := range []string{"app.js", "style.css"} {
		if _, err := fs.Stat(Static(), name); err != nil {
			t.Errorf("static %s: %v", name, err)
		}
	}
}
