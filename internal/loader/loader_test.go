package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

var errRenderUnavailable = errors.New("renderer unavailable")

func TestLooksLikeSPA(t *testing.T) {
	cases := []struct {
		name string
		html string
		want bool
	}{
		{"plain article", "<html><body><p>hello world</p></body></html>", false},
		{"react root div", `<div id="root"></div>`, true},
		{"next app div", `<div id="__next"></div>`, true},
		{"reactroot marker", `<div data-reactroot="">content</div>`, true},
		{"many scripts", repeatScripts(8), true},
		{"few scripts", repeatScripts(3), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LooksLikeSPA(tc.html); got != tc.want {
				t.Errorf("LooksLikeSPA(%q) = %v, want %v", tc.name, got, tc.want)
			}
		})
	}
}

func repeatScripts(n int) string {
	out := "<html><body>"
	for i := 0; i < n; i++ {
		out += "<script>console.log(1)</script>"
	}
	return out + "</body></html>"
}

func TestLoadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "note.txt")
	if err := os.WriteFile(path, []byte("  hello gateway  \n"), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	l := New(50, false, nil)
	text, err := l.LoadDocument(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello gateway" {
		t.Errorf("got %q, want trimmed content", text)
	}
}

func TestLoadDocument_MissingFile(t *testing.T) {
	l := New(50, false, nil)
	if _, err := l.LoadDocument("/nonexistent/path.txt"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadWebPage_StaticOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>Hello &amp; welcome</p></body></html>`))
	}))
	defer srv.Close()

	l := New(5, false, nil)
	text, err := l.LoadWebPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Hello & welcome" {
		t.Errorf("got %q", text)
	}
}

type fakeRenderer struct {
	html string
	err  error
}

func (f fakeRenderer) Render(context.Context, string) (string, error) {
	return f.html, f.err
}

func TestLoadWebPage_FallsBackWhenTooShort(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div id="root"></div>`))
	}))
	defer srv.Close()

	renderer := fakeRenderer{html: "<p>Fully rendered long-form article content</p>"}
	l := New(200, true, renderer)

	text, err := l.LoadWebPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Fully rendered long-form article content" {
		t.Errorf("expected rendered fallback text, got %q", text)
	}
}

func TestLoadWebPage_KeepsStaticWhenRendererFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div id="root"></div>short`))
	}))
	defer srv.Close()

	l := New(200, true, fakeRenderer{err: errRenderUnavailable})

	text, err := l.LoadWebPage(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text == "" {
		t.Error("expected static fallback text to survive a renderer failure")
	}
}
