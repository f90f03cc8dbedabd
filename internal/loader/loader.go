// Package loader turns a document path or web URL into plain text ready
// for chunking. PDF parsing and JavaScript rendering are treated as
// external collaborators (per the embedder/loader boundary this gateway
// draws around third-party extraction tooling) — this package owns only
// the decision of when a rendered fallback is worth asking for, and the
// plain-text extraction it can do itself.
package loader

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"time"
)

// JSRenderer renders a URL with JavaScript execution, e.g. via a
// headless browser service. It lives outside this package's boundary;
// Loader only decides whether to call it.
type JSRenderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// Loader extracts plain text from local files and web pages.
type Loader struct {
	HTTPClient          *http.Client
	Renderer            JSRenderer
	MinTextLen          int
	UseJSRenderFallback bool
}

// New constructs a Loader. renderer may be nil if no JS-rendering
// fallback is configured; UseJSRenderFallback is then ignored.
func New(minTextLen int, useJSRenderFallback bool, renderer JSRenderer) *Loader {
	return &Loader{
		HTTPClient:          &http.Client{Timeout: 30 * time.Second},
		Renderer:            renderer,
		MinTextLen:          minTextLen,
		UseJSRenderFallback: useJSRenderFallback,
	}
}

// LoadDocument reads a local file's content as plain text. Structured
// formats (PDF, DOCX) are out of scope here — parsing them is an
// external collaborator's job; this reads whatever bytes are on disk.
func (l *Loader) LoadDocument(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read document %q: %w", path, err)
	}
	return strings.TrimSpace(string(data)), nil
}

// LoadWebPage fetches url, extracts visible text from the static HTML,
// and — if the page looks like a client-rendered SPA or the extracted
// text is too short — asks the configured JSRenderer for a rendered
// version, keeping whichever text is longer.
func (l *Loader) LoadWebPage(ctx context.Context, url string) (string, error) {
	rawHTML, err := l.fetch(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch %q: %w", url, err)
	}

	staticText := strings.TrimSpace(htmlToText(rawHTML))

	if !l.UseJSRenderFallback || l.Renderer == nil {
		return staticText, nil
	}

	if len(staticText) >= l.MinTextLen && !LooksLikeSPA(rawHTML) {
		return staticText, nil
	}

	renderedHTML, err := l.Renderer.Render(ctx, url)
	if err != nil {
		// JS rendering is best-effort; fall back to whatever static
		// extraction produced.
		return staticText, nil
	}
	renderedText := strings.TrimSpace(htmlToText(renderedHTML))
	if len(renderedText) > len(staticText) {
		return renderedText, nil
	}
	return staticText, nil
}

func (l *Loader) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "x402-retrieval-gateway/1.0")

	resp, err := l.HTTPClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

var (
	spaPatterns = []*regexp.Regexp{
		regexp.MustCompile(`<div[^>]+id=["']root["']`),
		regexp.MustCompile(`<div[^>]+id=["']__next["']`),
		regexp.MustCompile(`<div[^>]+id=["']app["']`),
		regexp.MustCompile(`data-reactroot`),
	}
	scriptTagPattern = regexp.MustCompile(`(?i)<script`)
)

// LooksLikeSPA heuristically detects whether HTML looks like a
// client-rendered single-page app that needs JavaScript execution to
// produce meaningful text: a root/__next/app mount div, a React
// hydration marker, or an unusually high script-tag count.
func LooksLikeSPA(rawHTML string) bool {
	lower := strings.ToLower(rawHTML)

	score := 0
	for _, p := range spaPatterns {
		if p.MatchString(lower) {
			score++
		}
	}

	manyScripts := len(scriptTagPattern.FindAllString(lower, -1)) >= 8
	return score >= 1 || manyScripts
}

var (
	scriptOrStyleBlock = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	tagPattern         = regexp.MustCompile(`(?s)<[^>]+>`)
	whitespaceRun      = regexp.MustCompile(`[ \t]+`)
	blankLineRun       = regexp.MustCompile(`\n{3,}`)
)

// htmlToText strips scripts, styles, and tags from rawHTML, leaving the
// document's visible text with entities unescaped. No third-party HTML
// parser was found in the example pack for this narrow extraction need;
// this is a small, direct regex-based stripper rather than a full DOM
// parse.
func htmlToText(rawHTML string) string {
	cleaned := scriptOrStyleBlock.ReplaceAllString(rawHTML, "")
	cleaned = strings.NewReplacer("<br>", "\n", "<br/>", "\n", "<br />", "\n", "</p>", "\n\n", "</div>", "\n").Replace(cleaned)
	cleaned = tagPattern.ReplaceAllString(cleaned, " ")
	cleaned = html.UnescapeString(cleaned)
	cleaned = whitespaceRun.ReplaceAllString(cleaned, " ")
	cleaned = blankLineRun.ReplaceAllString(cleaned, "\n\n")
	return cleaned
}
