package webloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
)

const (
	maxFetchSize       = 5 << 20
	minExtractedLength = 200
	defaultTimeout     = 25 * time.Second
	userAgent          = "GoAskAI/0.1 (+RAG web ingest)"
)

// ErrInsufficientText marks pages where extraction yields too little readable
// text to index, typically heavily script-rendered pages.
var ErrInsufficientText = errors.New("could not extract readable text from the page")

// Elements whose entire subtree is layout or machinery, never content.
var skipElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "svg": true,
	"nav": true, "header": true, "footer": true, "aside": true,
}

// Elements that end a line of running text when extraction flattens the tree.
var blockElements = map[string]bool{
	"p": true, "div": true, "section": true, "article": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"li": true, "tr": true, "br": true, "blockquote": true, "pre": true,
}

var noisePhrases = []string{"cookie", "privacy", "terms", "sign in", "log in"}

var blankRunsRe = regexp.MustCompile(`\n{3,}`)

type Loader struct {
	client *http.Client
}

func NewLoader() *Loader {
	return &Loader{client: &http.Client{Timeout: defaultTimeout}}
}

// Fetch downloads a page and extracts its title and main readable text.
// Returns ErrInsufficientText when the cleaned text is below the minimum
// indexable length.
func (l *Loader) Fetch(ctx context.Context, pageURL string) (string, string, error) {
	u, err := url.Parse(pageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", fmt.Errorf("invalid url: %s", pageURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", "", fmt.Errorf("fetch %s: %d %s", pageURL, resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchSize))
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", pageURL, err)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return "", "", fmt.Errorf("parse html from %s: %w", pageURL, err)
	}

	title := findTitle(doc)
	text := cleanText(extractText(contentRoot(doc)))
	if len(text) < minExtractedLength {
		return title, "", fmt.Errorf("%w: %s (%d chars)", ErrInsufficientText, pageURL, len(text))
	}
	return title, text, nil
}

// contentRoot prefers a <main> element, then <body>, then the whole document.
func contentRoot(doc *html.Node) *html.Node {
	if main := findElement(doc, "main"); main != nil {
		return main
	}
	if body := findElement(doc, "body"); body != nil {
		return body
	}
	return doc
}

func findElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(doc *html.Node) string {
	node := findElement(doc, "title")
	if node == nil || node.FirstChild == nil {
		return ""
	}
	return strings.TrimSpace(node.FirstChild.Data)
}

func extractText(root *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				b.WriteString(t)
				b.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockElements[n.Data] {
			b.WriteByte('\n')
		}
	}
	walk(root)
	return b.String()
}

// cleanText normalizes whitespace and drops menu/cookie micro-lines, keeping
// blank lines as paragraph breaks.
func cleanText(raw string) string {
	var lines []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			lines = append(lines, "")
			continue
		}
		if len(line) <= 2 {
			continue
		}
		if len(line) < 80 && containsAny(strings.ToLower(line), noisePhrases) {
			continue
		}
		lines = append(lines, line)
	}
	cleaned := strings.Join(lines, "\n")
	cleaned = blankRunsRe.ReplaceAllString(cleaned, "\n\n")
	return strings.TrimSpace(cleaned)
}

func containsAny(s string, phrases []string) bool {
	for _, phrase := range phrases {
		if strings.Contains(s, phrase) {
			return true
		}
	}
	return false
}
