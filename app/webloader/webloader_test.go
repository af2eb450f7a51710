package webloader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head><title>Harbour Seals</title><script>var tracking = true;</script></head>
<body>
<nav>Home About Contact</nav>
<main>
<h1>Harbour Seals</h1>
<p>Harbour seals haul out on the sandbanks at low tide and return to the water as the channel floods. Counts from the ferry suggest the colony has grown every year since the estuary was closed to netting.</p>
<p>Pups are born in June and swim within hours of birth. The mothers feed close to the haul-out for the first weeks, which keeps the nursery group tightly packed along the same stretch of shore.</p>
</main>
<footer>Copyright 2026 Estuary Trust</footer>
</body>
</html>`

func TestFetchExtractsArticle(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	title, text, err := NewLoader().Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if title != "Harbour Seals" {
		t.Fatalf("title = %q", title)
	}
	if !strings.Contains(text, "haul out on the sandbanks") || !strings.Contains(text, "born in June") {
		t.Fatalf("article text missing:\n%s", text)
	}
	for _, noise := range []string{"Home About Contact", "var tracking", "Estuary Trust"} {
		if strings.Contains(text, noise) {
			t.Fatalf("boilerplate %q leaked into the text", noise)
		}
	}
}

func TestFetchRejectsThinPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<html><head><title>Empty</title></head><body><p>Too short.</p></body></html>`))
	}))
	defer ts.Close()

	_, _, err := NewLoader().Fetch(context.Background(), ts.URL)
	if !errors.Is(err, ErrInsufficientText) {
		t.Fatalf("expected ErrInsufficientText, got %v", err)
	}
}

func TestFetchRejectsBadURLs(t *testing.T) {
	loader := NewLoader()
	for _, bad := range []string{"not a url", "ftp://example.com/file", "://broken"} {
		if _, _, err := loader.Fetch(context.Background(), bad); err == nil {
			t.Fatalf("expected an error for %q", bad)
		}
	}
}

func TestFetchRejectsNon2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	if _, _, err := NewLoader().Fetch(context.Background(), ts.URL); err == nil {
		t.Fatalf("expected an error for a 404 response")
	}
}
