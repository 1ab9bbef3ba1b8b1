package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"transcripts/pkg/content"
	"transcripts/pkg/dates"
	"transcripts/pkg/httpclient"
	"transcripts/pkg/sites"
)

func newProcessor() *HTTPContentProcessor {
	client := httpclient.New(httpclient.Config{ClientType: httpclient.CloudflareClient})
	extractor := content.NewTranscriptExtractor(dates.NewResolver(zerolog.Nop()), "")
	p := NewHTTPContentProcessor(client, extractor)
	p.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return p
}

func TestHTTPContentProcessor_ProcessContent_HTTPError(t *testing.T) {
	// Create a test server that returns 404
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	rec, err := newProcessor().ProcessContent(context.Background(), sites.Card{URL: server.URL + "/x"})

	if err == nil {
		t.Fatal("Expected error for 404 status, got nil")
	}
	if rec != nil {
		t.Fatal("Expected nil record on fetch error")
	}

	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status error, got: %v", err)
	}
}

func TestHTTPContentProcessor_ProcessContent_EmptyResponse(t *testing.T) {
	// Create a test server that returns empty body
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	card := sites.Card{AirDate: "March 1, 2021", ShowName: "Show", Headline: "H", URL: server.URL + "/x"}
	rec, err := newProcessor().ProcessContent(context.Background(), card)

	if !errors.Is(err, content.ErrNoContent) {
		t.Fatalf("Expected ErrNoContent, got %v", err)
	}
	if rec == nil {
		t.Fatal("Expected card-level record")
	}
	if rec.AirDate != card.AirDate || rec.ShowName != card.ShowName || rec.URL != card.URL {
		t.Errorf("card fields not kept: %+v", rec)
	}
	if rec.HasDate() {
		t.Error("record without content should not have a date")
	}
}

func TestHTTPContentProcessor_ProcessContent_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<div class="article-body__content"><a id="anchor-Transcript"></a><p>one two</p></div>`))
	}))
	defer server.Close()

	card := sites.Card{AirDate: "March 1, 2021", Headline: "H", URL: server.URL + "/show/transcript-march-1-2021-n9"}
	rec, err := newProcessor().ProcessContent(context.Background(), card)
	if err != nil {
		t.Fatalf("ProcessContent failed: %v", err)
	}

	if rec.Text != "one two" || rec.WordCount != 2 {
		t.Errorf("text %q words %d", rec.Text, rec.WordCount)
	}
	if rec.Year != 2021 || rec.Month != 3 || rec.Day != 1 {
		t.Errorf("date = %d-%d-%d", rec.Year, rec.Month, rec.Day)
	}
	if !rec.CrawledAt.Equal(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("CrawledAt = %v", rec.CrawledAt)
	}
}
