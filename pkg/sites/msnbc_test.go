package sites

import (
	"errors"
	"os"
	"testing"
)

func loadListing(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile("testdata/listing.html")
	if err != nil {
		t.Fatalf("Failed to read fixture: %v", err)
	}
	return string(b)
}

func TestExtractTranscriptCards_Fixture(t *testing.T) {
	html := loadListing(t)

	cards, skipped, err := ExtractTranscriptCards(html, "https://www.msnbc.com/transcripts?sort=datePublished:asc&page=3")
	if err != nil {
		t.Fatalf("ExtractTranscriptCards failed: %v", err)
	}

	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, got %d", len(cards))
	}
	if len(skipped) != 2 {
		t.Fatalf("Expected 2 skipped cards, got %d", len(skipped))
	}

	first := cards[0]
	if first.AirDate != "March 15, 2021" {
		t.Errorf("Unexpected air date: %q", first.AirDate)
	}
	if first.ShowName != "The Rachel Maddow Show" {
		t.Errorf("Unexpected show name: %q", first.ShowName)
	}
	wantURL := "https://www.msnbc.com/rachel-maddow-show/transcripts/transcript-rachel-maddow-show-march-15-2021-n1261180"
	if first.URL != wantURL {
		t.Errorf("Expected relative href to resolve to %q, got %q", wantURL, first.URL)
	}
	if first.Headline != "TRANSCRIPT: 3/15/21, The Rachel Maddow Show" {
		t.Errorf("Unexpected headline: %q", first.Headline)
	}
	if first.Guests != "Guests: Ron Klain, Jennifer Horn" {
		t.Errorf("Unexpected guests: %q", first.Guests)
	}

	second := cards[1]
	if second.URL != "https://www.msnbc.com/all-in/transcripts/transcript-all-chris-hayes-march-15-2021-n1261162" {
		t.Errorf("Expected absolute href to be kept, got %q", second.URL)
	}
	if second.Guests != "" {
		t.Errorf("Expected empty guests for card without guest span, got %q", second.Guests)
	}

	for _, err := range skipped {
		if !errors.Is(err, ErrMissingField) {
			t.Errorf("Expected skipped error to wrap ErrMissingField, got %v", err)
		}
	}
}

func TestExtractTranscriptCards_NoCards(t *testing.T) {
	cards, skipped, err := ExtractTranscriptCards("<html><body><p>No results</p></body></html>", "https://www.msnbc.com/transcripts?page=999")
	if err != nil {
		t.Fatalf("ExtractTranscriptCards failed: %v", err)
	}
	if len(cards) != 0 || len(skipped) != 0 {
		t.Errorf("Expected no cards and no skips, got %d and %d", len(cards), len(skipped))
	}
}

func TestCountTranscriptCards(t *testing.T) {
	n, err := CountTranscriptCards(loadListing(t))
	if err != nil {
		t.Fatalf("CountTranscriptCards failed: %v", err)
	}
	if n != 4 {
		t.Errorf("Expected 4 cards including malformed ones, got %d", n)
	}
}

func TestListingURL(t *testing.T) {
	got := ListingURL(DefaultListingURL, 7)
	want := "https://www.msnbc.com/transcripts?sort=datePublished:asc&page=7"
	if got != want {
		t.Errorf("ListingURL = %q, want %q", got, want)
	}
}
