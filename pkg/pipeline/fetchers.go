package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"transcripts/pkg/httpclient"
	"transcripts/pkg/pagination"
	"transcripts/pkg/sites"
)

// ListingFetcher fetches listing pages and extracts their transcript cards
type ListingFetcher struct {
	client  Fetcher
	pattern string
	logger  zerolog.Logger
}

// NewListingFetcher creates a listing fetcher. pattern is a listing URL with a
// %d page placeholder; empty selects sites.DefaultListingURL.
func NewListingFetcher(client Fetcher, pattern string, logger zerolog.Logger) *ListingFetcher {
	if pattern == "" {
		pattern = sites.DefaultListingURL
	}
	return &ListingFetcher{
		client:  client,
		pattern: pattern,
		logger:  logger.With().Str("component", "listing").Logger(),
	}
}

// PageURL returns the URL of a listing page.
func (f *ListingFetcher) PageURL(page int) string {
	return sites.ListingURL(f.pattern, page)
}

// Fetch returns the well-formed cards of a listing page and the number of
// cards skipped for missing markup.
func (f *ListingFetcher) Fetch(ctx context.Context, page int) ([]sites.Card, int, error) {
	pageURL := f.PageURL(page)

	_, body, err := f.client.GetText(ctx, pageURL)
	if err != nil {
		return nil, 0, fmt.Errorf("fetch listing page %d: %w", page, err)
	}

	cards, skipped, err := sites.ExtractTranscriptCards(body, pageURL)
	if err != nil {
		return nil, 0, fmt.Errorf("parse listing page %d: %w", page, err)
	}

	for _, skipErr := range skipped {
		f.logger.Warn().Err(skipErr).Int("page", page).Msg("skipping malformed card")
	}

	return cards, len(skipped), nil
}

// HasCards reports whether a listing page shows at least one card. A 404 is a
// page past the end, not an error.
func (f *ListingFetcher) HasCards(ctx context.Context, page int) (bool, error) {
	_, body, err := f.client.GetText(ctx, f.PageURL(page))
	if err != nil {
		var statusErr *httpclient.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return false, nil
		}
		return false, err
	}

	n, err := sites.CountTranscriptCards(body)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PageRangeGenerator finds the range of listing pages to walk.
// The archive's pages are contiguous from 1, so only the last one needs to be
// discovered, which a binary search over HasCards does in about log2(UpperBound)
// requests.
type PageRangeGenerator struct {
	listing *ListingFetcher
	opts    pagination.Options
}

// NewPageRangeGenerator creates a new page range generator
func NewPageRangeGenerator(listing *ListingFetcher, opts pagination.Options) *PageRangeGenerator {
	return &PageRangeGenerator{listing: listing, opts: opts}
}

// Generate returns the first and last listing page.
func (g *PageRangeGenerator) Generate(ctx context.Context) (first, last int) {
	return 1, pagination.FindLastPage(ctx, g.listing.HasCards, g.opts)
}
