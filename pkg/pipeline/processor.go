package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"transcripts/pkg/content"
	"transcripts/pkg/domain"
	"transcripts/pkg/sites"
)

// HTTPContentProcessor implements ContentProcessor by fetching the transcript
// page of a card and running the transcript extractor on it
type HTTPContentProcessor struct {
	client    Fetcher
	extractor TranscriptExtractor
	now       func() time.Time
}

// NewHTTPContentProcessor creates a new HTTP content processor
func NewHTTPContentProcessor(client Fetcher, extractor TranscriptExtractor) *HTTPContentProcessor {
	return &HTTPContentProcessor{
		client:    client,
		extractor: extractor,
		now:       time.Now,
	}
}

// NewRecord builds the card-level record for a listing card.
func NewRecord(card sites.Card) domain.Transcript {
	return domain.Transcript{
		AirDate:  card.AirDate,
		ShowName: card.ShowName,
		Headline: card.Headline,
		Guests:   card.Guests,
		URL:      card.URL,
	}
}

// ProcessContent fetches the transcript page and returns the enriched record.
//
// A failed fetch returns a nil record. A page without a content container
// returns the card-level record together with an error wrapping
// content.ErrNoContent, so the caller can still keep the row.
func (p *HTTPContentProcessor) ProcessContent(ctx context.Context, card sites.Card) (*domain.Transcript, error) {
	rec := NewRecord(card)
	rec.CrawledAt = p.now().UTC()

	_, html, err := p.client.GetText(ctx, card.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch transcript page: %w", err)
	}

	enriched, err := p.extractor.Extract(html, rec)
	if errors.Is(err, content.ErrNoContent) {
		return &enriched, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to extract transcript: %w", err)
	}

	return &enriched, nil
}
