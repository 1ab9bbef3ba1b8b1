package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/rs/zerolog"

	"transcripts/pkg/content"
	"transcripts/pkg/domain"
	"transcripts/pkg/sites"
)

// Fetcher retrieves a page as decoded text. httpclient.HTTPClient implements it.
type Fetcher interface {
	GetText(ctx context.Context, url string) (int, string, error)
}

// TranscriptExtractor enriches a card-level record from its transcript page.
type TranscriptExtractor interface {
	Extract(html string, rec domain.Transcript) (domain.Transcript, error)
}

// ContentProcessor turns a listing card into a transcript record
type ContentProcessor interface {
	ProcessContent(ctx context.Context, card sites.Card) (*domain.Transcript, error)
}

// ContentSaver saves a transcript row to a storage backend
type ContentSaver interface {
	SaveTranscript(ctx context.Context, rec *domain.Transcript) error
}

// Stats summarizes a walk.
type Stats struct {
	Pages      int
	PageErrors int
	Cards      int
	Skipped    int
	Written    int
	ItemErrors int
}

// Walker visits listing pages in order and writes one row per transcript card.
// It is sequential: at most one request is in flight.
type Walker struct {
	listing   *ListingFetcher
	processor ContentProcessor
	saver     ContentSaver
	logger    zerolog.Logger
}

// NewWalker creates a walker.
func NewWalker(listing *ListingFetcher, processor ContentProcessor, saver ContentSaver, logger zerolog.Logger) *Walker {
	return &Walker{
		listing:   listing,
		processor: processor,
		saver:     saver,
		logger:    logger.With().Str("component", "walker").Logger(),
	}
}

// Walk processes pages first..last inclusive. A page or item that fails is
// logged and skipped. Cancelling ctx stops the walk before the next item.
func (w *Walker) Walk(ctx context.Context, first, last int) Stats {
	var stats Stats

	for page := first; page <= last; page++ {
		if ctx.Err() != nil {
			w.logger.Info().Int("page", page).Msg("walk cancelled")
			return stats
		}

		cards, skipped, err := w.listing.Fetch(ctx, page)
		stats.Pages++
		if err != nil {
			stats.PageErrors++
			w.logger.Error().Err(err).Int("page", page).Msg("listing page failed, moving on")
			continue
		}
		stats.Skipped += skipped
		stats.Cards += len(cards)

		written := 0
		for _, card := range cards {
			if ctx.Err() != nil {
				w.logger.Info().Int("page", page).Msg("walk cancelled")
				return stats
			}

			if err := w.processCard(ctx, card); err != nil {
				stats.ItemErrors++
				w.logger.Error().Err(err).Str("url", card.URL).Msg("transcript failed")
				continue
			}
			written++
		}
		stats.Written += written

		w.logger.Info().
			Int("page", page).
			Int("last", last).
			Int("cards", len(cards)).
			Int("written", written).
			Msg("listing page done")
	}

	return stats
}

// processCard is the fault boundary for one transcript: any error or panic
// stays with this card.
func (w *Walker) processCard(ctx context.Context, card sites.Card) (err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Debug().Bytes("stack", debug.Stack()).Msg("recovered panic")
			err = fmt.Errorf("panic processing %s: %v", card.URL, r)
		}
	}()

	rec, err := w.processor.ProcessContent(ctx, card)
	switch {
	case errors.Is(err, content.ErrNoContent) && rec != nil:
		w.logger.Warn().Err(err).Str("url", card.URL).Msg("transcript page has no content, keeping card fields")
	case err != nil:
		return err
	}

	if err := w.saver.SaveTranscript(ctx, rec); err != nil {
		return fmt.Errorf("failed to save transcript: %w", err)
	}
	return nil
}

// Pipeline finds the listing range and walks it
type Pipeline struct {
	generator *PageRangeGenerator
	walker    *Walker
	logger    zerolog.Logger
}

// NewPipeline creates a new pipeline from a page range generator and a walker
func NewPipeline(generator *PageRangeGenerator, walker *Walker, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		generator: generator,
		walker:    walker,
		logger:    logger.With().Str("component", "pipeline").Logger(),
	}
}

// Run discovers the last listing page and walks pages 1..last.
func (p *Pipeline) Run(ctx context.Context) Stats {
	first, last := p.generator.Generate(ctx)
	if ctx.Err() != nil {
		return Stats{}
	}

	p.logger.Info().Int("first", first).Int("last", last).Msg("walking listing pages")
	stats := p.walker.Walk(ctx, first, last)

	p.logger.Info().
		Int("pages", stats.Pages).
		Int("page_errors", stats.PageErrors).
		Int("cards", stats.Cards).
		Int("skipped", stats.Skipped).
		Int("written", stats.Written).
		Int("item_errors", stats.ItemErrors).
		Msg("walk finished")
	return stats
}
