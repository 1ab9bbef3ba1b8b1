package pipeline

import (
	"github.com/rs/zerolog"

	"transcripts/pkg/pagination"
)

// TranscriptPipelineBuilder builds the listing pipeline
// Pipeline: [Page Range Generator] → [Listing Fetcher] → [Content Processor] → [Content Saver]
// listingURL: listing page pattern with %d placeholder (empty for the MSNBC default)
func TranscriptPipelineBuilder(client Fetcher, extractor TranscriptExtractor, saver ContentSaver, listingURL string, opts pagination.Options, logger zerolog.Logger) *Pipeline {
	opts.Logger = logger

	listing := NewListingFetcher(client, listingURL, logger)
	generator := NewPageRangeGenerator(listing, opts)
	walker := NewWalker(listing, NewHTTPContentProcessor(client, extractor), saver, logger)

	return NewPipeline(generator, walker, logger)
}
