package db

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"transcripts/pkg/domain"
)

// Mirror is a secondary sink. Its failures never fail a row.
type Mirror struct {
	Name string
	Sink Sink
}

// MultiSink writes every row to a primary sink and then to each mirror.
type MultiSink struct {
	primary Sink
	mirrors []Mirror
	logger  zerolog.Logger
}

var ErrNoPrimary = errors.New("primary sink is required")

// NewMultiSink creates a sink fanning out to primary and mirrors.
func NewMultiSink(primary Sink, logger zerolog.Logger, mirrors ...Mirror) (*MultiSink, error) {
	if primary == nil {
		return nil, ErrNoPrimary
	}
	return &MultiSink{
		primary: primary,
		mirrors: mirrors,
		logger:  logger.With().Str("component", "sink").Logger(),
	}, nil
}

// SaveTranscript writes rec to the primary sink; only that error is returned.
// Mirror errors are logged as warnings.
func (m *MultiSink) SaveTranscript(ctx context.Context, rec *domain.Transcript) error {
	if err := m.primary.SaveTranscript(ctx, rec); err != nil {
		return err
	}

	for _, mirror := range m.mirrors {
		if err := mirror.Sink.SaveTranscript(ctx, rec); err != nil {
			m.logger.Warn().
				Err(err).
				Str("mirror", mirror.Name).
				Str("url", rec.URL).
				Msg("mirror write failed")
		}
	}
	return nil
}
