package db

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"transcripts/pkg/domain"
)

type recordingSink struct {
	saved []string
	err   error
}

func (s *recordingSink) SaveTranscript(_ context.Context, rec *domain.Transcript) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, rec.URL)
	return nil
}

func TestMultiSinkMirrorFailureIsWarning(t *testing.T) {
	var buf bytes.Buffer
	primary := &recordingSink{}
	good := &recordingSink{}
	bad := &recordingSink{err: errors.New("connection refused")}

	sink, err := NewMultiSink(primary, zerolog.New(&buf),
		Mirror{Name: "bad", Sink: bad},
		Mirror{Name: "good", Sink: good},
	)
	if err != nil {
		t.Fatalf("new multi sink: %v", err)
	}

	if err := sink.SaveTranscript(context.Background(), &domain.Transcript{URL: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if len(primary.saved) != 1 || len(good.saved) != 1 {
		t.Errorf("primary %v good %v", primary.saved, good.saved)
	}
	out := buf.String()
	if !strings.Contains(out, `"level":"warn"`) || !strings.Contains(out, `"mirror":"bad"`) {
		t.Errorf("expected mirror warning, got %s", out)
	}
}

func TestMultiSinkPrimaryFailure(t *testing.T) {
	primaryErr := errors.New("disk full")
	mirror := &recordingSink{}

	sink, err := NewMultiSink(&recordingSink{err: primaryErr}, zerolog.Nop(), Mirror{Name: "m", Sink: mirror})
	if err != nil {
		t.Fatalf("new multi sink: %v", err)
	}

	if err := sink.SaveTranscript(context.Background(), &domain.Transcript{URL: "u1"}); !errors.Is(err, primaryErr) {
		t.Errorf("expected primary error, got %v", err)
	}
	if len(mirror.saved) != 0 {
		t.Error("mirror should not be written when the primary fails")
	}
}

func TestNewMultiSinkRequiresPrimary(t *testing.T) {
	if _, err := NewMultiSink(nil, zerolog.Nop()); !errors.Is(err, ErrNoPrimary) {
		t.Errorf("expected ErrNoPrimary, got %v", err)
	}
}
