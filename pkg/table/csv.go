package table

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"transcripts/pkg/domain"
)

// FileName is the name of the transcript table in the working directory.
const FileName = "msnbc.csv"

var ErrBadHeader = errors.New("table header does not match transcript columns")

// CSVTable is an append-only transcript table. Every row is flushed as soon as
// it is appended so an interrupted run keeps everything written so far.
type CSVTable struct {
	mu   sync.Mutex
	path string
	file *os.File
	w    *csv.Writer
}

// Open opens path for appending, creating it if needed. The header row is
// written only when the file is new or empty.
func Open(path string) (*CSVTable, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("stat table %s: %w", path, err)
	}

	w := csv.NewWriter(file)
	w.UseCRLF = true

	t := &CSVTable{path: path, file: file, w: w}
	if info.Size() == 0 {
		if err := t.write(domain.Columns); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("write header: %w", err)
		}
	}
	return t, nil
}

// Path returns the file the table writes to.
func (t *CSVTable) Path() string {
	return t.path
}

// Append writes one transcript row and flushes it.
func (t *CSVTable) Append(rec *domain.Transcript) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return os.ErrClosed
	}
	if err := t.write(rec.Row()); err != nil {
		return fmt.Errorf("append %s: %w", rec.URL, err)
	}
	return nil
}

// SaveTranscript appends rec. It lets the table act as the primary sink.
func (t *CSVTable) SaveTranscript(_ context.Context, rec *domain.Transcript) error {
	return t.Append(rec)
}

// Close flushes and closes the file. Closing twice is a no-op.
func (t *CSVTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.file == nil {
		return nil
	}
	t.w.Flush()
	flushErr := t.w.Error()
	closeErr := t.file.Close()
	t.file = nil
	return errors.Join(flushErr, closeErr)
}

func (t *CSVTable) write(row []string) error {
	if err := t.w.Write(row); err != nil {
		return err
	}
	t.w.Flush()
	return t.w.Error()
}

// ReadAll reads every row of the table at path back into transcripts.
func ReadAll(path string) ([]*domain.Transcript, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", path, err)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(domain.Columns)

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, domain.Columns) {
		return nil, ErrBadHeader
	}

	var out []*domain.Transcript
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(out)+1, err)
		}
		rec, err := domain.FromRow(row)
		if err != nil {
			return nil, fmt.Errorf("decode row %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	return out, nil
}
