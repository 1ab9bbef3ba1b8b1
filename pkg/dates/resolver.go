// Package dates resolves a publication date for a transcript page from the
// inconsistent sources the archive offers: the page's <time> element, a date
// embedded in the page URL, and the raw air-date text of the listing card.
package dates

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/araddon/dateparse"
	"github.com/rs/zerolog"
)

// Source identifies the strategy that produced a resolved date.
type Source string

const (
	SourceTimeElement Source = "time_element"
	SourceURL         Source = "url"
	SourceAirDate     Source = "air_date"
	SourceNow         Source = "now"
)

// ErrNoDate is returned by a strategy that found nothing to parse.
var ErrNoDate = errors.New("no date found")

// maxWindow bounds the number of tokens tried together when scanning prose
// for a date.
const maxWindow = 8

// minYear rejects parses that carry no real calendar date.
const minYear = 1900

var (
	clockPattern = regexp.MustCompile(`(?i)\b(\d{1,2})(?::(\d{2}))?\s*([ap])\.?\s?m\b\.?`)
	atPattern    = regexp.MustCompile(`(?i)\s+at\s+`)
)

var urlDatePattern = regexp.MustCompile(`(?i)(?:^|[/_.-])(january|february|march|april|may|june|july|august|september|october|november|december)-(\d{1,2})-(\d{4})(?:$|\D)`)

// Strategy is one fallible way of producing a date.
type Strategy struct {
	Source Source
	Parse  func() (time.Time, error)
}

// FirstOf runs the strategies in order and returns the result of the first
// one that succeeds. The returned error joins every strategy failure.
func FirstOf(strategies ...Strategy) (time.Time, Source, error) {
	var errs []error
	for _, s := range strategies {
		t, err := s.Parse()
		if err == nil {
			return t, s.Source, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Source, err))
	}
	return time.Time{}, "", errors.Join(errs...)
}

// Resolution is the outcome of Resolve.
type Resolution struct {
	Time   time.Time
	Source Source
	// Degraded is set when no source yielded a date and Time is the wall clock.
	Degraded bool
}

// Resolver applies the date fallback chain.
type Resolver struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewResolver creates a resolver that reports fallbacks to logger.
func NewResolver(logger zerolog.Logger) *Resolver {
	return &Resolver{
		logger: logger.With().Str("component", "dates").Logger(),
		now:    time.Now,
	}
}

// Resolve returns the first date found in timeText, then pageURL, then
// fallbackText. When all three fail it returns the current time in UTC and
// marks the result as degraded. It never fails.
func (r *Resolver) Resolve(timeText, pageURL, fallbackText string) Resolution {
	t, source, err := FirstOf(
		Strategy{Source: SourceTimeElement, Parse: func() (time.Time, error) { return ParseFuzzy(timeText) }},
		Strategy{Source: SourceURL, Parse: func() (time.Time, error) { return ParseURL(pageURL) }},
		Strategy{Source: SourceAirDate, Parse: func() (time.Time, error) { return ParseFuzzy(fallbackText) }},
	)
	if err != nil {
		now := r.now().UTC()
		r.logger.Warn().
			Err(err).
			Str("url", pageURL).
			Str("time_text", timeText).
			Str("air_date", fallbackText).
			Msg("no usable date, using current time")
		return Resolution{Time: now, Source: SourceNow, Degraded: true}
	}

	if source != SourceTimeElement {
		r.logger.Info().
			Str("url", pageURL).
			Str("source", string(source)).
			Str("time_text", timeText).
			Msg("date fallback taken")
	}
	return Resolution{Time: t, Source: source}
}

// ParseFuzzy parses a date out of text that may carry surrounding prose such
// as "Aired on March 15, 2021 at 9 PM". A 12-hour clock time ("9 PM", "7pm",
// "8:30 a.m.") is taken out first and applied to the date found in the rest.
// The remaining text is tried whole, then every run of up to maxWindow tokens,
// longest and leftmost first. A match without a calendar date (a bare time
// parses as year 0) does not count.
func ParseFuzzy(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return time.Time{}, ErrNoDate
	}

	rest := atPattern.ReplaceAllString(text, " ")
	hour, minute, rest, hasClock := splitClock(rest)

	t, ok := scanDate(rest)
	if !ok {
		return time.Time{}, fmt.Errorf("%w in %q", ErrNoDate, text)
	}
	if hasClock {
		t = time.Date(t.Year(), t.Month(), t.Day(), hour, minute, 0, 0, t.Location())
	}
	return t, nil
}

// scanDate tries text whole and then its token windows.
func scanDate(text string) (time.Time, bool) {
	text = strings.TrimFunc(text, isEdgePunct)
	if t, ok := parseDate(text); ok {
		return t, true
	}

	tokens := strings.Fields(text)
	size := min(len(tokens), maxWindow)
	for n := size; n > 0; n-- {
		for i := 0; i+n <= len(tokens); i++ {
			candidate := strings.TrimFunc(strings.Join(tokens[i:i+n], " "), isEdgePunct)
			if t, ok := parseDate(candidate); ok {
				return t, true
			}
		}
	}
	return time.Time{}, false
}

func parseDate(s string) (time.Time, bool) {
	if !hasDigit(s) {
		return time.Time{}, false
	}
	t, err := dateparse.ParseIn(s, time.UTC)
	if err != nil || t.Year() < minYear {
		return time.Time{}, false
	}
	return t, true
}

// splitClock removes the first 12-hour clock time from text and returns it
// as 24-hour hour and minute.
func splitClock(text string) (hour, minute int, rest string, ok bool) {
	for _, loc := range clockPattern.FindAllStringSubmatchIndex(text, -1) {
		h, _ := strconv.Atoi(text[loc[2]:loc[3]])
		m := 0
		if loc[4] >= 0 {
			m, _ = strconv.Atoi(text[loc[4]:loc[5]])
		}
		if h < 1 || h > 12 || m > 59 {
			continue
		}

		pm := strings.EqualFold(text[loc[6]:loc[7]], "p")
		switch {
		case pm && h != 12:
			h += 12
		case !pm && h == 12:
			h = 0
		}
		return h, m, text[:loc[0]] + " " + text[loc[1]:], true
	}
	return 0, 0, text, false
}

// ParseURL extracts a "<month-name>-<day>-<year>" date from a URL, as used
// in transcript slugs like ".../transcript-march-15-2021-n1261180".
func ParseURL(pageURL string) (time.Time, error) {
	matches := urlDatePattern.FindAllStringSubmatch(pageURL, -1)
	if len(matches) == 0 {
		return time.Time{}, ErrNoDate
	}

	var lastErr error
	for _, m := range matches {
		t, err := time.Parse("January 2 2006", fmt.Sprintf("%s %s %s", m[1], m[2], m[3]))
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("url date: %w", lastErr)
}

func hasDigit(s string) bool {
	return strings.IndexFunc(s, unicode.IsDigit) >= 0
}

// isEdgePunct reports punctuation that wraps a date in prose but is never
// the first or last character of the date itself.
func isEdgePunct(r rune) bool {
	switch r {
	case ',', ';', '.', '(', ')', '[', ']', '"', '\'', '|', '-':
		return true
	}
	return unicode.IsSpace(r)
}
