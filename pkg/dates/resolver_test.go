package dates

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(buf *bytes.Buffer) *Resolver {
	return NewResolver(zerolog.New(buf))
}

// TestParseURL_AllMonths verifies every spelled-out month is recovered exactly
func TestParseURL_AllMonths(t *testing.T) {
	for m := time.January; m <= time.December; m++ {
		for _, day := range []int{1, 9, 28} {
			for _, name := range []string{strings.ToLower(m.String()), strings.ToUpper(m.String()), m.String()} {
				u := fmt.Sprintf("https://www.msnbc.com/transcripts/show/transcript-%s-%d-2019-n1234", name, day)

				got, err := ParseURL(u)
				require.NoError(t, err, u)
				assert.Equal(t, 2019, got.Year(), u)
				assert.Equal(t, m, got.Month(), u)
				assert.Equal(t, day, got.Day(), u)
			}
		}
	}
}

// TestParseURL_ZeroPaddedDay verifies two-digit zero padded days
func TestParseURL_ZeroPaddedDay(t *testing.T) {
	got, err := ParseURL("https://www.msnbc.com/all-in/transcript-june-05-2020-n1226081")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, time.June, 5, 0, 0, 0, 0, time.UTC), got)
}

// TestParseURL_NoPattern verifies URLs without a date slug fail
func TestParseURL_NoPattern(t *testing.T) {
	_, err := ParseURL("https://www.msnbc.com/transcripts/rachel-maddow-show/n1261180")

	assert.True(t, errors.Is(err, ErrNoDate))
}

// TestParseURL_ImpossibleDate verifies impossible calendar dates fall through
func TestParseURL_ImpossibleDate(t *testing.T) {
	_, err := ParseURL("https://www.msnbc.com/show/transcript-february-30-2021-n1")

	assert.Error(t, err)
}

// TestParseURL_MonthInsideWord verifies month names must start a slug segment
func TestParseURL_MonthInsideWord(t *testing.T) {
	_, err := ParseURL("https://www.msnbc.com/show/dismay-12-2020")

	assert.Error(t, err)
}

// TestParseFuzzy_Plain verifies a bare date string
func TestParseFuzzy_Plain(t *testing.T) {
	got, err := ParseFuzzy("March 15, 2021")

	require.NoError(t, err)
	assert.Equal(t, 2021, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 15, got.Day())
}

// TestParseFuzzy_ISO verifies machine timestamps keep their time of day
func TestParseFuzzy_ISO(t *testing.T) {
	got, err := ParseFuzzy("2021-03-15T21:05:00Z")

	require.NoError(t, err)
	assert.Equal(t, time.Date(2021, time.March, 15, 21, 5, 0, 0, time.UTC), got.UTC())
}

// TestParseFuzzy_SurroundingProse verifies dates are found inside prose
func TestParseFuzzy_SurroundingProse(t *testing.T) {
	got, err := ParseFuzzy("Aired on March 15, 2021 at 9 PM")

	require.NoError(t, err)
	assert.Equal(t, 2021, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 21, got.Hour())
	assert.Equal(t, 0, got.Minute())
}

// TestParseFuzzy_ClockTimes verifies 12-hour clock times keep their meridiem
func TestParseFuzzy_ClockTimes(t *testing.T) {
	tests := []struct {
		in         string
		hour, mins int
	}{
		{"March 15, 2021 7pm", 19, 0},
		{"March 15, 2021, 8:30 a.m.", 8, 30},
		{"Aired March 15, 2021 at 12 AM", 0, 0},
		{"Aired March 15, 2021 at 12:15 pm ET", 12, 15},
		{"9 PM, March 15, 2021", 21, 0},
	}

	for _, tt := range tests {
		got, err := ParseFuzzy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, 15, got.Day(), tt.in)
		assert.Equal(t, tt.hour, got.Hour(), tt.in)
		assert.Equal(t, tt.mins, got.Minute(), tt.in)
	}
}

// TestParseFuzzy_TimeOnly verifies a bare time of day is not taken as a date
func TestParseFuzzy_TimeOnly(t *testing.T) {
	for _, in := range []string{"Hardball, 7pm", "Show, 8pm", "Tonight, 9pm ET", "All In with Chris Hayes, 8pm"} {
		got, err := ParseFuzzy(in)
		assert.True(t, errors.Is(err, ErrNoDate), "%q parsed as %v", in, got)
	}
}

// TestParseFuzzy_Empty verifies blank input is rejected
func TestParseFuzzy_Empty(t *testing.T) {
	_, err := ParseFuzzy("   ")

	assert.True(t, errors.Is(err, ErrNoDate))
}

// TestParseFuzzy_NoDigits verifies text without any date is rejected
func TestParseFuzzy_NoDigits(t *testing.T) {
	_, err := ParseFuzzy("transcript coming soon")

	assert.True(t, errors.Is(err, ErrNoDate))
}

// TestFirstOf_StopsAtFirstSuccess verifies later strategies are not run
func TestFirstOf_StopsAtFirstSuccess(t *testing.T) {
	want := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	calls := 0

	got, source, err := FirstOf(
		Strategy{Source: SourceTimeElement, Parse: func() (time.Time, error) { calls++; return time.Time{}, ErrNoDate }},
		Strategy{Source: SourceURL, Parse: func() (time.Time, error) { calls++; return want, nil }},
		Strategy{Source: SourceAirDate, Parse: func() (time.Time, error) { calls++; return time.Now(), nil }},
	)

	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, SourceURL, source)
	assert.Equal(t, 2, calls)
}

// TestFirstOf_AllFail verifies every failure is reported
func TestFirstOf_AllFail(t *testing.T) {
	_, _, err := FirstOf(
		Strategy{Source: SourceTimeElement, Parse: func() (time.Time, error) { return time.Time{}, ErrNoDate }},
		Strategy{Source: SourceURL, Parse: func() (time.Time, error) { return time.Time{}, errors.New("boom") }},
	)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoDate))
	assert.Contains(t, err.Error(), "boom")
}

// TestResolve_TimeElementWins verifies the time element has priority
func TestResolve_TimeElementWins(t *testing.T) {
	var buf bytes.Buffer
	r := newTestResolver(&buf)

	res := r.Resolve("2021-03-15T21:05:00Z", "https://x.test/show/transcript-april-1-2020-n1", "May 1, 2019")

	assert.Equal(t, SourceTimeElement, res.Source)
	assert.False(t, res.Degraded)
	assert.Equal(t, time.March, res.Time.Month())
	assert.Empty(t, buf.String(), "no fallback should be logged")
}

// TestResolve_URLFallback verifies the URL is used when the time text is unusable
func TestResolve_URLFallback(t *testing.T) {
	var buf bytes.Buffer
	r := newTestResolver(&buf)

	res := r.Resolve("not a date", "https://x.test/show/transcript-april-1-2020-n1", "May 1, 2019")

	assert.Equal(t, SourceURL, res.Source)
	assert.Equal(t, time.Date(2020, time.April, 1, 0, 0, 0, 0, time.UTC), res.Time)
	assert.Contains(t, buf.String(), "date fallback taken")
}

// TestResolve_AirDateFallback verifies fall-through to the card air date
func TestResolve_AirDateFallback(t *testing.T) {
	var buf bytes.Buffer
	r := newTestResolver(&buf)

	res := r.Resolve("not a date", "https://x.test/show/n1261180", "March 15, 2021")

	assert.Equal(t, SourceAirDate, res.Source)
	assert.False(t, res.Degraded)
	assert.Equal(t, 2021, res.Time.Year())
	assert.Equal(t, time.March, res.Time.Month())
	assert.Equal(t, 15, res.Time.Day())
}

// TestResolve_AllFail verifies the degraded wall-clock fallback and its warning
func TestResolve_AllFail(t *testing.T) {
	var buf bytes.Buffer
	r := newTestResolver(&buf)

	before := time.Now().UTC()
	res := r.Resolve("", "https://x.test/show/n1261180", "")
	after := time.Now().UTC()

	assert.Equal(t, SourceNow, res.Source)
	assert.True(t, res.Degraded)
	assert.False(t, res.Time.Before(before.Add(-time.Second)))
	assert.False(t, res.Time.After(after.Add(time.Second)))
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Contains(t, buf.String(), "no usable date")
}

// TestResolve_InjectedClock verifies the degraded result comes from the clock
func TestResolve_InjectedClock(t *testing.T) {
	var buf bytes.Buffer
	r := newTestResolver(&buf)
	fixed := time.Date(2024, 7, 4, 12, 30, 0, 0, time.FixedZone("EDT", -4*3600))
	r.now = func() time.Time { return fixed }

	res := r.Resolve("", "", "")

	assert.Equal(t, fixed.UTC(), res.Time)
	assert.Equal(t, time.UTC, res.Time.Location())
}

// TestResolve_TimeOnlyTextFallsBackToURL verifies a time element holding only
// a time of day yields to the URL date
func TestResolve_TimeOnlyTextFallsBackToURL(t *testing.T) {
	var buf bytes.Buffer
	r := newTestResolver(&buf)

	res := r.Resolve("Hardball, 7pm", "https://www.msnbc.com/transcripts/hardball/transcript-march-15-2021-n1", "March 15, 2021")

	assert.Equal(t, SourceURL, res.Source)
	assert.False(t, res.Degraded)
	assert.Equal(t, time.Date(2021, time.March, 15, 0, 0, 0, 0, time.UTC), res.Time)
}
