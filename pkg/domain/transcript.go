package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Columns is the fixed column order of the transcript table. The order matches
// tables written by earlier versions of the scraper so appended rows line up.
var Columns = []string{
	"air_date",
	"show_name",
	"headline",
	"guests",
	"url",
	"channel.name",
	"program.name",
	"uid",
	"duration",
	"year",
	"month",
	"date",
	"time",
	"timezone",
	"path",
	"wordcount",
	"subhead",
	"summary",
	"text",
}

// Transcript is one row of the transcript table.
//
// Card-level fields (AirDate, ShowName, Headline, Guests, URL) come from the listing page.
// Everything else is filled in by the transcript extractor once the transcript page is fetched.
type Transcript struct {
	// AirDate is the raw air-date text as shown on the listing card.
	AirDate  string `bson:"air_date" json:"air_date"`
	ShowName string `bson:"show_name" json:"show_name"`
	Headline string `bson:"headline" json:"headline"`
	Guests   string `bson:"guests" json:"guests"`

	// URL is the absolute transcript page URL and the natural key of a row.
	URL string `bson:"url" json:"url"`

	Channel  string `bson:"channel_name" json:"channel_name"`
	Program  string `bson:"program_name" json:"program_name"`
	UID      string `bson:"uid" json:"uid"`
	Duration string `bson:"duration,omitempty" json:"duration,omitempty"`

	// Year, Month and Day are zero until a date has been resolved.
	Year     int    `bson:"year" json:"year"`
	Month    int    `bson:"month" json:"month"`
	Day      int    `bson:"date" json:"date"`
	Time     string `bson:"time" json:"time"`
	Timezone string `bson:"timezone" json:"timezone"`

	Path      string `bson:"path" json:"path"`
	WordCount int    `bson:"wordcount" json:"wordcount"`
	Subhead   string `bson:"subhead" json:"subhead"`
	Summary   string `bson:"summary" json:"summary"`
	Text      string `bson:"text" json:"text"`

	// CrawledAt is when the row was produced. It is not part of the table.
	CrawledAt time.Time `bson:"crawled_at" json:"crawled_at"`
}

// HasDate reports whether a date has been resolved for the transcript.
func (t *Transcript) HasDate() bool {
	return t.Year != 0
}

// SetDate copies the wall-clock fields of ts into the transcript as they are,
// without converting to another zone, so a numeric offset never moves the
// calendar day. Timezone is always recorded as "UTC" since the source pages do
// not carry a reliable zone.
func (t *Transcript) SetDate(ts time.Time) {
	t.Year = ts.Year()
	t.Month = int(ts.Month())
	t.Day = ts.Day()
	t.Time = fmt.Sprintf("%02d:%02d", ts.Hour(), ts.Minute())
	t.Timezone = "UTC"
}

// Row renders the transcript in Columns order. Unset values are empty strings.
func (t *Transcript) Row() []string {
	// A resolved date marks a row that went through extraction; only those
	// carry numeric fields.
	var year, month, day, words string
	if t.HasDate() {
		year = strconv.Itoa(t.Year)
		month = strconv.Itoa(t.Month)
		day = strconv.Itoa(t.Day)
		words = strconv.Itoa(t.WordCount)
	}

	return []string{
		t.AirDate,
		t.ShowName,
		t.Headline,
		t.Guests,
		t.URL,
		t.Channel,
		t.Program,
		t.UID,
		t.Duration,
		year,
		month,
		day,
		t.Time,
		t.Timezone,
		t.Path,
		words,
		t.Subhead,
		t.Summary,
		t.Text,
	}
}

// FromRow is the inverse of Row. The row must have exactly len(Columns) fields.
func FromRow(row []string) (*Transcript, error) {
	if len(row) != len(Columns) {
		return nil, fmt.Errorf("row has %d fields, want %d", len(row), len(Columns))
	}

	atoi := func(i int) (int, error) {
		if row[i] == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(row[i])
		if err != nil {
			return 0, fmt.Errorf("column %s: %w", Columns[i], err)
		}
		return n, nil
	}

	t := &Transcript{
		AirDate:  row[0],
		ShowName: row[1],
		Headline: row[2],
		Guests:   row[3],
		URL:      row[4],
		Channel:  row[5],
		Program:  row[6],
		UID:      row[7],
		Duration: row[8],
		Time:     row[12],
		Timezone: row[13],
		Path:     row[14],
		Subhead:  row[16],
		Summary:  row[17],
		Text:     row[18],
	}

	var err error
	if t.Year, err = atoi(9); err != nil {
		return nil, err
	}
	if t.Month, err = atoi(10); err != nil {
		return nil, err
	}
	if t.Day, err = atoi(11); err != nil {
		return nil, err
	}
	if t.WordCount, err = atoi(15); err != nil {
		return nil, err
	}

	return t, nil
}
