package sites

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultListingURL is the MSNBC transcript listing, oldest first, with a %d
// placeholder for the page number.
const DefaultListingURL = "https://www.msnbc.com/transcripts?sort=datePublished:asc&page=%d"

const (
	cardSelector     = "div.transcript-card"
	airDateSelector  = "div.transcript-card__air-date"
	showNameSelector = "a.transcript-card__show-name"
	headlineSelector = "a.transcript-card__headline"
	guestsSelector   = "span.transcript-card__guests"
)

// ErrMissingField is wrapped by the error reported for a card that lacks
// required markup.
var ErrMissingField = errors.New("card is missing required markup")

// Card is the metadata a listing page shows for one transcript.
type Card struct {
	AirDate  string
	ShowName string
	URL      string
	Headline string
	Guests   string
}

// ListingURL builds the URL of a listing page from a pattern with a %d
// placeholder.
func ListingURL(pattern string, page int) string {
	return fmt.Sprintf(pattern, page)
}

// CountTranscriptCards returns the number of transcript cards on a listing page.
func CountTranscriptCards(html string) (int, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc.Find(cardSelector).Length(), nil
}

// ExtractTranscriptCards extracts the transcript cards of an MSNBC listing page.
// It looks for div.transcript-card elements and reads the air date, the show
// link (name and href), the headline link and the guest list from each.
//
// A card without air date, show link or headline is not returned; instead an
// error wrapping ErrMissingField is added to skipped. Guests are optional.
// Relative links are resolved against pageURL.
func ExtractTranscriptCards(html, pageURL string) (cards []Card, skipped []error, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	base, _ := url.Parse(pageURL)

	doc.Find(cardSelector).Each(func(i int, card *goquery.Selection) {
		c, cardErr := extractCard(card, base)
		if cardErr != nil {
			skipped = append(skipped, fmt.Errorf("card %d: %w", i+1, cardErr))
			return
		}
		cards = append(cards, c)
	})

	return cards, skipped, nil
}

func extractCard(card *goquery.Selection, base *url.URL) (Card, error) {
	airDate := card.Find(airDateSelector).First()
	if airDate.Length() == 0 {
		return Card{}, fmt.Errorf("%w: air date", ErrMissingField)
	}

	link := card.Find(showNameSelector).First()
	if link.Length() == 0 {
		return Card{}, fmt.Errorf("%w: show name", ErrMissingField)
	}
	href, exists := link.Attr("href")
	href = strings.TrimSpace(href)
	if !exists || href == "" {
		return Card{}, fmt.Errorf("%w: show link href", ErrMissingField)
	}

	headline := card.Find(headlineSelector).First()
	if headline.Length() == 0 {
		return Card{}, fmt.Errorf("%w: headline", ErrMissingField)
	}

	return Card{
		AirDate:  cleanText(airDate.Text()),
		ShowName: cleanText(link.Text()),
		URL:      resolveURL(base, href),
		Headline: cleanText(headline.Text()),
		Guests:   cleanText(card.Find(guestsSelector).First().Text()),
	}, nil
}

// resolveURL converts href to an absolute URL when a base is known
func resolveURL(base *url.URL, href string) string {
	parsed, err := url.Parse(href)
	if err != nil || base == nil || parsed.IsAbs() {
		return href
	}
	return base.ResolveReference(parsed).String()
}

// cleanText collapses runs of whitespace
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
