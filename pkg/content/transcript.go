package content

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"transcripts/pkg/dates"
	"transcripts/pkg/domain"
)

// DefaultChannel is recorded as channel.name on every transcript.
const DefaultChannel = "MSNBC"

const (
	contentSelector    = "div.article-body__content"
	summaryAnchorID    = "anchor-Summary"
	transcriptAnchorID = "anchor-Transcript"
	timeSelector       = "time"
)

var (
	// ErrNoContent means the page has no article body container. The record
	// is returned unchanged.
	ErrNoContent = errors.New("content container not found")

	errEmptyHTML = errors.New("empty HTML content")
)

// DateResolver picks a date from the page's time text, the page URL and the
// listing air date, in that order.
type DateResolver interface {
	Resolve(timeText, pageURL, fallbackText string) dates.Resolution
}

// TranscriptExtractor turns a transcript page into the derived fields of a
// transcript row.
type TranscriptExtractor struct {
	resolver DateResolver
	channel  string
}

// NewTranscriptExtractor creates an extractor. An empty channel selects DefaultChannel.
func NewTranscriptExtractor(resolver DateResolver, channel string) *TranscriptExtractor {
	if channel == "" {
		channel = DefaultChannel
	}
	return &TranscriptExtractor{resolver: resolver, channel: channel}
}

// Extract fills summary, transcript text, word count, date, uid, path and the
// constant fields of rec from a transcript page.
//
// The body is the newline-joined text of every node after the transcript
// anchor, each trimmed, blanks dropped. Without the anchor the whole content
// text is used. If the page has no content container, rec is returned as is
// together with an error wrapping ErrNoContent.
func (e *TranscriptExtractor) Extract(htmlContent string, rec domain.Transcript) (domain.Transcript, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return rec, fmt.Errorf("%w: %w", ErrNoContent, errEmptyHTML)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return rec, fmt.Errorf("failed to parse HTML: %w", err)
	}

	container := doc.Find(contentSelector).First()
	if container.Length() == 0 {
		if title, titleErr := ExtractTitle(htmlContent); titleErr == nil {
			return rec, fmt.Errorf("%w (page title %q)", ErrNoContent, title)
		}
		return rec, ErrNoContent
	}

	summary := summaryText(container)
	body := transcriptText(container)
	res := e.resolver.Resolve(timeText(doc), rec.URL, rec.AirDate)

	rec.Channel = e.channel
	rec.Program = rec.Headline
	rec.Subhead = ""
	rec.Summary = summary
	rec.Text = body
	rec.WordCount = len(strings.Fields(body))
	rec.SetDate(res.Time)
	if rec.UID == "" {
		rec.UID = lastPathSegment(rec.URL)
	}
	if rec.Path == "" {
		rec.Path = urlPath(rec.URL)
	}

	return rec, nil
}

// summaryText returns the first non-blank text following the summary anchor,
// stopping at the transcript anchor.
func summaryText(container *goquery.Selection) string {
	anchor := findAnchor(container, summaryAnchorID)
	if anchor == nil {
		return ""
	}

	for n := anchor.NextSibling; n != nil; n = n.NextSibling {
		if isAnchor(n, transcriptAnchorID) {
			break
		}
		if text := nodeText(n); text != "" {
			return text
		}
	}
	return ""
}

// transcriptText joins the trimmed text of every sibling after the transcript
// anchor, or falls back to the whole container text.
func transcriptText(container *goquery.Selection) string {
	anchor := findAnchor(container, transcriptAnchorID)
	if anchor == nil {
		return strings.TrimSpace(container.Text())
	}

	var parts []string
	for n := anchor.NextSibling; n != nil; n = n.NextSibling {
		if text := nodeText(n); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n")
}

// timeText returns the text of the page's first <time> element, or its
// datetime attribute when the element has no text.
func timeText(doc *goquery.Document) string {
	el := doc.Find(timeSelector).First()
	if el.Length() == 0 {
		return ""
	}
	if text := strings.TrimSpace(el.Text()); text != "" {
		return text
	}
	attr, _ := el.Attr("datetime")
	return strings.TrimSpace(attr)
}

func findAnchor(container *goquery.Selection, id string) *html.Node {
	sel := container.Find("a#" + id).First()
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}

func isAnchor(n *html.Node, id string) bool {
	if n.Type != html.ElementNode || n.Data != "a" {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "id" && attr.Val == id {
			return true
		}
	}
	return false
}

// nodeText returns the trimmed text of a text or element node. Comments and
// other node types have no text.
func nodeText(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return strings.TrimSpace(n.Data)
	case html.ElementNode:
		return strings.TrimSpace(goquery.NewDocumentFromNode(n).Text())
	default:
		return ""
	}
}

func lastPathSegment(rawURL string) string {
	p := strings.TrimRight(urlPath(rawURL), "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func urlPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Path
}
