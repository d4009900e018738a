package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxPageChars caps the text kept per page so a handful of long articles
	// cannot crowd the analysis context.
	MaxPageChars = 3000

	minUsefulChars  = 100
	extractionBatch = 5
)

var skippedElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"nav":      {},
	"footer":   {},
	"header":   {},
	"form":     {},
	"aside":    {},
	"iframe":   {},
	"noscript": {},
}

// Extractor fetches pages and reduces them to plain text for the analysis
// prompt.
type Extractor struct {
	client *resty.Client
}

func NewExtractor() *Extractor {
	return &Extractor{
		client: resty.New().
			SetTimeout(30 * time.Second).
			SetHeader("User-Agent", browserUserAgent).
			SetHeader("Accept-Language", "pt-BR,pt;q=0.9,en;q=0.8"),
	}
}

// PageContent is the extracted text of one fetched page.
type PageContent struct {
	Url     string
	Title   string
	Content string
}

// Extract fetches url and returns its visible text, capped at MaxPageChars.
// Pages yielding less than minUsefulChars of text are treated as failures.
func (e *Extractor) Extract(ctx context.Context, pageUrl string) (PageContent, error) {
	if !strings.HasPrefix(pageUrl, "http") {
		return PageContent{}, fmt.Errorf("invalid url %q", pageUrl)
	}

	res, err := e.client.R().SetContext(ctx).Get(pageUrl)
	if err != nil {
		return PageContent{}, fmt.Errorf("error fetching %s: %w", pageUrl, err)
	}
	if !res.IsSuccess() {
		return PageContent{}, fmt.Errorf("fetching %s returned status %d", pageUrl, res.StatusCode())
	}

	doc, err := html.Parse(strings.NewReader(res.String()))
	if err != nil {
		return PageContent{}, fmt.Errorf("error parsing %s: %w", pageUrl, err)
	}

	text := collapseWhitespace(visibleText(doc))
	if len(text) < minUsefulChars {
		return PageContent{}, fmt.Errorf("page %s yielded no substantial content", pageUrl)
	}
	if len(text) > MaxPageChars {
		text = truncateRunes(text, MaxPageChars)
	}

	return PageContent{
		Url:     pageUrl,
		Title:   documentTitle(doc),
		Content: text,
	}, nil
}

// ExtractBatch fetches the given urls concurrently and returns the pages that
// could be extracted, in no particular order. Individual failures are logged
// by the caller via the returned count difference rather than aborting the
// batch.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string) []PageContent {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(extractionBatch)

	var mu sync.Mutex
	var pages []PageContent

	for _, pageUrl := range urls {
		group.Go(func() error {
			page, err := e.Extract(ctx, pageUrl)
			if err != nil {
				// Unreachable pages are expected in scraped result sets.
				return nil
			}
			mu.Lock()
			pages = append(pages, page)
			mu.Unlock()
			return nil
		})
	}

	_ = group.Wait()
	return pages
}

func visibleText(n *html.Node) string {
	if n.Type == html.ElementNode {
		if _, skip := skippedElements[n.Data]; skip {
			return ""
		}
	}
	if n.Type == html.TextNode {
		return n.Data
	}

	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(visibleText(c))
		sb.WriteString(" ")
	}
	return sb.String()
}

func documentTitle(doc *html.Node) string {
	var title string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncateRunes cuts s to at most limit bytes without splitting a rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
