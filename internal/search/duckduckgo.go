package search

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/net/html"
)

const duckduckgoSearchURL = "https://html.duckduckgo.com"

const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DuckDuckGoProvider scrapes the DuckDuckGo HTML endpoint. It needs no API
// key, so it serves as the fallback when the keyed providers are unavailable.
type DuckDuckGoProvider struct {
	client *resty.Client
}

func NewDuckDuckGoProvider() *DuckDuckGoProvider {
	return &DuckDuckGoProvider{
		client: resty.New().SetBaseURL(duckduckgoSearchURL).SetTimeout(30 * time.Second),
	}
}

func (p *DuckDuckGoProvider) Name() string { return "duckduckgo" }

func (p *DuckDuckGoProvider) Search(ctx context.Context, query string, maxResults int) ([]Result, error) {
	res, err := p.client.R().
		SetContext(ctx).
		SetHeader("User-Agent", browserUserAgent).
		SetQueryParams(map[string]string{
			"q":  query,
			"kl": "br-pt",
		}).
		Get("/html/")
	if err != nil {
		return nil, fmt.Errorf("duckduckgo search request failed: %w", err)
	}

	if !res.IsSuccess() {
		return nil, fmt.Errorf("duckduckgo search returned status %d", res.StatusCode())
	}

	doc, err := html.Parse(strings.NewReader(res.String()))
	if err != nil {
		return nil, fmt.Errorf("error parsing duckduckgo response: %w", err)
	}

	results := parseDuckDuckGoResults(doc, maxResults)
	for i := range results {
		results[i].Source = p.Name()
	}
	return results, nil
}

func parseDuckDuckGoResults(doc *html.Node, maxResults int) []Result {
	var results []Result

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if len(results) >= maxResults {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" && hasClass(n, "result__a") {
			title := strings.TrimSpace(nodeText(n))
			link := unwrapDuckDuckGoRedirect(attrValue(n, "href"))
			if title != "" && strings.HasPrefix(link, "http") {
				results = append(results, Result{
					Title:   title,
					Url:     link,
					Snippet: findSnippet(n),
				})
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return results
}

// findSnippet looks for the result__snippet element that follows the title
// link within the same result block.
func findSnippet(titleLink *html.Node) string {
	block := titleLink.Parent
	for block != nil && !(block.Type == html.ElementNode && hasClass(block, "result")) {
		block = block.Parent
	}
	if block == nil {
		return ""
	}

	var snippet string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if snippet != "" {
			return
		}
		if n.Type == html.ElementNode && hasClass(n, "result__snippet") {
			snippet = strings.TrimSpace(nodeText(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(block)
	return snippet
}

// unwrapDuckDuckGoRedirect extracts the destination from DuckDuckGo's
// /l/?uddg=... redirect links.
func unwrapDuckDuckGoRedirect(link string) string {
	if !strings.HasPrefix(link, "/l/?") && !strings.HasPrefix(link, "//duckduckgo.com/l/?") {
		return link
	}
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return link
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attrValue(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
