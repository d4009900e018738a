package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"arqv-backend/internal/search"
)

const (
	// MaxContextChars caps the combined research context handed to the model.
	MaxContextChars = 15000

	maxContextSources  = 10
	maxCharsPerSummary = 1000
)

// SearchRound records one executed query for the task metadata.
type SearchRound struct {
	Round          int    `json:"round"`
	Query          string `json:"query"`
	ResultsCount   int    `json:"results_count"`
	ExtractedCount int    `json:"extracted_count"`
}

// ResearchData is everything the data collection phase gathered.
type ResearchData struct {
	Rounds       []SearchRound
	TotalResults int
	Pages        []search.PageContent
}

// BuildResearchContext combines the extracted pages into one context block.
// Each page contributes a bounded summary, and the whole block is capped at
// MaxContextChars.
func BuildResearchContext(research ResearchData) string {
	if len(research.Pages) == 0 {
		return "Nenhum conteúdo extraído disponível."
	}

	pages := research.Pages
	if len(pages) > maxContextSources {
		pages = pages[:maxContextSources]
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("PESQUISA REALIZADA - %d FONTES ANALISADAS:\n\n", len(pages)))

	for i, page := range pages {
		summary := page.Content
		if len(summary) > maxCharsPerSummary {
			summary = truncate(summary, maxCharsPerSummary) + "..."
		}
		sb.WriteString(fmt.Sprintf("FONTE %d: %s\nURL: %s\nRESUMO: %s\n\n", i+1, page.Title, page.Url, summary))
	}

	sb.WriteString("ESTATÍSTICAS DA PESQUISA:\n")
	sb.WriteString(fmt.Sprintf("- Total de rodadas: %d\n", len(research.Rounds)))
	sb.WriteString(fmt.Sprintf("- Total de resultados: %d\n", research.TotalResults))
	sb.WriteString(fmt.Sprintf("- Conteúdo extraído: %d páginas\n", len(research.Pages)))

	return truncate(sb.String(), MaxContextChars)
}

// truncate cuts s to at most limit bytes without splitting a rune.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
