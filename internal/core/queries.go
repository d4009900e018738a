package core

import (
	"fmt"
	"strings"

	"arqv-backend/pkg/api"
)

// MaxSearchRounds bounds how many queries the data collection phase runs.
const MaxSearchRounds = 2

// BuildSearchQueries derives the search queries for an analysis request. The
// market query always comes first; a user supplied query replaces the
// competitor query so the total never exceeds MaxSearchRounds.
func BuildSearchQueries(req api.AnalyzeRequest) []string {
	segment := strings.TrimSpace(req.Segment)
	product := strings.TrimSpace(req.Product)

	var queries []string
	if product != "" {
		queries = append(queries, fmt.Sprintf("mercado %s %s Brasil análise tendências", segment, product))
	} else {
		queries = append(queries, fmt.Sprintf("mercado %s Brasil análise oportunidades", segment))
	}

	if custom := strings.TrimSpace(req.Query); custom != "" {
		queries = append(queries, custom)
	} else {
		queries = append(queries, fmt.Sprintf("concorrentes %s Brasil principais empresas market share", segment))
	}

	return queries[:MaxSearchRounds]
}
