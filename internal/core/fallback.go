package core

import (
	"encoding/json"
	"fmt"
)

// FallbackProvider is recorded on analyses produced without any AI backend.
const FallbackProvider = "fallback"

// FallbackAnalysis returns a generic analysis document used when every AI
// provider is unavailable. The insights make the degraded mode explicit so
// clients do not mistake it for a real analysis.
func FallbackAnalysis(segment string) AnalysisDocument {
	if segment == "" {
		segment = "Negócios"
	}

	avatar := map[string]any{
		"perfil_demografico": map[string]string{
			"idade":       "25-45 anos",
			"renda":       "R$ 3.000 - R$ 15.000",
			"localizacao": "Grandes centros urbanos",
		},
		"dores_principais": []string{
			fmt.Sprintf("Dificuldades no mercado de %s", segment),
			"Concorrência acirrada",
			"Falta de diferenciação",
		},
		"desejos_principais": []string{
			"Crescimento sustentável",
			"Reconhecimento no mercado",
			"Liberdade financeira",
		},
	}

	insights := []string{
		fmt.Sprintf("Mercado de %s em transformação", segment),
		"Oportunidades digitais crescentes",
		"Análise gerada em modo fallback - IAs indisponíveis",
	}

	doc := AnalysisDocument{}
	doc["avatar_ultra_detalhado"] = mustMarshal(avatar)
	doc["insights_exclusivos"] = mustMarshal(insights)
	return doc
}

func mustMarshal(value any) json.RawMessage {
	b, err := json.Marshal(value)
	if err != nil {
		panic(err)
	}
	return b
}
