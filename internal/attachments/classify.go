package attachments

import "strings"

// Content kinds recognized by the keyword classifier. The categories mirror
// the prompt sections the analysis pipeline feeds attachment context into.
const (
	KindMentalDrivers = "drivers_mentais"
	KindVisualProofs  = "provas_visuais"
	KindPsychProfiles = "perfis_psicologicos"
	KindResearchData  = "dados_pesquisa"
	KindGeneral       = "geral"
)

var contentClassifiers = map[string][]string{
	KindMentalDrivers: {
		"urgência", "escassez", "autoridade", "prova social", "reciprocidade",
		"compromisso", "aversão à perda", "ancoragem", "gatilho", "persuasão",
	},
	KindVisualProofs: {
		"depoimento", "testemunho", "case", "resultado", "antes e depois",
		"screenshot", "gráfico", "estatística", "número", "percentual",
	},
	KindPsychProfiles: {
		"persona", "perfil", "comportamento", "personalidade", "psicológico",
		"motivação", "desejo", "dor", "necessidade", "aspiração",
	},
	KindResearchData: {
		"pesquisa", "survey", "questionário", "dados", "estatística",
		"amostra", "respondente", "análise", "insight", "tendência",
	},
}

// ClassifyContent scores the text against each category's keyword list and
// returns the best match, or KindGeneral when nothing matches.
func ClassifyContent(content string) string {
	lower := strings.ToLower(content)

	best := KindGeneral
	bestScore := 0
	for kind, keywords := range contentClassifiers {
		score := 0
		for _, keyword := range keywords {
			score += strings.Count(lower, keyword)
		}
		if score > bestScore || (score == bestScore && score > 0 && kind < best) {
			best = kind
			bestScore = score
		}
	}

	if bestScore == 0 {
		return KindGeneral
	}
	return best
}
