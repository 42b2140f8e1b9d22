package rank

import (
	"strings"

	"github.com/hupe1980/sqlgo/lexical"
	"github.com/hupe1980/sqlgo/model"
)

// Weights of the final score components.
const (
	weightSimilarity  = 0.35
	weightRelevance   = 0.25
	weightQuality     = 0.20
	weightSuccessRate = 0.15
	weightUsage       = 0.05
)

// usageSaturation is the usage count at which the usage component maxes out.
const usageSaturation = 10

// canonicalPhrases are multi-word query idioms that survive tokenization
// poorly but signal strong structural similarity when shared verbatim.
var canonicalPhrases = []string{
	"how many",
	"top 5",
	"top 10",
	"average",
	"total",
	"at least",
	"more than",
	"less than",
	"per month",
	"per year",
}

// similarity scores the lexical closeness of two natural-language texts
// within [0,1]: Jaccard overlap of the token sets, plus a containment bonus
// of 0.3 when one normalized text contains the other, or 0.2 when both
// share a canonical phrase.
func similarity(queryTokens map[string]struct{}, queryNorm string, example string) float64 {
	exTokens := lexical.TokenSet(example)

	score := jaccard(queryTokens, exTokens)

	exNorm := normalizeText(example)
	switch {
	case containsEither(queryNorm, exNorm):
		score += 0.3
	case sharesCanonicalPhrase(queryNorm, exNorm):
		score += 0.2
	}

	if score > 1 {
		score = 1
	}
	return score
}

func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func sharesCanonicalPhrase(a, b string) bool {
	for _, phrase := range canonicalPhrases {
		if strings.Contains(a, phrase) && strings.Contains(b, phrase) {
			return true
		}
	}
	return false
}

// relevance scores how well an example's referenced tables line up with the
// tables the query plausibly touches, within [0,1]. The overlap half is
// normalized by the larger of the two table sets; the existence half is the
// fraction of referenced tables present in the schema, with table-free
// examples counting as fully applicable.
func relevance(ex model.Example, schema model.SchemaDescription, relevantTables []string) float64 {
	exTables := ex.Pattern.ReferencedTables

	var overlapPart float64
	denom := len(exTables)
	if len(relevantTables) > denom {
		denom = len(relevantTables)
	}
	if denom > 0 {
		overlap := 0
		for _, t := range exTables {
			if containsFold(relevantTables, t) {
				overlap++
			}
		}
		overlapPart = float64(overlap) / float64(denom)
	}

	existPart := 1.0
	if len(exTables) > 0 {
		exist := 0
		for _, t := range exTables {
			if schema.HasTable(t) {
				exist++
			}
		}
		existPart = float64(exist) / float64(len(exTables))
	}

	return 0.6*overlapPart + 0.4*existPart
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// finalScore combines the per-call scores with the example's track record.
func finalScore(sim, rel float64, ex model.Example) float64 {
	usage := float64(ex.UsageCount) / usageSaturation
	if usage > 1 {
		usage = 1
	}

	return weightSimilarity*sim +
		weightRelevance*rel +
		weightQuality*(ex.QualityScore/100) +
		weightSuccessRate*(ex.SuccessRate/100) +
		weightUsage*usage
}
