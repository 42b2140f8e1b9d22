package orchestrator

import "strings"

// normalizeSQL lowercases a statement and collapses whitespace runs to
// single spaces, so formatting differences never count as disagreement.
func normalizeSQL(sql string) string {
	return strings.Join(strings.Fields(strings.ToLower(sql)), " ")
}

// levenshtein returns the edit distance between a and b, computed over
// runes with two rolling rows.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i

		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}

			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}

		prev, curr = curr, prev
	}

	return prev[len(rb)]
}

// statementSimilarity is 1 minus the length-normalized edit distance of
// two already normalized statements, in [0,1].
func statementSimilarity(a, b string) float64 {
	if a == b {
		return 1
	}

	maxLen := max(len([]rune(a)), len([]rune(b)))
	if maxLen == 0 {
		return 1
	}

	return 1 - float64(levenshtein(a, b))/float64(maxLen)
}

// consensusScore is the mean pairwise similarity of the normalized
// statements, scaled to [0,100]. Fewer than two statements trivially
// agree.
func consensusScore(sqls []string) float64 {
	if len(sqls) < 2 {
		return 100
	}

	norm := make([]string, len(sqls))
	for i, s := range sqls {
		norm[i] = normalizeSQL(s)
	}

	var (
		sum   float64
		pairs int
	)

	for i := 0; i < len(norm); i++ {
		for j := i + 1; j < len(norm); j++ {
			sum += statementSimilarity(norm[i], norm[j])
			pairs++
		}
	}

	return sum / float64(pairs) * 100
}
