package scoring

import "strings"

// CatalystHit records which keyword bucket a headline matched
type CatalystHit struct {
	Kind     string `json:"kind"`
	Headline string `json:"headline"`
}

// catalystBuckets maps event categories to keyword lists and point values.
// Point values mirror the screener's news weighting: regulatory and M&A
// events move small caps hardest.
var catalystBuckets = []struct {
	kind     string
	points   float64
	keywords []string
}{
	{"earnings", 30, []string{"earnings", "guidance", "revenue", "beat", "eps"}},
	{"fda", 35, []string{"fda", "phase", "trial", "approval", "drug"}},
	{"insider", 20, []string{"insider", "form 4", "purchases", "buys shares"}},
	{"mna", 35, []string{"acquire", "merger", "m&a", "takeover", "buyout"}},
	{"contract", 15, []string{"contract", "partnership", "deal", "agreement"}},
}

// CatalystScore scores recent headlines by catalyst keyword buckets.
// Returns a 0..100 score and the matched hits. A headline can score in
// multiple buckets; the total is capped at 100.
func CatalystScore(headlines []string) (float64, []CatalystHit) {
	score := 0.0
	hits := make([]CatalystHit, 0)

	for _, headline := range headlines {
		lower := strings.ToLower(headline)
		for _, bucket := range catalystBuckets {
			for _, kw := range bucket.keywords {
				if strings.Contains(lower, kw) {
					score += bucket.points
					hits = append(hits, CatalystHit{Kind: bucket.kind, Headline: headline})
					break
				}
			}
		}
	}

	if score > 100 {
		score = 100
	}
	return score, hits
}
