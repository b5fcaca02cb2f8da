package evaluation

// queryPRR computes a single query's PRR contribution. Binary scoring
// reports 1 when any retrieved record is poisoned; fraction scoring
// reports poisoned hits over retrieved hits. Both stay within [0, 1].
func queryPRR(poisoned, retrieved int, scoring Scoring) float64 {
	if retrieved == 0 || poisoned == 0 {
		return 0
	}
	if scoring == ScoringFraction {
		return float64(poisoned) / float64(retrieved)
	}
	return 1
}
