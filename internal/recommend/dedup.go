package recommend

import "math/rand/v2"

// SelectUnique drops tracks whose title was already seen (first occurrence
// wins, artists are ignored) and returns at most limit of the rest. When at
// least limit unique tracks remain, a uniform random sample of exactly limit
// is returned; otherwise all unique tracks in first-seen order. The input is
// not modified. A nil rng uses the global source.
func SelectUnique(tracks []Track, limit int, rng *rand.Rand) []Track {
	if limit <= 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(tracks))
	unique := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if _, ok := seen[t.Title]; ok {
			continue
		}
		seen[t.Title] = struct{}{}
		unique = append(unique, t)
	}

	if len(unique) < limit {
		return unique
	}

	intN := rand.IntN
	if rng != nil {
		intN = rng.IntN
	}

	// Partial Fisher-Yates: the first limit slots end up a uniform sample.
	for i := 0; i < limit; i++ {
		j := i + intN(len(unique)-i)
		unique[i], unique[j] = unique[j], unique[i]
	}
	return unique[:limit]
}
