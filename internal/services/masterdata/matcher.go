package masterdata

import (
	"strings"

	"github.com/ternarybob/diario/internal/models"
)

// Fuzzy-match thresholds shared with the validator. A candidate whose
// similarity to its master match falls below the cutoff is an error;
// between cutoff and the warning threshold it is a warning.
const (
	FuzzyCutoff           = 0.7
	FuzzyWarningThreshold = 0.95
)

// Match resolves a candidate sigla against the registry. Exact cache
// hits win; otherwise the closest key with Ratio >= FuzzyCutoff is
// returned. When nothing matches, the uppercased candidate comes back
// with a nil record.
func (s *Service) Match(candidate string) (string, *models.MasterRecord) {
	upper := strings.ToUpper(candidate)
	if record, ok := s.Get(upper); ok {
		return upper, &record
	}

	bestKey := ""
	bestRatio := 0.0
	for _, key := range s.Keys() {
		ratio := Ratio(upper, key)
		if ratio >= FuzzyCutoff && ratio > bestRatio {
			bestKey = key
			bestRatio = ratio
		}
	}
	if bestKey != "" {
		record, _ := s.Get(bestKey)
		return bestKey, &record
	}
	return upper, nil
}

// Ratio is the Gestalt pattern-matching similarity 2*M/T, where M is the
// total length of the recursively matched common substrings and T the
// combined length of both inputs. Identical strings score 1.0;
// "MECX" vs "MEC" scores 6/7.
func Ratio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}
	return 2.0 * float64(matchingTotal(ra, rb)) / float64(total)
}

// matchingTotal sums the longest common substring and, recursively, the
// matches to its left and right.
func matchingTotal(a, b []rune) int {
	ai, bi, size := longestCommonSubstring(a, b)
	if size == 0 {
		return 0
	}
	return size +
		matchingTotal(a[:ai], b[:bi]) +
		matchingTotal(a[ai+size:], b[bi+size:])
}

func longestCommonSubstring(a, b []rune) (ai, bi, size int) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0, 0
	}
	// lengths[j] is the match length ending at a[i], b[j-1] from the
	// previous row.
	lengths := make([]int, len(b)+1)
	for i := 0; i < len(a); i++ {
		prev := 0
		for j := 1; j <= len(b); j++ {
			current := lengths[j]
			if a[i] == b[j-1] {
				lengths[j] = prev + 1
				if lengths[j] > size {
					size = lengths[j]
					ai = i - size + 1
					bi = j - size
				}
			} else {
				lengths[j] = 0
			}
			prev = current
		}
	}
	return ai, bi, size
}
