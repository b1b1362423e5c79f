// Package fuzzy matches free-form user text against event titles with a
// typo-tolerant word score.
package fuzzy

import (
	"strings"
	"unicode"
)

// LevenshteinDistance returns the number of single-rune edits between the
// normalized forms of s1 and s2
func LevenshteinDistance(s1, s2 string) int {
	r1 := []rune(normalizeString(s1))
	r2 := []rune(normalizeString(s2))
	if len(r1) == 0 {
		return len(r2)
	}

	prev := make([]int, len(r2)+1)
	curr := make([]int, len(r2)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r1); i++ {
		curr[0] = i
		for j := 1; j <= len(r2); j++ {
			cost := 1
			if r1[i-1] == r2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(r2)]
}

// Threshold returns the typo tolerance for a query of the given length
func Threshold(query string) int {
	n := len([]rune(query))
	switch {
	case n <= 3:
		return 1
	case n >= 8:
		return 3
	default:
		return 2
	}
}

// Score rates how well a single query word matches a title.
// Higher score = more relevant, 0 = no match.
func Score(query, title string) float64 {
	query = normalizeString(query)
	title = normalizeString(title)
	if query == "" || title == "" {
		return 0
	}

	if strings.Contains(title, query) {
		if containsWord(title, query) {
			return 150.0
		}
		return 100.0
	}

	best := 0.0
	for _, word := range strings.Fields(title) {
		score := 0.0
		if dist := LevenshteinDistance(query, word); dist <= Threshold(query) {
			score = 50.0 - float64(dist)*15
		}
		if strings.HasPrefix(word, query) {
			score += 40.0
		}
		if score > best {
			best = score
		}
	}
	return best
}

// BestMatch returns the index of the candidate that best matches the words of
// text, ignoring words shorter than three letters. ok is false when nothing matches.
func BestMatch(text string, candidates []string) (index int, ok bool) {
	words := strings.Fields(normalizeString(stripPunctuation(text)))
	bestScore := 0.0
	index = -1
	for i, c := range candidates {
		total := 0.0
		for _, w := range words {
			if len([]rune(w)) < 3 || stopWords[w] {
				continue
			}
			total += Score(w, c)
		}
		if total > bestScore {
			bestScore = total
			index = i
		}
	}
	return index, index >= 0
}

var stopWords = map[string]bool{
	"the": true, "and": true, "with": true, "for": true, "from": true, "to": true,
	"move": true, "reschedule": true, "my": true, "please": true, "can": true,
	"you": true, "today": true, "tomorrow": true, "at": true, "pm": true, "am": true,
	"replace": true, "instead": true, "afternoon": true, "morning": true, "evening": true,
}

// normalizeString lowercases, strips accents and collapses whitespace
func normalizeString(s string) string {
	s = removeAccents(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, s)
}

// containsWord checks if text contains query as a whole word
func containsWord(text, query string) bool {
	for _, word := range strings.Fields(text) {
		if word == query {
			return true
		}
	}
	return false
}

// removeAccents removes diacritical marks so "café" matches "cafe"
func removeAccents(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		switch r {
		case 'á', 'à', 'â', 'ä', 'ã', 'å':
			result.WriteRune('a')
		case 'é', 'è', 'ê', 'ë':
			result.WriteRune('e')
		case 'í', 'ì', 'î', 'ï':
			result.WriteRune('i')
		case 'ó', 'ò', 'ô', 'ö', 'õ':
			result.WriteRune('o')
		case 'ú', 'ù', 'û', 'ü':
			result.WriteRune('u')
		case 'ñ':
			result.WriteRune('n')
		case 'ç':
			result.WriteRune('c')
		default:
			result.WriteRune(r)
		}
	}
	return result.String()
}
