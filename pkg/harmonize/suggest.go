package harmonize

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/oncoweave/pipeline/pkg/completeness"
	"gopkg.in/yaml.v3"
)

// Suggestion is one proposed unified column with its best per-cohort match.
// Suggestions are a starting point for the manual mapping file, never applied
// automatically.
type Suggestion struct {
	Unified  string  `yaml:"-"`
	Type     string  `yaml:"type"`
	Metabric string  `yaml:"metabric,omitempty"`
	Scanb    string  `yaml:"scanb,omitempty"`
	Tcga     string  `yaml:"tcga,omitempty"`
	Score    float64 `yaml:"score"`
}

var nameSeparators = regexp.MustCompile(`[_\s.-]+`)

func normalizeName(name string) string {
	return strings.Trim(nameSeparators.ReplaceAllString(strings.ToLower(name), "_"), "_")
}

// skippedCategories have too many low-value columns (per-gene matrices,
// bookkeeping metadata) to produce meaningful name matches.
var skippedCategories = map[string]struct{}{
	"other": {},
}

// SuggestMappings proposes cross-cohort column matches: columns are bucketed
// by semantic category, then same-category pairs are scored by Jaro-Winkler
// similarity of their normalized names. Matches below minSimilarity are
// dropped.
func SuggestMappings(metabric, scanb, tcga []string, minSimilarity float64) []Suggestion {
	if minSimilarity <= 0 {
		minSimilarity = 0.7
	}

	scanbByCat := groupByCategory(scanb)
	tcgaByCat := groupByCategory(tcga)

	var suggestions []Suggestion
	for _, col := range metabric {
		cat := completeness.Categorize(col)
		if _, skip := skippedCategories[cat]; skip {
			continue
		}

		s := Suggestion{
			Unified:  normalizeName(col),
			Type:     cat,
			Metabric: col,
			Score:    1,
		}
		if match, score := bestMatch(col, scanbByCat[cat], minSimilarity); match != "" {
			s.Scanb = match
			if score < s.Score {
				s.Score = score
			}
		}
		if match, score := bestMatch(col, tcgaByCat[cat], minSimilarity); match != "" {
			s.Tcga = match
			if score < s.Score {
				s.Score = score
			}
		}
		if s.Scanb == "" && s.Tcga == "" {
			continue
		}
		suggestions = append(suggestions, s)
	}

	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].Unified < suggestions[j].Unified
	})
	return suggestions
}

func groupByCategory(cols []string) map[string][]string {
	out := make(map[string][]string)
	for _, col := range cols {
		cat := completeness.Categorize(col)
		out[cat] = append(out[cat], col)
	}
	return out
}

func bestMatch(target string, candidates []string, minSimilarity float64) (string, float64) {
	best, bestScore := "", 0.0
	for _, candidate := range candidates {
		score := jaroWinkler(normalizeName(target), normalizeName(candidate))
		if score > bestScore {
			best, bestScore = candidate, score
		}
	}
	if bestScore < minSimilarity {
		return "", 0
	}
	return best, bestScore
}

// WriteSuggestions renders the suggestions as a mapping-file skeleton.
func WriteSuggestions(suggestions []Suggestion, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	columns := make(map[string]Suggestion, len(suggestions))
	for _, s := range suggestions {
		columns[s.Unified] = s
	}
	out, err := yaml.Marshal(map[string]interface{}{"columns": columns})
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0o644)
}

func jaroWinkler(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	if s1 == "" || s2 == "" {
		return 0
	}

	matchDistance := max(len(s1), len(s2))/2 - 1
	if matchDistance < 0 {
		matchDistance = 0
	}

	s1Matches := make([]bool, len(s1))
	s2Matches := make([]bool, len(s2))

	matches := 0
	transpositions := 0

	for i := range s1 {
		start := max(0, i-matchDistance)
		end := min(i+matchDistance+1, len(s2))
		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0
	}

	k := 0
	for i := range s1 {
		if !s1Matches[i] {
			continue
		}
		for ; !s2Matches[k]; k++ {
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	transpositions /= 2

	jaro := (float64(matches)/float64(len(s1)) + float64(matches)/float64(len(s2)) + float64(matches-transpositions)/float64(matches)) / 3

	prefix := 0
	for i := 0; i < min(4, min(len(s1), len(s2))); i++ {
		if s1[i] == s2[i] {
			prefix++
		} else {
			break
		}
	}

	return jaro + float64(prefix)*0.1*(1-jaro)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
