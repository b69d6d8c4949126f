package validation

import (
	"sort"
	"strings"

	"github.com/arbovm/levenshtein"
	"github.com/codycollier/wer"
)

// maxSeasonDistance is the largest edit distance treated as a typo.
const maxSeasonDistance = 2

// CanonicalSeasons lists the twelve-season labels in their display spelling.
var CanonicalSeasons = []string{
	"Светлая Весна",
	"Теплая Весна",
	"Яркая Весна",
	"Светлое Лето",
	"Холодное Лето",
	"Мягкое Лето",
	"Мягкая Осень",
	"Теплая Осень",
	"Глубокая Осень",
	"Настоящая Осень",
	"Глубокая Зима",
	"Холодная Зима",
	"Яркая Зима",
}

// NormalizeSeason maps case, word-order and small spelling variants of a
// canonical season onto its canonical label. Unknown labels are returned
// unchanged.
func NormalizeSeason(season string) string {
	key := foldSeason(season)
	if key == "" {
		return season
	}
	words := sortedWords(key)

	best, bestDist := "", maxSeasonDistance+1
	for _, canonical := range CanonicalSeasons {
		ck := foldSeason(canonical)
		if ck == key {
			return canonical
		}
		if score, _ := wer.WER(sortedWords(ck), words); score == 0 {
			return canonical
		}
		if d := levenshtein.Distance(key, ck); d < bestDist {
			best, bestDist = canonical, d
		}
	}
	if best != "" {
		return best
	}
	return season
}

func foldSeason(s string) string {
	s = strings.ReplaceAll(strings.ToLower(s), "ё", "е")
	return strings.Join(strings.Fields(s), " ")
}

func sortedWords(s string) []string {
	words := strings.Fields(s)
	sort.Strings(words)
	return words
}
