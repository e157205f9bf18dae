package match

import (
	"sort"
	"strings"
	"unicode/utf8"

	lfuzzy "github.com/lithammer/fuzzysearch/fuzzy"
	sfuzzy "github.com/sahilm/fuzzy"
)

// SearchOpts tunes filtering.
type SearchOpts struct {
	// Pre and Post wrap every matched rune in the rendered string.
	Pre  string
	Post string
	// Skip passes every candidate through unfiltered in source order.
	Skip bool
	// Fuzzy ranks by subsequence distance instead of substring containment.
	Fuzzy bool
}

// Lookup extracts the string a candidate is matched against.
type Lookup func(Candidate) string

// FieldLookup matches against a named candidate field.
func FieldLookup(name string) Lookup {
	return func(c Candidate) string { return c.Field(name) }
}

// Result is a candidate that survived filtering.
type Result struct {
	// Index is the candidate's position in the source list.
	Index     int
	Candidate Candidate
	// String is the matched text with Pre/Post applied.
	String string
	// Matched holds rune indexes of matched characters in the lookup text.
	Matched []int
	Score   int
}

// Filter returns the candidates matching query. The default is a
// case-insensitive substring match preserving source order.
func Filter(query string, candidates []Candidate, opts SearchOpts, lookup Lookup) []Result {
	if lookup == nil {
		lookup = FieldLookup("key")
	}
	if opts.Skip {
		out := make([]Result, len(candidates))
		for i, c := range candidates {
			out[i] = Result{Index: i, Candidate: c, String: lookup(c)}
		}
		return out
	}
	if opts.Fuzzy && query != "" {
		return fuzzyFilter(query, candidates, opts, lookup)
	}
	lower := strings.ToLower(query)
	out := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		text := lookup(c)
		pos := strings.Index(strings.ToLower(text), lower)
		if pos < 0 {
			continue
		}
		matched := substringIndexes(text, pos, utf8.RuneCountInString(lower))
		out = append(out, Result{
			Index:     i,
			Candidate: c,
			String:    wrap(text, matched, opts),
			Matched:   matched,
		})
	}
	return out
}

func fuzzyFilter(query string, candidates []Candidate, opts SearchOpts, lookup Lookup) []Result {
	targets := make([]string, len(candidates))
	for i, c := range candidates {
		targets[i] = lookup(c)
	}
	ranks := lfuzzy.RankFindNormalizedFold(query, targets)
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Distance != ranks[j].Distance {
			return ranks[i].Distance < ranks[j].Distance
		}
		return ranks[i].OriginalIndex < ranks[j].OriginalIndex
	})
	out := make([]Result, 0, len(ranks))
	for _, rank := range ranks {
		text := targets[rank.OriginalIndex]
		matched := fuzzyIndexes(query, text)
		out = append(out, Result{
			Index:     rank.OriginalIndex,
			Candidate: candidates[rank.OriginalIndex],
			String:    wrap(text, matched, opts),
			Matched:   matched,
			Score:     -rank.Distance,
		})
	}
	return out
}

// Limit truncates results to n entries. Non-positive limits keep everything.
func Limit(results []Result, n int) []Result {
	if n <= 0 || len(results) <= n {
		return results
	}
	return results[:n]
}

func substringIndexes(text string, bytePos, runes int) []int {
	if runes == 0 {
		return nil
	}
	start := utf8.RuneCountInString(strings.ToLower(text)[:bytePos])
	out := make([]int, runes)
	for i := range out {
		out[i] = start + i
	}
	return out
}

func fuzzyIndexes(query, text string) []int {
	matches := sfuzzy.Find(query, []string{text})
	if len(matches) == 0 {
		return nil
	}
	byteToRune := make(map[int]int, len(text))
	idx := 0
	for b := range text {
		byteToRune[b] = idx
		idx++
	}
	out := make([]int, 0, len(matches[0].MatchedIndexes))
	for _, b := range matches[0].MatchedIndexes {
		if r, ok := byteToRune[b]; ok {
			out = append(out, r)
		}
	}
	return out
}

func wrap(text string, matched []int, opts SearchOpts) string {
	if len(matched) == 0 || (opts.Pre == "" && opts.Post == "") {
		return text
	}
	set := make(map[int]struct{}, len(matched))
	for _, m := range matched {
		set[m] = struct{}{}
	}
	var b strings.Builder
	i := 0
	for _, r := range text {
		if _, ok := set[i]; ok {
			b.WriteString(opts.Pre)
			b.WriteRune(r)
			b.WriteString(opts.Post)
		} else {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}
