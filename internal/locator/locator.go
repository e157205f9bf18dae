// Package locator finds the active trigger sequence in the text preceding a
// caret and extracts the query typed since it.
package locator

import (
	"unicode"

	"github.com/dlclark/regexp2"
)

// Rule describes one trigger to look for.
type Rule struct {
	Trigger string
	// Autocomplete makes the trigger implicit: the query is the last word
	// before the caret.
	Autocomplete bool
	// Separator splits words in autocomplete mode in addition to whitespace.
	Separator           *regexp2.Regexp
	RequireLeadingSpace bool
	AllowSpaces         bool
}

// Result describes a located trigger. Offsets are in runes relative to the
// start of the text given to Locate.
type Result struct {
	Found   bool
	Rule    int
	Trigger string
	Start   int
	Query   string
	// Span is the number of runes from Start to the caret: the trigger and
	// the query together.
	Span int
}

// Locate evaluates every rule against preceding, the text before the caret.
// Explicit triggers are preferred, the one nearest the caret winning and ties
// going to the longer trigger. An autocomplete rule is consulted only when no
// explicit trigger matched.
func Locate(preceding string, rules []Rule) Result {
	text := []rune(preceding)
	lineStart := 0
	for i := len(text) - 1; i >= 0; i-- {
		if text[i] == '\n' || text[i] == '\r' {
			lineStart = i + 1
			break
		}
	}

	best := Result{Start: -1}
	auto := -1
	for i, rule := range rules {
		if rule.Autocomplete {
			if auto < 0 {
				auto = i
			}
			continue
		}
		res, ok := locateTrigger(text, lineStart, rule)
		if !ok {
			continue
		}
		res.Rule = i
		if res.Start > best.Start || (res.Start == best.Start && len([]rune(res.Trigger)) > len([]rune(best.Trigger))) {
			best = res
		}
	}
	if best.Found {
		return best
	}
	if auto >= 0 {
		if res, ok := locateWord(text, lineStart, rules[auto]); ok {
			res.Rule = auto
			return res
		}
	}
	return Result{}
}

func locateTrigger(text []rune, lineStart int, rule Rule) (Result, bool) {
	trigger := []rune(rule.Trigger)
	if len(trigger) == 0 {
		return Result{}, false
	}
	pos := lastIndex(text[lineStart:], trigger)
	if pos < 0 {
		return Result{}, false
	}
	pos += lineStart
	if rule.RequireLeadingSpace && pos > lineStart && !isSpace(text[pos-1]) {
		return Result{}, false
	}
	query := text[pos+len(trigger):]
	if len(query) > 0 && isSpace(query[0]) {
		return Result{}, false
	}
	for _, r := range query {
		if !isSpace(r) {
			continue
		}
		if rule.AllowSpaces && r == ' ' {
			continue
		}
		return Result{}, false
	}
	return Result{
		Found:   true,
		Trigger: rule.Trigger,
		Start:   pos,
		Query:   string(query),
		Span:    len(text) - pos,
	}, true
}

func locateWord(text []rune, lineStart int, rule Rule) (Result, bool) {
	start := lineStart
	for i := len(text) - 1; i >= lineStart; i-- {
		if isSpace(text[i]) {
			start = i + 1
			break
		}
	}
	if rule.Separator != nil {
		word := string(text[start:])
		var last *regexp2.Match
		m, err := rule.Separator.FindStringMatch(word)
		for err == nil && m != nil {
			if m.Length == 0 {
				break
			}
			last = m
			m, err = rule.Separator.FindNextMatch(m)
		}
		if last != nil {
			start += last.Index + last.Length
		}
	}
	if start >= len(text) {
		return Result{}, false
	}
	return Result{
		Found: true,
		Start: start,
		Query: string(text[start:]),
		Span:  len(text) - start,
	}, true
}

func lastIndex(text, sub []rune) int {
outer:
	for i := len(text) - len(sub); i >= 0; i-- {
		for j, r := range sub {
			if text[i+j] != r {
				continue outer
			}
		}
		return i
	}
	return -1
}

// isSpace includes the non-breaking space left behind by rich replacements.
func isSpace(r rune) bool {
	return unicode.IsSpace(r)
}
