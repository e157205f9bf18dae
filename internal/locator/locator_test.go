package locator

import (
	"testing"

	"github.com/dlclark/regexp2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mentionRules(triggers ...string) []Rule {
	rules := make([]Rule, len(triggers))
	for i, tr := range triggers {
		rules[i] = Rule{Trigger: tr, RequireLeadingSpace: true}
	}
	return rules
}

func TestLocateExplicitTrigger(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		found   bool
		start   int
		query   string
		trigger string
	}{
		{name: "bare trigger", text: " @", found: true, start: 1, query: "", trigger: "@"},
		{name: "query", text: " @sir", found: true, start: 1, query: "sir", trigger: "@"},
		{name: "line start", text: "@jo", found: true, start: 0, query: "jo", trigger: "@"},
		{name: "after newline", text: "x\n@jo", found: true, start: 2, query: "jo", trigger: "@"},
		{name: "after nbsp", text: "a\u00a0@jo", found: true, start: 2, query: "jo", trigger: "@"},
		{name: "email", text: "me@example", found: false},
		{name: "whitespace ends query", text: "@jo hi", found: false},
		{name: "leading whitespace", text: "@ jo", found: false},
		{name: "newline ends query", text: "@jo\nhi", found: false},
		{name: "no trigger", text: "hello", found: false},
		{name: "empty", text: "", found: false},
		{name: "multi char full", text: " $(ab", found: true, start: 1, query: "ab", trigger: "$("},
		{name: "multi char prefix", text: " $", found: false},
	}
	rules := mentionRules("@", "$(")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Locate(tt.text, rules)
			require.Equal(t, tt.found, res.Found)
			if !tt.found {
				return
			}
			assert.Equal(t, tt.start, res.Start)
			assert.Equal(t, tt.query, res.Query)
			assert.Equal(t, tt.trigger, res.Trigger)
			assert.Equal(t, len([]rune(tt.text))-tt.start, res.Span)
		})
	}
}

func TestLocateNearestTriggerWins(t *testing.T) {
	rules := mentionRules("@", "#")
	res := Locate("@ann #to", rules)
	require.True(t, res.Found)
	assert.Equal(t, "#", res.Trigger)
	assert.Equal(t, 5, res.Start)
	assert.Equal(t, "to", res.Query)

	rules = []Rule{{Trigger: "@", RequireLeadingSpace: true, AllowSpaces: true}, {Trigger: "#", RequireLeadingSpace: true}}
	res = Locate("@ann #top", rules)
	require.True(t, res.Found)
	assert.Equal(t, "#", res.Trigger)
	assert.Equal(t, 1, res.Rule)
	assert.Equal(t, "top", res.Query)
}

func TestLocateTieGoesToLongerTrigger(t *testing.T) {
	rules := []Rule{{Trigger: "$"}, {Trigger: "$("}}
	res := Locate(" $(ab", rules)
	require.True(t, res.Found)
	assert.Equal(t, "$(", res.Trigger)
	assert.Equal(t, "ab", res.Query)
}

func TestLocateFallsBackToFartherTrigger(t *testing.T) {
	rules := []Rule{{Trigger: "(", RequireLeadingSpace: true}, {Trigger: "$(", RequireLeadingSpace: true}}
	res := Locate("x $(ab", rules)
	require.True(t, res.Found)
	assert.Equal(t, "$(", res.Trigger)
	assert.Equal(t, 1, res.Rule)

	rules[0].RequireLeadingSpace = false
	res = Locate("x $(ab", rules)
	require.True(t, res.Found)
	assert.Equal(t, "(", res.Trigger)
}

func TestLocateWithoutLeadingSpaceRequirement(t *testing.T) {
	res := Locate("me@ex", []Rule{{Trigger: "@"}})
	require.True(t, res.Found)
	assert.Equal(t, 2, res.Start)
	assert.Equal(t, "ex", res.Query)
}

func TestLocateAllowSpaces(t *testing.T) {
	rules := []Rule{{Trigger: "@", RequireLeadingSpace: true, AllowSpaces: true}}
	res := Locate("hi @sir walter", rules)
	require.True(t, res.Found)
	assert.Equal(t, "sir walter", res.Query)

	res = Locate("hi @sir\twalter", rules)
	assert.False(t, res.Found)
}

func TestLocateAutocomplete(t *testing.T) {
	rules := []Rule{{Autocomplete: true}}
	res := Locate("hello wor", rules)
	require.True(t, res.Found)
	assert.Equal(t, 6, res.Start)
	assert.Equal(t, "wor", res.Query)
	assert.Equal(t, 3, res.Span)

	assert.False(t, Locate("hello ", rules).Found)
	assert.False(t, Locate("", rules).Found)

	res = Locate("a\nb", rules)
	require.True(t, res.Found)
	assert.Equal(t, "b", res.Query)
}

func TestLocateAutocompleteSeparator(t *testing.T) {
	sep := regexp2.MustCompile(`\-|\+`, regexp2.ECMAScript)
	rules := []Rule{{Autocomplete: true, Separator: sep}}

	res := Locate("+J", rules)
	require.True(t, res.Found)
	assert.Equal(t, "J", res.Query)
	assert.Equal(t, 1, res.Start)

	res = Locate("+Jordan Humphreys  Si", rules)
	require.True(t, res.Found)
	assert.Equal(t, "Si", res.Query)

	res = Locate("a-b+cd", rules)
	require.True(t, res.Found)
	assert.Equal(t, "cd", res.Query)
	assert.Equal(t, 4, res.Start)

	assert.False(t, Locate("ab-", rules).Found)
}

func TestLocateExplicitBeatsAutocomplete(t *testing.T) {
	rules := []Rule{{Autocomplete: true}, {Trigger: "@", RequireLeadingSpace: true}}
	res := Locate("x @jo", rules)
	require.True(t, res.Found)
	assert.Equal(t, 1, res.Rule)
	assert.Equal(t, "jo", res.Query)

	res = Locate("x jo", rules)
	require.True(t, res.Found)
	assert.Equal(t, 0, res.Rule)
	assert.Equal(t, "jo", res.Query)
}
