package dom

import "testing"

func TestMatches(t *testing.T) {
	e := &Element{
		Tag:     "div",
		ID:      "hero",
		Classes: []string{"card", "primary"},
		Attributes: map[string]string{
			"data-section": "nav",
			"role":         "region",
		},
	}

	tests := []struct {
		selector string
		want     bool
	}{
		{"div", true},
		{"DIV", true},
		{"span", false},
		{"#hero", true},
		{"#other", false},
		{".card", true},
		{".primary", true},
		{".missing", false},
		{"[data-section]", true},
		{"[data-section=nav]", true},
		{`[data-section="nav"]`, true},
		{"[data-section=footer]", false},
		{"[missing]", false},
		{"div.card", true},
		{"div.card.primary", true},
		{"div.missing", false},
		{"span.card", false},
		{"div#hero.card[role=region]", true},
		{"*", true},
		{".missing, .card", true},
		{"span, p", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Matches(e, tt.selector); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestMatchesAny(t *testing.T) {
	e := &Element{Tag: "section", Classes: []string{"wrap"}}

	if !MatchesAny(e, []string{".card", "section"}) {
		t.Error("expected match on second selector")
	}
	if MatchesAny(e, []string{".card", "#id"}) {
		t.Error("expected no match")
	}
	if MatchesAny(e, nil) {
		t.Error("expected no match on empty selector list")
	}
}
