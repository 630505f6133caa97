package dom

import "strings"

// Matches reports whether the element matches a CSS selector. The
// supported grammar is the subset the capture pipeline configures:
// tag, #id, .class, [attr], [attr=value], compounds of those
// ("div.card[data-section]"), and comma-separated lists. Combinators
// (descendant, >, +, ~) are not supported; container detection only ever
// tests one element at a time.
func Matches(e *Element, selector string) bool {
	for _, alt := range strings.Split(selector, ",") {
		alt = strings.TrimSpace(alt)
		if alt == "" {
			continue
		}
		if matchesCompound(e, alt) {
			return true
		}
	}
	return false
}

// MatchesAny reports whether the element matches any of the selectors.
func MatchesAny(e *Element, selectors []string) bool {
	for _, sel := range selectors {
		if Matches(e, sel) {
			return true
		}
	}
	return false
}

// matchesCompound tests a single compound selector with no combinators.
func matchesCompound(e *Element, sel string) bool {
	for _, part := range splitCompound(sel) {
		switch {
		case strings.HasPrefix(part, "#"):
			if e.ID != part[1:] {
				return false
			}
		case strings.HasPrefix(part, "."):
			if !e.HasClass(part[1:]) {
				return false
			}
		case strings.HasPrefix(part, "["):
			if !matchesAttribute(e, part) {
				return false
			}
		case part == "*":
			// universal, always matches
		default:
			if !strings.EqualFold(e.Tag, part) {
				return false
			}
		}
	}
	return true
}

// splitCompound breaks "div.card[data-x=y]" into "div", ".card",
// "[data-x=y]".
func splitCompound(sel string) []string {
	var parts []string
	var cur strings.Builder
	inAttr := false

	flush := func() {
		if cur.Len() > 0 {
			parts = append(parts, cur.String())
			cur.Reset()
		}
	}

	for _, r := range sel {
		switch {
		case inAttr:
			cur.WriteRune(r)
			if r == ']' {
				inAttr = false
				flush()
			}
		case r == '#' || r == '.':
			flush()
			cur.WriteRune(r)
		case r == '[':
			flush()
			inAttr = true
			cur.WriteRune(r)
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return parts
}

// matchesAttribute tests an "[attr]" or "[attr=value]" part. Quotes
// around the value are optional.
func matchesAttribute(e *Element, part string) bool {
	body := strings.TrimSuffix(strings.TrimPrefix(part, "["), "]")
	if body == "" {
		return false
	}

	name, value, hasValue := strings.Cut(body, "=")
	name = strings.TrimSpace(name)

	got, ok := e.Attributes[name]
	if !ok {
		return false
	}
	if !hasValue {
		return true
	}

	value = strings.TrimSpace(value)
	value = strings.Trim(value, `"'`)
	return got == value
}
