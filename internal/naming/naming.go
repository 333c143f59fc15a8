// Package naming turns human field labels into program-facing field names.
package naming

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// MaxNameLength bounds generated names
const MaxNameLength = 30

// Suggestion is a proposed field name for a label
type Suggestion struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
	// Source names the namer that produced the suggestion
	Source string `json:"source"`
}

// Namer proposes a canonical field name for a label
type Namer interface {
	Normalize(ctx context.Context, label string) (Suggestion, error)
}

// rule maps a label pattern to a canonical field name
type rule struct {
	pattern *regexp.Regexp
	name    string
}

var rules = []rule{
	{regexp.MustCompile(`(?i)^((my|full( legal)?) )?name$`), "users1_name"},
	{regexp.MustCompile(`(?i)^(typed or )?printed name\s?\d*$`), "users1_name"},
	{regexp.MustCompile(`(?i)^(dob|date of birth|birthday)$`), "users1_birthdate"},
	{regexp.MustCompile(`(?i)^(street )?address$`), "users1_address_line_one"},
	{regexp.MustCompile(`(?i)^city state zip$`), "users1_address_line_two"},
	{regexp.MustCompile(`(?i)^city$`), "users1_address_city"},
	{regexp.MustCompile(`(?i)^state$`), "users1_address_state"},
	{regexp.MustCompile(`(?i)^zip( code)?$`), "users1_address_zip"},
	{regexp.MustCompile(`(?i)^(phone|telephone)$`), "users1_phone_number"},
	{regexp.MustCompile(`(?i)^e-?mail( address)?$`), "users1_email"},
	{regexp.MustCompile(`(?i)^plaintiff\(?s?\)?$`), "plaintiff1_name"},
	{regexp.MustCompile(`(?i)^defendant\(?s?\)?$`), "defendant1_name"},
	{regexp.MustCompile(`(?i)^petitioner\(?s?\)?$`), "petitioners1_name"},
	{regexp.MustCompile(`(?i)^respondent\(?s?\)?$`), "respondents1_name"},
	{regexp.MustCompile(`(?i)^(court\s)?case\s?(no|number)?\s?a?$`), "docket_number"},
	{regexp.MustCompile(`(?i)^file\s?(no|number)?\s?a?$`), "docket_number"},
	{regexp.MustCompile(`(?i)^(signature|sign( here)?)\s?\d*$`), "users1_signature"},
	{regexp.MustCompile(`(?i)^date\s?\d*$`), "signature_date"},
}

var (
	wordJoin   = regexp.MustCompile(`([\pL\d])[_-]([\pL\d])`)
	lowerUpper = regexp.MustCompile(`(\p{Ll})(\p{Lu}|\d)`)
	digitAlpha = regexp.MustCompile(`(\d)(\pL)`)
	nonLetters = regexp.MustCompile(`[^a-z]+`)
	digitsOnly = regexp.MustCompile(`^\d+$`)
)

var stopWords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "by": true, "for": true, "from": true, "here": true, "if": true,
	"in": true, "is": true, "it": true, "of": true, "on": true, "or": true,
	"please": true, "the": true, "this": true, "to": true, "with": true,
	"your": true, "you": true,
}

// Local names fields with a fixed table of well-known labels and falls back
// to a snake_case rendering of the label. It needs no network.
type Local struct{}

// Normalize implements Namer
func (Local) Normalize(_ context.Context, label string) (Suggestion, error) {
	words := splitWords(label)
	if canonical, ok := matchRule(words); ok {
		return Suggestion{Name: canonical, Confidence: 1, Source: "rules"}, nil
	}
	return Suggestion{Name: SnakeCase(label), Source: "local"}, nil
}

// splitWords separates snake_case, kebab-case and camelCase label parts
func splitWords(label string) string {
	s := strings.TrimSpace(label)
	s = wordJoin.ReplaceAllString(s, "$1 $2")
	s = lowerUpper.ReplaceAllString(s, "$1 $2")
	s = digitAlpha.ReplaceAllString(s, "$1 $2")
	return s
}

func matchRule(label string) (string, bool) {
	for _, r := range rules {
		if r.pattern.MatchString(label) {
			return r.name, true
		}
	}
	return "", false
}

// SnakeCase lowercases the label, drops punctuation, repeated words and
// stop words, joins the rest with underscores and trims the result to
// MaxNameLength on a word boundary. A purely numeric label becomes "unknown"
// and an empty one "field".
func SnakeCase(label string) string {
	trimmed := strings.TrimSpace(label)
	if digitsOnly.MatchString(trimmed) {
		return "unknown"
	}

	plain := nonLetters.ReplaceAllString(strings.ToLower(splitWords(trimmed)), " ")
	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(plain) {
		if seen[w] || stopWords[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	if len(words) == 0 {
		return "field"
	}

	name := words[0]
	for _, w := range words[1:] {
		if len(name)+1+len(w) > MaxNameLength {
			break
		}
		name += "_" + w
	}
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	return name
}

// Registry hands out unique names, suffixing repeats with a counter
type Registry struct {
	used map[string]int
}

// NewRegistry creates a registry that already holds the given names
func NewRegistry(taken ...string) *Registry {
	r := &Registry{used: make(map[string]int)}
	for _, n := range taken {
		r.used[n] = 1
	}
	return r
}

// Claim returns name, or name_2, name_3 ... if it was already claimed
func (r *Registry) Claim(name string) string {
	n := r.used[name]
	r.used[name] = n + 1
	if n == 0 {
		return name
	}
	for {
		n++
		candidate := name + "_" + strconv.Itoa(n)
		if r.used[candidate] == 0 {
			r.used[candidate] = 1
			r.used[name] = n
			return candidate
		}
	}
}
