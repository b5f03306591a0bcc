package intent

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Entities holds values extracted from free text
type Entities struct {
	States      []string `json:"states,omitempty"`
	Money       []string `json:"money,omitempty"`
	Percentages []string `json:"percentages,omitempty"`
	Dates       []string `json:"dates,omitempty"`
}

// IsEmpty reports whether nothing was extracted
func (e Entities) IsEmpty() bool {
	return len(e.States) == 0 && len(e.Money) == 0 && len(e.Percentages) == 0 && len(e.Dates) == 0
}

var stateNames = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY",
}

var stateCodes = func() map[string]string {
	title := cases.Title(language.English)
	out := make(map[string]string, len(stateNames))
	for name, code := range stateNames {
		out[code] = title.String(name)
	}
	return out
}()

// StateName returns the full name for a two-letter state code
func StateName(code string) (string, bool) {
	name, ok := stateCodes[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

var (
	stateCodePattern = regexp.MustCompile(`\b(AL|AK|AZ|AR|CA|CO|CT|DE|FL|GA|HI|ID|IL|IN|IA|KS|KY|LA|ME|MD|MA|MI|MN|MS|MO|MT|NE|NV|NH|NJ|NM|NY|NC|ND|OH|OK|OR|PA|RI|SC|SD|TN|TX|UT|VT|VA|WA|WV|WI|WY)\b`)
	stateNamePattern = compileStateNames()
	currencyPattern  = regexp.MustCompile(`\$\d+(?:,\d{3})*(?:\.\d{2})?`)
	percentPattern   = regexp.MustCompile(`\d+(?:\.\d+)?%`)
	datePattern      = regexp.MustCompile(`\d{1,2}/\d{1,2}/\d{4}|\d{4}-\d{2}-\d{2}`)
)

// compileStateNames builds a case-insensitive alternation with longer names
// first so "west virginia" wins over "virginia".
func compileStateNames() *regexp.Regexp {
	names := make([]string, 0, len(stateNames))
	for name := range stateNames {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	for i, n := range names {
		names[i] = regexp.QuoteMeta(n)
	}
	return regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\b`)
}

// ExtractEntities pulls state codes, currency amounts, percentages and dates
// out of text. State codes are only recognised when written in upper case;
// full state names match in any case and are reported as codes.
func ExtractEntities(text string) Entities {
	return Entities{
		States:      extractStates(text),
		Money:       dedupe(currencyPattern.FindAllString(text, -1)),
		Percentages: dedupe(percentPattern.FindAllString(text, -1)),
		Dates:       dedupe(datePattern.FindAllString(text, -1)),
	}
}

type positioned struct {
	at   int
	code string
}

func extractStates(text string) []string {
	var found []positioned
	for _, loc := range stateCodePattern.FindAllStringIndex(text, -1) {
		found = append(found, positioned{at: loc[0], code: text[loc[0]:loc[1]]})
	}
	for _, loc := range stateNamePattern.FindAllStringIndex(text, -1) {
		name := strings.ToLower(text[loc[0]:loc[1]])
		found = append(found, positioned{at: loc[0], code: stateNames[name]})
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].at < found[j].at })

	codes := make([]string, len(found))
	for i, f := range found {
		codes[i] = f.code
	}
	return dedupe(codes)
}

// ambiguousCodes are state codes that are also everyday English words
var ambiguousCodes = map[string]struct{}{
	"HI": {}, "IN": {}, "ME": {}, "OK": {}, "OR": {},
}

// PrimaryState picks the single state text most likely refers to. A full
// state name wins over any code, and a code that doubles as an English word
// ("OK, let's go with Texas") only counts when it is the whole reply.
func PrimaryState(text string) string {
	if loc := stateNamePattern.FindStringIndex(text); loc != nil {
		return stateNames[strings.ToLower(text[loc[0]:loc[1]])]
	}
	whole := strings.TrimRight(strings.TrimSpace(text), ".!?")
	for _, code := range stateCodePattern.FindAllString(text, -1) {
		if _, ok := ambiguousCodes[code]; ok && code != whole {
			continue
		}
		return code
	}
	return ""
}

func dedupe(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
