// Package capability resolves which optional agent features are available
// from the provider credentials present in the environment.
package capability

import (
	"os"
	"sort"
	"strings"
)

// Capability names an optional agent feature backed by an external provider
type Capability string

const (
	AdvancedNLP        Capability = "advanced_nlp"
	DocumentProcessing Capability = "document_processing"
	DataLookup         Capability = "data_lookup"
)

// All returns every known capability
func All() []Capability {
	return []Capability{AdvancedNLP, DocumentProcessing, DataLookup}
}

// IsValid reports whether c is a known capability
func (c Capability) IsValid() bool {
	switch c {
	case AdvancedNLP, DocumentProcessing, DataLookup:
		return true
	}
	return false
}

func (c Capability) String() string {
	return string(c)
}

// providerKeys maps each capability to the API key variables that enable it.
// Any one non-blank key is enough.
var providerKeys = map[Capability][]string{
	AdvancedNLP:        {"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "COHERE_API_KEY"},
	DocumentProcessing: {"AZURE_API_KEY", "AWS_API_KEY"},
	DataLookup:         {"GOOGLE_API_KEY"},
}

// ProviderKeys returns the environment variables consulted for c
func ProviderKeys(c Capability) []string {
	return append([]string(nil), providerKeys[c]...)
}

// Set is an immutable collection of capabilities. The zero value is empty.
type Set struct {
	caps map[Capability]struct{}
}

// NewSet builds a set from caps, ignoring unknown names
func NewSet(caps ...Capability) Set {
	s := Set{caps: make(map[Capability]struct{}, len(caps))}
	for _, c := range caps {
		if c.IsValid() {
			s.caps[c] = struct{}{}
		}
	}
	return s
}

// Resolve enables each capability for which lookup returns a non-blank value
// for at least one of its provider keys.
func Resolve(lookup func(string) string) Set {
	var enabled []Capability
	for _, c := range All() {
		for _, key := range providerKeys[c] {
			if strings.TrimSpace(lookup(key)) != "" {
				enabled = append(enabled, c)
				break
			}
		}
	}
	return NewSet(enabled...)
}

// FromEnv resolves capabilities from the process environment
func FromEnv() Set {
	return Resolve(os.Getenv)
}

func (s Set) Has(c Capability) bool {
	_, ok := s.caps[c]
	return ok
}

func (s Set) Len() int {
	return len(s.caps)
}

// Without returns a copy of s with the named capabilities removed. Unknown
// names are ignored.
func (s Set) Without(names ...string) Set {
	drop := make(map[Capability]struct{}, len(names))
	for _, n := range names {
		drop[Capability(strings.ToLower(strings.TrimSpace(n)))] = struct{}{}
	}

	var keep []Capability
	for c := range s.caps {
		if _, ok := drop[c]; !ok {
			keep = append(keep, c)
		}
	}
	return NewSet(keep...)
}

// List returns the capabilities in s sorted by name
func (s Set) List() []Capability {
	out := make([]Capability, 0, len(s.caps))
	for c := range s.caps {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) String() string {
	list := s.List()
	if len(list) == 0 {
		return "none"
	}
	names := make([]string, len(list))
	for i, c := range list {
		names[i] = string(c)
	}
	return strings.Join(names, ",")
}
