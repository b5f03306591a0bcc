package conversation

import (
	"fmt"
	"sort"
)

// Info is the collected-information mapping. Requirement checks look at key
// presence only, so an empty value still satisfies a requirement.
type Info map[string]any

// Has reports whether key is present
func (i Info) Has(key string) bool {
	_, ok := i[key]
	return ok
}

// String returns the value for key formatted as a string, or "" when absent
func (i Info) String(key string) string {
	v, ok := i[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy; a nil Info clones to an empty one
func (i Info) Clone() Info {
	out := make(Info, len(i))
	for k, v := range i {
		out[k] = v
	}
	return out
}

// Merge copies every key of other into i, overwriting existing values
func (i Info) Merge(other Info) {
	for k, v := range other {
		i[k] = v
	}
}

// Keys returns the keys in sorted order
func (i Info) Keys() []string {
	keys := make([]string, 0, len(i))
	for k := range i {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Missing returns the keys from required that are not present, in order
func (i Info) Missing(required []string) []string {
	var missing []string
	for _, key := range required {
		if !i.Has(key) {
			missing = append(missing, key)
		}
	}
	return missing
}
