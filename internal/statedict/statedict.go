package statedict

import (
	"sort"
	"strconv"
	"strings"
)

// StateDict maps parameter names to opaque values. A value may itself be a
// StateDict (or a plain map[string]any) to express nesting.
type StateDict map[string]any

// AsStateDict reports whether v is a mapping and returns it as a StateDict.
func AsStateDict(v any) (StateDict, bool) {
	switch m := v.(type) {
	case StateDict:
		return m, true
	case map[string]any:
		return StateDict(m), true
	default:
		return nil, false
	}
}

// Has reports whether key is present. Nil values still count as present.
func (sd StateDict) Has(key string) bool {
	_, ok := sd[key]
	return ok
}

// Sub returns the value under key as a nested mapping.
func (sd StateDict) Sub(key string) (StateDict, bool) {
	v, ok := sd[key]
	if !ok {
		return nil, false
	}
	return AsStateDict(v)
}

// HasNested reports whether the value under key is a mapping containing sub.
func (sd StateDict) HasNested(key, sub string) bool {
	inner, ok := sd.Sub(key)
	if !ok {
		return false
	}
	return inner.Has(sub)
}

// Keys returns the top-level keys in sorted order.
func (sd StateDict) Keys() []string {
	keys := make([]string, 0, len(sd))
	for k := range sd {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ShapeOf returns the shape of the value under key.
// The second result is false when the key is missing or the value carries
// no shape information.
func (sd StateDict) ShapeOf(key string) (Shape, bool) {
	v, ok := sd[key]
	if !ok || v == nil {
		return nil, false
	}
	s, ok := v.(Shaped)
	if !ok {
		return nil, false
	}
	return s.TensorShape(), true
}

// Indices collects the integer N of every key of the form prefix + N + suffix,
// sorted ascending and without duplicates.
//
// For example Indices("body.", ".weight") over {"body.0.weight", "body.2.weight"}
// returns [0, 2].
func (sd StateDict) Indices(prefix, suffix string) []int {
	seen := make(map[int]struct{})
	for key := range sd {
		if !strings.HasPrefix(key, prefix) || !strings.HasSuffix(key, suffix) {
			continue
		}
		if len(key) < len(prefix)+len(suffix) {
			continue
		}
		mid := key[len(prefix) : len(key)-len(suffix)]
		n, err := strconv.Atoi(mid)
		if err != nil || n < 0 || mid != strconv.Itoa(n) {
			continue
		}
		seen[n] = struct{}{}
	}

	out := make([]int, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// MaxIndex returns the largest index found by Indices, or -1 if there is none.
func (sd StateDict) MaxIndex(prefix, suffix string) int {
	idx := sd.Indices(prefix, suffix)
	if len(idx) == 0 {
		return -1
	}
	return idx[len(idx)-1]
}
