package detect

import (
	"fmt"
	"strings"

	"github.com/born-ml/archid/internal/statedict"
)

// Predicate is a boolean test over the key structure of a parameter mapping.
type Predicate interface {
	// Match reports whether the mapping satisfies the predicate.
	Match(sd statedict.StateDict) bool

	// Keys returns the literal keys the predicate inspects.
	Keys() []string

	// String renders the predicate for diagnostics.
	String() string
}

// HasKey matches mappings containing key.
func HasKey(key string) Predicate {
	return hasKey(key)
}

// HasAll matches mappings containing every key.
func HasAll(keys ...string) Predicate {
	preds := make([]Predicate, len(keys))
	for i, k := range keys {
		preds[i] = hasKey(k)
	}
	return And(preds...)
}

// HasAny matches mappings containing at least one key.
func HasAny(keys ...string) Predicate {
	preds := make([]Predicate, len(keys))
	for i, k := range keys {
		preds[i] = hasKey(k)
	}
	return Or(preds...)
}

// HasNested matches mappings whose value under key is itself a mapping
// containing sub. Only one level is inspected.
func HasNested(key, sub string) Predicate {
	return nested{key: key, sub: sub}
}

// And matches when every predicate matches. An empty And matches everything.
func And(preds ...Predicate) Predicate {
	return allOf(preds)
}

// Or matches when any predicate matches. An empty Or matches nothing.
func Or(preds ...Predicate) Predicate {
	return anyOf(preds)
}

// Not inverts a predicate.
func Not(p Predicate) Predicate {
	return not{p}
}

type hasKey string

func (k hasKey) Match(sd statedict.StateDict) bool { return sd.Has(string(k)) }
func (k hasKey) Keys() []string                    { return []string{string(k)} }
func (k hasKey) String() string                    { return fmt.Sprintf("%q", string(k)) }

type nested struct {
	key, sub string
}

func (n nested) Match(sd statedict.StateDict) bool { return sd.HasNested(n.key, n.sub) }
func (n nested) Keys() []string                    { return []string{n.key, n.sub} }
func (n nested) String() string                    { return fmt.Sprintf("%q -> %q", n.key, n.sub) }

type allOf []Predicate

func (a allOf) Match(sd statedict.StateDict) bool {
	for _, p := range a {
		if !p.Match(sd) {
			return false
		}
	}
	return true
}

func (a allOf) Keys() []string { return collectKeys(a) }
func (a allOf) String() string { return join(a, " AND ") }

type anyOf []Predicate

func (a anyOf) Match(sd statedict.StateDict) bool {
	for _, p := range a {
		if p.Match(sd) {
			return true
		}
	}
	return false
}

func (a anyOf) Keys() []string { return collectKeys(a) }
func (a anyOf) String() string { return join(a, " OR ") }

type not struct {
	p Predicate
}

func (n not) Match(sd statedict.StateDict) bool { return !n.p.Match(sd) }
func (n not) Keys() []string                    { return n.p.Keys() }
func (n not) String() string                    { return "NOT " + n.p.String() }

func collectKeys(preds []Predicate) []string {
	var keys []string
	for _, p := range preds {
		keys = append(keys, p.Keys()...)
	}
	return keys
}

func join(preds []Predicate, sep string) string {
	if len(preds) == 1 {
		return preds[0].String()
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		s := p.String()
		if _, compound := p.(allOf); compound {
			s = "(" + s + ")"
		}
		if _, compound := p.(anyOf); compound {
			s = "(" + s + ")"
		}
		parts[i] = s
	}
	return strings.Join(parts, sep)
}
