package detect

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"github.com/born-ml/archid/internal/statedict"
)

// Hint tuning.
const (
	maxHints        = 3
	maxHintDistance = 4
	minHintKeyLen   = 8
	maxHintScan     = 4096 // Mappings larger than this are sampled by sorted key order
)

// nearMisses returns signature keys that almost appear in sd, closest first.
// Exporters that rename a parameter slightly ("body.0.weights",
// "toRGB.0.weight_orig") land within a few edits of the real signature key.
func nearMisses(sd statedict.StateDict, signature []string) []string {
	keys := sd.Keys()
	if len(keys) > maxHintScan {
		keys = keys[:maxHintScan]
	}

	type candidate struct {
		key  string
		dist int
	}
	var found []candidate
	for _, sig := range signature {
		if len(sig) < minHintKeyLen || sd.Has(sig) {
			continue
		}
		best := maxHintDistance + 1
		for _, k := range keys {
			if abs(len(k)-len(sig)) > maxHintDistance {
				continue
			}
			if d := levenshtein.ComputeDistance(k, sig); d < best {
				best = d
			}
		}
		if best <= maxHintDistance {
			found = append(found, candidate{sig, best})
		}
	}

	sort.SliceStable(found, func(i, j int) bool {
		return found[i].dist < found[j].dist
	})
	if len(found) > maxHints {
		found = found[:maxHints]
	}

	hints := make([]string, len(found))
	for i, c := range found {
		hints[i] = c.key
	}
	return hints
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
