package detect

import (
	"fmt"

	"github.com/born-ml/archid/internal/arch"
	"github.com/born-ml/archid/internal/statedict"
)

// Rule binds a structural signature to an architecture tag.
type Rule struct {
	Priority int       // Evaluation position, strictly increasing in a Registry
	Name     string    // Unique rule name
	Tag      arch.Tag  // Architecture selected when Match holds
	Match    Predicate // Signature over key names
}

// Registry is an ordered, immutable list of rules evaluated first-match-wins.
// The order encodes specificity: a rule that a broader rule would shadow
// must come first.
type Registry struct {
	rules []Rule
}

// NewRegistry validates and freezes rules. Priorities must be strictly
// increasing in the given order, names unique and tags valid.
func NewRegistry(rules ...Rule) (*Registry, error) {
	names := make(map[string]struct{}, len(rules))
	for i, r := range rules {
		if r.Match == nil {
			return nil, fmt.Errorf("rule %q: nil predicate", r.Name)
		}
		if !r.Tag.Valid() {
			return nil, fmt.Errorf("rule %q: %w", r.Name, arch.ErrUnknownTag)
		}
		if _, dup := names[r.Name]; dup {
			return nil, fmt.Errorf("duplicate rule name %q", r.Name)
		}
		names[r.Name] = struct{}{}
		if i > 0 && r.Priority <= rules[i-1].Priority {
			return nil, fmt.Errorf("rule %q: priority %d not after %q (%d)",
				r.Name, r.Priority, rules[i-1].Name, rules[i-1].Priority)
		}
	}

	frozen := make([]Rule, len(rules))
	copy(frozen, rules)
	return &Registry{rules: frozen}, nil
}

// Match returns the first rule whose predicate holds.
func (r *Registry) Match(sd statedict.StateDict) (Rule, bool) {
	for _, rule := range r.rules {
		if rule.Match.Match(sd) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Shadowed returns the rules that also hold for sd but lose to the first
// match, in priority order. It is empty when at most one rule holds.
func (r *Registry) Shadowed(sd statedict.StateDict) []Rule {
	var out []Rule
	matched := false
	for _, rule := range r.rules {
		if !rule.Match.Match(sd) {
			continue
		}
		if matched {
			out = append(out, rule)
		}
		matched = true
	}
	return out
}

// Rules returns a copy of the rules in priority order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.rules))
	copy(out, r.rules)
	return out
}

// SignatureKeys returns every literal key referenced by the rules, without
// duplicates, in first-seen order.
func (r *Registry) SignatureKeys() []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, rule := range r.rules {
		for _, k := range rule.Match.Keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	return keys
}

// Signature keys. External checkpoints use these exact names.
const (
	keyHATBlock  = "layers.0.residual_group.blocks.0.conv_block.cab.0.weight"
	keySwinBlock = "layers.0.residual_group.blocks.0.norm1.weight"
)

// DefaultRules returns the built-in rules, most specific first.
func DefaultRules() []Rule {
	return []Rule{
		{1, "srvgg-compact", arch.SRVGGCompact, HasAll("body.0.weight", "body.1.weight")},
		{2, "spsr", arch.SPSR, HasKey("f_HR_conv1.0.weight")},
		{3, "swift-srgan", arch.SwiftSRGAN, HasNested("model", "initial.cnn.depthwise.weight")},
		// HAT blocks carry SwinIR's norm1 too; keep above SwinIR.
		{4, "hat", arch.HAT, HasKey(keyHATBlock)},
		{5, "swin2sr", arch.Swin2SR, HasAll(keySwinBlock, "patch_embed.proj.weight")},
		{6, "swinir", arch.SwinIR, HasKey(keySwinBlock)},
		{7, "gfpgan", arch.GFPGAN, HasAll("toRGB.0.weight", "stylegan_decoder.style_mlp.1.weight")},
		{8, "restoreformer", arch.RestoreFormer, HasAll("encoder.conv_in.weight", "encoder.down.0.block.0.norm1.weight")},
		{9, "codeformer", arch.CodeFormer, HasAll("encoder.blocks.0.weight", "quantize.embedding.weight")},
		{10, "lama", arch.LaMa, HasAny("model.model.1.bn_l.running_mean", "generator.model.1.bn_l.running_mean")},
		{11, "mat", arch.MAT, HasKey("synthesis.first_stage.conv_first.conv.resample_filter")},
		{12, "omnisr", arch.OmniSR, HasAll("total_ops", "residual_layer.0.total_ops")},
	}
}

var defaultRegistry = mustRegistry(DefaultRules()...)

// DefaultRegistry returns the process-wide built-in registry.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func mustRegistry(rules ...Rule) *Registry {
	r, err := NewRegistry(rules...)
	if err != nil {
		panic(fmt.Sprintf("detect: invalid built-in registry: %v", err))
	}
	return r
}
