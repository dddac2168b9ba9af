package detect

import (
	"io"
	"log/slog"

	"github.com/born-ml/archid/internal/arch"
	"github.com/born-ml/archid/internal/statedict"
)

// Result is a successful detection.
type Result struct {
	Tag      arch.Tag
	Model    *arch.Model
	Rule     string   // Matched rule name, empty when the fallback was used
	Shadowed []string // Later rules that also matched but lost to Rule
	Fallback bool
	Wrapper  string // Wrapper key that was stripped, if any
}

// Detector identifies the architecture of a parameter mapping and builds
// the model. A Detector is immutable and safe for concurrent use.
type Detector struct {
	registry     *Registry
	fallback     arch.Tag
	constructors map[arch.Tag]arch.Constructor
	logger       *slog.Logger
}

// Option configures a Detector.
type Option func(*Detector)

// WithRegistry replaces the built-in rules. A nil registry is ignored.
func WithRegistry(r *Registry) Option {
	return func(d *Detector) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithConstructor overrides the constructor bound to tag.
func WithConstructor(tag arch.Tag, ctor arch.Constructor) Option {
	return func(d *Detector) {
		d.constructors[tag] = ctor
	}
}

// WithFallback changes the family tried when no rule matches.
func WithFallback(tag arch.Tag) Option {
	return func(d *Detector) {
		d.fallback = tag
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// New creates a detector using the built-in registry and constructors,
// with ESRGAN as the fallback family.
func New(opts ...Option) *Detector {
	d := &Detector{
		registry:     DefaultRegistry(),
		fallback:     arch.ESRGAN,
		constructors: make(map[arch.Tag]arch.Constructor),
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the rules the detector evaluates.
func (d *Detector) Registry() *Registry {
	return d.registry
}

// Match normalizes raw and returns the first matching rule without
// constructing anything.
func (d *Detector) Match(raw statedict.StateDict) (Rule, bool) {
	return d.registry.Match(statedict.Normalize(raw))
}

// DetectAndLoad normalizes raw, picks an architecture and constructs it.
//
// When a rule matches, its constructor's failure is returned as a
// MatchedConstructionFailed error. When nothing matches, the fallback
// family is tried and its failure becomes ErrUnsupportedModel.
func (d *Detector) DetectAndLoad(raw statedict.StateDict) (*Result, error) {
	sd, wrapper := statedict.Unwrap(raw)
	d.logger.Debug("loading state dict into model architecture",
		slog.Int("keys", len(sd)),
		slog.String("wrapper", wrapper))

	rule, ok := d.registry.Match(sd)
	if ok {
		shadowed := ruleNames(d.registry.Shadowed(sd))
		d.logger.Debug("signature matched",
			slog.Int("priority", rule.Priority),
			slog.String("rule", rule.Name),
			slog.String("arch", rule.Tag.String()),
			slog.Any("shadowed", shadowed))

		model, err := d.construct(rule.Tag, sd)
		if err != nil {
			return nil, &DetectionError{Kind: MatchedConstructionFailed, Tag: rule.Tag, Rule: rule.Name, Err: err}
		}
		return &Result{Tag: rule.Tag, Model: model, Rule: rule.Name, Shadowed: shadowed, Wrapper: wrapper}, nil
	}

	d.logger.Debug("no signature matched, trying fallback",
		slog.String("arch", d.fallback.String()))

	model, err := d.construct(d.fallback, sd)
	if err != nil {
		d.logger.Debug("fallback rejected state dict", slog.Any("error", err))
		return nil, &DetectionError{
			Kind:  FallbackFailed,
			Tag:   d.fallback,
			Err:   err,
			Hints: nearMisses(sd, d.registry.SignatureKeys()),
		}
	}
	return &Result{Tag: d.fallback, Model: model, Fallback: true, Wrapper: wrapper}, nil
}

func (d *Detector) construct(tag arch.Tag, sd statedict.StateDict) (*arch.Model, error) {
	if ctor, ok := d.constructors[tag]; ok {
		return ctor(sd)
	}
	return arch.Construct(tag, sd)
}

func ruleNames(rules []Rule) []string {
	if len(rules) == 0 {
		return nil
	}
	names := make([]string, len(rules))
	for i, r := range rules {
		names[i] = r.Name
	}
	return names
}

var defaultDetector = New()

// DetectAndLoad runs the default detector.
func DetectAndLoad(raw statedict.StateDict) (*Result, error) {
	return defaultDetector.DetectAndLoad(raw)
}
