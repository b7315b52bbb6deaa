package assistant

// Feature names an AI feature for policy lookup, logs and metrics.
type Feature string

const (
	FeatureSuggestions  Feature = "suggestions"
	FeatureAutoResponse Feature = "auto_response"
	FeatureTone         Feature = "tone"
	FeatureSummary      Feature = "summary"
)

// Policy decides what a feature does when generation or validation fails.
// Configuration errors and caller cancellation are never absorbed.
type Policy struct {
	// AbsorbBackendFailure returns the feature's deterministic default instead
	// of a backend error.
	AbsorbBackendFailure bool
	// AbsorbMalformedOutput returns the deterministic default when the
	// model's structured output does not validate.
	AbsorbMalformedOutput bool
	// DegradeToSkeleton replaces a failed generation with an explicit
	// "generation failed" artifact built from the raw messages.
	DegradeToSkeleton bool
}

// DefaultPolicies: advisory features (suggestions, tone) mask failures, the
// auto-response surfaces them, and the summary degrades to a skeleton.
var DefaultPolicies = map[Feature]Policy{
	FeatureSuggestions:  {AbsorbBackendFailure: true, AbsorbMalformedOutput: true},
	FeatureTone:         {AbsorbBackendFailure: true, AbsorbMalformedOutput: true},
	FeatureAutoResponse: {},
	FeatureSummary:      {DegradeToSkeleton: true},
}

func (s *Service) policy(f Feature) Policy {
	return s.policies[f]
}
