package slo

// Comparison is the direction of the threshold check for an SLO.
type Comparison string

const (
	ComparisonGTE Comparison = "GTE"
	ComparisonLTE Comparison = "LTE"
	ComparisonGT  Comparison = "GT"
	ComparisonLT  Comparison = "LT"
	ComparisonEQ  Comparison = "EQ"
)

// Known reports whether c is one of the supported comparison operators.
func (c Comparison) Known() bool {
	switch c {
	case ComparisonGTE, ComparisonLTE, ComparisonGT, ComparisonLT, ComparisonEQ:
		return true
	}
	return false
}

// Holds applies the comparison to a measured value and a threshold.
// EQ is exact float equality on purpose; callers needing tolerance
// encode it as a GTE/LTE pair of definitions.
func (c Comparison) Holds(value, threshold float64) bool {
	switch c {
	case ComparisonGTE:
		return value >= threshold
	case ComparisonLTE:
		return value <= threshold
	case ComparisonGT:
		return value > threshold
	case ComparisonLT:
		return value < threshold
	case ComparisonEQ:
		return value == threshold
	}
	return false
}

// Definition is one configured SLO. Definitions are loaded at process
// start and held read-only for the lifetime of the run.
type Definition struct {
	// Name is the unique, stable identifier stored with every
	// evaluation record.
	Name string `yaml:"name" json:"name"`

	// Query is the Prometheus expression evaluated each tick.
	Query string `yaml:"query" json:"query"`

	// Comparison and Threshold define the objective: the SLO is met
	// when Comparison.Holds(measured, Threshold).
	Comparison Comparison `yaml:"comparison" json:"comparison"`
	Threshold  float64    `yaml:"threshold" json:"threshold"`

	// Target is an optional objective fraction (e.g. 0.999) carried
	// for reporting; it does not affect evaluation.
	Target *float64 `yaml:"target,omitempty" json:"target,omitempty"`
}

// DefinitionWithFile pairs a definition with its source file path.
type DefinitionWithFile struct {
	Definition *Definition
	File       string
}

// ValidationError represents a validation error for a specific file.
type ValidationError struct {
	File    string
	Path    string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Path != "" {
		return e.File + ": " + e.Path + ": " + e.Message
	}
	return e.File + ": " + e.Message
}
