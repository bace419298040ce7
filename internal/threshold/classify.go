package threshold

import "math"

// Direction tells the classifier which side of a cutoff is favourable.
type Direction string

const (
	// LowerIsBetter marks metrics such as DSO where smaller values are healthier.
	LowerIsBetter Direction = "lower"
	// HigherIsBetter marks metrics such as DPO where larger values are healthier.
	HigherIsBetter Direction = "higher"
)

// Status is the three-level band a metric falls into.
type Status string

const (
	Good    Status = "good"
	Warning Status = "warning"
	Poor    Status = "poor"
	// Unknown is reported for undefined or non-finite values.
	Unknown Status = "unknown"
)

// Classify maps value onto a status band using the green and yellow cutoffs.
func Classify(value, green, yellow float64, dir Direction) Status {
	if dir == HigherIsBetter {
		switch {
		case value >= green:
			return Good
		case value >= yellow:
			return Warning
		default:
			return Poor
		}
	}
	switch {
	case value <= green:
		return Good
	case value <= yellow:
		return Warning
	default:
		return Poor
	}
}

// Band bundles the cutoffs for a single metric kind.
type Band struct {
	Green     float64   `yaml:"green" json:"green"`
	Yellow    float64   `yaml:"yellow" json:"yellow"`
	Direction Direction `yaml:"direction" json:"direction"`
}

// Classify applies the band to a finite value.
func (b Band) Classify(value float64) Status {
	return Classify(value, b.Green, b.Yellow, b.Direction)
}

// ClassifyValue classifies an optional value, returning Unknown when the
// value is absent or not finite.
func (b Band) ClassifyValue(value *float64) Status {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return Unknown
	}
	return b.Classify(*value)
}

// Rank orders statuses from best to worst. Unknown sorts last.
func (s Status) Rank() int {
	switch s {
	case Good:
		return 0
	case Warning:
		return 1
	case Poor:
		return 2
	default:
		return 3
	}
}
