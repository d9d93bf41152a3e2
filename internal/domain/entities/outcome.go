package entities

// OptimizerOutcome is what every optimizer returns. It is either unchanged
// (Payload is the input, Reason says why) or improved (Payload is strictly
// smaller than the input).
type OptimizerOutcome struct {
	Payload []byte
	Changed bool
	Reason  error
}

// Unchanged returns an outcome carrying the original input
func Unchanged(input []byte, reason error) OptimizerOutcome {
	return OptimizerOutcome{Payload: input, Reason: reason}
}

// Improved returns an outcome carrying optimized bytes
func Improved(data []byte) OptimizerOutcome {
	return OptimizerOutcome{Payload: data, Changed: true}
}

// KeepSmaller returns Improved(candidate) when it is strictly smaller than input,
// otherwise Unchanged with ErrNoImprovement.
func KeepSmaller(input, candidate []byte) OptimizerOutcome {
	if len(candidate) < len(input) {
		return Improved(candidate)
	}
	return Unchanged(input, ErrNoImprovement)
}
