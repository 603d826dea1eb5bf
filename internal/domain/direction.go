package domain

// Direction classifies which side initiated a trade.
type Direction string

// Direction constants
const (
	DirectionBuy     Direction = "buy"
	DirectionSell    Direction = "sell"
	DirectionNeutral Direction = "neutral"
	DirectionUnknown Direction = ""
)

// Valid reports whether the direction is one of the three known labels.
func (d Direction) Valid() bool {
	return d == DirectionBuy || d == DirectionSell || d == DirectionNeutral
}

// Sign returns the signed multiplier used for net-inflow computation:
// +1 for buy, -1 for sell, 0 for neutral or unknown.
func (d Direction) Sign() int {
	switch d {
	case DirectionBuy:
		return 1
	case DirectionSell:
		return -1
	default:
		return 0
	}
}

// Direction provenance values recorded per tick.
const (
	DirectionSourceRaw         = "raw"
	DirectionSourceInferred    = "inferred"
	DirectionSourceInferredAll = "inferred_all"
)

// InferenceOutcome records how direction labels were obtained for a batch.
// It replaces the imperative "re-infer everything if the batch looks
// degenerate" double-pass with an auditable state.
type InferenceOutcome string

const (
	// RawLabelsUsable means source-provided labels covered the batch.
	RawLabelsUsable InferenceOutcome = "raw_labels_usable"
	// PartialInferenceNeeded means only missing labels were inferred.
	PartialInferenceNeeded InferenceOutcome = "partial_inference"
	// FullInferenceNeeded means source labels were degenerate and every
	// row was re-labeled from price movement.
	FullInferenceNeeded InferenceOutcome = "full_inference"
)
