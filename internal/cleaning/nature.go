package cleaning

import (
	"strings"

	"tickflow/internal/domain"
)

// normalizeNature maps a free-text direction tag onto the three-way
// enumeration. Recognizes CJK and English tokens, single letters, partial
// substrings, and numeric sign hints (positive=buy, negative=sell, zero=
// neutral). Anything else is unknown and left for heuristic inference.
func normalizeNature(s string) domain.Direction {
	s = strings.TrimSpace(s)
	if s == "" {
		return domain.DirectionUnknown
	}

	lower := strings.ToLower(s)
	switch {
	case lower == "b" || strings.Contains(s, "买") || strings.Contains(lower, "buy"):
		return domain.DirectionBuy
	case lower == "s" || strings.Contains(s, "卖") || strings.Contains(lower, "sell"):
		return domain.DirectionSell
	case strings.Contains(s, "中性") || strings.Contains(lower, "neutral"):
		return domain.DirectionNeutral
	}

	if v, ok := parseNumber(s); ok {
		switch {
		case v > 0:
			return domain.DirectionBuy
		case v < 0:
			return domain.DirectionSell
		default:
			return domain.DirectionNeutral
		}
	}

	return domain.DirectionUnknown
}
