package searcher

import (
	"strings"

	"github.com/gruenerator/docsearch-mcp/internal/config"
)

// ClampLimit bounds a result limit to [1, max].
func ClampLimit(n, max int) int {
	if n < 1 {
		return 1
	}
	if n > max {
		return max
	}
	return n
}

// ClampThreshold bounds an explicit similarity threshold to [0, 1].
func ClampThreshold(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// DynamicThreshold computes the similarity cutoff from query length. Raw
// cosine similarity is not comparably meaningful across very short and very
// long queries: a fixed global threshold either starves short queries of
// recall or floods long queries with noise. Short queries (1-2 tokens) keep
// the base threshold or raise it slightly; long queries (5+ tokens) get a
// lower cutoff to admit more candidates. The result is clamped to the
// configured band.
func DynamicThreshold(query string, cfg config.ThresholdConfig) float64 {
	tokens := len(strings.Fields(query))

	t := cfg.Base
	switch {
	case tokens <= 2:
		t += cfg.ShortQueryBoost
	case tokens >= 5:
		t -= cfg.LongQueryRelief
	}

	if t < cfg.Min {
		t = cfg.Min
	}
	if t > cfg.Max {
		t = cfg.Max
	}
	return t
}
