package secrets

import (
	"crypto/sha256"
	"encoding/hex"
)

// Masking styles.
const (
	StylePartial = "partial"
	StyleFull    = "full"
	StyleHash    = "hash"
)

const (
	placeholder = "***"
	// visible is how many leading characters a partial mask keeps.
	visible = 4
)

// MaskStrategy replaces a secret value.
type MaskStrategy interface {
	Mask(value string) string
	Name() string
}

type strategy struct {
	name string
	mask func(string) string
}

func (s strategy) Mask(value string) string { return s.mask(value) }
func (s strategy) Name() string             { return s.name }

var strategies = map[string]strategy{
	StylePartial: {StylePartial, func(v string) string {
		// too short to reveal a prefix safely
		if len(v) <= 2*visible {
			return placeholder
		}
		return v[:visible] + placeholder
	}},
	StyleFull: {StyleFull, func(string) string { return placeholder }},
	StyleHash: {StyleHash, func(v string) string {
		sum := sha256.Sum256([]byte(v))
		return "sha256:" + hex.EncodeToString(sum[:8])
	}},
}

// CreateMaskStrategy returns the strategy for style. Unknown styles mask
// partially.
func CreateMaskStrategy(style string) MaskStrategy {
	if s, ok := strategies[style]; ok {
		return s
	}
	return strategies[StylePartial]
}
