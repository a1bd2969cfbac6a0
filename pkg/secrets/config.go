package secrets

import "fmt"

// Config selects how printed configurations are masked. It is filled from
// the mask_secrets and mask_style settings.
type Config struct {
	// Enabled is false when masking was turned off, e.g. with
	// CLIWIZARD_MASK_SECRETS=false.
	Enabled bool
	// Style is one of StylePartial, StyleFull or StyleHash; empty means
	// partial.
	Style string
}

// Validate rejects unknown styles.
func (c Config) Validate() error {
	switch c.Style {
	case "", StylePartial, StyleFull, StyleHash:
		return nil
	}
	return fmt.Errorf("unknown mask style %q (partial, full, hash)", c.Style)
}

// Masker returns the masker c describes, or nil when masking is disabled.
func (c Config) Masker() (*Masker, error) {
	if !c.Enabled {
		return nil, nil
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	opts := DefaultOptions()
	opts.Strategy = CreateMaskStrategy(c.Style)
	return NewMasker(opts)
}
