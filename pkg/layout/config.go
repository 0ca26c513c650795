package layout

import "fmt"

// Default spacing, in layout units.
const (
	DefaultHGap     = 200.0
	DefaultVGap     = 110.0
	DefaultMargin   = 40.0
	DefaultMaxDepth = 512
)

// Config holds the layout constants.
type Config struct {
	HGap     float64 `json:"h_gap" koanf:"h_gap"`         // Width of one leaf column
	VGap     float64 `json:"v_gap" koanf:"v_gap"`         // Distance between depth levels
	Margin   float64 `json:"margin" koanf:"margin"`       // Inset of the leftmost node
	MaxDepth int     `json:"max_depth" koanf:"max_depth"` // Deepest nesting accepted; <= 0 disables the limit
}

// DefaultConfig returns the standard spacing.
func DefaultConfig() Config {
	return Config{
		HGap:     DefaultHGap,
		VGap:     DefaultVGap,
		Margin:   DefaultMargin,
		MaxDepth: DefaultMaxDepth,
	}
}

// Validate rejects spacing that would make nodes overlap or invert.
func (c Config) Validate() error {
	if c.HGap <= 0 {
		return fmt.Errorf("h_gap must be positive, got %v", c.HGap)
	}
	if c.VGap <= 0 {
		return fmt.Errorf("v_gap must be positive, got %v", c.VGap)
	}
	if c.Margin < 0 {
		return fmt.Errorf("margin must not be negative, got %v", c.Margin)
	}
	return nil
}

// Option overrides part of the Config used by Build.
type Option func(*Config)

// WithConfig replaces the whole configuration.
func WithConfig(c Config) Option { return func(dst *Config) { *dst = c } }

// WithHGap sets the horizontal spacing per leaf column.
func WithHGap(gap float64) Option { return func(c *Config) { c.HGap = gap } }

// WithVGap sets the vertical spacing per depth level.
func WithVGap(gap float64) Option { return func(c *Config) { c.VGap = gap } }

// WithMargin sets the left inset applied after normalization.
func WithMargin(m float64) Option { return func(c *Config) { c.Margin = m } }

// WithMaxDepth bounds the nesting depth Build accepts.
func WithMaxDepth(n int) Option { return func(c *Config) { c.MaxDepth = n } }
