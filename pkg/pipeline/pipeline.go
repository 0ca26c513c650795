// Package pipeline turns document bytes into a laid-out tree and rendered
// artifacts. The CLI, the HTTP server and the explorer all go through a
// [Runner], so they share defaults, input limits and the cache.
//
// A run has three stages:
//
//  1. Parse decodes JSON, YAML or TOML into a [value.Value].
//  2. Layout builds the positioned [tree.Graph] and its path index.
//  3. Render writes PNG, SVG or DOT images, or the JSON graph document.
//
// Layouts are cached by input content and layout settings; a hit skips
// parsing as well. Images are cached per graph and render settings.
//
//	r := pipeline.NewRunner(c, nil, logger)
//	res, err := r.Execute(ctx, pipeline.Options{
//	    Input:     data,
//	    Format:    "yaml",
//	    Formats:   []string{"svg"},
//	    Highlight: "spec.containers[0]",
//	})
//	svg := res.Artifacts["svg"]
package pipeline

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/treescope/pkg/cache"
	"github.com/matzehuels/treescope/pkg/errors"
	"github.com/matzehuels/treescope/pkg/layout"
	"github.com/matzehuels/treescope/pkg/render/nodelink"
	"github.com/matzehuels/treescope/pkg/tree"
	"github.com/matzehuels/treescope/pkg/value"
)

// =============================================================================
// Defaults
// =============================================================================

const (
	// DefaultInputFormat applies when neither a flag nor the file name says.
	DefaultInputFormat = value.FormatJSON

	// DefaultPixelRatio matches the 2x export of the browser explorer.
	DefaultPixelRatio = nodelink.DefaultPixelRatio
)

// Output formats.
const (
	FormatPNG  = string(nodelink.FormatPNG)
	FormatSVG  = string(nodelink.FormatSVG)
	FormatDOT  = string(nodelink.FormatDOT)
	FormatJSON = "json"
)

// ValidFormats holds every output format name.
var ValidFormats = map[string]bool{
	FormatPNG:  true,
	FormatSVG:  true,
	FormatDOT:  true,
	FormatJSON: true,
}

// =============================================================================
// Options
// =============================================================================

// Options configures one run. The JSON form is what API clients send.
type Options struct {
	// Parse
	Input         []byte `json:"-"`
	Format        string `json:"format,omitempty"` // json, yaml or toml
	Source        string `json:"source,omitempty"` // File name or "sample", for logs
	MaxInputBytes int64  `json:"max_input_bytes,omitempty"`
	Refresh       bool   `json:"refresh,omitempty"`

	// Layout
	HGap     float64 `json:"h_gap,omitempty"`
	VGap     float64 `json:"v_gap,omitempty"`
	Margin   float64 `json:"margin,omitempty"`
	MaxDepth int     `json:"max_depth,omitempty"`

	// Render
	Formats    []string `json:"formats,omitempty"`
	Highlight  string   `json:"highlight,omitempty"` // Path query; the matched node gets a ring
	PixelRatio float64  `json:"pixel_ratio,omitempty"`
	Background string   `json:"background,omitempty"`

	Logger *log.Logger `json:"-"`

	validated bool
}

// Result is the output of a run.
type Result struct {
	Graph *tree.Graph

	// GraphHash names the layout inputs (content plus settings) and keys
	// the artifact cache.
	GraphHash string

	Artifacts map[string][]byte // by output format
	Stats     Stats
	CacheInfo CacheInfo
}

// Stats reports the size of the graph and the time spent per stage.
type Stats struct {
	NodeCount  int
	EdgeCount  int
	MaxDepth   int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// CacheInfo reports which stages were served from the cache.
type CacheInfo struct {
	LayoutHit bool // parse and layout were skipped
	RenderHit bool // every requested artifact was cached
}

// =============================================================================
// Validation
// =============================================================================

// ValidateFormat rejects unknown output format names.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return errors.New(errors.ErrCodeInvalidFormat, "invalid format: %q (must be one of: png, svg, dot, json)", format)
	}
	return nil
}

// ValidateFormats returns the error for the first unknown name.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ValidateAndSetDefaults runs every stage's validation once; later calls
// return nil.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForParse(); err != nil {
		return err
	}
	if err := o.ValidateForLayout(); err != nil {
		return err
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// ValidateForParse checks the input size and resolves Format to a known
// input format.
func (o *Options) ValidateForParse() error {
	if len(o.Input) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "input is required")
	}
	if err := errors.ValidateInputSize(o.Input, o.MaxInputBytes); err != nil {
		return err
	}
	f, err := value.ParseFormat(o.Format)
	if err != nil {
		return err
	}
	o.Format = string(f)
	o.quietLogger()
	return nil
}

// SetLayoutDefaults fills zero layout settings from layout.DefaultConfig.
func (o *Options) SetLayoutDefaults() {
	def := layout.DefaultConfig()
	if o.HGap == 0 {
		o.HGap = def.HGap
	}
	if o.VGap == 0 {
		o.VGap = def.VGap
	}
	if o.Margin == 0 {
		o.Margin = def.Margin
	}
	if o.MaxDepth == 0 {
		o.MaxDepth = def.MaxDepth
	}
	o.quietLogger()
}

// ValidateForLayout fills layout defaults and rejects negative gaps or
// margins.
func (o *Options) ValidateForLayout() error {
	o.SetLayoutDefaults()
	if err := o.LayoutConfig().Validate(); err != nil {
		return errors.New(errors.ErrCodeInvalidInput, "%v", err)
	}
	return nil
}

// SetRenderDefaults fills the pixel ratio and background.
func (o *Options) SetRenderDefaults() {
	if o.PixelRatio == 0 {
		o.PixelRatio = DefaultPixelRatio
	}
	if o.Background == "" {
		o.Background = nodelink.DefaultBackground
	}
	o.quietLogger()
}

// ValidateForRender fills render defaults and checks Formats. An empty
// list renders nothing.
func (o *Options) ValidateForRender() error {
	o.SetRenderDefaults()
	if o.PixelRatio < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "pixel_ratio must be positive, got %v", o.PixelRatio)
	}
	return ValidateFormats(o.Formats)
}

// LayoutConfig converts the layout fields.
func (o *Options) LayoutConfig() layout.Config {
	return layout.Config{HGap: o.HGap, VGap: o.VGap, Margin: o.Margin, MaxDepth: o.MaxDepth}
}

// GraphKeyOpts is the layout part of the graph cache key.
func (o *Options) GraphKeyOpts() cache.GraphKeyOpts {
	return cache.GraphKeyOpts{HGap: o.HGap, VGap: o.VGap, Margin: o.Margin, MaxDepth: o.MaxDepth}
}

// ArtifactKeyOpts is the render part of an artifact cache key. The pixel
// ratio only matters for PNG and the background only when it is not the
// default.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{Format: format, Highlight: o.Highlight}
	if format == FormatPNG {
		k.Format = fmt.Sprintf("%s@%gx", format, o.PixelRatio)
	}
	if o.Background != nodelink.DefaultBackground {
		k.Format += "/" + o.Background
	}
	return k
}

// quietLogger discards logs when the caller set no logger.
func (o *Options) quietLogger() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}
