package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/strommix/strommix/internal/geometry"
)

// Palette is the file-backed presentation config: canvas size, category
// colors and order, overlay styling and axis wording.
type Palette struct {
	Canvas       geometry.Layout   `yaml:"canvas"`
	Colors       map[string]string `yaml:"colors"`
	Fallback     string            `yaml:"fallback"`
	DefaultOrder []string          `yaml:"default_order"`
	Overlay      struct {
		Column string  `yaml:"column"`
		Stroke string  `yaml:"stroke"`
		Width  float64 `yaml:"width"`
	} `yaml:"overlay"`
	Axis struct {
		Title     string  `yaml:"title"`
		MajorUnit float64 `yaml:"major_unit"`
		UnitLabel string  `yaml:"unit_label"`
	} `yaml:"axis"`
	Locale string `yaml:"locale"`
	// Balance and Aggregate name the raw columns routed out of the stack.
	Balance   []string `yaml:"balance"`
	Aggregate []string `yaml:"aggregate"`
	Icons     []string `yaml:"icons"`
}

func DefaultPalette() *Palette {
	th := geometry.DefaultTheme()
	p := &Palette{
		Canvas:       geometry.DefaultLayout(),
		Colors:       th.Colors,
		Fallback:     th.FallbackColor,
		DefaultOrder: []string{"Andere", "Wasserkraft", "Biomasse", "Wind", "Photovoltaik", "Kohle und Öl", "Gas"},
		Locale:       "de",
		Balance:      []string{"Import", "Export"},
		Aggregate:    []string{"Stromverbrauch"},
		Icons:        []string{"wind", "solar", "wasserkraft"},
	}
	p.Overlay.Column = "Stromverbrauch"
	p.Overlay.Stroke = th.OverlayStroke
	p.Overlay.Width = th.OverlayStrokeWidth
	p.Axis.Title = th.AxisTitle
	p.Axis.MajorUnit = th.MajorUnit
	p.Axis.UnitLabel = th.MajorUnitLabel
	return p
}

// LoadPalette reads a YAML palette over the defaults. An empty path returns
// the defaults.
func LoadPalette(path string) (*Palette, error) {
	p := DefaultPalette()
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read palette: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse palette %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("palette %s: %w", path, err)
	}
	return p, nil
}

func (p *Palette) Validate() error {
	c := p.Canvas
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("canvas size must be positive")
	}
	if c.Padding.Left+c.Padding.Right >= c.Width || c.Padding.Top+c.Padding.Bottom >= c.Height {
		return fmt.Errorf("padding leaves no plot area")
	}
	if p.Overlay.Column == "" {
		return fmt.Errorf("overlay column is required")
	}
	return nil
}

// Theme converts the palette into primitive styling.
func (p *Palette) Theme() geometry.Theme {
	th := geometry.DefaultTheme()
	th.Colors = p.Colors
	if p.Fallback != "" {
		th.FallbackColor = p.Fallback
	}
	if p.Overlay.Stroke != "" {
		th.OverlayStroke = p.Overlay.Stroke
	}
	if p.Overlay.Width > 0 {
		th.OverlayStrokeWidth = p.Overlay.Width
	}
	th.AxisTitle = p.Axis.Title
	th.MajorUnit = p.Axis.MajorUnit
	th.MajorUnitLabel = p.Axis.UnitLabel
	th.Weekdays = geometry.WeekdayNames(p.Locale)
	return th
}
