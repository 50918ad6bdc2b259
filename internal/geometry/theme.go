package geometry

import (
	"golang.org/x/text/language"
)

// Theme holds the colors and typography of generated primitives.
type Theme struct {
	Colors        map[string]string
	FallbackColor string

	AreaStroke      string
	AreaStrokeWidth float64
	AreaOpacity     float64

	OverlayStroke      string
	OverlayStrokeWidth float64

	AxisStroke string
	AxisFill   string
	LabelFill  string
	FontSize   float64
	FontFamily string

	AxisTitle string
	// MajorUnit is the value step of the single major tick, labelled as
	// "<n> <MajorUnitLabel>".
	MajorUnit      float64
	MajorUnitLabel string

	// Weekdays is indexed by time.Weekday.
	Weekdays [7]string
}

func DefaultTheme() Theme {
	return Theme{
		Colors: map[string]string{
			"Biomasse":     "#2ca02cCC",
			"Photovoltaik": "#ffd700CC",
			"Wasserkraft":  "#003366CC",
			"Wind":         "#87ceebCC",
			"Kohle und Öl": "#8b4513CC",
			"Gas":          "#d2b48cCC",
			"Andere":       "#7f7f7fCC",
		},
		FallbackColor: "#999999CC",

		AreaStroke:      "#333333",
		AreaStrokeWidth: 1,
		AreaOpacity:     0.9,

		OverlayStroke:      "#ff0000",
		OverlayStrokeWidth: 4,

		AxisStroke: "#000000",
		AxisFill:   "#333333",
		LabelFill:  "#222222",
		FontSize:   14,
		FontFamily: "Inter, Roboto, Arial, sans-serif",

		AxisTitle:      "Elektrische Leistung",
		MajorUnit:      1000,
		MajorUnitLabel: "GW",

		Weekdays: WeekdayNames("de"),
	}
}

// Color returns the fill for a category.
func (t Theme) Color(name string) string {
	if c, ok := t.Colors[name]; ok {
		return c
	}
	return t.FallbackColor
}

var weekdayTables = map[language.Tag][7]string{
	language.German:  {"So", "Mo", "Di", "Mi", "Do", "Fr", "Sa"},
	language.English: {"Su", "Mo", "Tu", "We", "Th", "Fr", "Sa"},
	language.French:  {"Di", "Lu", "Ma", "Me", "Je", "Ve", "Sa"},
}

var weekdayMatcher = language.NewMatcher([]language.Tag{
	language.German, // first entry is the fallback
	language.English,
	language.French,
})

// WeekdayNames returns two-letter weekday abbreviations for the closest
// supported locale.
func WeekdayNames(locale string) [7]string {
	tag, _ := language.Parse(locale)
	_, idx, _ := weekdayMatcher.Match(tag)
	switch idx {
	case 1:
		return weekdayTables[language.English]
	case 2:
		return weekdayTables[language.French]
	default:
		return weekdayTables[language.German]
	}
}
