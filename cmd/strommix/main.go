// Package main provides the command line renderer for strommix scenes.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"github.com/strommix/strommix/internal/assemble"
	"github.com/strommix/strommix/internal/asset"
	"github.com/strommix/strommix/internal/chart"
	"github.com/strommix/strommix/internal/config"
	"github.com/strommix/strommix/internal/export"
	"github.com/strommix/strommix/internal/scene"
	"github.com/strommix/strommix/internal/series"
)

var (
	palettePath string
	timezone    string
	outputPath  string
	pretty      bool

	startDate  string
	days       int
	selection  []string
	assetDir   string
	noOverlay  bool
	withAxes   bool
	withLabels bool
	withIcons  bool

	svgPath      string
	pngPath      string
	maxWidth     int
	exportFormat string
	chartFormat  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "strommix",
		Short: "Render stacked energy-mix scenes",
		Long: `strommix turns an hourly generation table (.csv or .xlsx) into an
editable scene document and exports it as SVG, PNG or a plotted chart.`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&palettePath, "palette", "", "Palette YAML file (default: built-in)")
	rootCmd.PersistentFlags().StringVar(&timezone, "tz", "UTC", "Timezone of table timestamps")
	rootCmd.PersistentFlags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")

	renderCmd := &cobra.Command{
		Use:   "render [table]",
		Short: "Assemble a scene document from a table",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	windowFlags(renderCmd)
	renderCmd.Flags().StringSliceVar(&selection, "select", nil, "Categories to stack (default: palette order)")
	renderCmd.Flags().StringVar(&assetDir, "assets", "", "Directory holding icon_<name>.png files")
	renderCmd.Flags().BoolVar(&noOverlay, "no-consumption", false, "Omit the consumption overlay")
	renderCmd.Flags().BoolVar(&withAxes, "axes", false, "Draw axes and ticks")
	renderCmd.Flags().BoolVar(&withLabels, "labels", false, "Draw the category legend")
	renderCmd.Flags().BoolVar(&withIcons, "icons", false, "Draw category icons")
	renderCmd.Flags().BoolVar(&pretty, "pretty", false, "Pretty-print JSON output")
	renderCmd.Flags().StringVar(&svgPath, "svg", "", "Also write the scene as SVG")
	renderCmd.Flags().StringVar(&pngPath, "png", "", "Also write the scene as PNG")
	renderCmd.Flags().IntVar(&maxWidth, "max-width", 0, "Downsample PNG output wider than this")

	exportCmd := &cobra.Command{
		Use:   "export [scene.json]",
		Short: "Export a scene document as SVG or PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "svg", "Output format: svg or png")
	exportCmd.Flags().IntVar(&maxWidth, "max-width", 0, "Downsample PNG output wider than this")

	chartCmd := &cobra.Command{
		Use:   "chart [table]",
		Short: "Plot the stacked series of a table",
		Args:  cobra.ExactArgs(1),
		RunE:  runChart,
	}
	windowFlags(chartCmd)
	chartCmd.Flags().StringSliceVar(&selection, "select", nil, "Categories to stack (default: palette order)")
	chartCmd.Flags().BoolVar(&noOverlay, "no-consumption", false, "Omit the consumption overlay")
	chartCmd.Flags().StringVar(&chartFormat, "format", "png", "Output format: png, svg or pdf")

	rootCmd.AddCommand(renderCmd, exportCmd, chartCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func windowFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&startDate, "start", "", "First day to show, YYYY-MM-DD (default: first day in table)")
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to show (1-7)")
}

// dataset is a windowed table already split into categories.
type dataset struct {
	palette *config.Palette
	split   series.Split
	loc     *time.Location
	start   time.Time
	days    int
	stack   []string
}

func load(path string) (*dataset, error) {
	p, err := config.LoadPalette(palettePath)
	if err != nil {
		return nil, err
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", timezone, err)
	}
	if days < 1 || days > 7 {
		return nil, fmt.Errorf("days must be between 1 and 7, got %d", days)
	}

	raw, err := series.ReadFile(path, loc)
	if err != nil {
		return nil, err
	}
	if raw.Empty() {
		return nil, fmt.Errorf("table %s has no rows", path)
	}

	start := raw.Timestamps[0]
	if startDate != "" {
		start, err = time.ParseInLocation("2006-01-02", startDate, loc)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}
	}
	start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	window := raw.Window(start, start.AddDate(0, 0, days))
	if window.Empty() {
		return nil, fmt.Errorf("no rows between %s and %s", start.Format("2006-01-02"), start.AddDate(0, 0, days).Format("2006-01-02"))
	}

	split, err := series.SafeTransform(series.ColumnSplit{Balance: p.Balance, Aggregate: p.Aggregate}.Transform, window)
	if err != nil {
		return nil, err
	}

	chosen := selection
	if len(chosen) == 0 {
		chosen = p.DefaultOrder
	}
	available := split.Combined.Columns()
	chosen = slices.DeleteFunc(slices.Clone(chosen), func(name string) bool {
		return !slices.Contains(available, name)
	})

	slog.Debug("table loaded", "rows", window.Len(), "categories", len(available), "selected", len(chosen))
	return &dataset{
		palette: p,
		split:   split,
		loc:     loc,
		start:   start,
		days:    days,
		stack:   chosen,
	}, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	ds, err := load(args[0])
	if err != nil {
		return err
	}

	icons, err := asset.NewLibrary(assetDir).Icons(ds.palette.Icons)
	if err != nil {
		return fmt.Errorf("load icons: %w", err)
	}

	order := assemble.Reorder(ds.palette.DefaultOrder, ds.stack)
	doc, err := assemble.Assemble(assemble.Input{
		Combined:      ds.split.Combined,
		Aggregate:     ds.split.Aggregate,
		OverlayColumn: ds.palette.Overlay.Column,
		Order:         order,
		Selection:     ds.stack,
		Toggles: assemble.Toggles{
			Consumption: !noOverlay,
			Axes:        withAxes,
			Labels:      withLabels,
			Icons:       withIcons,
		},
		Layout: ds.palette.Canvas,
		Theme:  ds.palette.Theme(),
		Icons:  icons,
	})
	if err != nil {
		return fmt.Errorf("assemble scene: %w", err)
	}

	var data []byte
	if pretty {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return fmt.Errorf("serialize scene: %w", err)
	}
	if err := write(outputPath, append(data, '\n')); err != nil {
		return err
	}

	if svgPath != "" {
		if err := writeSVG(svgPath, doc); err != nil {
			return err
		}
	}
	if pngPath != "" {
		if err := writePNG(pngPath, doc); err != nil {
			return err
		}
	}
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read scene: %w", err)
	}
	var doc scene.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode scene: %w", err)
	}

	switch strings.ToLower(exportFormat) {
	case "svg":
		return writeSVG(outputPath, &doc)
	case "png":
		return writePNG(outputPath, &doc)
	default:
		return fmt.Errorf("invalid format: %s (must be svg or png)", exportFormat)
	}
}

func runChart(cmd *cobra.Command, args []string) error {
	ds, err := load(args[0])
	if err != nil {
		return err
	}

	th := ds.palette.Theme()
	in := chart.Input{
		Combined: ds.split.Combined,
		Stack:    assemble.StackOrder(assemble.Reorder(ds.palette.DefaultOrder, ds.stack), ds.stack),
		Theme:    th,
		Title: fmt.Sprintf("%s - %s",
			ds.start.Format("02.01.2006"), ds.start.AddDate(0, 0, ds.days-1).Format("02.01.2006")),
		YLabel:   th.AxisTitle,
		Width:    24 * vg.Centimeter,
		Height:   12 * vg.Centimeter,
		Format:   strings.ToLower(chartFormat),
		Location: ds.loc,
	}
	if !noOverlay && ds.split.Aggregate.Has(ds.palette.Overlay.Column) {
		in.Overlay = series.Numeric(ds.split.Aggregate, ds.palette.Overlay.Column)
		in.OverlayName = ds.palette.Overlay.Column
	}

	var buf bytes.Buffer
	if err := chart.Render(&buf, in); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return write(outputPath, buf.Bytes())
}

func writeSVG(path string, doc *scene.Document) error {
	data, err := export.SVG(doc, export.Options{})
	if err != nil {
		return fmt.Errorf("export svg: %w", err)
	}
	return write(path, data)
}

func writePNG(path string, doc *scene.Document) error {
	var buf bytes.Buffer
	if err := export.PNG(&buf, doc, export.RasterOptions{MaxWidth: maxWidth}); err != nil {
		return fmt.Errorf("export png: %w", err)
	}
	return write(path, buf.Bytes())
}

// write sends data to path, or stdout when path is empty.
func write(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
