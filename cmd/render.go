package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/theirongolddev/fintree/internal/arc"
	"github.com/theirongolddev/fintree/internal/model"
)

var (
	flagRenderOut      string
	flagRenderScore    float64
	flagRenderDiameter float64
	flagRenderStroke   float64
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Write the score gauge as an SVG",
	Long: "Render the arc gauge for --score, or for the fetched score when --score is not given.\n" +
		"The score is read on the configured scale.",
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVarP(&flagRenderOut, "output", "o", "-", "Output file (- for stdout)")
	renderCmd.Flags().Float64Var(&flagRenderScore, "score", 0, "Raw score to render instead of fetching")
	renderCmd.Flags().Float64Var(&flagRenderDiameter, "diameter", arc.DefaultGeometry.Diameter, "Gauge diameter")
	renderCmd.Flags().Float64Var(&flagRenderStroke, "stroke", arc.DefaultGeometry.StrokeWidth, "Track stroke width")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	log := newLogger()
	defer func() { _ = log.Sync() }()

	scale, tiers, err := scaleAndTiers()
	if err != nil {
		return err
	}

	raw := flagRenderScore
	if !cmd.Flags().Changed("score") {
		d := fetchDashboard(log)
		raw = model.NewSnapshot(d, scale).RawScore
	}

	g := arc.Geometry{Diameter: flagRenderDiameter, StrokeWidth: flagRenderStroke}
	f := arc.Render(arc.Normalize(raw, scale), g, tiers)

	if flagRenderOut == "-" {
		if err := arc.WriteSVG(os.Stdout, f); err != nil {
			return fmt.Errorf("writing svg: %w", err)
		}
		return nil
	}

	if err := writeSVGFile(flagRenderOut, f); err != nil {
		return err
	}
	progressf("  Wrote %s (%s, %s)\n", flagRenderOut, f.Label, f.Tier.Name)
	return nil
}

// writeSVGFile writes the gauge to path, including any error from Close.
func writeSVGFile(path string, f arc.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := arc.WriteSVG(file, f); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing svg: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
