package additive

import (
	"encoding/json"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CurveExport is the JSON representation of one learned transfer function.
type CurveExport struct {
	Family  string    `json:"family"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Weights []float64 `json:"weights"`
}

// Curves returns the learned functions in a stable order, sorted by family
// then feature name. Linear functions report the nominal [0, 1] domain.
func (m *Model) Curves() []CurveExport {
	out := make([]CurveExport, 0, len(m.Functions))
	for key, fn := range m.Functions {
		export := CurveExport{
			Family:  key.Family,
			Name:    key.Name,
			Type:    fn.Type().String(),
			Weights: fn.Weights(),
			Max:     1,
		}
		if spline, ok := fn.(*Spline); ok {
			export.Min = spline.Min
			export.Max = spline.Max
		}
		out = append(out, export)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Family != out[j].Family {
			return out[i].Family < out[j].Family
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ExportJSON writes all learned curves as indented JSON.
func (m *Model) ExportJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m.Curves()); err != nil {
		return fmt.Errorf("failed to encode curves: %w", err)
	}
	return nil
}

// ExportJSONFile writes all learned curves to a JSON file.
func (m *Model) ExportJSONFile(filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create curve file: %w", err)
	}
	defer file.Close()

	if err := m.ExportJSON(file); err != nil {
		return err
	}
	return file.Close()
}

var curveColors = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 200, G: 30, B: 30, A: 255},
	{R: 40, G: 120, B: 40, A: 255},
	{R: 230, G: 140, B: 20, A: 255},
	{R: 120, G: 40, B: 160, A: 255},
}

// SavePlots renders one PNG per feature family under dir, one line per
// feature in the family. Splines are drawn at their control points over
// [min, max]; linear functions are drawn over [0, 1].
func (m *Model) SavePlots(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create plot directory: %w", err)
	}

	families := make(map[string][]CurveExport)
	for _, curve := range m.Curves() {
		families[curve.Family] = append(families[curve.Family], curve)
	}

	for family, curves := range families {
		p := plot.New()
		p.Title.Text = family
		p.X.Label.Text = "feature value"
		p.Y.Label.Text = "contribution"
		p.Add(plotter.NewGrid())

		for i, curve := range curves {
			line, err := plotter.NewLine(curvePoints(curve))
			if err != nil {
				return fmt.Errorf("failed to build line for %s:%s: %w", curve.Family, curve.Name, err)
			}
			line.Color = curveColors[i%len(curveColors)]
			line.Width = vg.Points(1.2)
			p.Add(line)
			p.Legend.Add(curve.Name, line)
		}

		name := strings.ReplaceAll(family, string(filepath.Separator), "_")
		out := filepath.Join(dir, name+".png")
		if err := p.Save(6*vg.Inch, 4*vg.Inch, out); err != nil {
			return fmt.Errorf("failed to save plot %s: %w", out, err)
		}
	}
	return nil
}

// SaveCurvePlot renders the transfer curve of a single feature to path. The
// image format follows the path extension, per gonum/plot.
func (m *Model) SaveCurvePlot(key FeatureKey, path string) error {
	fn, ok := m.Get(key)
	if !ok {
		return fmt.Errorf("no function registered for %s", key)
	}

	curve := CurveExport{
		Family:  key.Family,
		Name:    key.Name,
		Type:    fn.Type().String(),
		Weights: fn.Weights(),
		Max:     1,
	}
	if spline, ok := fn.(*Spline); ok {
		curve.Min = spline.Min
		curve.Max = spline.Max
	}

	p := plot.New()
	p.Title.Text = key.String()
	p.X.Label.Text = "feature value"
	p.Y.Label.Text = "contribution"
	p.Add(plotter.NewGrid())

	line, err := plotter.NewLine(curvePoints(curve))
	if err != nil {
		return fmt.Errorf("failed to build line for %s: %w", key, err)
	}
	line.Color = curveColors[0]
	line.Width = vg.Points(1.2)
	p.Add(line)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

func curvePoints(curve CurveExport) plotter.XYs {
	n := len(curve.Weights)
	if curve.Type == "linear" && n == 2 {
		w0, w1 := curve.Weights[0], curve.Weights[1]
		return plotter.XYs{{X: 0, Y: w0}, {X: 1, Y: w0 + w1}}
	}
	points := make(plotter.XYs, 0, n)
	for i, w := range curve.Weights {
		x := curve.Min
		if n > 1 {
			x = curve.Min + float64(i)*(curve.Max-curve.Min)/float64(n-1)
		}
		points = append(points, plotter.XY{X: x, Y: w})
	}
	return points
}
