// Package exportsvc renders attendance reports as images, spreadsheets and PDF documents.
package exportsvc

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/chart"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrUnknownChart  = errors.New("unknown chart")

	Formats = []Format{FormatJSON, FormatSVG, FormatPNG, FormatXLSX, FormatPDF}

	contentTypes = map[Format]string{
		FormatJSON: "application/json",
		FormatSVG:  "image/svg+xml",
		FormatPNG:  "image/png",
		FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		FormatPDF:  "application/pdf",
	}
)

// ChartPie selects the pie of the averages in ReportChart.
const ChartPie = "pie"

const (
	chartWidth  = 640
	chartHeight = 400
	barWidth    = 60
	emptyLabel  = "Sin datos"
)

// ParseFormat parses a format name, defaulting to json.
func ParseFormat(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatJSON, nil
	}
	for _, f := range Formats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", errors.Wrap(ErrUnknownFormat, s)
}

func (f Format) ContentType() string { return contentTypes[f] }

// Filename returns the attachment name of an exported report.
func (f Format) Filename(wr attendance.WeeklyReport) string {
	return "asistencia-" + wr.Audience + "-" + wr.WeekStart.Format("2006-01-02") + "." + string(f)
}

func (f Format) IsImage() bool { return f == FormatSVG || f == FormatPNG }

// Color parses a "#rrggbb" color.
func Color(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

// RenderSeries writes s as an SVG or PNG image.
func RenderSeries(w io.Writer, s chart.Series, format Format) error {
	if !format.IsImage() {
		return errors.Wrapf(ErrUnknownFormat, "%s is not an image format", format)
	}
	provider := gochart.SVG
	if format == FormatPNG {
		provider = gochart.PNG
	}

	switch s.Kind {
	case chart.KindBar:
		return errors.Wrap(barChart(s).Render(provider, w), "rendering bar chart")
	case chart.KindPie:
		return errors.Wrap(pieChart(s).Render(provider, w), "rendering pie chart")
	}
	return errors.Wrapf(chart.ErrUnknownKind, "%q", s.Kind)
}

// ReportChart writes one chart of wr: the bars of a metric or the pie of the averages.
func ReportChart(w io.Writer, wr attendance.WeeklyReport, name string, format Format) error {
	if name == "" || name == ChartPie {
		return RenderSeries(w, wr.PieSeries(), format)
	}
	for _, m := range attendance.Metrics {
		if string(m) == name {
			return RenderSeries(w, wr.BarSeries(m), format)
		}
	}
	return errors.Wrap(ErrUnknownChart, name)
}

func barChart(s chart.Series) gochart.BarChart {
	bc := gochart.BarChart{
		Title:    s.Title,
		Width:    chartWidth,
		Height:   chartHeight,
		BarWidth: barWidth,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		// percentages; a fixed range also keeps all-zero weeks renderable
		YAxis: gochart.YAxis{Range: &gochart.ContinuousRange{Min: 0, Max: 100}},
	}

	for row, values := range s.Data {
		for i, v := range values {
			label := ""
			if i < len(s.Labels) {
				label = s.Labels[i]
			}
			bc.Bars = append(bc.Bars, gochart.Value{
				Label: label,
				Value: v,
				Style: gochart.Style{FillColor: Color(seriesColor(s, row)), StrokeWidth: 0},
			})
		}
	}
	if len(bc.Bars) == 0 {
		bc.Bars = []gochart.Value{{Label: emptyLabel, Style: gochart.Style{FillColor: Color(chart.NeutralColor)}}}
	}
	return bc
}

func pieChart(s chart.Series) gochart.PieChart {
	pc := gochart.PieChart{
		Title:  s.Title,
		Width:  chartHeight,
		Height: chartHeight,
	}

	var weights []float64
	if len(s.Data) > 0 {
		weights = s.Data[0]
	}
	for i, v := range weights {
		if v <= 0 {
			continue
		}
		label := ""
		if i < len(s.Labels) {
			label = s.Labels[i]
		}
		pc.Values = append(pc.Values, gochart.Value{
			Label: label,
			Value: v,
			Style: gochart.Style{
				FillColor:   Color(seriesColor(s, i)),
				StrokeColor: Color(chart.SliceStroke),
				StrokeWidth: 2,
			},
		})
	}
	if len(pc.Values) == 0 {
		pc.Values = []gochart.Value{{
			Label: emptyLabel,
			Value: 1,
			Style: gochart.Style{FillColor: Color(chart.NeutralColor), StrokeColor: Color(chart.NeutralColor)},
		}}
	}
	return pc
}

func seriesColor(s chart.Series, i int) string {
	palette := s.Colors
	if len(palette) == 0 {
		palette = chart.DefaultPalette
	}
	return palette[i%len(palette)]
}
