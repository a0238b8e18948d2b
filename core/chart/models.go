package chart

// Kind selects the layout used to render a Series.
type Kind string

const (
	KindBar Kind = "bar"
	KindPie Kind = "pie"
)

// Primitive kinds
const (
	PrimitiveBar         = "bar"
	PrimitiveSlice       = "slice"
	PrimitivePlaceholder = "placeholder"
)

var (
	// DefaultPalette is used when a Series has no colors.
	DefaultPalette = []string{"#22c55e", "#eab308", "#ef4444", "#3b82f6", "#a855f7", "#14b8a6"}

	NeutralColor = "#e5e7eb"
	SliceStroke  = "#ffffff"
)

// Series is the input of every layout.
// Bar charts read every row of Data as one series; pie charts read Data[0] as slice weights.
type Series struct {
	Kind   Kind        `json:"kind"`
	Title  string      `json:"title"`
	Labels []string    `json:"labels"`
	Data   [][]float64 `json:"data"`
	Colors []string    `json:"colors,omitempty"`
}

// Primitive is a single drawable element of a Drawing.
type Primitive struct {
	Kind        string  `json:"kind"`
	Series      int     `json:"series"`
	Index       int     `json:"index"`
	Label       string  `json:"label,omitempty"`
	Value       float64 `json:"value"`
	Height      float64 `json:"height,omitempty"`
	Path        string  `json:"path,omitempty"`
	StartAngle  float64 `json:"start_angle,omitempty"`
	SweepAngle  float64 `json:"sweep_angle,omitempty"`
	Color       string  `json:"color"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"stroke_width,omitempty"`
}

// Drawing is the output of a layout.
type Drawing struct {
	Kind       Kind        `json:"kind"`
	Title      string      `json:"title"`
	Primitives []Primitive `json:"primitives"`
	// Max is the scale maximum of bar charts.
	Max float64 `json:"max,omitempty"`
	// Total is the sum of pie weights, shown as the center label.
	Total float64 `json:"total"`
}

// CenterLabel is the text shown in the middle of a pie chart.
func (d Drawing) CenterLabel() string {
	return formatNumber(d.Total) + "%"
}

func (s Series) color(i int) string {
	palette := s.Colors
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[i%len(palette)]
}
