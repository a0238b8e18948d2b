// Package chart turns numeric series into drawable primitives.
// Layouts are pure: the same Series always yields the same Drawing.
package chart

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
)

const (
	DefaultPixelBudget = 180
	DefaultRadius      = 50

	// maxFallback is the bar scale used when no positive value is observed.
	maxFallback = 100
)

var (
	ErrUnknownKind     = errors.New("unknown chart kind")
	ErrLengthMismatch  = errors.New("series and labels lengths differ")
	ErrInvalidValue    = errors.New("values must be finite and non-negative")
	ErrTotalOverflow   = errors.New("sum of values is too large")
	errNoLayoutForKind = "no layout registered for kind %q"
)

// Renderer converts a Series into a Drawing.
type Renderer interface {
	Render(s Series) (Drawing, error)
}

// Layouts selects a Renderer by Series.Kind.
type Layouts map[Kind]Renderer

// NewLayouts returns the bar and pie layouts with the given pixel budget and pie radius.
// Zero values fall back to the defaults.
func NewLayouts(pixelBudget, radius float64) Layouts {
	if pixelBudget <= 0 {
		pixelBudget = DefaultPixelBudget
	}
	if radius <= 0 {
		radius = DefaultRadius
	}
	return Layouts{
		KindBar: BarLayout{PixelBudget: pixelBudget},
		KindPie: PieLayout{CX: radius, CY: radius, R: radius},
	}
}

func (l Layouts) Render(s Series) (Drawing, error) {
	r, ok := l[s.Kind]
	if !ok {
		return Drawing{}, core.NewValidationError(
			errors.Wrapf(ErrUnknownKind, errNoLayoutForKind, s.Kind),
			core.FieldError{Field: "kind", Error: fmt.Sprintf("unknown chart kind %q", s.Kind)},
		)
	}
	return r.Render(s)
}

var defaultLayouts = NewLayouts(DefaultPixelBudget, DefaultRadius)

// Render renders s with the default layouts.
func Render(s Series) (Drawing, error) {
	return defaultLayouts.Render(s)
}

func validateValues(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return core.NewValidationError(ErrInvalidValue, core.FieldError{Field: "data", Error: ErrInvalidValue.Error()})
		}
	}
	return nil
}

// BarLayout scales every value against the largest value of all rows.
type BarLayout struct {
	PixelBudget float64
}

var _ Renderer = BarLayout{}

func (l BarLayout) Render(s Series) (Drawing, error) {
	maxObserved := 0.0
	for _, row := range s.Data {
		if len(row) != len(s.Labels) {
			return Drawing{}, core.NewValidationError(
				ErrLengthMismatch,
				core.FieldError{Field: "data", Error: fmt.Sprintf("expected %d values per series, got %d", len(s.Labels), len(row))},
			)
		}
		if err := validateValues(row); err != nil {
			return Drawing{}, err
		}
		for _, v := range row {
			if v > maxObserved {
				maxObserved = v
			}
		}
	}
	if maxObserved == 0 {
		maxObserved = maxFallback
	}

	budget := l.PixelBudget
	if budget <= 0 {
		budget = DefaultPixelBudget
	}

	d := Drawing{
		Kind:       KindBar,
		Title:      s.Title,
		Max:        maxObserved,
		Primitives: make([]Primitive, 0, len(s.Data)*len(s.Labels)),
	}
	for si, row := range s.Data {
		for i, v := range row {
			d.Primitives = append(d.Primitives, Primitive{
				Kind:   PrimitiveBar,
				Series: si,
				Index:  i,
				Label:  s.Labels[i],
				Value:  v,
				Height: v / maxObserved * budget,
				Color:  s.color(i),
			})
		}
	}
	return d, nil
}

// PieLayout draws one slice per weight, clockwise from angle 0 in a circle of center (CX, CY) and radius R.
type PieLayout struct {
	CX, CY, R float64
}

var _ Renderer = PieLayout{}

func (l PieLayout) Render(s Series) (Drawing, error) {
	var values []float64
	if len(s.Data) > 0 {
		values = s.Data[0]
	}
	if len(s.Labels) > 0 && len(values) != len(s.Labels) {
		return Drawing{}, core.NewValidationError(
			ErrLengthMismatch,
			core.FieldError{Field: "data", Error: fmt.Sprintf("expected %d values, got %d", len(s.Labels), len(values))},
		)
	}
	if err := validateValues(values); err != nil {
		return Drawing{}, err
	}
	if l.R <= 0 {
		l = PieLayout{CX: DefaultRadius, CY: DefaultRadius, R: DefaultRadius}
	}

	var total float64
	for _, v := range values {
		total += v
	}
	if math.IsInf(total, 0) {
		return Drawing{}, core.NewValidationError(ErrTotalOverflow, core.FieldError{Field: "data", Error: ErrTotalOverflow.Error()})
	}

	d := Drawing{Kind: KindPie, Title: s.Title, Total: total}
	if total == 0 {
		d.Primitives = []Primitive{{
			Kind:        PrimitivePlaceholder,
			Path:        l.circlePath(),
			Color:       NeutralColor,
			Stroke:      SliceStroke,
			StrokeWidth: 0.5,
		}}
		return d, nil
	}

	d.Primitives = make([]Primitive, 0, len(values))
	var startAngle float64
	for i, v := range values {
		sweep := v / total * 360
		p := Primitive{
			Kind:        PrimitiveSlice,
			Index:       i,
			Value:       v,
			StartAngle:  startAngle,
			SweepAngle:  sweep,
			Color:       s.color(i),
			Stroke:      SliceStroke,
			StrokeWidth: 0.5,
		}
		if i < len(s.Labels) {
			p.Label = s.Labels[i]
		}
		switch {
		case sweep == 0:
			// nothing to draw
		case sweep >= 360:
			p.Path = l.circlePath()
		default:
			p.Path = l.slicePath(startAngle, sweep)
		}
		d.Primitives = append(d.Primitives, p)
		startAngle += sweep
	}
	return d, nil
}

func (l PieLayout) point(angle float64) (float64, float64) {
	rad := angle * math.Pi / 180
	return l.CX + l.R*math.Cos(rad), l.CY + l.R*math.Sin(rad)
}

// slicePath returns `M cx cy L sx sy A r r 0 large 1 ex ey Z`.
func (l PieLayout) slicePath(start, sweep float64) string {
	sx, sy := l.point(start)
	ex, ey := l.point(start + sweep)
	large := 0
	if sweep > 180 {
		large = 1
	}
	return joinPath(
		"M", formatNumber(l.CX), formatNumber(l.CY),
		"L", formatNumber(sx), formatNumber(sy),
		"A", formatNumber(l.R), formatNumber(l.R), "0", strconv.Itoa(large), "1", formatNumber(ex), formatNumber(ey),
		"Z",
	)
}

// circlePath is a full disc drawn as two half arcs.
func (l PieLayout) circlePath() string {
	rx, ry := l.point(0)
	lx, ly := l.point(180)
	r := formatNumber(l.R)
	return joinPath(
		"M", formatNumber(rx), formatNumber(ry),
		"A", r, r, "0", "1", "1", formatNumber(lx), formatNumber(ly),
		"A", r, r, "0", "1", "1", formatNumber(rx), formatNumber(ry),
		"Z",
	)
}

func joinPath(parts ...string) string {
	return strings.Join(parts, " ")
}

// formatNumber rounds to 4 decimals and drops trailing zeros.
func formatNumber(f float64) string {
	r := math.Round(f*1e4) / 1e4
	if r == 0 {
		r = 0 // no "-0"
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}
