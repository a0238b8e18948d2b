package attendance

import (
	"context"
	"math"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/chart"
)

var ErrInvalidWeek = errors.New("week must start on a Monday")

type (
	Repository interface {
		QueryRecords(ctx context.Context, filter QueryFilter) ([]DailyRecord, error)
		SaveRecords(ctx context.Context, records ...DailyRecord) (int, error)
	}

	Service struct {
		repo    Repository
		layouts chart.Layouts
	}

	// Report is a WeeklyReport with its drawings.
	Report struct {
		Weekly WeeklyReport            `json:"weekly"`
		Bars   map[Metric]chart.Drawing `json:"bars"`
		Pie    chart.Drawing            `json:"pie"`
		// CenterLabel is the label shown in the middle of the pie.
		CenterLabel string `json:"center_label"`
	}
)

func NewService(repo Repository, layouts chart.Layouts) *Service {
	if layouts == nil {
		layouts = chart.NewLayouts(chart.DefaultPixelBudget, chart.DefaultRadius)
	}
	return &Service{repo: repo, layouts: layouts}
}

// WeekStart returns the Monday of the week of t, at midnight UTC.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday = 0
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, time.UTC)
}

// Weekly aggregates the records of the week starting at weekStart.
// Records of the same day (several levels) are averaged; days without records are 0.
func (svc *Service) Weekly(ctx context.Context, filter QueryFilter, weekStart time.Time) (WeeklyReport, error) {
	weekStart = weekStart.UTC()
	if weekStart.Weekday() != time.Monday {
		return WeeklyReport{}, core.NewValidationError(ErrInvalidWeek, core.FieldError{Field: "week", Error: ErrInvalidWeek.Error()})
	}
	filter.Clean()
	filter.From = weekStart
	filter.To = weekStart.AddDate(0, 0, len(Weekdays))

	records, err := svc.repo.QueryRecords(ctx, filter)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(err, "querying attendance records")
	}
	return buildWeekly(filter, weekStart, records), nil
}

func buildWeekly(filter QueryFilter, weekStart time.Time, records []DailyRecord) WeeklyReport {
	n := len(Weekdays)
	report := WeeklyReport{
		Audience:  filter.Audience,
		Level:     filter.Level,
		Title:     audienceTitles[filter.Audience],
		WeekStart: weekStart,
		Labels:    append([]string(nil), Weekdays...),
		Values:    make(map[Metric][]float64, len(Metrics)),
		Averages:  make(map[Metric]float64, len(Metrics)),
	}
	counts := make([]int, n)
	for _, m := range Metrics {
		report.Values[m] = make([]float64, n)
	}
	for _, r := range records {
		if !filter.Matches(r) {
			continue
		}
		day := int(r.Date.UTC().Sub(weekStart).Hours() / 24)
		if day < 0 || day >= n {
			continue
		}
		counts[day]++
		for _, m := range Metrics {
			report.Values[m][day] += r.Value(m)
		}
	}
	for day, c := range counts {
		if c == 0 {
			continue
		}
		report.Days++
		for _, m := range Metrics {
			report.Values[m][day] = round2(report.Values[m][day] / float64(c))
		}
	}
	for _, m := range Metrics {
		var sum float64
		for day, c := range counts {
			if c > 0 {
				sum += report.Values[m][day]
			}
		}
		if report.Days > 0 {
			report.Averages[m] = round2(sum / float64(report.Days))
		}
	}
	return report
}

// BarSeries is the bar chart of one metric over the week.
func (wr WeeklyReport) BarSeries(m Metric) chart.Series {
	return chart.Series{
		Kind:   chart.KindBar,
		Title:  m.Title(),
		Labels: wr.Labels,
		Data:   [][]float64{wr.Values[m]},
		Colors: []string{m.Color()},
	}
}

// PieSeries is the pie chart of the weekly averages.
func (wr WeeklyReport) PieSeries() chart.Series {
	s := chart.Series{Kind: chart.KindPie, Title: wr.Title, Data: [][]float64{make([]float64, 0, len(Metrics))}}
	for _, m := range Metrics {
		s.Labels = append(s.Labels, m.Title())
		s.Data[0] = append(s.Data[0], wr.Averages[m])
		s.Colors = append(s.Colors, m.Color())
	}
	return s
}

// Render draws the bars of every metric and the pie of the averages.
func (svc *Service) Render(wr WeeklyReport) (Report, error) {
	rep := Report{Weekly: wr, Bars: make(map[Metric]chart.Drawing, len(Metrics))}
	for _, m := range Metrics {
		d, err := svc.layouts.Render(wr.BarSeries(m))
		if err != nil {
			return Report{}, errors.Wrapf(err, "rendering %s bars", m)
		}
		rep.Bars[m] = d
	}
	pie, err := svc.layouts.Render(wr.PieSeries())
	if err != nil {
		return Report{}, errors.Wrap(err, "rendering averages pie")
	}
	rep.Pie = pie
	rep.CenterLabel = pie.CenterLabel()
	return rep, nil
}

// WeeklyReport builds and renders the report of the week starting at weekStart.
func (svc *Service) WeeklyReport(ctx context.Context, filter QueryFilter, weekStart time.Time) (Report, error) {
	wr, err := svc.Weekly(ctx, filter, weekStart)
	if err != nil {
		return Report{}, err
	}
	return svc.Render(wr)
}

// Record saves daily records after checking that every percentage is within [0, 100].
func (svc *Service) Record(ctx context.Context, records ...DailyRecord) (int, error) {
	for i, r := range records {
		for _, m := range Metrics {
			if v := r.Value(m); math.IsNaN(v) || v < 0 || v > 100 {
				return 0, core.NewValidationError(
					errors.Errorf("record %d: %s must be between 0 and 100", i, m),
					core.FieldError{Field: string(m), Error: "must be between 0 and 100"},
				)
			}
		}
	}
	return svc.repo.SaveRecords(ctx, records...)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
