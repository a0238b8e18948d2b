package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/chart"
)

type memRepo struct {
	records []DailyRecord
}

func (repo *memRepo) QueryRecords(_ context.Context, filter QueryFilter) ([]DailyRecord, error) {
	var out []DailyRecord
	for _, r := range repo.records {
		if filter.Matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (repo *memRepo) SaveRecords(_ context.Context, records ...DailyRecord) (int, error) {
	repo.records = append(repo.records, records...)
	return len(records), nil
}

var monday = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
	}{
		{name: "monday", t: monday},
		{name: "wednesday", t: monday.Add(50 * time.Hour)},
		{name: "sunday", t: monday.AddDate(0, 0, 6).Add(23 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, monday, WeekStart(tt.t))
		})
	}
}

func TestService_Weekly(t *testing.T) {
	svc := NewService(&memRepo{records: DemoWeek(monday)}, nil)
	ctx := context.Background()

	wr, err := svc.Weekly(ctx, QueryFilter{Audience: "Students"}, monday)
	require.NoError(t, err)
	assert.Equal(t, Weekdays, wr.Labels)
	assert.Equal(t, LevelAll, wr.Level)
	assert.Equal(t, "Asistencia de Alumnos", wr.Title)
	assert.Equal(t, 5, wr.Days)
	assert.Equal(t, []float64{95, 92, 94, 90, 93}, wr.Values[MetricPresent])
	assert.Equal(t, []float64{3, 5, 4, 7, 5}, wr.Values[MetricLate])
	assert.Equal(t, map[Metric]float64{MetricPresent: 92.8, MetricLate: 4.8, MetricAbsent: 2.4}, wr.Averages)

	wr, err = svc.Weekly(ctx, QueryFilter{Audience: AudienceTeachers}, monday)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 0, 0}, wr.Values[MetricAbsent])

	t.Run("other week is empty", func(t *testing.T) {
		wr, err := svc.Weekly(ctx, QueryFilter{Audience: AudienceStudents}, monday.AddDate(0, 0, 7))
		require.NoError(t, err)
		assert.Zero(t, wr.Days)
		assert.Equal(t, []float64{0, 0, 0, 0, 0}, wr.Values[MetricPresent])
	})

	t.Run("not a monday", func(t *testing.T) {
		_, err := svc.Weekly(ctx, QueryFilter{Audience: AudienceStudents}, monday.AddDate(0, 0, 1))
		assert.True(t, core.IsValidation(err))
	})

	t.Run("levels of a day are averaged", func(t *testing.T) {
		repo := &memRepo{records: []DailyRecord{
			{Date: monday, Audience: AudienceStudents, Level: LevelPrimary, Present: 90, Late: 6, Absent: 4},
			{Date: monday, Audience: AudienceStudents, Level: LevelSecondary, Present: 80, Late: 10, Absent: 10},
		}}
		wr, err := NewService(repo, nil).Weekly(ctx, QueryFilter{Audience: AudienceStudents}, monday)
		require.NoError(t, err)
		assert.Equal(t, 1, wr.Days)
		assert.Equal(t, 85.0, wr.Values[MetricPresent][0])
		assert.Equal(t, 85.0, wr.Averages[MetricPresent])

		wr, err = NewService(repo, nil).Weekly(ctx, QueryFilter{Audience: AudienceStudents, Level: LevelSecondary}, monday)
		require.NoError(t, err)
		assert.Equal(t, 80.0, wr.Values[MetricPresent][0])
	})
}

func TestService_Render(t *testing.T) {
	svc := NewService(&memRepo{records: DemoWeek(monday)}, chart.NewLayouts(180, 50))
	ctx := context.Background()

	rep, err := svc.WeeklyReport(ctx, QueryFilter{Audience: AudienceStudents}, monday)
	require.NoError(t, err)

	bars := rep.Bars[MetricPresent]
	require.Len(t, bars.Primitives, 5)
	assert.Equal(t, 180.0, bars.Primitives[0].Height) // 95 is the max
	assert.Equal(t, "Lunes", bars.Primitives[0].Label)
	assert.Equal(t, MetricPresent.Color(), bars.Primitives[3].Color)
	for i := 1; i < len(bars.Primitives); i++ {
		assert.Less(t, bars.Primitives[i].Height, 180.0)
	}

	require.Len(t, rep.Pie.Primitives, 3)
	assert.Equal(t, "Presentes", rep.Pie.Primitives[0].Label)
	assert.Equal(t, "100%", rep.CenterLabel)

	t.Run("empty week", func(t *testing.T) {
		rep, err := svc.WeeklyReport(ctx, QueryFilter{Audience: AudienceStudents, Level: LevelSecondary}, monday)
		require.NoError(t, err)
		for _, p := range rep.Bars[MetricLate].Primitives {
			assert.Zero(t, p.Height)
		}
		require.Len(t, rep.Pie.Primitives, 1)
		assert.Equal(t, chart.PrimitivePlaceholder, rep.Pie.Primitives[0].Kind)
		assert.Equal(t, "0%", rep.CenterLabel)
	})
}

func TestService_Record(t *testing.T) {
	repo := &memRepo{}
	svc := NewService(repo, nil)

	n, err := svc.Record(context.Background(), DemoWeek(monday)...)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	_, err = svc.Record(context.Background(), DailyRecord{Date: monday, Audience: AudienceStudents, Present: 101})
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.Len(t, repo.records, 10)
}
