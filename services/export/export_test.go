package exportsvc

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/chart"
	"github.com/trezcool/aula/core/group"
)

var monday = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func studentsReport() attendance.WeeklyReport {
	return attendance.WeeklyReport{
		Audience:  attendance.AudienceStudents,
		Level:     attendance.LevelAll,
		Title:     "Asistencia de Alumnos",
		WeekStart: monday,
		Labels:    attendance.Weekdays,
		Values: map[attendance.Metric][]float64{
			attendance.MetricPresent: {95, 92, 94, 90, 93},
			attendance.MetricLate:    {3, 5, 4, 7, 5},
			attendance.MetricAbsent:  {2, 3, 2, 3, 2},
		},
		Averages: map[attendance.Metric]float64{
			attendance.MetricPresent: 92.8,
			attendance.MetricLate:    4.8,
			attendance.MetricAbsent:  2.4,
		},
		Days: 5,
	}
}

func emptyReport() attendance.WeeklyReport {
	wr := attendance.WeeklyReport{
		Audience:  attendance.AudienceTeachers,
		Title:     "Asistencia de Profesores",
		WeekStart: monday,
		Labels:    attendance.Weekdays,
		Values:    map[attendance.Metric][]float64{},
		Averages:  map[attendance.Metric]float64{},
	}
	for _, m := range attendance.Metrics {
		wr.Values[m] = make([]float64, len(attendance.Weekdays))
	}
	return wr
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatJSON},
		{in: " PNG ", want: FormatPNG},
		{in: "xlsx", want: FormatXLSX},
		{in: "docx", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "image/svg+xml", FormatSVG.ContentType())
	assert.Equal(t, "asistencia-students-2024-03-04.pdf", FormatPDF.Filename(studentsReport()))
}

func TestReportChart(t *testing.T) {
	tests := []struct {
		name   string
		report attendance.WeeklyReport
		chart  string
		format Format
	}{
		{name: "pie svg", report: studentsReport(), chart: ChartPie, format: FormatSVG},
		{name: "bars png", report: studentsReport(), chart: string(attendance.MetricLate), format: FormatPNG},
		{name: "empty pie", report: emptyReport(), format: FormatSVG},
		{name: "empty bars", report: emptyReport(), chart: string(attendance.MetricAbsent), format: FormatSVG},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, ReportChart(&buf, tt.report, tt.chart, tt.format))
			if tt.format == FormatPNG {
				assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))
			} else {
				assert.Contains(t, buf.String(), "<svg")
			}
		})
	}

	t.Run("errors", func(t *testing.T) {
		var buf bytes.Buffer
		assert.ErrorIs(t, ReportChart(&buf, studentsReport(), "sick", FormatSVG), ErrUnknownChart)
		assert.ErrorIs(t, ReportChart(&buf, studentsReport(), ChartPie, FormatPDF), ErrUnknownFormat)
		assert.ErrorIs(t, RenderSeries(&buf, chart.Series{Kind: "line"}, FormatSVG), chart.ErrUnknownKind)
	})
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, studentsReport(), emptyReport()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Asistencia de Alumnos", "Asistencia de Profesores"}, f.GetSheetList())

	rows, err := f.GetRows("Asistencia de Alumnos")
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Día", "Presentes", "Tardanzas", "Ausentes"}, rows[0])
	assert.Equal(t, []string{"Lunes", "95", "3", "2"}, rows[1])
	assert.Equal(t, []string{"Promedio", "92.8", "4.8", "2.4"}, rows[6])

	assert.Error(t, WriteWorkbook(&buf))
}

func TestImportRoster(t *testing.T) {
	students := []group.Student{
		{ID: "S1", FirstName: "Ana", LastName: "Quispe", DNI: "70000001", Email: "ana@colegio.pe", Grade: "5", Section: "A"},
		{ID: "S2", FirstName: "Luis", LastName: "Huaman", DNI: "70000002", Email: "luis@colegio.pe", Grade: "5", Section: "B"},
		{ID: "", FirstName: "Sin", LastName: "Codigo"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRoster(&buf, students))

	res, err := ImportRoster(&buf)
	require.NoError(t, err)
	assert.Equal(t, students[:2], res.Students)
	assert.Equal(t, []int{4}, res.Skipped)

	_, err = ImportRoster(strings.NewReader("not a spreadsheet"))
	assert.Error(t, err)
}

func TestWritePDF(t *testing.T) {
	tests := []struct {
		name   string
		report attendance.Report
	}{
		{name: "students", report: attendance.Report{Weekly: studentsReport(), CenterLabel: "100%"}},
		{name: "empty", report: attendance.Report{Weekly: emptyReport(), CenterLabel: "0%"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WritePDF(&buf, tt.report, "Colegio Aula"))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
		})
	}
}
