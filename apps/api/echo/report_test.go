package echoapi

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/user"
)

func Test_reportApi_attendance(t *testing.T) {
	app := setup(t)
	token := app.token(t, app.createUser(t, "lucho", true, user.RoleTeacher))
	week := "&week=" + testWeek.Format(weekLayout)

	t.Run("Auth required", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/reports/attendance?audience=students", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("JSON", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/reports/attendance?audience=Students"+week, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var rep attendance.Report
		decode(t, rec, &rep)
		assert.Equal(t, attendance.AudienceStudents, rep.Weekly.Audience)
		assert.Equal(t, attendance.Weekdays, rep.Weekly.Labels)
		assert.Equal(t, []float64{95, 92, 94, 90, 93}, rep.Weekly.Values[attendance.MetricPresent])
		assert.Equal(t, 5, rep.Weekly.Days)
		assert.Len(t, rep.Bars, len(attendance.Metrics))
		assert.NotEmpty(t, rep.CenterLabel)
	})

	tests := []struct {
		name            string
		query           string
		wantType        string
		wantPrefix      string
		wantDisposition string
	}{
		{name: "SVG pie", query: "audience=teachers&format=svg", wantType: "image/svg+xml", wantPrefix: "<svg"},
		{name: "SVG bars", query: "audience=students&format=svg&chart=late", wantType: "image/svg+xml", wantPrefix: "<svg"},
		{name: "PNG", query: "audience=students&format=png", wantType: "image/png", wantPrefix: "\x89PNG"},
		{
			name: "PDF", query: "audience=students&format=pdf", wantType: "application/pdf", wantPrefix: "%PDF-",
			wantDisposition: `attachment; filename="asistencia-students-2024-03-04.pdf"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, "/v1/reports/attendance?"+tt.query+week, token, nil)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.wantType))
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.wantPrefix))
			assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
		})
	}

	t.Run("XLSX", func(t *testing.T) {
		rec := app.do(t, http.MethodGet, "/v1/reports/attendance?audience=teachers&format=xlsx"+week, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, `attachment; filename="asistencia-teachers-2024-03-04.xlsx"`, rec.Header().Get("Content-Disposition"))

		f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
		require.NoError(t, err)
		defer f.Close()
		rows, err := f.GetRows(f.GetSheetName(0))
		require.NoError(t, err)
		require.Len(t, rows, 7)
		assert.Equal(t, []string{"Lunes", "98", "2", "0"}, rows[1])
	})

	errTests := []struct {
		name     string
		query    string
		wantCode int
		wantErr  string
		wantKey  string
	}{
		{name: "Missing audience", query: "", wantCode: http.StatusBadRequest, wantKey: "audience"},
		{name: "Unknown level", query: "audience=students&level=college", wantCode: http.StatusBadRequest, wantKey: "level"},
		{name: "Bad week", query: "audience=students&week=04/03/2024", wantCode: http.StatusBadRequest, wantKey: "week"},
		{name: "Week not a Monday", query: "audience=students&week=2024-03-05", wantCode: http.StatusBadRequest, wantKey: "week"},
		{name: "Unknown format", query: "audience=students&format=doc", wantCode: http.StatusBadRequest, wantErr: "unknown export format"},
		{name: "Unknown chart", query: "audience=students&format=svg&chart=bars", wantCode: http.StatusBadRequest, wantErr: "unknown chart"},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodGet, "/v1/reports/attendance?"+tt.query, token, nil)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorOf(t, rec))
				return
			}
			var fields map[string]string
			decode(t, rec, &fields)
			assert.Contains(t, fields, tt.wantKey)
		})
	}
}

func Test_reportApi_record(t *testing.T) {
	app := setup(t)
	admin := app.token(t, app.createUser(t, "rosa", true, user.RoleAdmin))
	teacher := app.token(t, app.createUser(t, "lucho", true, user.RoleTeacher))
	nextWeek := testWeek.AddDate(0, 0, 7)

	record := func(day int, present float64) attendance.DailyRecord {
		return attendance.DailyRecord{
			Date:     nextWeek.AddDate(0, 0, day),
			Audience: attendance.AudienceStudents,
			Level:    attendance.LevelSecondary,
			Present:  present,
			Late:     100 - present,
		}
	}

	tests := []struct {
		name     string
		token    string
		data     RecordRequest
		wantCode int
	}{
		{name: "Admin required", token: teacher, data: RecordRequest{Records: []attendance.DailyRecord{record(0, 90)}}, wantCode: http.StatusForbidden},
		{name: "Empty", token: admin, data: RecordRequest{}, wantCode: http.StatusBadRequest},
		{name: "Out of range", token: admin, data: RecordRequest{Records: []attendance.DailyRecord{record(0, 120)}}, wantCode: http.StatusBadRequest},
		{name: "Valid", token: admin, data: RecordRequest{Records: []attendance.DailyRecord{record(0, 90), record(1, 80)}}, wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(t, http.MethodPost, "/v1/reports/attendance", tt.token, tt.data)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	rec := app.do(t, http.MethodGet, "/v1/reports/attendance?audience=students&level=secondary&week="+nextWeek.Format(weekLayout), teacher, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rep attendance.Report
	decode(t, rec, &rep)
	assert.Equal(t, []float64{90, 80, 0, 0, 0}, rep.Weekly.Values[attendance.MetricPresent])
	assert.Equal(t, 2, rep.Weekly.Days)
	assert.Equal(t, nextWeek, rep.Weekly.WeekStart.In(time.UTC))
}
