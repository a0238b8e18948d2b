package attendance

import (
	"time"

	"github.com/trezcool/aula/core"
)

// Audience
const (
	AudienceStudents = "students"
	AudienceTeachers = "teachers"
)

// Level
const (
	LevelAll       = "all"
	LevelPrimary   = "primary"
	LevelSecondary = "secondary"
)

// Metric names one attendance percentage.
type Metric string

const (
	MetricPresent Metric = "present"
	MetricLate    Metric = "late"
	MetricAbsent  Metric = "absent"
)

var (
	Audiences = []string{AudienceStudents, AudienceTeachers}
	Levels    = []string{LevelAll, LevelPrimary, LevelSecondary}
	Metrics   = []Metric{MetricPresent, MetricLate, MetricAbsent}

	// Weekdays are the labels of a school week, Monday first.
	Weekdays = []string{"Lunes", "Martes", "Miércoles", "Jueves", "Viernes"}

	metricTitles = map[Metric]string{
		MetricPresent: "Presentes",
		MetricLate:    "Tardanzas",
		MetricAbsent:  "Ausentes",
	}
	metricColors = map[Metric]string{
		MetricPresent: "#22c55e",
		MetricLate:    "#eab308",
		MetricAbsent:  "#ef4444",
	}
	audienceTitles = map[string]string{
		AudienceStudents: "Asistencia de Alumnos",
		AudienceTeachers: "Asistencia de Profesores",
	}
)

func (m Metric) Title() string { return metricTitles[m] }
func (m Metric) Color() string { return metricColors[m] }

// DailyRecord holds the attendance percentages of one audience for one school day.
type DailyRecord struct {
	ID       string    `json:"id" db:"id"`
	Date     time.Time `json:"date" db:"day" validate:"required"`
	Audience string    `json:"audience" db:"audience" validate:"required,oneof=students teachers"`
	Level    string    `json:"level" db:"level" validate:"required,oneof=primary secondary"`
	Present  float64   `json:"present" db:"present"`
	Late     float64   `json:"late" db:"late"`
	Absent   float64   `json:"absent" db:"absent"`
}

func (r DailyRecord) Value(m Metric) float64 {
	switch m {
	case MetricPresent:
		return r.Present
	case MetricLate:
		return r.Late
	case MetricAbsent:
		return r.Absent
	}
	return 0
}

// QueryFilter selects records of an audience and level within [From, To).
type QueryFilter struct {
	Audience string    `query:"audience" validate:"required,oneof=students teachers"`
	Level    string    `query:"level" validate:"omitempty,oneof=all primary secondary"`
	From     time.Time `query:"-"`
	To       time.Time `query:"-"`
}

func (qf *QueryFilter) Clean() {
	qf.Audience = core.CleanString(qf.Audience, true /* lower */)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
	if qf.Level == "" {
		qf.Level = LevelAll
	}
}

// Matches reports whether r belongs to the filter. LevelAll matches every level.
func (qf QueryFilter) Matches(r DailyRecord) bool {
	if qf.Audience != "" && r.Audience != qf.Audience {
		return false
	}
	if qf.Level != "" && qf.Level != LevelAll && r.Level != qf.Level {
		return false
	}
	if !qf.From.IsZero() && r.Date.Before(qf.From) {
		return false
	}
	if !qf.To.IsZero() && !r.Date.Before(qf.To) {
		return false
	}
	return true
}

// WeeklyReport is the Monday to Friday attendance of an audience.
type WeeklyReport struct {
	Audience  string               `json:"audience"`
	Level     string               `json:"level"`
	Title     string               `json:"title"`
	WeekStart time.Time            `json:"week_start"`
	Labels    []string             `json:"labels"`
	Values    map[Metric][]float64 `json:"values"`
	Averages  map[Metric]float64   `json:"averages"`
	// Days counts the weekdays that had at least one record.
	Days int `json:"days"`
}
