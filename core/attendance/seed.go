package attendance

import "time"

var demoWeek = map[string]map[Metric][]float64{
	AudienceStudents: {
		MetricPresent: {95, 92, 94, 90, 93},
		MetricLate:    {3, 5, 4, 7, 5},
		MetricAbsent:  {2, 3, 2, 3, 2},
	},
	AudienceTeachers: {
		MetricPresent: {98, 97, 100, 96, 98},
		MetricLate:    {2, 3, 0, 4, 2},
		MetricAbsent:  {0, 0, 0, 0, 0},
	},
}

// DemoWeek returns the demo records of both audiences for the week starting at weekStart.
func DemoWeek(weekStart time.Time) []DailyRecord {
	weekStart = WeekStart(weekStart)
	records := make([]DailyRecord, 0, len(Audiences)*len(Weekdays))
	for _, audience := range Audiences {
		values := demoWeek[audience]
		for day := range Weekdays {
			records = append(records, DailyRecord{
				Date:     weekStart.AddDate(0, 0, day),
				Audience: audience,
				Level:    LevelPrimary,
				Present:  values[MetricPresent][day],
				Late:     values[MetricLate][day],
				Absent:   values[MetricAbsent][day],
			})
		}
	}
	return records
}
