package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/aula/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

func recordKey(r attendance.DailyRecord) string {
	return r.Date.UTC().Format("2006-01-02") + "/" + r.Audience + "/" + r.Level
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.QueryFilter) ([]attendance.DailyRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	records := make([]attendance.DailyRecord, 0)
	for _, r := range repo.db.table {
		if filter.Matches(r) {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return recordKey(records[i]) < recordKey(records[j]) })
	return records, nil
}

// SaveRecords upserts records by day, audience and level.
func (repo *attendanceRepository) SaveRecords(_ context.Context, records ...attendance.DailyRecord) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	for _, r := range records {
		key := recordKey(r)
		if prev, ok := repo.db.table[key]; ok {
			r.ID = prev.ID
		} else if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.Date = r.Date.UTC()
		repo.db.table[key] = r
	}
	return len(records), nil
}
