package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

func (repo *attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.DailyRecord, error) {
	q := `SELECT id, day, audience, level, present, late, absent FROM attendance_records WHERE audience = ?`
	args := []interface{}{filter.Audience}
	if filter.Level != "" && filter.Level != attendance.LevelAll {
		q += " AND level = ?"
		args = append(args, filter.Level)
	}
	if !filter.From.IsZero() {
		q += " AND day >= ?"
		args = append(args, filter.From.UTC())
	}
	if !filter.To.IsZero() {
		q += " AND day < ?"
		args = append(args, filter.To.UTC())
	}
	q += " ORDER BY day, level"

	var records []attendance.DailyRecord
	if err := repo.db.SelectContext(ctx, &records, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	for i := range records {
		records[i].Date = records[i].Date.UTC()
	}
	return records, nil
}

// SaveRecords upserts records by day, audience and level.
func (repo *attendanceRepository) SaveRecords(ctx context.Context, records ...attendance.DailyRecord) (int, error) {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO attendance_records (id, day, audience, level, present, late, absent)
		VALUES (:id, :day, :audience, :level, :present, :late, :absent)
		ON CONFLICT (day, audience, level) DO UPDATE
		SET present = EXCLUDED.present, late = EXCLUDED.late, absent = EXCLUDED.absent`
	for _, r := range records {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		r.Date = r.Date.UTC()
		if _, err = tx.NamedExecContext(ctx, q, r); err != nil {
			return 0, errors.Wrapf(err, "saving %s attendance of %s", r.Audience, r.Date.Format("2006-01-02"))
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing attendance")
	}
	return len(records), nil
}
