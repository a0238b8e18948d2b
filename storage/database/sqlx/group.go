package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/group"
)

type studentRow struct {
	ID        string      `db:"id"`
	FirstName string      `db:"first_name"`
	LastName  string      `db:"last_name"`
	DNI       null.String `db:"dni"`
	Email     string      `db:"email"`
	Grade     string      `db:"grade"`
	Section   string      `db:"section"`
}

func newStudentRow(st group.Student) studentRow {
	return studentRow{
		ID:        st.ID,
		FirstName: st.FirstName,
		LastName:  st.LastName,
		DNI:       null.NewString(st.DNI, st.DNI != ""),
		Email:     st.Email,
		Grade:     st.Grade,
		Section:   st.Section,
	}
}

func (row studentRow) student() group.Student {
	return group.Student{
		ID:        row.ID,
		FirstName: row.FirstName,
		LastName:  row.LastName,
		DNI:       row.DNI.String,
		Email:     row.Email,
		Grade:     row.Grade,
		Section:   row.Section,
	}
}

type membershipRow struct {
	ID        string `db:"membership_id"`
	GroupID   string `db:"group_id"`
	studentRow
}

type groupStore struct {
	db *sqlx.DB
}

var (
	_ group.Store     = (*groupStore)(nil)
	_ group.Directory = (*groupStore)(nil)
)

// GroupStore is both the group.Store and the group.Directory of a postgres database.
type GroupStore interface {
	group.Store
	group.Directory
}

func NewGroupStore(db *sqlx.DB) GroupStore {
	return &groupStore{db: db}
}

func (store *groupStore) GetGroup(ctx context.Context, id string) (group.Group, error) {
	var grp group.Group
	err := store.db.GetContext(ctx, &grp, `SELECT id, name, grade, section FROM groups WHERE id = $1`, id)
	switch {
	case isNoRows(err):
		return group.Group{}, group.ErrNotFound
	case err != nil:
		return group.Group{}, core.NewTransportError("get group", err)
	}
	return grp, nil
}

func (store *groupStore) groupExists(ctx context.Context, id string) error {
	var exists bool
	if err := store.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id); err != nil {
		return core.NewTransportError("get group", err)
	}
	if !exists {
		return group.ErrNotFound
	}
	return nil
}

func (store *groupStore) GetMemberships(ctx context.Context, groupID string) ([]group.Membership, error) {
	if err := store.groupExists(ctx, groupID); err != nil {
		return nil, err
	}

	var rows []membershipRow
	q := `SELECT m.id AS membership_id, m.group_id, s.id, s.first_name, s.last_name, s.dni, s.email, s.grade, s.section
		FROM group_memberships m
		JOIN students s ON s.id = m.student_id
		WHERE m.group_id = $1
		ORDER BY s.first_name, s.last_name, s.id`
	if err := store.db.SelectContext(ctx, &rows, q, groupID); err != nil {
		return nil, core.NewTransportError("get memberships", err)
	}
	members := make([]group.Membership, 0, len(rows))
	for _, row := range rows {
		members = append(members, group.Membership{
			ID:        row.ID,
			GroupID:   row.GroupID,
			StudentID: row.studentRow.ID,
			Student:   row.student(),
		})
	}
	return members, nil
}

// GetEligibleStudents returns the students of a grade and section. Empty arguments match any value.
func (store *groupStore) GetEligibleStudents(ctx context.Context, grade, section string) ([]group.Student, error) {
	var rows []studentRow
	q := `SELECT id, first_name, last_name, dni, email, grade, section FROM students
		WHERE ($1 = '' OR grade = $1) AND ($2 = '' OR section = $2)
		ORDER BY first_name, last_name, id`
	if err := store.db.SelectContext(ctx, &rows, q, grade, section); err != nil {
		return nil, core.NewTransportError("get eligible students", err)
	}
	students := make([]group.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (store *groupStore) AssignMembership(ctx context.Context, groupID, studentID string) error {
	if err := store.groupExists(ctx, groupID); err != nil {
		return err
	}
	_, err := store.db.ExecContext(ctx,
		`INSERT INTO group_memberships (id, group_id, student_id) VALUES ($1, $2, $3)`,
		uuid.NewString(), groupID, studentID,
	)
	switch pgCode(err) {
	case "":
	case uniqueViolation:
		return core.NewValidationError(group.ErrMembershipExists, core.FieldError{Field: "student_id", Error: group.ErrMembershipExists.Error()})
	case foreignKeyViolation:
		return core.NewValidationError(group.ErrStudentNotFound, core.FieldError{Field: "student_id", Error: group.ErrStudentNotFound.Error()})
	}
	if err != nil {
		return core.NewTransportError("assign membership", err)
	}
	return nil
}

func (store *groupStore) RemoveMembership(ctx context.Context, groupID, studentID string) error {
	if err := store.groupExists(ctx, groupID); err != nil {
		return err
	}
	res, err := store.db.ExecContext(ctx, `DELETE FROM group_memberships WHERE group_id = $1 AND student_id = $2`, groupID, studentID)
	if err != nil {
		return core.NewTransportError("remove membership", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewTransportError("remove membership", err)
	}
	if n == 0 {
		return core.NewValidationError(group.ErrMembershipMissing, core.FieldError{Field: "student_id", Error: group.ErrMembershipMissing.Error()})
	}
	return nil
}

func (store *groupStore) SaveGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	if grp.ID == "" {
		grp.ID = uuid.NewString()
	}
	q := `INSERT INTO groups (id, name, grade, section) VALUES (:id, :name, :grade, :section)
		ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, grade = EXCLUDED.grade, section = EXCLUDED.section`
	if _, err := store.db.NamedExecContext(ctx, q, grp); err != nil {
		return group.Group{}, errors.Wrap(err, "saving group")
	}
	return grp, nil
}

// SaveStudents upserts students in a single transaction.
func (store *groupStore) SaveStudents(ctx context.Context, students ...group.Student) (int, error) {
	tx, err := store.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	q := `INSERT INTO students (id, first_name, last_name, dni, email, grade, section)
		VALUES (:id, :first_name, :last_name, :dni, :email, :grade, :section)
		ON CONFLICT (id) DO UPDATE SET first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name,
			dni = EXCLUDED.dni, email = EXCLUDED.email, grade = EXCLUDED.grade, section = EXCLUDED.section`
	for _, st := range students {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, q, newStudentRow(st)); err != nil {
			return 0, errors.Wrapf(err, "saving student %s", st.ID)
		}
	}
	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "committing students")
	}
	return len(students), nil
}
