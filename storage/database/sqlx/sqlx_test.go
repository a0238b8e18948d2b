package sqlxrepos

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
	"github.com/trezcool/aula/storage/database"
)

// prepareDB migrates the database named by TEST_DATABASE_URL and empties its tables.
func prepareDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}
	db, err := database.OpenURL(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.DB))
	_, err = db.Exec(`TRUNCATE users, groups, students, group_memberships, attendance_records`)
	require.NoError(t, err)
	return db
}

func TestOrderBy(t *testing.T) {
	tests := []struct {
		name     string
		ordering []core.DBOrdering
		want     string
	}{
		{name: "fallback", want: "created_at ASC"},
		{name: "unknown skipped", ordering: []core.DBOrdering{{Field: "password_hash"}}, want: "created_at ASC"},
		{name: "mixed", ordering: []core.DBOrdering{{Field: "name", Ascending: true}, {Field: "email"}}, want: "name ASC, email DESC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, orderBy(tt.ordering, userOrderingFields, "created_at ASC"))
		})
	}
}

func TestGroupStore(t *testing.T) {
	db := prepareDB(t)
	ctx := context.Background()
	store := NewGroupStore(db)

	_, err := store.SaveGroup(ctx, group.Group{ID: "G1", Name: "5to A", Grade: "5", Section: "A"})
	require.NoError(t, err)
	_, err = store.SaveStudents(ctx,
		group.Student{ID: "S1", FirstName: "Ana", LastName: "Quispe", DNI: "70000001", Email: "ana@colegio.pe", Grade: "5", Section: "A"},
		group.Student{ID: "S2", FirstName: "Bruno", LastName: "Mamani", Email: "bruno@colegio.pe", Grade: "5", Section: "A"},
	)
	require.NoError(t, err)

	require.NoError(t, store.AssignMembership(ctx, "G1", "S2"))
	err = store.AssignMembership(ctx, "G1", "S2")
	assert.ErrorIs(t, err, group.ErrMembershipExists)
	err = store.AssignMembership(ctx, "G1", "S404")
	assert.ErrorIs(t, err, group.ErrStudentNotFound)
	assert.Equal(t, group.ErrNotFound, store.AssignMembership(ctx, "G404", "S1"))

	members, err := store.GetMemberships(ctx, "G1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "S2", members[0].StudentID)
	assert.Equal(t, "Bruno Mamani", members[0].Student.Name())

	eligible, err := store.GetEligibleStudents(ctx, "5", "A")
	require.NoError(t, err)
	require.Len(t, eligible, 2)
	assert.Equal(t, "70000001", eligible[0].DNI)

	require.NoError(t, store.RemoveMembership(ctx, "G1", "S2"))
	assert.True(t, core.IsValidation(store.RemoveMembership(ctx, "G1", "S2")))
}

func TestUserRepository(t *testing.T) {
	db := prepareDB(t)
	ctx := context.Background()
	repo := NewUserRepository(db)
	now := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)

	usr := user.User{Name: "Rosa", Username: "rosa", Email: "rosa@colegio.pe", Roles: []string{user.RoleAdmin}, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, usr.SetPassword("Str0ng!Pass"))
	usr, err := repo.CreateUser(ctx, usr)
	require.NoError(t, err)

	assert.Equal(t, user.ErrUsernameExists, repo.CheckUsernameUniqueness(ctx, "rosa", ""))
	_, err = repo.CreateUser(ctx, usr)
	assert.Equal(t, user.ErrUserExists, err)

	got, err := repo.GetUser(ctx, user.GetFilter{UsernameOrEmail: "rosa@colegio.pe"})
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)
	assert.NoError(t, got.CheckPassword("Str0ng!Pass"))

	active := true
	users, err := repo.QueryUsers(ctx, &user.QueryFilter{Search: "ros", Roles: []string{"admin"}, IsActive: &active}, nil)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, repo.SetLastLogin(ctx, usr.ID, now))
	got, err = repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.True(t, now.Equal(got.LastLogin))
}

func TestAttendanceRepository(t *testing.T) {
	db := prepareDB(t)
	ctx := context.Background()
	repo := NewAttendanceRepository(db)
	monday := time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

	_, err := repo.SaveRecords(ctx, attendance.DemoWeek(monday)...)
	require.NoError(t, err)

	svc := attendance.NewService(repo, nil)
	wr, err := svc.Weekly(ctx, attendance.QueryFilter{Audience: attendance.AudienceStudents}, monday)
	require.NoError(t, err)
	assert.Equal(t, 92.8, wr.Averages[attendance.MetricPresent])
}
