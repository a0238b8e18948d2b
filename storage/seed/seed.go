// Package seed loads demo groups, students and attendance into any store.
package seed

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
)

const AdminUsername = "admin"

var (
	Groups = []group.Group{
		{ID: "G1", Name: "5to A - Matemática", Grade: "5", Section: "A"},
		{ID: "G2", Name: "5to B - Comunicación", Grade: "5", Section: "B"},
	}

	Students = []group.Student{
		{ID: "S1", FirstName: "Ana", LastName: "Quispe", DNI: "70000001", Email: "ana.quispe@colegio.pe", Grade: "5", Section: "A"},
		{ID: "S2", FirstName: "Bruno", LastName: "Mamani", DNI: "70000002", Email: "bruno.mamani@colegio.pe", Grade: "5", Section: "A"},
		{ID: "S3", FirstName: "Carla", LastName: "Flores", DNI: "70000003", Email: "carla.flores@colegio.pe", Grade: "5", Section: "A"},
		{ID: "S4", FirstName: "Diego", LastName: "Huamán", Email: "diego.huaman@colegio.pe", Grade: "5", Section: "A"},
		{ID: "S5", FirstName: "Elena", LastName: "Rojas", DNI: "70000005", Email: "elena.rojas@colegio.pe", Grade: "5", Section: "B"},
		{ID: "S6", FirstName: "Fabián", LastName: "Torres", DNI: "70000006", Email: "fabian.torres@colegio.pe", Grade: "5", Section: "B"},
	}

	// Assigned students of the demo groups.
	Memberships = map[string][]string{
		"G1": {"S1"},
		"G2": {"S5"},
	}
)

// Load writes the demo data. Existing memberships are kept.
func Load(ctx context.Context, dir group.Directory, store group.Store, att attendance.Repository, weekStart time.Time) error {
	for _, grp := range Groups {
		if _, err := dir.SaveGroup(ctx, grp); err != nil {
			return errors.Wrapf(err, "saving group %s", grp.ID)
		}
	}
	if _, err := dir.SaveStudents(ctx, Students...); err != nil {
		return errors.Wrap(err, "saving students")
	}

	for groupID, ids := range Memberships {
		for _, id := range ids {
			if err := store.AssignMembership(ctx, groupID, id); err != nil && !errors.Is(err, group.ErrMembershipExists) {
				return errors.Wrapf(err, "assigning %s to %s", id, groupID)
			}
		}
	}

	if att != nil {
		if _, err := att.SaveRecords(ctx, attendance.DemoWeek(weekStart)...); err != nil {
			return errors.Wrap(err, "saving attendance")
		}
	}
	return nil
}

// Admin creates the admin user unless it already exists.
func Admin(ctx context.Context, svc *user.Service, password string) (user.User, error) {
	usr, err := svc.GetByUsernameOrEmail(ctx, AdminUsername)
	if err == nil {
		return usr, nil
	}
	if err != user.ErrNotFound {
		return user.User{}, errors.Wrap(err, "finding admin")
	}
	usr, err = svc.Create(ctx, user.NewUser{
		Name:            "Administrador",
		Username:        AdminUsername,
		Email:           AdminUsername + "@colegio.pe",
		Password:        password,
		PasswordConfirm: password,
		Roles:           []string{user.RoleAdmin},
	})
	return usr, errors.Wrap(err, "creating admin")
}
