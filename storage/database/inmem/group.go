package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/group"
)

type groupStore struct {
	db *groupTables
}

var (
	_ group.Store     = (*groupStore)(nil)
	_ group.Directory = (*groupStore)(nil)
)

// GroupStore is both the group.Store and the group.Directory of db.
type GroupStore interface {
	group.Store
	group.Directory
}

func NewGroupStore(db *DB) GroupStore {
	return &groupStore{db: db.group}
}

func membershipKey(groupID, studentID string) string {
	return groupID + "/" + studentID
}

func (store *groupStore) GetGroup(_ context.Context, id string) (group.Group, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	if grp, ok := store.db.groups[id]; ok {
		return grp, nil
	}
	return group.Group{}, group.ErrNotFound
}

func (store *groupStore) GetMemberships(_ context.Context, groupID string) ([]group.Membership, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	if _, ok := store.db.groups[groupID]; !ok {
		return nil, group.ErrNotFound
	}
	members := make([]group.Membership, 0)
	for _, m := range store.db.memberships {
		if m.GroupID != groupID {
			continue
		}
		if st, ok := store.db.students[m.StudentID]; ok {
			m.Student = st
		}
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		if a, b := members[i].Student.Name(), members[j].Student.Name(); a != b {
			return a < b
		}
		return members[i].StudentID < members[j].StudentID
	})
	return members, nil
}

// GetEligibleStudents returns the students of a grade and section. Empty arguments match any value.
func (store *groupStore) GetEligibleStudents(_ context.Context, grade, section string) ([]group.Student, error) {
	store.db.mutex.RLock()
	defer store.db.mutex.RUnlock()

	students := make([]group.Student, 0)
	for _, st := range store.db.students {
		if (grade == "" || st.Grade == grade) && (section == "" || st.Section == section) {
			students = append(students, st)
		}
	}
	sort.Slice(students, func(i, j int) bool {
		if a, b := students[i].Name(), students[j].Name(); a != b {
			return a < b
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (store *groupStore) AssignMembership(_ context.Context, groupID, studentID string) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	if _, ok := store.db.groups[groupID]; !ok {
		return group.ErrNotFound
	}
	st, ok := store.db.students[studentID]
	if !ok {
		return core.NewValidationError(group.ErrStudentNotFound, core.FieldError{Field: "student_id", Error: group.ErrStudentNotFound.Error()})
	}
	key := membershipKey(groupID, studentID)
	if _, ok = store.db.memberships[key]; ok {
		return core.NewValidationError(group.ErrMembershipExists, core.FieldError{Field: "student_id", Error: group.ErrMembershipExists.Error()})
	}
	store.db.memberships[key] = group.Membership{ID: uuid.NewString(), GroupID: groupID, StudentID: studentID, Student: st}
	return nil
}

func (store *groupStore) RemoveMembership(_ context.Context, groupID, studentID string) error {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	if _, ok := store.db.groups[groupID]; !ok {
		return group.ErrNotFound
	}
	key := membershipKey(groupID, studentID)
	if _, ok := store.db.memberships[key]; !ok {
		return core.NewValidationError(group.ErrMembershipMissing, core.FieldError{Field: "student_id", Error: group.ErrMembershipMissing.Error()})
	}
	delete(store.db.memberships, key)
	return nil
}

func (store *groupStore) SaveGroup(_ context.Context, grp group.Group) (group.Group, error) {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	if grp.ID == "" {
		grp.ID = uuid.NewString()
	}
	store.db.groups[grp.ID] = grp
	return grp, nil
}

func (store *groupStore) SaveStudents(_ context.Context, students ...group.Student) (int, error) {
	store.db.mutex.Lock()
	defer store.db.mutex.Unlock()

	for _, st := range students {
		if st.ID == "" {
			st.ID = uuid.NewString()
		}
		store.db.students[st.ID] = st
	}
	return len(students), nil
}
