// Package redisstore keeps groups, students and memberships in redis hashes and sets.
package redisstore

import (
	"context"
	"sort"

	"github.com/go-redis/redis/v8"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/group"
)

const (
	groupsKey          = "groups"   // set of group ids
	groupInfoPrefix    = "group:"   // group:{id} hash
	studentInfoPrefix  = "student:" // student:{id} hash
	eligiblePrefix     = "pool:"    // pool:{grade}:{section} set of student ids
	membershipIDPrefix = "m:"
)

func groupKey(id string) string        { return groupInfoPrefix + id }
func groupStudentsKey(id string) string { return groupInfoPrefix + id + ":students" }
func studentKey(id string) string      { return studentInfoPrefix + id }
func poolKey(grade, section string) string {
	return eligiblePrefix + grade + ":" + section
}

// membershipID derives a stable id; redis keeps memberships as set members.
func membershipID(groupID, studentID string) string {
	return membershipIDPrefix + groupID + ":" + studentID
}

type GroupStore struct {
	client *redis.Client
}

var (
	_ group.Store     = (*GroupStore)(nil)
	_ group.Directory = (*GroupStore)(nil)
)

func NewGroupStore(client *redis.Client) *GroupStore {
	return &GroupStore{client: client}
}

// Connect opens a client and checks the server is reachable.
func Connect(ctx context.Context, conf *core.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Redis.Address,
		Password: conf.Redis.Password,
		DB:       conf.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrapf(err, "connecting to redis at %s", conf.Redis.Address)
	}
	return client, nil
}

func (store *GroupStore) GetGroup(ctx context.Context, id string) (group.Group, error) {
	data, err := store.client.HGetAll(ctx, groupKey(id)).Result()
	if err != nil {
		return group.Group{}, core.NewTransportError("get group", err)
	}
	if len(data) == 0 {
		return group.Group{}, group.ErrNotFound
	}
	return group.Group{ID: id, Name: data["name"], Grade: data["grade"], Section: data["section"]}, nil
}

func (store *GroupStore) groupExists(ctx context.Context, id string) error {
	ok, err := store.client.SIsMember(ctx, groupsKey, id).Result()
	if err != nil {
		return core.NewTransportError("get group", err)
	}
	if !ok {
		return group.ErrNotFound
	}
	return nil
}

// students loads the hashes of ids in one pipeline, skipping ids without a hash.
func (store *GroupStore) students(ctx context.Context, op string, ids []string) ([]group.Student, error) {
	if len(ids) == 0 {
		return []group.Student{}, nil
	}
	cmds := make([]*redis.StringStringMapCmd, len(ids))
	_, err := store.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, studentKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, core.NewTransportError(op, err)
	}

	students := make([]group.Student, 0, len(ids))
	for i, cmd := range cmds {
		data := cmd.Val()
		if len(data) == 0 {
			continue
		}
		students = append(students, group.Student{
			ID:        ids[i],
			FirstName: data["first_name"],
			LastName:  data["last_name"],
			DNI:       data["dni"],
			Email:     data["email"],
			Grade:     data["grade"],
			Section:   data["section"],
		})
	}
	sort.Slice(students, func(i, j int) bool {
		if a, b := students[i].Name(), students[j].Name(); a != b {
			return a < b
		}
		return students[i].ID < students[j].ID
	})
	return students, nil
}

func (store *GroupStore) GetMemberships(ctx context.Context, groupID string) ([]group.Membership, error) {
	if err := store.groupExists(ctx, groupID); err != nil {
		return nil, err
	}
	ids, err := store.client.SMembers(ctx, groupStudentsKey(groupID)).Result()
	if err != nil {
		return nil, core.NewTransportError("get memberships", err)
	}
	students, err := store.students(ctx, "get memberships", ids)
	if err != nil {
		return nil, err
	}

	members := make([]group.Membership, 0, len(students))
	for _, st := range students {
		members = append(members, group.Membership{
			ID:        membershipID(groupID, st.ID),
			GroupID:   groupID,
			StudentID: st.ID,
			Student:   st,
		})
	}
	return members, nil
}

// GetEligibleStudents reads the pool of a grade and section.
func (store *GroupStore) GetEligibleStudents(ctx context.Context, grade, section string) ([]group.Student, error) {
	ids, err := store.client.SMembers(ctx, poolKey(grade, section)).Result()
	if err != nil {
		return nil, core.NewTransportError("get eligible students", err)
	}
	return store.students(ctx, "get eligible students", ids)
}

func (store *GroupStore) AssignMembership(ctx context.Context, groupID, studentID string) error {
	if err := store.groupExists(ctx, groupID); err != nil {
		return err
	}
	n, err := store.client.Exists(ctx, studentKey(studentID)).Result()
	if err != nil {
		return core.NewTransportError("assign membership", err)
	}
	if n == 0 {
		return core.NewValidationError(group.ErrStudentNotFound, core.FieldError{Field: "student_id", Error: group.ErrStudentNotFound.Error()})
	}

	added, err := store.client.SAdd(ctx, groupStudentsKey(groupID), studentID).Result()
	if err != nil {
		return core.NewTransportError("assign membership", err)
	}
	if added == 0 {
		return core.NewValidationError(group.ErrMembershipExists, core.FieldError{Field: "student_id", Error: group.ErrMembershipExists.Error()})
	}
	return nil
}

func (store *GroupStore) RemoveMembership(ctx context.Context, groupID, studentID string) error {
	if err := store.groupExists(ctx, groupID); err != nil {
		return err
	}
	removed, err := store.client.SRem(ctx, groupStudentsKey(groupID), studentID).Result()
	if err != nil {
		return core.NewTransportError("remove membership", err)
	}
	if removed == 0 {
		return core.NewValidationError(group.ErrMembershipMissing, core.FieldError{Field: "student_id", Error: group.ErrMembershipMissing.Error()})
	}
	return nil
}

func (store *GroupStore) SaveGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	if grp.ID == "" {
		return group.Group{}, core.NewValidationError(errors.New("group id is required"), core.FieldError{Field: "id", Error: "required"})
	}
	pipe := store.client.TxPipeline()
	pipe.SAdd(ctx, groupsKey, grp.ID)
	pipe.HSet(ctx, groupKey(grp.ID), map[string]interface{}{
		"name":    grp.Name,
		"grade":   grp.Grade,
		"section": grp.Section,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return group.Group{}, errors.Wrapf(err, "saving group %s", grp.ID)
	}
	return grp, nil
}

// SaveStudents writes the student hashes and moves students to the pool of their grade and section.
func (store *GroupStore) SaveStudents(ctx context.Context, students ...group.Student) (int, error) {
	for _, st := range students {
		if st.ID == "" {
			return 0, core.NewValidationError(errors.New("student id is required"), core.FieldError{Field: "id", Error: "required"})
		}
	}

	prev := make([]*redis.StringStringMapCmd, len(students))
	_, err := store.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, st := range students {
			prev[i] = pipe.HGetAll(ctx, studentKey(st.ID))
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "reading students")
	}

	_, err = store.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, st := range students {
			if old := prev[i].Val(); len(old) > 0 {
				pipe.SRem(ctx, poolKey(old["grade"], old["section"]), st.ID)
			}
			pipe.HSet(ctx, studentKey(st.ID), map[string]interface{}{
				"first_name": st.FirstName,
				"last_name":  st.LastName,
				"dni":        st.DNI,
				"email":      st.Email,
				"grade":      st.Grade,
				"section":    st.Section,
			})
			pipe.SAdd(ctx, poolKey(st.Grade, st.Section), st.ID)
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "saving students")
	}
	return len(students), nil
}
