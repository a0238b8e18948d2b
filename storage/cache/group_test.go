package cachestore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aula/core/group"
	inmemdb "github.com/trezcool/aula/storage/database/inmem"
)

type countingStore struct {
	group.Store
	groups, pools, memberships int
}

func (s *countingStore) GetGroup(ctx context.Context, id string) (group.Group, error) {
	s.groups++
	return s.Store.GetGroup(ctx, id)
}

func (s *countingStore) GetEligibleStudents(ctx context.Context, grade, section string) ([]group.Student, error) {
	s.pools++
	return s.Store.GetEligibleStudents(ctx, grade, section)
}

func (s *countingStore) GetMemberships(ctx context.Context, groupID string) ([]group.Membership, error) {
	s.memberships++
	return s.Store.GetMemberships(ctx, groupID)
}

func TestGroupStore(t *testing.T) {
	ctx := context.Background()
	inner := inmemdb.NewGroupStore(inmemdb.Open())
	_, err := inner.SaveGroup(ctx, group.Group{ID: "G1", Name: "5to A", Grade: "5", Section: "A"})
	require.NoError(t, err)
	_, err = inner.SaveStudents(ctx, group.Student{ID: "S1", FirstName: "Ana", Grade: "5", Section: "A"})
	require.NoError(t, err)

	counting := &countingStore{Store: inner}
	store := NewGroupStore(counting, time.Minute)

	for i := 0; i < 3; i++ {
		_, err = store.GetGroup(ctx, "G1")
		require.NoError(t, err)
		students, err := store.GetEligibleStudents(ctx, "5", "A")
		require.NoError(t, err)
		students[0].FirstName = "mutated"
		_, err = store.GetMemberships(ctx, "G1")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, counting.groups)
	assert.Equal(t, 1, counting.pools)
	assert.Equal(t, 3, counting.memberships)

	students, err := store.GetEligibleStudents(ctx, "5", "A")
	require.NoError(t, err)
	assert.Equal(t, "Ana", students[0].FirstName)

	_, err = store.GetGroup(ctx, "G404")
	assert.Equal(t, group.ErrNotFound, err)
	_, err = store.GetGroup(ctx, "G404")
	assert.Equal(t, group.ErrNotFound, err)
	assert.Equal(t, 3, counting.groups)

	require.NoError(t, store.AssignMembership(ctx, "G1", "S1"))
	store.Invalidate()
	_, err = store.GetGroup(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, 4, counting.groups)
}

func TestGroupStore_Directory(t *testing.T) {
	ctx := context.Background()
	inner := inmemdb.NewGroupStore(inmemdb.Open())
	counting := &countingStore{Store: inner}
	store := NewGroupStore(counting, time.Minute)
	dir := store.Directory(inner)

	students, err := store.GetEligibleStudents(ctx, "5", "A")
	require.NoError(t, err)
	assert.Empty(t, students)

	n, err := dir.SaveStudents(ctx, group.Student{ID: "S1", FirstName: "Ana", Grade: "5", Section: "A"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	students, err = store.GetEligibleStudents(ctx, "5", "A")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, 2, counting.pools)
}

func TestGroupStore_poolKeys(t *testing.T) {
	ctx := context.Background()
	inner := inmemdb.NewGroupStore(inmemdb.Open())
	_, err := inner.SaveStudents(ctx,
		group.Student{ID: "S1", FirstName: "Ana", Grade: "5:A", Section: "B"},
		group.Student{ID: "S2", FirstName: "Bruno", Grade: "5", Section: "A:B"},
	)
	require.NoError(t, err)

	store := NewGroupStore(&countingStore{Store: inner}, time.Minute)
	first, err := store.GetEligibleStudents(ctx, "5:A", "B")
	require.NoError(t, err)
	second, err := store.GetEligibleStudents(ctx, "5", "A:B")
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "S1", first[0].ID)
	assert.Equal(t, "S2", second[0].ID)
}
