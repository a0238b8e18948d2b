package redisstore

import (
	"context"
	"os"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/group"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "group:G1", groupKey("G1"))
	assert.Equal(t, "group:G1:students", groupStudentsKey("G1"))
	assert.Equal(t, "student:S1", studentKey("S1"))
	assert.Equal(t, "pool:5:A", poolKey("5", "A"))
	assert.Equal(t, "m:G1:S1", membershipID("G1", "S1"))
}

// prepareClient connects to TEST_REDIS_ADDR and flushes the test database.
func prepareClient(t *testing.T) *redis.Client {
	t.Helper()
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR is not set")
	}
	conf := core.NewTestConfig()
	conf.Redis.Address = addr
	conf.Redis.DB = 15

	ctx := context.Background()
	client, err := Connect(ctx, conf)
	require.NoError(t, err)
	require.NoError(t, client.FlushDB(ctx).Err())
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGroupStore(t *testing.T) {
	ctx := context.Background()
	store := NewGroupStore(prepareClient(t))

	_, err := store.SaveGroup(ctx, group.Group{ID: "G1", Name: "5to A", Grade: "5", Section: "A"})
	require.NoError(t, err)
	_, err = store.SaveStudents(ctx,
		group.Student{ID: "S1", FirstName: "Ana", LastName: "Quispe", Email: "ana@colegio.pe", Grade: "5", Section: "A"},
		group.Student{ID: "S2", FirstName: "Bruno", LastName: "Mamani", Email: "bruno@colegio.pe", Grade: "5", Section: "A"},
	)
	require.NoError(t, err)

	grp, err := store.GetGroup(ctx, "G1")
	require.NoError(t, err)
	assert.Equal(t, "5to A", grp.Name)
	_, err = store.GetGroup(ctx, "G404")
	assert.Equal(t, group.ErrNotFound, err)

	require.NoError(t, store.AssignMembership(ctx, "G1", "S1"))
	assert.ErrorIs(t, store.AssignMembership(ctx, "G1", "S1"), group.ErrMembershipExists)
	assert.ErrorIs(t, store.AssignMembership(ctx, "G1", "S404"), group.ErrStudentNotFound)

	members, err := store.GetMemberships(ctx, "G1")
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Ana Quispe", members[0].Student.Name())

	// moving S2 to section B takes it out of the 5/A pool
	_, err = store.SaveStudents(ctx, group.Student{ID: "S2", FirstName: "Bruno", LastName: "Mamani", Email: "bruno@colegio.pe", Grade: "5", Section: "B"})
	require.NoError(t, err)
	eligible, err := store.GetEligibleStudents(ctx, "5", "A")
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, "S1", eligible[0].ID)

	require.NoError(t, store.RemoveMembership(ctx, "G1", "S1"))
	assert.ErrorIs(t, store.RemoveMembership(ctx, "G1", "S1"), group.ErrMembershipMissing)
}
