// Package cachestore caches the slow changing reads of a group.Store.
package cachestore

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/trezcool/aula/core/group"
)

const DefaultTTL = time.Minute

// GroupStore caches groups and eligible pools. Memberships and mutations always reach the wrapped store.
type GroupStore struct {
	group.Store
	cache *cache.Cache
}

var _ group.Store = (*GroupStore)(nil)

func NewGroupStore(store group.Store, ttl time.Duration) *GroupStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &GroupStore{Store: store, cache: cache.New(ttl, 2*ttl)}
}

func (store *GroupStore) GetGroup(ctx context.Context, id string) (group.Group, error) {
	key := "group:" + id
	if v, ok := store.cache.Get(key); ok {
		return v.(group.Group), nil
	}
	grp, err := store.Store.GetGroup(ctx, id)
	if err != nil {
		return group.Group{}, err
	}
	store.cache.SetDefault(key, grp)
	return grp, nil
}

func (store *GroupStore) GetEligibleStudents(ctx context.Context, grade, section string) ([]group.Student, error) {
	key := poolKey(grade, section)
	if v, ok := store.cache.Get(key); ok {
		return copyStudents(v.([]group.Student)), nil
	}
	students, err := store.Store.GetEligibleStudents(ctx, grade, section)
	if err != nil {
		return nil, err
	}
	store.cache.SetDefault(key, copyStudents(students))
	return students, nil
}

// Invalidate drops every cached entry, e.g. after a roster import.
func (store *GroupStore) Invalidate() {
	store.cache.Flush()
}

func poolKey(grade, section string) string {
	return fmt.Sprintf("pool:%q|%q", grade, section)
}

func copyStudents(students []group.Student) []group.Student {
	out := make([]group.Student, len(students))
	copy(out, students)
	return out
}

// directory drops the cached reads after every write.
type directory struct {
	group.Directory
	store *GroupStore
}

// Directory returns dir invalidating store after each write.
func (store *GroupStore) Directory(dir group.Directory) group.Directory {
	return &directory{Directory: dir, store: store}
}

func (d *directory) SaveGroup(ctx context.Context, grp group.Group) (group.Group, error) {
	defer d.store.Invalidate()
	return d.Directory.SaveGroup(ctx, grp)
}

func (d *directory) SaveStudents(ctx context.Context, students ...group.Student) (int, error) {
	defer d.store.Invalidate()
	return d.Directory.SaveStudents(ctx, students...)
}
