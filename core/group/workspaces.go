package group

import (
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

// Workspaces keeps one Reconciler per (owner, group) so that sessions never share local state.
// Idle workspaces expire after the configured TTL.
type Workspaces struct {
	store Store
	opts  Options

	mu    sync.Mutex
	cache *cache.Cache
}

func NewWorkspaces(store Store, opts Options, ttl time.Duration) *Workspaces {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Workspaces{
		store: store,
		opts:  opts,
		cache: cache.New(ttl, ttl/2),
	}
}

func workspaceKey(owner, groupID string) string {
	return fmt.Sprintf("%q|%q", owner, groupID)
}

// Open returns the workspace of owner for groupID, creating it if needed.
func (w *Workspaces) Open(owner, groupID string) *Reconciler {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := workspaceKey(owner, groupID)
	if r, ok := w.cache.Get(key); ok {
		w.cache.SetDefault(key, r) // refresh expiration
		return r.(*Reconciler)
	}
	r := NewReconciler(w.store, w.opts)
	w.cache.SetDefault(key, r)
	return r
}

// Get returns an existing workspace.
func (w *Workspaces) Get(owner, groupID string) (*Reconciler, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	key := workspaceKey(owner, groupID)
	r, ok := w.cache.Get(key)
	if !ok {
		return nil, false
	}
	w.cache.SetDefault(key, r)
	return r.(*Reconciler), true
}

func (w *Workspaces) Close(owner, groupID string) {
	w.cache.Delete(workspaceKey(owner, groupID))
}

func (w *Workspaces) Len() int {
	return w.cache.ItemCount()
}
