package group

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/aula/core"
)

const (
	DefaultCallTimeout    = 5 * time.Second
	DefaultMaxConcurrency = 8
)

var nowFunc = time.Now // mockable

// BatchObserver records the result of every submitted batch.
type BatchObserver interface {
	ObserveBatch(operation string, succeeded, failed int, elapsed time.Duration)
}

type Options struct {
	// CallTimeout bounds every single store call.
	CallTimeout time.Duration
	// MaxConcurrency bounds the calls of a batch running at the same time.
	MaxConcurrency int
	Notifier       core.Notifier
	Observer       BatchObserver
	Logger         core.Logger
}

// Reconciler keeps the assigned and available students of a group in sync with the Store.
// Submissions are single-flight: a submit while another one runs fails with ErrSubmitInProgress.
// The lock is never held during store calls.
type Reconciler struct {
	store Store
	opts  Options

	mu    sync.Mutex
	state State
}

func NewReconciler(store Store, opts Options) *Reconciler {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.MaxConcurrency <= 0 {
		opts.MaxConcurrency = DefaultMaxConcurrency
	}
	return &Reconciler{
		store: store,
		opts:  opts,
		state: State{Phase: PhaseUninitialized, SelectedToRemove: IDSet{}, SelectedToAdd: IDSet{}},
	}
}

// State returns a copy of the current state.
func (r *Reconciler) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Clone()
}

// apply runs a transition under the lock.
func (r *Reconciler) apply(fn func(s State) State) State {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = fn(r.state)
	return r.state.Clone()
}

// Load fetches the group, its memberships and its eligible pool.
func (r *Reconciler) Load(ctx context.Context, groupID string) error {
	var effects []Effect
	var err error
	r.apply(func(s State) State {
		var next State
		next, effects, err = StartLoad(s, groupID)
		return next
	})
	if err != nil {
		return err
	}

	for len(effects) > 0 {
		eff := effects[0]
		effects = effects[1:]

		switch eff.Kind {
		case EffectFetchGroup:
			grp, gErr := r.fetchGroup(ctx, eff.GroupID)
			var next []Effect
			r.apply(func(s State) State {
				var ns State
				ns, next = GroupFetched(s, eff.Seq, grp, gErr)
				return ns
			})
			if gErr != nil {
				r.notify(LoadNotification(gErr))
				return errors.Wrap(gErr, "fetching group")
			}
			effects = append(effects, next...)
		case EffectFetchPool:
			memberships, eligible, pErr := r.fetchPool(ctx, eff)
			r.apply(func(s State) State { return PoolFetched(s, eff.Seq, memberships, eligible, pErr) })
			if pErr != nil {
				r.notify(LoadNotification(pErr))
				return errors.Wrap(pErr, "fetching group pool")
			}
		}
	}
	return nil
}

// Toggle flips studentID in the remove or add selection.
func (r *Reconciler) Toggle(studentID string, which Selection) error {
	var err error
	r.apply(func(s State) State {
		var next State
		next, err = Toggle(s, studentID, which)
		return next
	})
	return err
}

// RemoveSelected removes every selected assigned student. Calls settle independently:
// only the successful removals leave the assigned list and the failures are reported in the Outcome.
// The returned error is only set when the submit could not start.
func (r *Reconciler) RemoveSelected(ctx context.Context) (Outcome, error) {
	var effects []Effect
	var err error
	r.apply(func(s State) State {
		var next State
		next, effects, err = BeginRemove(s)
		return next
	})
	if err != nil {
		return Outcome{}, err
	}

	res := r.settle(ctx, effects[0])

	var out Outcome
	r.apply(func(s State) State {
		var next State
		next, out = RemoveSettled(s, res)
		return next
	})
	r.finish(out)
	return out, nil
}

// AddSelected assigns every selected available student, then refetches the memberships.
// The returned error is only set when the submit could not start.
func (r *Reconciler) AddSelected(ctx context.Context) (Outcome, error) {
	var effects []Effect
	var err error
	r.apply(func(s State) State {
		var next State
		next, effects, err = BeginAdd(s)
		return next
	})
	if err != nil {
		return Outcome{}, err
	}

	res := r.settle(ctx, effects[0])

	var refetch []Effect
	r.apply(func(s State) State {
		var next State
		next, refetch = AssignSettled(s, res)
		return next
	})

	var memberships []Membership
	var mErr error
	if len(refetch) > 0 {
		memberships, mErr = r.fetchMemberships(ctx, refetch[0].GroupID)
	}

	var out Outcome
	r.apply(func(s State) State {
		var next State
		next, out = MembershipsRefetched(s, memberships, mErr)
		return next
	})
	r.finish(out)
	return out, nil
}

func (r *Reconciler) finish(out Outcome) {
	if out.Err != nil && r.opts.Logger != nil {
		r.opts.Logger.Warn("group batch failed", out.Err)
	}
	r.notify(out.Notification)
}

func (r *Reconciler) notify(n core.Notification) {
	if r.opts.Notifier != nil && !n.IsZero() {
		r.opts.Notifier.Notify(n)
	}
}

// call runs fn with the per-call timeout and turns context errors into transport errors.
func (r *Reconciler) call(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return core.NewTransportError(op, err)
	}
	callCtx, cancel := context.WithTimeout(ctx, r.opts.CallTimeout)
	defer cancel()

	err := fn(callCtx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)) && !core.IsTransport(err) {
		return core.NewTransportError(op, err)
	}
	return err
}

func (r *Reconciler) fetchGroup(ctx context.Context, id string) (grp Group, err error) {
	err = r.call(ctx, "getting group", func(ctx context.Context) error {
		grp, err = r.store.GetGroup(ctx, id)
		return err
	})
	return grp, err
}

func (r *Reconciler) fetchMemberships(ctx context.Context, groupID string) (ms []Membership, err error) {
	err = r.call(ctx, "getting memberships", func(ctx context.Context) error {
		ms, err = r.store.GetMemberships(ctx, groupID)
		return err
	})
	return ms, err
}

// fetchPool fetches the memberships and the eligible pool concurrently.
func (r *Reconciler) fetchPool(ctx context.Context, eff Effect) ([]Membership, []Student, error) {
	var (
		memberships []Membership
		eligible    []Student
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		memberships, err = r.fetchMemberships(gctx, eff.GroupID)
		return err
	})
	g.Go(func() error {
		return r.call(gctx, "getting eligible students", func(ctx context.Context) (err error) {
			eligible, err = r.store.GetEligibleStudents(ctx, eff.Grade, eff.Section)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return memberships, eligible, nil
}

// settle runs one store call per student and waits for all of them.
// A failing call never cancels its siblings; cancelling ctx fails the calls not yet done.
func (r *Reconciler) settle(ctx context.Context, eff Effect) BatchResult {
	op, opName := r.store.RemoveMembership, "removing membership"
	operation := string(SelectToRemove)
	if eff.Kind == EffectAssign {
		op, opName = r.store.AssignMembership, "assigning membership"
		operation = string(SelectToAdd)
	}

	start := nowFunc()
	errs := make([]error, len(eff.StudentIDs))

	var g errgroup.Group
	g.SetLimit(r.opts.MaxConcurrency)
	for i, id := range eff.StudentIDs {
		i, id := i, id
		g.Go(func() error {
			errs[i] = r.call(ctx, opName, func(ctx context.Context) error {
				return op(ctx, eff.GroupID, id)
			})
			return nil
		})
	}
	_ = g.Wait()

	var res BatchResult
	for i, id := range eff.StudentIDs {
		if errs[i] != nil {
			res.Failed = append(res.Failed, Failure{StudentID: id, Error: errs[i].Error(), Err: errs[i]})
			continue
		}
		res.Succeeded = append(res.Succeeded, id)
	}

	if r.opts.Observer != nil {
		r.opts.Observer.ObserveBatch(operation, len(res.Succeeded), len(res.Failed), nowFunc().Sub(start))
	}
	return res
}
