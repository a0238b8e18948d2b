package group

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
)

// Phase of a group assignment.
//
//	Uninitialized -> Loading -> Ready <-> Submitting
//	Loading -> Error (terminal until the next load)
type Phase string

const (
	PhaseUninitialized Phase = "uninitialized"
	PhaseLoading       Phase = "loading"
	PhaseReady         Phase = "ready"
	PhaseSubmitting    Phase = "submitting"
	PhaseError         Phase = "error"
)

// EffectKind names a store request emitted by a transition.
type EffectKind string

const (
	EffectFetchGroup         EffectKind = "fetch_group"
	EffectFetchPool          EffectKind = "fetch_pool"
	EffectAssign             EffectKind = "assign"
	EffectRemove             EffectKind = "remove"
	EffectRefetchMemberships EffectKind = "refetch_memberships"
)

// Effect is a side effect requested by a transition. The driver executes it and feeds the result
// back through the matching transition.
type Effect struct {
	Kind       EffectKind
	Seq        int
	GroupID    string
	Grade      string
	Section    string
	StudentIDs []string
}

// State is the local state of a group assignment. Transitions never mutate their input.
type State struct {
	Phase            Phase
	Seq              int // load generation; results of older loads are dropped
	GroupID          string
	Group            Group
	Assigned         []Membership
	Available        []Student
	SelectedToRemove IDSet
	SelectedToAdd    IDSet
	Err              error

	pending *BatchResult // assign results waiting for the refetch
}

func (s State) Loading() bool    { return s.Phase == PhaseLoading }
func (s State) Submitting() bool { return s.Phase == PhaseSubmitting }

// Clone returns a deep copy.
func (s State) Clone() State {
	c := s
	c.Assigned = append([]Membership(nil), s.Assigned...)
	c.Available = append([]Student(nil), s.Available...)
	c.SelectedToRemove = s.SelectedToRemove.clone()
	c.SelectedToAdd = s.SelectedToAdd.clone()
	if s.pending != nil {
		p := *s.pending
		c.pending = &p
	}
	return c
}

// Failure is a single failed call of a batch.
type Failure struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
	Err       error  `json:"-"`
}

// BatchResult holds the settled outcome of every call of a batch, in request order.
type BatchResult struct {
	Succeeded []string  `json:"succeeded"`
	Failed    []Failure `json:"failed"`
}

func (br BatchResult) succeededSet() IDSet { return NewIDSet(br.Succeeded...) }

// BatchError aggregates the failures of a batch (and of the follow-up refetch, if any).
type BatchError struct {
	Operation Selection
	Failed    []Failure
	Refetch   error
}

func (e *BatchError) Error() string {
	msgs := make([]string, 0, len(e.Failed)+1)
	for _, f := range e.Failed {
		msgs = append(msgs, f.StudentID+": "+f.Error)
	}
	if e.Refetch != nil {
		msgs = append(msgs, "refetching memberships: "+e.Refetch.Error())
	}
	return fmt.Sprintf("%s batch failed: %s", e.Operation, strings.Join(msgs, "; "))
}

// Outcome of a submit.
type Outcome struct {
	Operation    Selection         `json:"operation"`
	Succeeded    []string          `json:"succeeded"`
	Failed       []Failure         `json:"failed"`
	Notification core.Notification `json:"notification"`
	Err          error             `json:"-"`
}

func checkIdle(s State) error {
	switch s.Phase {
	case PhaseReady:
		return nil
	case PhaseSubmitting:
		return ErrSubmitInProgress
	default:
		return ErrNotReady
	}
}

// StartLoad resets the state for groupID and requests the group.
func StartLoad(s State, groupID string) (State, []Effect, error) {
	if s.Submitting() {
		return s, nil, ErrSubmitInProgress
	}
	next := State{
		Phase:            PhaseLoading,
		Seq:              s.Seq + 1,
		GroupID:          groupID,
		SelectedToRemove: IDSet{},
		SelectedToAdd:    IDSet{},
	}
	return next, []Effect{{Kind: EffectFetchGroup, Seq: next.Seq, GroupID: groupID}}, nil
}

// GroupFetched requests the memberships and the eligible pool of the fetched group.
func GroupFetched(s State, seq int, grp Group, err error) (State, []Effect) {
	if s.Phase != PhaseLoading || s.Seq != seq {
		return s, nil
	}
	next := s.Clone()
	if err != nil {
		next.Phase = PhaseError
		next.Err = err
		return next, nil
	}
	next.Group = grp
	return next, []Effect{{Kind: EffectFetchPool, Seq: seq, GroupID: grp.ID, Grade: grp.Grade, Section: grp.Section}}
}

// PoolFetched computes the available students as the eligible pool minus the assigned ones.
func PoolFetched(s State, seq int, memberships []Membership, eligible []Student, err error) State {
	if s.Phase != PhaseLoading || s.Seq != seq {
		return s
	}
	next := s.Clone()
	if err != nil {
		next.Phase = PhaseError
		next.Err = err
		return next
	}
	next.Assigned = uniqueMemberships(memberships)
	next.Available = subtractAssigned(uniqueStudents(eligible), next.Assigned)
	next.Phase = PhaseReady
	next.Err = nil
	return next
}

// Toggle adds id to the selection if absent and removes it otherwise.
func Toggle(s State, id string, which Selection) (State, error) {
	if err := checkIdle(s); err != nil {
		return s, err
	}
	next := s.Clone()
	var set IDSet
	switch which {
	case SelectToRemove:
		if !containsMembership(s.Assigned, id) {
			return s, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_id", Error: "student is not assigned to this group"})
		}
		set = next.SelectedToRemove
	case SelectToAdd:
		if !containsStudent(s.Available, id) {
			return s, core.NewValidationError(ErrUnknownStudent, core.FieldError{Field: "student_id", Error: "student is not available for this group"})
		}
		set = next.SelectedToAdd
	default:
		return s, core.NewValidationError(ErrInvalidSelection, core.FieldError{Field: "which", Error: ErrInvalidSelection.Error()})
	}
	if set.Has(id) {
		delete(set, id)
	} else {
		set[id] = struct{}{}
	}
	return next, nil
}

// BeginRemove requests the removal of every selected assigned student.
func BeginRemove(s State) (State, []Effect, error) {
	return beginSubmit(s, SelectToRemove)
}

// BeginAdd requests the assignment of every selected available student.
func BeginAdd(s State) (State, []Effect, error) {
	return beginSubmit(s, SelectToAdd)
}

func beginSubmit(s State, which Selection) (State, []Effect, error) {
	if err := checkIdle(s); err != nil {
		return s, nil, err
	}
	selected, kind := s.SelectedToRemove, EffectRemove
	if which == SelectToAdd {
		selected, kind = s.SelectedToAdd, EffectAssign
	}
	if len(selected) == 0 {
		return s, nil, core.NewValidationError(ErrEmptySelection, core.FieldError{Field: "selection", Error: ErrEmptySelection.Error()})
	}
	next := s.Clone()
	next.Phase = PhaseSubmitting
	return next, []Effect{{Kind: kind, Seq: s.Seq, GroupID: s.Group.ID, StudentIDs: selected.Sorted()}}, nil
}

// RemoveSettled drops exactly the successfully removed students from Assigned and makes them available again.
// The selection is cleared whatever the result.
func RemoveSettled(s State, res BatchResult) (State, Outcome) {
	next := s.Clone()
	removed := res.succeededSet()

	assigned := make([]Membership, 0, len(next.Assigned))
	for _, m := range next.Assigned {
		if removed.Has(m.StudentID) {
			if !containsStudent(next.Available, m.StudentID) {
				next.Available = append(next.Available, m.Student)
			}
			continue
		}
		assigned = append(assigned, m)
	}
	next.Assigned = assigned
	next.SelectedToRemove = IDSet{}
	next.Phase = PhaseReady

	out := Outcome{Operation: SelectToRemove, Succeeded: res.Succeeded, Failed: res.Failed}
	if len(res.Failed) > 0 {
		out.Err = &BatchError{Operation: SelectToRemove, Failed: res.Failed}
		out.Notification = core.Notification{
			Title:       "Error",
			Description: "Some students could not be removed",
			Severity:    core.SeverityError,
		}
	} else {
		out.Notification = core.Notification{
			Title:       "Students removed",
			Description: fmt.Sprintf("%d students removed from the group", len(res.Succeeded)),
			Severity:    core.SeveritySuccess,
		}
	}
	return next, out
}

// AssignSettled keeps the batch result and requests the authoritative membership list.
func AssignSettled(s State, res BatchResult) (State, []Effect) {
	next := s.Clone()
	next.pending = &res
	return next, []Effect{{Kind: EffectRefetchMemberships, Seq: s.Seq, GroupID: s.Group.ID}}
}

// MembershipsRefetched replaces Assigned with the refetched memberships and drops them from Available.
// When the refetch failed, the successfully assigned students are merged locally instead.
// The selection is cleared whatever the result.
func MembershipsRefetched(s State, memberships []Membership, err error) (State, Outcome) {
	next := s.Clone()
	var res BatchResult
	if next.pending != nil {
		res = *next.pending
	}
	next.pending = nil

	if err == nil {
		refetched := uniqueMemberships(memberships)
		// students unassigned elsewhere since the load go back to the pool
		for _, m := range next.Assigned {
			if !containsMembership(refetched, m.StudentID) && !containsStudent(next.Available, m.StudentID) {
				next.Available = append(next.Available, m.Student)
			}
		}
		next.Assigned = refetched
		next.Available = subtractAssigned(next.Available, refetched)
		for id := range next.SelectedToRemove {
			if !containsMembership(refetched, id) {
				delete(next.SelectedToRemove, id)
			}
		}
	} else {
		added := res.succeededSet()
		available := make([]Student, 0, len(next.Available))
		for _, st := range next.Available {
			if added.Has(st.ID) {
				next.Assigned = append(next.Assigned, Membership{GroupID: next.Group.ID, StudentID: st.ID, Student: st})
				continue
			}
			available = append(available, st)
		}
		next.Available = available
	}
	next.SelectedToAdd = IDSet{}
	next.Phase = PhaseReady

	out := Outcome{Operation: SelectToAdd, Succeeded: res.Succeeded, Failed: res.Failed}
	if len(res.Failed) > 0 || err != nil {
		out.Err = &BatchError{Operation: SelectToAdd, Failed: res.Failed, Refetch: err}
		out.Notification = core.Notification{
			Title:       "Error",
			Description: "Some students could not be assigned",
			Severity:    core.SeverityError,
		}
	} else {
		out.Notification = core.Notification{
			Title:       "Students assigned",
			Description: fmt.Sprintf("%d students assigned to the group", len(res.Succeeded)),
			Severity:    core.SeveritySuccess,
		}
	}
	return next, out
}

// LoadNotification is the notification shown when a load fails.
func LoadNotification(err error) core.Notification {
	if errors.Cause(err) == ErrNotFound {
		return core.Notification{Title: "Error", Description: "Group not found", Severity: core.SeverityError}
	}
	return core.Notification{
		Title:       "Error",
		Description: "Could not load the group and its students",
		Severity:    core.SeverityError,
	}
}

func uniqueMemberships(ms []Membership) []Membership {
	seen := make(IDSet, len(ms))
	out := make([]Membership, 0, len(ms))
	for _, m := range ms {
		if m.StudentID == "" {
			m.StudentID = m.Student.ID
		}
		if seen.Has(m.StudentID) {
			continue
		}
		seen[m.StudentID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func uniqueStudents(sts []Student) []Student {
	seen := make(IDSet, len(sts))
	out := make([]Student, 0, len(sts))
	for _, st := range sts {
		if seen.Has(st.ID) {
			continue
		}
		seen[st.ID] = struct{}{}
		out = append(out, st)
	}
	return out
}

func subtractAssigned(sts []Student, assigned []Membership) []Student {
	ids := make(IDSet, len(assigned))
	for _, m := range assigned {
		ids[m.StudentID] = struct{}{}
	}
	out := make([]Student, 0, len(sts))
	for _, st := range sts {
		if !ids.Has(st.ID) {
			out = append(out, st)
		}
	}
	return out
}

func containsMembership(ms []Membership, studentID string) bool {
	for _, m := range ms {
		if m.StudentID == studentID {
			return true
		}
	}
	return false
}

func containsStudent(sts []Student, id string) bool {
	for _, st := range sts {
		if st.ID == id {
			return true
		}
	}
	return false
}
