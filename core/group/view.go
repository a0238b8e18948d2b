package group

import (
	"github.com/trezcool/aula/core"
)

// View is the read model of a group assignment.
type View struct {
	Phase            Phase        `json:"phase"`
	Loading          bool         `json:"loading"`
	Submitting       bool         `json:"submitting"`
	Group            Group        `json:"group"`
	Assigned         []Membership `json:"assigned"`
	Available        []Student    `json:"available"`
	SelectedToRemove []string     `json:"selected_to_remove"`
	SelectedToAdd    []string     `json:"selected_to_add"`
	Error            string       `json:"error,omitempty"`
}

// NewView filters both lists with the search terms of filter and sorts them with orderings.
func NewView(s State, filter QueryFilter, orderings []core.DBOrdering) View {
	v := View{
		Phase:            s.Phase,
		Loading:          s.Loading(),
		Submitting:       s.Submitting(),
		Group:            s.Group,
		Assigned:         make([]Membership, 0, len(s.Assigned)),
		Available:        make([]Student, 0, len(s.Available)),
		SelectedToRemove: s.SelectedToRemove.Sorted(),
		SelectedToAdd:    s.SelectedToAdd.Sorted(),
	}
	if s.Err != nil {
		v.Error = s.Err.Error()
	}

	for _, m := range s.Assigned {
		if m.Student.Matches(filter.SearchAssigned) {
			v.Assigned = append(v.Assigned, m)
		}
	}
	for _, st := range s.Available {
		if st.Matches(filter.SearchAvailable) {
			v.Available = append(v.Available, st)
		}
	}

	core.SortBy(
		len(v.Assigned),
		func(i, j int) { v.Assigned[i], v.Assigned[j] = v.Assigned[j], v.Assigned[i] },
		func(i int, field string) string { return v.Assigned[i].Student.sortKey(field) },
		orderings,
	)
	core.SortBy(
		len(v.Available),
		func(i, j int) { v.Available[i], v.Available[j] = v.Available[j], v.Available[i] },
		func(i int, field string) string { return v.Available[i].sortKey(field) },
		orderings,
	)
	return v
}

// View returns the current state as a View.
func (r *Reconciler) View(filter QueryFilter, orderings []core.DBOrdering) View {
	return NewView(r.State(), filter, orderings)
}
