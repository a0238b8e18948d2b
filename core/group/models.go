package group

import (
	"sort"
	"strings"

	"github.com/trezcool/aula/core"
)

type Student struct {
	ID        string `json:"id" db:"id"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	DNI       string `json:"dni,omitempty" db:"dni"`
	Email     string `json:"email" db:"email"`
	Grade     string `json:"grade" db:"grade"`
	Section   string `json:"section" db:"section"`
}

// Name returns the display name.
func (s Student) Name() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// Matches does a case-insensitive match of the search term on the display name, DNI or email.
func (s Student) Matches(search string) bool {
	return core.ContainsFold(search, s.Name(), s.DNI, s.Email)
}

func (s Student) sortKey(field string) string {
	switch field {
	case "name":
		return s.Name()
	case "first_name":
		return s.FirstName
	case "last_name":
		return s.LastName
	case "dni":
		return s.DNI
	case "email":
		return s.Email
	case "id":
		return s.ID
	}
	return ""
}

type Group struct {
	ID      string `json:"id" db:"id"`
	Name    string `json:"name" db:"name"`
	Grade   string `json:"grade" db:"grade"`
	Section string `json:"section" db:"section"`
}

// Membership links a Student to a Group.
type Membership struct {
	ID        string  `json:"id"`
	GroupID   string  `json:"group_id"`
	StudentID string  `json:"student_id"`
	Student   Student `json:"student"`
}

// Selection names one of the two selection sets.
type Selection string

const (
	SelectToRemove Selection = "remove"
	SelectToAdd    Selection = "add"
)

// IDSet is a set of student ids.
type IDSet map[string]struct{}

func NewIDSet(ids ...string) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s IDSet) clone() IDSet {
	c := make(IDSet, len(s))
	for id := range s {
		c[id] = struct{}{}
	}
	return c
}

// QueryFilter narrows the lists of a View.
type QueryFilter struct {
	SearchAssigned  string `query:"search_assigned"`
	SearchAvailable string `query:"search_available"`
}

func (qf *QueryFilter) Clean() {
	qf.SearchAssigned = core.CleanString(qf.SearchAssigned)
	qf.SearchAvailable = core.CleanString(qf.SearchAvailable)
}
