package group

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound          = errors.New("group not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrMembershipExists  = errors.New("student is already assigned to this group")
	ErrMembershipMissing = errors.New("student is not assigned to this group")
	ErrSubmitInProgress  = errors.New("another submission is in progress")
	ErrNotReady          = errors.New("group assignment is not loaded")
	ErrEmptySelection    = errors.New("no students selected")
	ErrUnknownStudent    = errors.New("student is not in the list")
	ErrInvalidSelection  = errors.New("selection must be one of: add, remove")
)

type (
	// Store is the remote store holding groups, students and memberships.
	// Implementations return ErrNotFound for unknown groups, a *core.ValidationError when a mutation
	// is rejected and a *core.TransportError when the store cannot be reached.
	Store interface {
		GetGroup(ctx context.Context, id string) (Group, error)
		GetMemberships(ctx context.Context, groupID string) ([]Membership, error)
		GetEligibleStudents(ctx context.Context, grade, section string) ([]Student, error)
		AssignMembership(ctx context.Context, groupID, studentID string) error
		RemoveMembership(ctx context.Context, groupID, studentID string) error
	}

	// Directory writes groups and students; used by imports and seeding.
	Directory interface {
		SaveGroup(ctx context.Context, grp Group) (Group, error)
		SaveStudents(ctx context.Context, students ...Student) (int, error)
	}
)
