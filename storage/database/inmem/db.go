package inmemdb

import (
	"sync"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
)

type (
	// DB is a process local database, used for development and tests.
	DB struct {
		user       *userTable
		group      *groupTables
		attendance *attendanceTable
	}

	userTable struct {
		mutex sync.RWMutex
		table map[string]*user.User
	}

	groupTables struct {
		mutex       sync.RWMutex
		groups      map[string]group.Group
		students    map[string]group.Student
		memberships map[string]group.Membership // keyed by membershipKey
	}

	attendanceTable struct {
		mutex sync.RWMutex
		table map[string]attendance.DailyRecord // keyed by recordKey
	}
)

func Open() *DB {
	return &DB{
		user: &userTable{table: make(map[string]*user.User)},
		group: &groupTables{
			groups:      make(map[string]group.Group),
			students:    make(map[string]group.Student),
			memberships: make(map[string]group.Membership),
		},
		attendance: &attendanceTable{table: make(map[string]attendance.DailyRecord)},
	}
}
