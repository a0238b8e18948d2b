// Package storage opens the stores of the configured engine.
package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
	cachestore "github.com/trezcool/aula/storage/cache"
	"github.com/trezcool/aula/storage/database"
	inmemdb "github.com/trezcool/aula/storage/database/inmem"
	sqlxrepos "github.com/trezcool/aula/storage/database/sqlx"
	redisstore "github.com/trezcool/aula/storage/redis"
	"github.com/trezcool/aula/storage/seed"
)

// Stores groups the repositories used by the services.
//   - memory: everything in process, seeded with the demo data.
//   - postgres: everything in postgres; run `admin seed` for the demo data.
//   - redis: groups, students and memberships in redis; users and attendance in process.
type Stores struct {
	Users      user.Repository
	Groups     group.Store
	Directory  group.Directory
	Attendance attendance.Repository

	closers []func() error
}

func Open(ctx context.Context, conf *core.Config, logger core.Logger) (*Stores, error) {
	var s *Stores
	var err error
	switch conf.Storage.Engine {
	case core.StorageMemory, "":
		s, err = openMemory()
	case core.StoragePostgres:
		s, err = openPostgres(conf)
	case core.StorageRedis:
		s, err = openRedis(ctx, conf)
	default:
		return nil, errors.Errorf("unknown storage engine %q", conf.Storage.Engine)
	}
	if err != nil {
		return nil, err
	}
	logger.Info("storage opened", map[string]interface{}{"engine": conf.Storage.Engine})

	if conf.Storage.Engine != core.StoragePostgres {
		if err = s.seed(ctx, conf, logger); err != nil {
			_ = s.Close()
			return nil, err
		}
	}
	return s, nil
}

func openMemory() (*Stores, error) {
	db := inmemdb.Open()
	groups := inmemdb.NewGroupStore(db)
	return &Stores{
		Users:      inmemdb.NewUserRepository(db),
		Groups:     groups,
		Directory:  groups,
		Attendance: inmemdb.NewAttendanceRepository(db),
	}, nil
}

func openPostgres(conf *core.Config) (*Stores, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, errors.Wrap(err, "creating database")
	}
	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Migrate(db.DB); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "migrating database")
	}

	groups := sqlxrepos.NewGroupStore(db)
	cached := cachestore.NewGroupStore(groups, conf.Storage.CacheTTL)
	return &Stores{
		Users:      sqlxrepos.NewUserRepository(db),
		Groups:     cached,
		Directory:  cached.Directory(groups),
		Attendance: sqlxrepos.NewAttendanceRepository(db),
		closers:    []func() error{db.Close},
	}, nil
}

func openRedis(ctx context.Context, conf *core.Config) (*Stores, error) {
	client, err := redisstore.Connect(ctx, conf)
	if err != nil {
		return nil, err
	}
	db := inmemdb.Open()
	groups := redisstore.NewGroupStore(client)
	cached := cachestore.NewGroupStore(groups, conf.Storage.CacheTTL)
	return &Stores{
		Users:      inmemdb.NewUserRepository(db),
		Groups:     cached,
		Directory:  cached.Directory(groups),
		Attendance: inmemdb.NewAttendanceRepository(db),
		closers:    []func() error{client.Close},
	}, nil
}

func (s *Stores) seed(ctx context.Context, conf *core.Config, logger core.Logger) error {
	if conf.Seed.Demo {
		if err := seed.Load(ctx, s.Directory, s.Groups, s.Attendance, time.Now()); err != nil {
			return errors.Wrap(err, "loading demo data")
		}
		logger.Info("demo data loaded")
	}
	if conf.Seed.AdminPassword != "" {
		if _, err := seed.Admin(ctx, user.NewService(s.Users), conf.Seed.AdminPassword); err != nil {
			return err
		}
		logger.Info("admin user ready", map[string]interface{}{"username": seed.AdminUsername})
	}
	return nil
}

// Close closes the underlying connections.
func (s *Stores) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
