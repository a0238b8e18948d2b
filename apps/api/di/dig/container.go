package dig_container

import (
	"context"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/aula/apps/api/echo"
	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/chart"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
	logsvc "github.com/trezcool/aula/services/logger"
	"github.com/trezcool/aula/services/monitoring"
	notifysvc "github.com/trezcool/aula/services/notify"
	"github.com/trezcool/aula/storage"
)

type StorageLoggerParam struct {
	dig.In
	Logger core.Logger `name:"storageLogger"`
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZap("api", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorageLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(logsvc.NewZap("storage", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStores(conf *core.Config, loggerParam StorageLoggerParam) *storage.Stores {
	stores, err := storage.Open(context.Background(), conf, loggerParam.Logger)
	if err != nil {
		loggerParam.Logger.Fatal("setting up storage", err)
	}
	return stores
}

type repositories struct {
	dig.Out

	Users      user.Repository
	Groups     group.Store
	Directory  group.Directory
	Attendance attendance.Repository
}

func newRepositories(stores *storage.Stores) repositories {
	return repositories{
		Users:      stores.Users,
		Groups:     stores.Groups,
		Directory:  stores.Directory,
		Attendance: stores.Attendance,
	}
}

func newLayouts(conf *core.Config) chart.Layouts {
	return chart.NewLayouts(conf.Charts.BarPixelBudget, conf.Charts.PieRadius)
}

func newHistory() *notifysvc.History {
	return notifysvc.NewHistory(0)
}

func newWorkspaces(conf *core.Config, store group.Store, notifier core.Notifier, logger core.Logger) *group.Workspaces {
	return group.NewWorkspaces(store, group.Options{
		CallTimeout:    conf.Groups.CallTimeout,
		MaxConcurrency: conf.Groups.MaxConcurrency,
		Notifier:       notifier,
		Observer:       monitoring.BatchObserver{},
		Logger:         logger,
	}, conf.Groups.WorkspaceTTL)
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newStorageLogger, dig.Name("storageLogger")))
	must(c.Provide(newStores))
	must(c.Provide(newRepositories))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(user.NewService))
	must(c.Provide(newLayouts))
	must(c.Provide(attendance.NewService))
	must(c.Provide(newHistory))
	must(c.Provide(notifysvc.NewLogNotifier))
	must(c.Provide(newWorkspaces))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
