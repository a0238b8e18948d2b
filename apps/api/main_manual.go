package main

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

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

func startManual() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(logsvc.NewZap("api", conf.Debug), conf)
	logger.Enable(!conf.Debug)
	defer func() { _ = logger.Sync() }()

	storageLogger := logsvc.NewRollbarLogger(logsvc.NewZap("storage", conf.Debug), conf)
	storageLogger.Enable(!conf.Debug)

	// set up storage
	stores, err := storage.Open(context.Background(), conf, storageLogger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}
	defer func() {
		if err = stores.Close(); err != nil {
			storageLogger.Fatal("Failed to close", err)
		}
	}()

	// set up services
	usrSvc := user.NewService(stores.Users)
	attSvc := attendance.NewService(stores.Attendance, chart.NewLayouts(conf.Charts.BarPixelBudget, conf.Charts.PieRadius))
	history := notifysvc.NewHistory(0)
	workspaces := group.NewWorkspaces(stores.Groups, group.Options{
		CallTimeout:    conf.Groups.CallTimeout,
		MaxConcurrency: conf.Groups.MaxConcurrency,
		Notifier:       notifysvc.NewLogNotifier(logger, history),
		Observer:       monitoring.BatchObserver{},
		Logger:         logger,
	}, conf.Groups.WorkspaceTTL)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	group.InitValidators(validate, translator)

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			UserSvc:       usrSvc,
			AttendanceSvc: attSvc,
			Workspaces:    workspaces,
			Students:      stores.Groups,
			Directory:     stores.Directory,
			History:       history,
			Validate:      validate,
			Translator:    translator,
		},
	)

	serve(conf, logger, server)
}
