package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/chart"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
	logsvc "github.com/trezcool/aula/services/logger"
	"github.com/trezcool/aula/storage"
	"github.com/trezcool/aula/storage/database"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(logsvc.NewZap("admin", conf.Debug), conf)
	logger.Enable(!conf.Debug)

	// set up storage
	stores, err := storage.Open(context.Background(), conf, logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up storage: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	group.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		usrSvc:   user.NewService(stores.Users),
		store:    stores.Groups,
		dir:      stores.Directory,
		att:      stores.Attendance,
		attSvc:   attendance.NewService(stores.Attendance, chart.NewLayouts(conf.Charts.BarPixelBudget, conf.Charts.PieRadius)),
		validate: validate,
		school:   conf.AppName,
		out:      os.Stdout,
	}
	if conf.Storage.Engine == core.StoragePostgres {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		cli.db = db.DB
	}

	err = cli.run(os.Args)
	if cli.db != nil {
		_ = cli.db.Close()
	}
	_ = stores.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
