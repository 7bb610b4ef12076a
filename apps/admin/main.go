package main

import (
	"io"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/user"
	logsvc "github.com/trezcool/schoolcal/services/logger"
	"github.com/trezcool/schoolcal/storage/database"
	pgrepos "github.com/trezcool/schoolcal/storage/database/postgres"
)

var logger *log.Logger

func main() {
	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.NewConfig()

	rollbarLogger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	rollbarLogger.Enable(!conf.Debug)

	// set up DB
	errAndDie(database.CreateIfNotExist(conf))
	db, err := database.Open(conf)
	errAndDie(err)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:         db,
		usrSvc:     user.NewService(pgrepos.New(db).Stores().Users()),
		validate:   validate,
		translator: translator,
	}
	err = cli.run(os.Args)
	if err != nil && err != errHelp {
		logger.Printf("\nerror: %s\n", err)
		rollbarLogger.Error("admin command failed", err)
	}

	rollbarLogger.Close()
	_ = db.Close()
	if err != nil {
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
