package main

import (
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/user"
	emailsvc "github.com/brighttutor/brightdesk/services/email"
	logsvc "github.com/brighttutor/brightdesk/services/logger"
	"github.com/brighttutor/brightdesk/storage/database"
	sqlxrepos "github.com/brighttutor/brightdesk/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:     db,
		usrSvc: user.NewService(conf, sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(conf, logger), validate),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("admin command failed", err)
		}
		os.Exit(1)
	}
}
