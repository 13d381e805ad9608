package dig_container

import (
	"fmt"
	"log"
	"os"
	"sync"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/brighttutor/brightdesk/apps/api/echo"
	"github.com/brighttutor/brightdesk/core"
	"github.com/brighttutor/brightdesk/core/country"
	"github.com/brighttutor/brightdesk/core/registration"
	"github.com/brighttutor/brightdesk/core/task"
	"github.com/brighttutor/brightdesk/core/user"
	countriessvc "github.com/brighttutor/brightdesk/services/countries"
	emailsvc "github.com/brighttutor/brightdesk/services/email"
	logsvc "github.com/brighttutor/brightdesk/services/logger"
	"github.com/brighttutor/brightdesk/storage/database"
	inmemdb "github.com/brighttutor/brightdesk/storage/database/inmem"
	"github.com/brighttutor/brightdesk/storage/database/pgnotify"
	sqlxrepos "github.com/brighttutor/brightdesk/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Cleanup releases the storage resources. It is run once the server stopped.
type Cleanup func()

// NotifierCloser ends the task subscriptions so that open streams return
// while the server shuts down. It may be called more than once.
type NotifierCloser func()

type Storage struct {
	dig.Out
	Users         user.Repository
	Tasks         task.Repository
	Notifier      task.Notifier
	CloseNotifier NotifierCloser
	Cleanup       Cleanup
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	logger := loggerParam.Logger

	if conf.Database.InMemory {
		db := inmemdb.Open()
		hub := task.NewHub()
		return Storage{
			Users:         inmemdb.NewUserRepository(db),
			Tasks:         inmemdb.NewTaskRepository(db),
			Notifier:      hub,
			CloseNotifier: hub.Close,
			Cleanup:       hub.Close,
		}
	}

	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}

	// task changes travel through postgres so that every API instance hears them
	notifier, err := pgnotify.New(db, database.DSN(conf.Database.Name, false, conf), task.NewHub(), logger)
	if err != nil {
		logger.Fatal(fmt.Sprintf("listening to task changes: %v", err), err)
	}

	var once sync.Once
	closeNotifier := func() {
		once.Do(func() {
			if err := notifier.Close(); err != nil {
				logger.Error("closing notifier", err)
			}
		})
	}

	return Storage{
		Users:         sqlxrepos.NewUserRepository(db),
		Tasks:         sqlxrepos.NewTaskRepository(db),
		Notifier:      notifier,
		CloseNotifier: closeNotifier,
		Cleanup: func() {
			closeNotifier()
			if err := db.Close(); err != nil {
				logger.Error("closing database", err)
			}
		},
	}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newCountryDirectory(conf *core.Config, logger core.Logger) *country.Directory {
	return country.NewDirectory(countriessvc.NewClient(conf), conf.Countries.RetryBackoff, logger)
}

func newRegistrationStore(conf *core.Config) *registration.Store {
	return registration.NewStore(conf.Registration.DraftTTL)
}

func newServerDeps(
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	usrSvc user.ServiceInterface,
	taskSvc task.ServiceInterface,
	regSvc *registration.Service,
	dir *country.Directory,
) echoapi.ServerDeps {
	return echoapi.ServerDeps{
		Logger:          logger,
		Validate:        validate,
		Translator:      translator,
		UserSvc:         usrSvc,
		TaskSvc:         taskSvc,
		RegistrationSvc: regSvc,
		Countries:       dir,
	}
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStorage))
	must(c.Provide(newEmailService))
	must(c.Provide(validator.New))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newCountryDirectory))
	must(c.Provide(newRegistrationStore))
	must(c.Provide(registration.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(task.NewService))
	must(c.Provide(newServerDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
