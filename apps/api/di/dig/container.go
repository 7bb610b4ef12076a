package dig_container

import (
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/schoolcal/apps/api/echo"
	"github.com/trezcool/schoolcal/core"
	"github.com/trezcool/schoolcal/core/invite"
	"github.com/trezcool/schoolcal/core/notification"
	"github.com/trezcool/schoolcal/core/user"
	"github.com/trezcool/schoolcal/core/workspace"
	emailsvc "github.com/trezcool/schoolcal/services/email"
	logsvc "github.com/trezcool/schoolcal/services/logger"
	"github.com/trezcool/schoolcal/storage/database"
	dummydb "github.com/trezcool/schoolcal/storage/database/dummy"
	pgrepos "github.com/trezcool/schoolcal/storage/database/postgres"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

// Storage is the backend every service runs on: PostgreSQL, or memory.
type Storage struct {
	DB          core.Pinger
	Stores      invite.Stores
	WorkspaceTx workspace.TxRunner
	InviteTx    invite.TxRunner
	Close       func() error
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStorage(conf *core.Config, loggerParam DBLoggerParam) Storage {
	if conf.Storage == "memory" {
		loggerParam.Logger.Warn("using in-memory storage, data will not survive a restart")
		db := dummydb.Open()
		return Storage{DB: db, Stores: db.Stores(), WorkspaceTx: db.WorkspaceTx(), InviteTx: db.InviteTx(), Close: db.Close}
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	sqlDB, err := database.Open(conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	if err = database.Migrate(sqlDB); err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	db := pgrepos.New(sqlDB)
	return Storage{DB: db, Stores: db.Stores(), WorkspaceTx: db.WorkspaceTx(), InviteTx: db.InviteTx(), Close: sqlDB.Close}
}

func newEmailService(conf *core.Config, logger core.Logger) core.EmailService {
	if conf.Debug {
		return emailsvc.NewConsoleService(conf, logger)
	}
	return emailsvc.NewSendgridService(conf, logger)
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate
}

func newUserService(st Storage) *user.Service {
	return user.NewService(st.Stores.Users())
}

func newWorkspaceService(st Storage) *workspace.Service {
	return workspace.NewService(st.Stores.Workspaces(), st.WorkspaceTx)
}

func newInviteService(st Storage, mailSvc core.EmailService, conf *core.Config) *invite.Service {
	return invite.NewService(st.Stores, st.InviteTx, mailSvc, conf)
}

func newNotificationService(st Storage) *notification.Service {
	return notification.NewService(st.Stores.Notifications())
}

type depsParam struct {
	dig.In

	Conf            *core.Config
	Logger          core.Logger
	Storage         Storage
	Validate        *validator.Validate
	Translator      ut.Translator
	UserSvc         *user.Service
	WorkspaceSvc    *workspace.Service
	InviteSvc       *invite.Service
	NotificationSvc *notification.Service
}

func newDeps(p depsParam) *echoapi.Deps {
	return &echoapi.Deps{
		Conf:            p.Conf,
		Logger:          p.Logger,
		DB:              p.Storage.DB,
		Validate:        p.Validate,
		Translator:      p.Translator,
		UserSvc:         p.UserSvc,
		WorkspaceSvc:    p.WorkspaceSvc,
		InviteSvc:       p.InviteSvc,
		NotificationSvc: p.NotificationSvc,
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
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(newUserService))
	must(c.Provide(newWorkspaceService))
	must(c.Provide(newInviteService))
	must(c.Provide(newNotificationService))
	must(c.Provide(newDeps))
	must(c.Provide(echoapi.NewServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
