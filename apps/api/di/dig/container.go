package dig_container

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/enrollment/apps/api/echo"
	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
	emailsvc "github.com/trezcool/enrollment/services/email"
	logsvc "github.com/trezcool/enrollment/services/logger"
	"github.com/trezcool/enrollment/storage/database"
	sqlxrepos "github.com/trezcool/enrollment/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In
	Conf          *core.Config
	Logger        core.Logger
	SchoolSvc     school.Service
	GuardianSvc   guardian.Service
	StudentSvc    student.Service
	EnrollmentSvc enrollment.Service
}

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) (*sqlx.DB, core.DB) {
	setUp := func() (*sqlx.DB, error) {
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

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db, db
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func newEnrollmentRepositories(
	enrl enrollment.Repository,
	schl school.Repository,
	grdn guardian.Repository,
	stdt student.Repository,
) enrollment.Repositories {
	return enrollment.Repositories{Enrollment: enrl, School: schl, Guardian: grdn, Student: stdt}
}

func newServer(p serverParams) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		SchoolSvc:     p.SchoolSvc,
		GuardianSvc:   p.GuardianSvc,
		StudentSvc:    p.StudentSvc,
		EnrollmentSvc: p.EnrollmentSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(validator.New))
	must(c.Provide(newTranslator))

	must(c.Provide(sqlxrepos.NewSchoolRepository, dig.As(new(school.Repository))))
	must(c.Provide(sqlxrepos.NewGuardianRepository, dig.As(new(guardian.Repository))))
	must(c.Provide(sqlxrepos.NewStudentRepository, dig.As(new(student.Repository))))
	must(c.Provide(sqlxrepos.NewEnrollmentRepository, dig.As(new(enrollment.Repository))))
	must(c.Provide(newEnrollmentRepositories))

	must(c.Provide(school.NewService))
	must(c.Provide(guardian.NewService))
	must(c.Provide(student.NewService))
	must(c.Provide(enrollment.NewService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
