package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/school"
	emailsvc "github.com/trezcool/enrollment/services/email"
	logsvc "github.com/trezcool/enrollment/services/logger"
	"github.com/trezcool/enrollment/storage/database"
	sqlxrepos "github.com/trezcool/enrollment/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	mig, err := database.NewMigrator(db)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up migrations: %v", err), err)
	}

	// set up services
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	validate := validator.New()
	core.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	core.ParseEmailTemplates(logger)

	schoolRepo := sqlxrepos.NewSchoolRepository(db)
	repos := enrollment.Repositories{
		Enrollment: sqlxrepos.NewEnrollmentRepository(db),
		School:     schoolRepo,
		Guardian:   sqlxrepos.NewGuardianRepository(db),
		Student:    sqlxrepos.NewStudentRepository(db),
	}

	// start CLI
	cli := commandLine{
		conf:          conf,
		in:            os.Stdin,
		out:           os.Stdout,
		migrator:      mig,
		schoolSvc:     school.NewService(db, schoolRepo, validate, translator),
		enrollmentSvc: enrollment.NewService(db, repos, emailsvc.NewService(conf, logger), validate, translator),
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}
