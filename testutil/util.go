package testutil

import (
	"context"
	"io/ioutil"
	"log"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
	logsvc "github.com/trezcool/enrollment/services/logger"
	"github.com/trezcool/enrollment/storage/database"
)

// NewConfig returns a test Config backed by a fresh sqlite3 database file.
func NewConfig(t *testing.T) *core.Config {
	return &core.Config{
		Env:       "TEST",
		Build:     "test",
		TestMode:  true,
		AppName:   "Enrollment",
		SecretKey: "test-secret",
		Server: core.ServerConfig{
			ShutdownTimeout:    5 * time.Second,
			JWTExpirationDelta: time.Hour,
		},
		Database: core.DatabaseConfig{
			Engine: core.EngineSQLite,
			Path:   filepath.Join(t.TempDir(), "enrollment.db"),
		},
	}
}

// NewLogger returns a silent core.Logger.
func NewLogger(conf *core.Config) core.Logger {
	return logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
}

// PrepareDB opens and migrates the database of conf; it is closed at the end of the test.
func PrepareDB(t *testing.T, conf ...*core.Config) *sqlx.DB {
	var c *core.Config
	if len(conf) > 0 {
		c = conf[0]
	} else {
		c = NewConfig(t)
	}

	db, err := database.Open(c)
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(db); err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	return db
}

// NewValidator returns a validator and translator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")

	validate := validator.New()
	core.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	return validate, translator
}

func CreateGrade(t *testing.T, repo school.Repository, name string, monthlyFee int64) school.Grade {
	ctx := context.Background()
	tc, err := repo.CreateTuitionConfig(ctx, school.TuitionConfig{
		Name:          name,
		EnrollmentFee: monthlyFee,
		MonthlyFee:    monthlyFee,
		Installments:  10,
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	grade, err := repo.CreateGrade(ctx, school.Grade{
		Name:            name,
		IsActive:        true,
		TuitionConfigID: tc.ID,
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	grade.TuitionConfig = &tc
	return grade
}

// CreateClassroom creates a Classroom; a negative capacity means unbounded.
func CreateClassroom(t *testing.T, repo school.Repository, gradeID int64, section string, capacity int) school.Classroom {
	c := school.Classroom{GradeID: gradeID, Section: section}
	if capacity >= 0 {
		c.Capacity = null.IntFrom(capacity)
	}
	c, err := repo.CreateClassroom(context.Background(), c)
	if err != nil {
		t.Fatalf("CreateClassroom() failed: %v", err)
	}
	return c
}

func NewGuardian(docNumber, email string) guardian.NewGuardian {
	return guardian.NewGuardian{
		FirstName:      "Jane",
		LastName:       "Doe",
		DocumentType:   core.DocNationalID,
		DocumentNumber: docNumber,
		Phone:          "+243 810 000 000",
		Email:          email,
		IsPrincipal:    true,
		Relationship:   "mother",
	}
}

func CreateGuardian(t *testing.T, repo guardian.Repository, docNumber, email string) guardian.Guardian {
	g, err := repo.CreateGuardian(context.Background(), NewGuardian(docNumber, email).Guardian(time.Now().UTC()))
	if err != nil {
		t.Fatalf("CreateGuardian() failed: %v", err)
	}
	return g
}

func NewStudent(docNumber string, contacts ...student.NewEmergencyContact) student.NewStudent {
	birth := core.NewDate(time.Date(2015, time.March, 14, 0, 0, 0, 0, time.UTC))
	return student.NewStudent{
		FirstName:         "Tom",
		LastName:          "Doe",
		DocumentType:      core.DocNationalID,
		DocumentNumber:    docNumber,
		BirthDate:         &birth,
		EmergencyContacts: contacts,
	}
}

func CreateStudent(t *testing.T, repo student.Repository, docNumber string) student.Student {
	s, err := repo.CreateStudent(context.Background(), NewStudent(docNumber).Student(time.Now().UTC()))
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return s
}

// Enroll enrolls an existing Student with automatic placement.
func Enroll(t *testing.T, svc enrollment.Service, gradeID, guardianID, studentID int64) enrollment.Detail {
	d, err := svc.Enroll(context.Background(), enrollment.NewEnrollment{
		TuitionCost:   1000,
		PaymentMethod: enrollment.PayCash,
		GradeID:       gradeID,
		GuardianID:    guardianID,
		StudentID:     studentID,
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return d
}
