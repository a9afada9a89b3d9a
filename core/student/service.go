package student

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/enrollment/core"
)

const Entity = "student"

type (
	Repository interface {
		// GetStudentByID returns the Student with its EmergencyContacts, ordered by priority.
		GetStudentByID(ctx context.Context, id int64, exec ...core.DBExecutor) (Student, error)
		GetStudentByDocument(ctx context.Context, docNumber string, exec ...core.DBExecutor) (Student, error)
		// CreateStudent inserts a Student along with its EmergencyContacts.
		// If a Student with the same document number exists, it is returned untouched.
		CreateStudent(ctx context.Context, s Student, exec ...core.DBExecutor) (Student, error)
	}

	Service interface {
		GetByID(ctx context.Context, id int64) (Student, error)
		FindByDocument(ctx context.Context, docNumber string) (Student, error)
		Create(ctx context.Context, ns NewStudent) (Student, error)
	}

	service struct {
		db         core.DB
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
	}
)

var _ Service = (*service)(nil)

func NewService(db core.DB, repo Repository, validate *validator.Validate, translator ut.Translator) Service {
	return &service{db: db, repo: repo, validate: validate, translator: translator}
}

func (svc *service) GetByID(ctx context.Context, id int64) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) FindByDocument(ctx context.Context, docNumber string) (Student, error) {
	return svc.repo.GetStudentByDocument(ctx, core.CleanString(docNumber))
}

func (svc *service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	ns.Clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, ns); err != nil {
		return Student{}, err
	}

	// student & contacts are written together
	var stdt Student
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		stdt, err = svc.repo.CreateStudent(ctx, ns.Student(time.Now().UTC()), tx)
		return err
	})
	return stdt, err
}
