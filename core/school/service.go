package school

import (
	"context"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/enrollment/core"
)

const (
	EntityGrade     = "grade"
	EntityClassroom = "classroom"
)

type (
	Repository interface {
		CreateTuitionConfig(ctx context.Context, tc TuitionConfig, exec ...core.DBExecutor) (TuitionConfig, error)
		CreateGrade(ctx context.Context, grade Grade, exec ...core.DBExecutor) (Grade, error)
		// GetGradeByID returns the Grade with its TuitionConfig.
		GetGradeByID(ctx context.Context, id int64, exec ...core.DBExecutor) (Grade, error)
		QueryGrades(ctx context.Context, exec ...core.DBExecutor) ([]Grade, error)

		CreateClassroom(ctx context.Context, classroom Classroom, exec ...core.DBExecutor) (Classroom, error)
		GetClassroomByID(ctx context.Context, id int64, exec ...core.DBExecutor) (Classroom, error)
		// LockClassroom loads a Classroom and locks its row until the end of the transaction.
		LockClassroom(ctx context.Context, id int64, exec ...core.DBExecutor) (Classroom, error)
		// LockGradeClassrooms locks every Classroom of a Grade, in id order.
		LockGradeClassrooms(ctx context.Context, gradeID int64, exec ...core.DBExecutor) ([]Classroom, error)
		// QueryClassroomOccupancy returns every Classroom of a Grade with its count of active assignments.
		QueryClassroomOccupancy(ctx context.Context, gradeID int64, exec ...core.DBExecutor) ([]ClassroomAvailability, error)
		CountActiveAssignments(ctx context.Context, classroomID int64, exec ...core.DBExecutor) (int, error)
	}

	Service interface {
		AddGrade(ctx context.Context, ng NewGrade) (Grade, error)
		AddClassroom(ctx context.Context, nc NewClassroom) (Classroom, error)
		GetGrade(ctx context.Context, id int64) (Grade, error)
		QueryGrades(ctx context.Context) ([]Grade, error)
		// ListAvailableClassrooms returns the classrooms of a Grade in load-balancing order.
		ListAvailableClassrooms(ctx context.Context, gradeID int64) ([]ClassroomAvailability, error)
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
	return &service{
		db:         db,
		repo:       repo,
		validate:   validate,
		translator: translator,
	}
}

func (svc *service) AddGrade(ctx context.Context, ng NewGrade) (Grade, error) {
	ng.Clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, ng); err != nil {
		return Grade{}, err
	}

	var grade Grade
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		tc, err := svc.repo.CreateTuitionConfig(ctx, TuitionConfig{
			Name:          ng.TuitionName,
			EnrollmentFee: ng.EnrollmentFee,
			MonthlyFee:    ng.MonthlyFee,
			Installments:  ng.Installments,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating tuition config")
		}

		grade, err = svc.repo.CreateGrade(ctx, Grade{
			Name:            ng.Name,
			Level:           ng.Level,
			IsActive:        true,
			TuitionConfigID: tc.ID,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating grade")
		}
		grade.TuitionConfig = &tc
		return nil
	})
	return grade, err
}

func (svc *service) AddClassroom(ctx context.Context, nc NewClassroom) (Classroom, error) {
	nc.Clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, nc); err != nil {
		return Classroom{}, err
	}
	if nc.Capacity.Valid && nc.Capacity.Int < 0 {
		return Classroom{}, core.NewValidationError(nil, core.FieldError{Field: "capacity", Error: "capacity cannot be negative"})
	}
	if _, err := svc.repo.GetGradeByID(ctx, nc.GradeID); err != nil {
		return Classroom{}, err
	}
	return svc.repo.CreateClassroom(ctx, Classroom{
		GradeID:  nc.GradeID,
		Section:  nc.Section,
		Capacity: nc.Capacity,
	})
}

func (svc *service) GetGrade(ctx context.Context, id int64) (Grade, error) {
	return svc.repo.GetGradeByID(ctx, id)
}

func (svc *service) QueryGrades(ctx context.Context) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx)
}

func (svc *service) ListAvailableClassrooms(ctx context.Context, gradeID int64) ([]ClassroomAvailability, error) {
	if _, err := svc.repo.GetGradeByID(ctx, gradeID); err != nil {
		return nil, err
	}
	avail, err := svc.repo.QueryClassroomOccupancy(ctx, gradeID)
	if err != nil {
		return nil, errors.Wrap(err, "querying classroom occupancy")
	}
	RankByLoad(avail)
	return avail, nil
}
