package enrollment

import (
	"context"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
)

const (
	Entity           = "enrollment"
	EntityAssignment = "classroom_assignment"
)

type (
	Repository interface {
		CreateEnrollment(ctx context.Context, e Enrollment, exec ...core.DBExecutor) (Enrollment, error)
		GetEnrollmentByID(ctx context.Context, id int64, exec ...core.DBExecutor) (Enrollment, error)

		CreateAssignment(ctx context.Context, a ClassroomAssignment, exec ...core.DBExecutor) (ClassroomAssignment, error)
		// GetAssignmentByEnrollment returns the assignment of an Enrollment, whatever its state.
		GetAssignmentByEnrollment(ctx context.Context, enrollmentID int64, exec ...core.DBExecutor) (ClassroomAssignment, error)
		// LockActiveAssignment returns the active assignment of an Enrollment and locks its row.
		LockActiveAssignment(ctx context.Context, enrollmentID int64, exec ...core.DBExecutor) (ClassroomAssignment, error)
		UpdateAssignment(ctx context.Context, a ClassroomAssignment, exec ...core.DBExecutor) (ClassroomAssignment, error)
	}

	// Repositories groups the repositories the orchestrator writes through in a single transaction.
	Repositories struct {
		Enrollment Repository
		School     school.Repository
		Guardian   guardian.Repository
		Student    student.Repository
	}

	Service interface {
		// Enroll resolves (or creates) the guardian & student, validates the grade, places the student
		// in a classroom and persists the enrollment, all or nothing.
		Enroll(ctx context.Context, ne NewEnrollment) (Detail, error)
		GetByID(ctx context.Context, id int64) (Detail, error)
		// Transfer moves the active assignment of an Enrollment to another classroom of the same grade.
		Transfer(ctx context.Context, enrollmentID int64, tr Transfer) (ClassroomAssignment, error)
		// Withdraw deactivates the assignment of an Enrollment.
		Withdraw(ctx context.Context, enrollmentID int64) (ClassroomAssignment, error)
	}

	service struct {
		db         core.DB
		repos      Repositories
		mailSvc    core.EmailService
		validate   *validator.Validate
		translator ut.Translator
	}
)

var _ Service = (*service)(nil)

func NewService(
	db core.DB,
	repos Repositories,
	mailSvc core.EmailService,
	validate *validator.Validate,
	translator ut.Translator,
) Service {
	return &service{
		db:         db,
		repos:      repos,
		mailSvc:    mailSvc,
		validate:   validate,
		translator: translator,
	}
}

func (svc *service) Enroll(ctx context.Context, ne NewEnrollment) (Detail, error) {
	ne.Clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, ne); err != nil {
		return Detail{}, err
	}

	var detail Detail
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		now := time.Now().UTC()

		if detail.Guardian, err = svc.resolveGuardian(ctx, ne.GuardianRef(), now, tx); err != nil {
			return err
		}
		if detail.Student, err = svc.resolveStudent(ctx, ne.StudentRef(), now, tx); err != nil {
			return err
		}

		detail.Grade, err = svc.repos.School.GetGradeByID(ctx, ne.GradeID, tx)
		if err != nil {
			return err
		}
		if !detail.Grade.IsActive {
			return core.NewNotFoundError(school.EntityGrade, ne.GradeID)
		}

		classroom, err := svc.selectClassroom(ctx, detail.Grade.ID, *ne.Placement, tx)
		if err != nil {
			return err
		}

		detail.Enrollment, err = svc.repos.Enrollment.CreateEnrollment(ctx, Enrollment{
			TuitionCost:    ne.TuitionCost,
			EnrollmentDate: ne.EnrollmentDate,
			PaymentMethod:  ne.PaymentMethod,
			GuardianID:     detail.Guardian.ID,
			StudentID:      detail.Student.ID,
			GradeID:        detail.Grade.ID,
			CreatedAt:      now,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating enrollment")
		}

		asgmt, err := svc.repos.Enrollment.CreateAssignment(ctx, ClassroomAssignment{
			EnrollmentID: detail.ID,
			ClassroomID:  classroom.ID,
			AssignedAt:   now,
			State:        StateActive,
			Mode:         ne.Placement.Mode,
			Reason:       null.NewString(ne.Placement.Reason, ne.Placement.Reason != ""),
			UpdatedAt:    now,
		}, tx)
		if err != nil {
			return errors.Wrap(err, "creating classroom assignment")
		}
		asgmt.Classroom = &classroom
		detail.Assignment = &asgmt
		return nil
	})
	if err != nil {
		return Detail{}, err
	}

	svc.sendConfirmation(detail)
	return detail, nil
}

func (svc *service) resolveGuardian(ctx context.Context, ref GuardianRef, now time.Time, tx core.DBExecutor) (guardian.Guardian, error) {
	switch ref.kind {
	case refByID:
		return svc.repos.Guardian.GetGuardianByID(ctx, ref.id, tx)
	case refInline:
		g, err := svc.repos.Guardian.GetGuardianByDocument(ctx, ref.data.DocumentType, ref.data.DocumentNumber, tx)
		if err == nil {
			return g, nil
		}
		if !core.IsNotFound(err) {
			return guardian.Guardian{}, errors.Wrap(err, "finding guardian by document")
		}
		g, err = svc.repos.Guardian.CreateGuardian(ctx, ref.data.Guardian(now), tx)
		return g, errors.Wrap(err, "creating guardian")
	default:
		return guardian.Guardian{}, core.NewValidationError(nil, core.FieldError{Field: "guardian", Error: guardianRefText})
	}
}

func (svc *service) resolveStudent(ctx context.Context, ref StudentRef, now time.Time, tx core.DBExecutor) (student.Student, error) {
	switch ref.kind {
	case refByID:
		return svc.repos.Student.GetStudentByID(ctx, ref.id, tx)
	case refInline:
		s, err := svc.repos.Student.GetStudentByDocument(ctx, ref.data.DocumentNumber, tx)
		if err == nil {
			return s, nil
		}
		if !core.IsNotFound(err) {
			return student.Student{}, errors.Wrap(err, "finding student by document")
		}
		s, err = svc.repos.Student.CreateStudent(ctx, ref.data.Student(now), tx)
		return s, errors.Wrap(err, "creating student")
	default:
		return student.Student{}, core.NewValidationError(nil, core.FieldError{Field: "student", Error: studentRefText})
	}
}

// selectClassroom locks the candidate classroom(s) before comparing occupancy with capacity,
// so concurrent placements into the same classroom are serialized.
func (svc *service) selectClassroom(ctx context.Context, gradeID int64, p Placement, tx core.DBExecutor) (school.Classroom, error) {
	switch p.Mode {
	case ModeManual:
		classroom, err := svc.repos.School.LockClassroom(ctx, p.ClassroomID, tx)
		if err != nil {
			if core.IsNotFound(err) {
				return school.Classroom{}, errClassroomNotInGrade(p.ClassroomID, gradeID)
			}
			return school.Classroom{}, errors.Wrap(err, "locking classroom")
		}
		if classroom.GradeID != gradeID {
			return school.Classroom{}, errClassroomNotInGrade(p.ClassroomID, gradeID)
		}
		if err = svc.checkCapacity(ctx, classroom, tx); err != nil {
			return school.Classroom{}, err
		}
		return classroom, nil

	case ModeAutomatic:
		classrooms, err := svc.repos.School.LockGradeClassrooms(ctx, gradeID, tx)
		if err != nil {
			return school.Classroom{}, errors.Wrap(err, "locking grade classrooms")
		}
		avail, err := svc.repos.School.QueryClassroomOccupancy(ctx, gradeID, tx)
		if err != nil {
			return school.Classroom{}, errors.Wrap(err, "querying classroom occupancy")
		}
		picked, ok := school.PickLeastLoaded(avail)
		if !ok {
			return school.Classroom{}, core.NewNoCapacityAvailableError(gradeID)
		}
		for _, c := range classrooms {
			if c.ID == picked.ClassroomID {
				return c, nil
			}
		}
		return school.Classroom{}, errors.Errorf("classroom %d not locked", picked.ClassroomID)

	default:
		return school.Classroom{}, core.NewValidationError(nil, core.FieldError{Field: "placement.mode", Error: "invalid placement mode"})
	}
}

// checkCapacity must run after the classroom row was locked.
func (svc *service) checkCapacity(ctx context.Context, classroom school.Classroom, tx core.DBExecutor) error {
	if !classroom.Capacity.Valid {
		return nil
	}
	occupancy, err := svc.repos.School.CountActiveAssignments(ctx, classroom.ID, tx)
	if err != nil {
		return errors.Wrap(err, "counting active assignments")
	}
	if !classroom.HasRoomFor(occupancy) {
		return core.NewCapacityExceededError(classroom.ID, int64(classroom.Capacity.Int), int64(occupancy))
	}
	return nil
}

func errClassroomNotInGrade(classroomID, gradeID int64) error {
	return core.NewValidationError(
		errors.Errorf("classroom %d does not belong to grade %d", classroomID, gradeID),
		core.FieldError{Field: "placement.classroom_id", Error: "classroom does not belong to the requested grade"},
	)
}

func (svc *service) GetByID(ctx context.Context, id int64) (Detail, error) {
	var (
		detail Detail
		err    error
	)
	if detail.Enrollment, err = svc.repos.Enrollment.GetEnrollmentByID(ctx, id); err != nil {
		return Detail{}, err
	}
	if detail.Guardian, err = svc.repos.Guardian.GetGuardianByID(ctx, detail.GuardianID); err != nil {
		return Detail{}, errors.Wrap(err, "getting guardian")
	}
	if detail.Student, err = svc.repos.Student.GetStudentByID(ctx, detail.StudentID); err != nil {
		return Detail{}, errors.Wrap(err, "getting student")
	}
	if detail.Grade, err = svc.repos.School.GetGradeByID(ctx, detail.GradeID); err != nil {
		return Detail{}, errors.Wrap(err, "getting grade")
	}

	asgmt, err := svc.repos.Enrollment.GetAssignmentByEnrollment(ctx, id)
	switch {
	case err == nil:
		classroom, err := svc.repos.School.GetClassroomByID(ctx, asgmt.ClassroomID)
		if err != nil {
			return Detail{}, errors.Wrap(err, "getting classroom")
		}
		asgmt.Classroom = &classroom
		detail.Assignment = &asgmt
	case !core.IsNotFound(err):
		return Detail{}, errors.Wrap(err, "getting classroom assignment")
	}
	return detail, nil
}
