package enrollment

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
)

func (svc *service) Transfer(ctx context.Context, enrollmentID int64, tr Transfer) (ClassroomAssignment, error) {
	tr.Clean()
	if err := core.ValidateStruct(svc.validate, svc.translator, tr); err != nil {
		return ClassroomAssignment{}, err
	}

	var asgmt ClassroomAssignment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		asgmt, err = svc.repos.Enrollment.LockActiveAssignment(ctx, enrollmentID, tx)
		if err != nil {
			return err
		}
		if asgmt.ClassroomID == tr.ClassroomID {
			return core.NewValidationError(
				errors.Errorf("enrollment %d is already in classroom %d", enrollmentID, tr.ClassroomID),
				core.FieldError{Field: "classroom_id", Error: "the student is already assigned to this classroom"},
			)
		}

		target, err := svc.repos.School.LockClassroom(ctx, tr.ClassroomID, tx)
		if err != nil {
			return err
		}
		enrl, err := svc.repos.Enrollment.GetEnrollmentByID(ctx, enrollmentID, tx)
		if err != nil {
			return errors.Wrap(err, "getting enrollment")
		}
		if target.GradeID != enrl.GradeID {
			return core.NewValidationError(
				errors.Errorf("classroom %d is not in grade %d", target.ID, enrl.GradeID),
				core.FieldError{Field: "classroom_id", Error: "cannot transfer to a classroom of another grade"},
			)
		}
		if err = svc.checkCapacity(ctx, target, tx); err != nil {
			return err
		}

		now := time.Now().UTC()
		asgmt.ClassroomID = target.ID
		asgmt.AssignedAt = now
		asgmt.Mode = ModeManual
		asgmt.Reason = null.NewString(tr.Reason, tr.Reason != "")
		asgmt.UpdatedAt = now
		if asgmt, err = svc.repos.Enrollment.UpdateAssignment(ctx, asgmt, tx); err != nil {
			return errors.Wrap(err, "updating classroom assignment")
		}
		asgmt.Classroom = &target
		return nil
	})
	if err != nil {
		return ClassroomAssignment{}, err
	}
	return asgmt, nil
}

func (svc *service) Withdraw(ctx context.Context, enrollmentID int64) (ClassroomAssignment, error) {
	var asgmt ClassroomAssignment
	err := core.RunInTx(ctx, svc.db, func(tx core.DBExecutor) error {
		var err error
		asgmt, err = svc.repos.Enrollment.LockActiveAssignment(ctx, enrollmentID, tx)
		if err != nil {
			return err
		}

		asgmt.State = StateWithdrawn
		asgmt.UpdatedAt = time.Now().UTC()
		if asgmt, err = svc.repos.Enrollment.UpdateAssignment(ctx, asgmt, tx); err != nil {
			return errors.Wrap(err, "updating classroom assignment")
		}

		classroom, err := svc.repos.School.GetClassroomByID(ctx, asgmt.ClassroomID, tx)
		if err != nil {
			return errors.Wrap(err, "getting classroom")
		}
		asgmt.Classroom = &classroom
		return nil
	})
	if err != nil {
		return ClassroomAssignment{}, err
	}
	return asgmt, nil
}
