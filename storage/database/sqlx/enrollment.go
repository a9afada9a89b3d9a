package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
)

type (
	enrollmentRow struct {
		ID             int64     `db:"id"`
		GuardianID     int64     `db:"guardian_id"`
		StudentID      int64     `db:"student_id"`
		GradeID        int64     `db:"grade_id"`
		TuitionCost    int64     `db:"tuition_cost"`
		EnrollmentDate core.Date `db:"enrollment_date"`
		PaymentMethod  string    `db:"payment_method"`
		CreatedAt      time.Time `db:"created_at"`
	}

	assignmentRow struct {
		ID           int64       `db:"id"`
		EnrollmentID int64       `db:"enrollment_id"`
		ClassroomID  int64       `db:"classroom_id"`
		AssignedAt   time.Time   `db:"assigned_at"`
		State        string      `db:"state"`
		Mode         string      `db:"mode"`
		Reason       null.String `db:"reason"`
		UpdatedAt    time.Time   `db:"updated_at"`
	}
)

func (row enrollmentRow) unboil() enrollment.Enrollment {
	return enrollment.Enrollment{
		ID:             row.ID,
		TuitionCost:    row.TuitionCost,
		EnrollmentDate: row.EnrollmentDate,
		PaymentMethod:  row.PaymentMethod,
		GuardianID:     row.GuardianID,
		StudentID:      row.StudentID,
		GradeID:        row.GradeID,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

func (row assignmentRow) unboil() enrollment.ClassroomAssignment {
	return enrollment.ClassroomAssignment{
		ID:           row.ID,
		EnrollmentID: row.EnrollmentID,
		ClassroomID:  row.ClassroomID,
		AssignedAt:   row.AssignedAt.UTC(),
		State:        row.State,
		Mode:         row.Mode,
		Reason:       row.Reason,
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
}

const assignmentSelect = `SELECT id, enrollment_id, classroom_id, assigned_at, state, mode, reason, updated_at
FROM classroom_assignments`

type enrollmentRepository struct {
	repo
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{repo{db: db}}
}

func (r enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	q := r.query(`INSERT INTO enrollments
	(guardian_id, student_id, grade_id, tuition_cost, enrollment_date, payment_method, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`)

	err := r.get(ctx, exec, &e.ID, q,
		e.GuardianID, e.StudentID, e.GradeID, e.TuitionCost, e.EnrollmentDate, e.PaymentMethod, e.CreatedAt.UTC(),
	)
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (r enrollmentRepository) GetEnrollmentByID(ctx context.Context, id int64, exec ...core.DBExecutor) (enrollment.Enrollment, error) {
	var row enrollmentRow
	q := r.query(`SELECT id, guardian_id, student_id, grade_id, tuition_cost, enrollment_date, payment_method, created_at
FROM enrollments
WHERE id = ?`)
	if err := r.get(ctx, exec, &row, q, id); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.Entity, id)
	}
	return row.unboil(), nil
}

func (r enrollmentRepository) CreateAssignment(ctx context.Context, a enrollment.ClassroomAssignment, exec ...core.DBExecutor) (enrollment.ClassroomAssignment, error) {
	q := r.query(`INSERT INTO classroom_assignments
	(enrollment_id, classroom_id, assigned_at, state, mode, reason, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING id`)

	err := r.get(ctx, exec, &a.ID, q,
		a.EnrollmentID, a.ClassroomID, a.AssignedAt.UTC(), a.State, a.Mode, a.Reason, a.UpdatedAt.UTC(),
	)
	if err != nil {
		return enrollment.ClassroomAssignment{}, errors.Wrap(err, "inserting classroom assignment")
	}
	return a, nil
}

func (r enrollmentRepository) GetAssignmentByEnrollment(ctx context.Context, enrollmentID int64, exec ...core.DBExecutor) (enrollment.ClassroomAssignment, error) {
	var row assignmentRow
	if err := r.get(ctx, exec, &row, r.query(assignmentSelect+` WHERE enrollment_id = ?`), enrollmentID); err != nil {
		return enrollment.ClassroomAssignment{}, trapNoRowsErr(err, enrollment.EntityAssignment, enrollmentID)
	}
	return row.unboil(), nil
}

func (r enrollmentRepository) LockActiveAssignment(ctx context.Context, enrollmentID int64, exec ...core.DBExecutor) (enrollment.ClassroomAssignment, error) {
	var row assignmentRow
	q := r.lockQuery(assignmentSelect + ` WHERE enrollment_id = ? AND state = 'active'`)
	if err := r.get(ctx, exec, &row, q, enrollmentID); err != nil {
		return enrollment.ClassroomAssignment{}, trapNoRowsErr(err, enrollment.EntityAssignment, enrollmentID)
	}
	return row.unboil(), nil
}

func (r enrollmentRepository) UpdateAssignment(ctx context.Context, a enrollment.ClassroomAssignment, exec ...core.DBExecutor) (enrollment.ClassroomAssignment, error) {
	q := r.query(`UPDATE classroom_assignments
SET classroom_id = ?, assigned_at = ?, state = ?, mode = ?, reason = ?, updated_at = ?
WHERE id = ?`)

	res, err := r.exec(ctx, exec, q, a.ClassroomID, a.AssignedAt.UTC(), a.State, a.Mode, a.Reason, a.UpdatedAt.UTC(), a.ID)
	if err != nil {
		return enrollment.ClassroomAssignment{}, errors.Wrap(err, "updating classroom assignment")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return enrollment.ClassroomAssignment{}, core.NewNotFoundError(enrollment.EntityAssignment, a.ID)
	}
	return a, nil
}
