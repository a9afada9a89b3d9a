package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/school"
)

type (
	gradeRow struct {
		ID              int64  `db:"id"`
		Name            string `db:"name"`
		Level           string `db:"level"`
		IsActive        bool   `db:"is_active"`
		TuitionConfigID int64  `db:"tuition_config_id"`

		TCName          string `db:"tc_name"`
		TCEnrollmentFee int64  `db:"tc_enrollment_fee"`
		TCMonthlyFee    int64  `db:"tc_monthly_fee"`
		TCInstallments  int    `db:"tc_installments"`
	}

	classroomRow struct {
		ID       int64    `db:"id"`
		GradeID  int64    `db:"grade_id"`
		Section  string   `db:"section"`
		Capacity null.Int `db:"capacity"`
	}

	occupancyRow struct {
		classroomRow
		Occupancy int `db:"occupancy"`
	}
)

func (row gradeRow) unboil() school.Grade {
	return school.Grade{
		ID:              row.ID,
		Name:            row.Name,
		Level:           row.Level,
		IsActive:        row.IsActive,
		TuitionConfigID: row.TuitionConfigID,
		TuitionConfig: &school.TuitionConfig{
			ID:            row.TuitionConfigID,
			Name:          row.TCName,
			EnrollmentFee: row.TCEnrollmentFee,
			MonthlyFee:    row.TCMonthlyFee,
			Installments:  row.TCInstallments,
		},
	}
}

func (row classroomRow) unboil() school.Classroom {
	return school.Classroom{
		ID:       row.ID,
		GradeID:  row.GradeID,
		Section:  row.Section,
		Capacity: row.Capacity,
	}
}

const (
	gradeSelect = `SELECT g.id, g.name, g.level, g.is_active, g.tuition_config_id,
	t.name AS tc_name, t.enrollment_fee AS tc_enrollment_fee, t.monthly_fee AS tc_monthly_fee, t.installments AS tc_installments
FROM grades g
JOIN tuition_configs t ON t.id = g.tuition_config_id`

	classroomSelect = `SELECT id, grade_id, section, capacity FROM classrooms`
)

type schoolRepository struct {
	repo
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{repo{db: db}}
}

func (r schoolRepository) CreateTuitionConfig(ctx context.Context, tc school.TuitionConfig, exec ...core.DBExecutor) (school.TuitionConfig, error) {
	q := r.query(`INSERT INTO tuition_configs (name, enrollment_fee, monthly_fee, installments) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.get(ctx, exec, &tc.ID, q, tc.Name, tc.EnrollmentFee, tc.MonthlyFee, tc.Installments); err != nil {
		return school.TuitionConfig{}, errors.Wrap(err, "inserting tuition config")
	}
	return tc, nil
}

func (r schoolRepository) CreateGrade(ctx context.Context, grade school.Grade, exec ...core.DBExecutor) (school.Grade, error) {
	q := r.query(`INSERT INTO grades (name, level, is_active, tuition_config_id) VALUES (?, ?, ?, ?) RETURNING id`)
	if err := r.get(ctx, exec, &grade.ID, q, grade.Name, grade.Level, grade.IsActive, grade.TuitionConfigID); err != nil {
		return school.Grade{}, errors.Wrap(err, "inserting grade")
	}
	return grade, nil
}

func (r schoolRepository) GetGradeByID(ctx context.Context, id int64, exec ...core.DBExecutor) (school.Grade, error) {
	var row gradeRow
	if err := r.get(ctx, exec, &row, r.query(gradeSelect+` WHERE g.id = ?`), id); err != nil {
		return school.Grade{}, trapNoRowsErr(err, school.EntityGrade, id)
	}
	return row.unboil(), nil
}

func (r schoolRepository) QueryGrades(ctx context.Context, exec ...core.DBExecutor) ([]school.Grade, error) {
	var rows []gradeRow
	if err := r.sel(ctx, exec, &rows, r.query(gradeSelect+` ORDER BY g.id`)); err != nil {
		return nil, errors.Wrap(err, "selecting grades")
	}
	grades := make([]school.Grade, 0, len(rows))
	for _, row := range rows {
		grades = append(grades, row.unboil())
	}
	return grades, nil
}

func (r schoolRepository) CreateClassroom(ctx context.Context, classroom school.Classroom, exec ...core.DBExecutor) (school.Classroom, error) {
	q := r.query(`INSERT INTO classrooms (grade_id, section, capacity) VALUES (?, ?, ?) RETURNING id`)
	if err := r.get(ctx, exec, &classroom.ID, q, classroom.GradeID, classroom.Section, classroom.Capacity); err != nil {
		if isUniqueViolation(err) {
			return school.Classroom{}, core.NewValidationError(err, core.FieldError{
				Field: "section",
				Error: "this section already exists in the grade",
			})
		}
		return school.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return classroom, nil
}

func (r schoolRepository) GetClassroomByID(ctx context.Context, id int64, exec ...core.DBExecutor) (school.Classroom, error) {
	var row classroomRow
	if err := r.get(ctx, exec, &row, r.query(classroomSelect+` WHERE id = ?`), id); err != nil {
		return school.Classroom{}, trapNoRowsErr(err, school.EntityClassroom, id)
	}
	return row.unboil(), nil
}

func (r schoolRepository) LockClassroom(ctx context.Context, id int64, exec ...core.DBExecutor) (school.Classroom, error) {
	var row classroomRow
	if err := r.get(ctx, exec, &row, r.lockQuery(classroomSelect+` WHERE id = ?`), id); err != nil {
		return school.Classroom{}, trapNoRowsErr(err, school.EntityClassroom, id)
	}
	return row.unboil(), nil
}

func (r schoolRepository) LockGradeClassrooms(ctx context.Context, gradeID int64, exec ...core.DBExecutor) ([]school.Classroom, error) {
	var rows []classroomRow
	if err := r.sel(ctx, exec, &rows, r.lockQuery(classroomSelect+` WHERE grade_id = ? ORDER BY id`), gradeID); err != nil {
		return nil, errors.Wrap(err, "locking classrooms")
	}
	classrooms := make([]school.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, row.unboil())
	}
	return classrooms, nil
}

func (r schoolRepository) QueryClassroomOccupancy(ctx context.Context, gradeID int64, exec ...core.DBExecutor) ([]school.ClassroomAvailability, error) {
	q := r.query(`SELECT c.id, c.grade_id, c.section, c.capacity, COUNT(a.id) AS occupancy
FROM classrooms c
LEFT JOIN classroom_assignments a ON a.classroom_id = c.id AND a.state = 'active'
WHERE c.grade_id = ?
GROUP BY c.id, c.grade_id, c.section, c.capacity
ORDER BY c.id`)

	var rows []occupancyRow
	if err := r.sel(ctx, exec, &rows, q, gradeID); err != nil {
		return nil, errors.Wrap(err, "selecting classroom occupancy")
	}
	avail := make([]school.ClassroomAvailability, 0, len(rows))
	for _, row := range rows {
		avail = append(avail, school.NewClassroomAvailability(row.unboil(), row.Occupancy))
	}
	return avail, nil
}

func (r schoolRepository) CountActiveAssignments(ctx context.Context, classroomID int64, exec ...core.DBExecutor) (int, error) {
	var count int
	q := r.query(`SELECT COUNT(*) FROM classroom_assignments WHERE classroom_id = ? AND state = 'active'`)
	if err := r.get(ctx, exec, &count, q, classroomID); err != nil {
		return 0, errors.Wrap(err, "counting active assignments")
	}
	return count, nil
}
