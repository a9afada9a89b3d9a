package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/student"
)

type (
	studentRow struct {
		ID             int64       `db:"id"`
		FirstName      string      `db:"first_name"`
		LastName       string      `db:"last_name"`
		DocumentType   string      `db:"document_type"`
		DocumentNumber string      `db:"document_number"`
		BirthDate      *core.Date  `db:"birth_date"`
		Notes          null.String `db:"notes"`
		CreatedAt      time.Time   `db:"created_at"`
	}

	emergencyContactRow struct {
		ID           int64  `db:"id"`
		StudentID    int64  `db:"student_id"`
		Name         string `db:"name"`
		Phone        string `db:"phone"`
		Relationship string `db:"relationship"`
		Priority     int    `db:"priority"`
		IsPrincipal  bool   `db:"is_principal"`
	}
)

func (row studentRow) unboil(contacts []emergencyContactRow) student.Student {
	stdt := student.Student{
		ID:                row.ID,
		FirstName:         row.FirstName,
		LastName:          row.LastName,
		DocumentType:      row.DocumentType,
		DocumentNumber:    row.DocumentNumber,
		BirthDate:         row.BirthDate,
		Notes:             row.Notes,
		CreatedAt:         row.CreatedAt.UTC(),
		EmergencyContacts: make([]student.EmergencyContact, 0, len(contacts)),
	}
	if stdt.BirthDate != nil && stdt.BirthDate.IsZero() {
		stdt.BirthDate = nil
	}
	for _, c := range contacts {
		stdt.EmergencyContacts = append(stdt.EmergencyContacts, student.EmergencyContact{
			ID:           c.ID,
			StudentID:    c.StudentID,
			Name:         c.Name,
			Phone:        c.Phone,
			Relationship: c.Relationship,
			Priority:     c.Priority,
			IsPrincipal:  c.IsPrincipal,
		})
	}
	return stdt
}

const studentSelect = `SELECT id, first_name, last_name, document_type, document_number, birth_date, notes, created_at
FROM students`

type studentRepository struct {
	repo
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *sqlx.DB) *studentRepository {
	return &studentRepository{repo{db: db}}
}

func (r studentRepository) contacts(ctx context.Context, studentID int64, exec []core.DBExecutor) ([]emergencyContactRow, error) {
	var rows []emergencyContactRow
	q := r.query(`SELECT id, student_id, name, phone, relationship, priority, is_principal
FROM emergency_contacts
WHERE student_id = ?
ORDER BY priority, id`)
	if err := r.sel(ctx, exec, &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "selecting emergency contacts")
	}
	return rows, nil
}

func (r studentRepository) getStudent(ctx context.Context, exec []core.DBExecutor, id interface{}, where string, args ...interface{}) (student.Student, error) {
	var row studentRow
	if err := r.get(ctx, exec, &row, r.query(studentSelect+where), args...); err != nil {
		return student.Student{}, trapNoRowsErr(err, student.Entity, id)
	}
	contacts, err := r.contacts(ctx, row.ID, exec)
	if err != nil {
		return student.Student{}, err
	}
	return row.unboil(contacts), nil
}

func (r studentRepository) GetStudentByID(ctx context.Context, id int64, exec ...core.DBExecutor) (student.Student, error) {
	return r.getStudent(ctx, exec, id, ` WHERE id = ?`, id)
}

func (r studentRepository) GetStudentByDocument(ctx context.Context, docNumber string, exec ...core.DBExecutor) (student.Student, error) {
	return r.getStudent(ctx, exec, docNumber, ` WHERE document_number = ?`, docNumber)
}

func (r studentRepository) CreateStudent(ctx context.Context, s student.Student, exec ...core.DBExecutor) (student.Student, error) {
	q := r.query(`INSERT INTO students (first_name, last_name, document_type, document_number, birth_date, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (document_number) DO NOTHING
RETURNING id`)

	var birthDate interface{}
	if s.BirthDate != nil && !s.BirthDate.IsZero() {
		birthDate = *s.BirthDate
	}
	err := r.get(ctx, exec, &s.ID, q,
		s.FirstName, s.LastName, s.DocumentType, s.DocumentNumber, birthDate, s.Notes, s.CreatedAt.UTC(),
	)
	if errors.Is(err, sql.ErrNoRows) {
		// already registered
		return r.GetStudentByDocument(ctx, s.DocumentNumber, exec...)
	}
	if err != nil {
		return student.Student{}, errors.Wrap(err, "inserting student")
	}

	cq := r.query(`INSERT INTO emergency_contacts (student_id, name, phone, relationship, priority, is_principal)
VALUES (?, ?, ?, ?, ?, ?)
RETURNING id`)
	for i := range s.EmergencyContacts {
		ec := &s.EmergencyContacts[i]
		ec.StudentID = s.ID
		if err = r.get(ctx, exec, &ec.ID, cq, ec.StudentID, ec.Name, ec.Phone, ec.Relationship, ec.Priority, ec.IsPrincipal); err != nil {
			return student.Student{}, errors.Wrap(err, "inserting emergency contact")
		}
	}
	if s.EmergencyContacts == nil {
		s.EmergencyContacts = []student.EmergencyContact{}
	}
	return s, nil
}
