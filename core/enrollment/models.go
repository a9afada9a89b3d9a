package enrollment

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
)

// Assignment states
const (
	StateActive    = "active"
	StateWithdrawn = "withdrawn"
)

// Placement modes
const (
	ModeAutomatic = "automatic"
	ModeManual    = "manual"
)

// Payment methods
const (
	PayCash         = "cash"
	PayCard         = "card"
	PayBankTransfer = "bank_transfer"
)

var PaymentMethods = []string{PayCash, PayCard, PayBankTransfer}

// Enrollment ties a Student, its Guardian and a Grade together for a school period.
type Enrollment struct {
	ID             int64     `json:"id"`
	TuitionCost    int64     `json:"tuition_cost"` // minor currency units
	EnrollmentDate core.Date `json:"enrollment_date"`
	PaymentMethod  string    `json:"payment_method"`
	GuardianID     int64     `json:"guardian_id"`
	StudentID      int64     `json:"student_id"`
	GradeID        int64     `json:"grade_id"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

// ClassroomAssignment places an Enrollment in a Classroom.
// There is exactly one per Enrollment; transfers update it in place.
type ClassroomAssignment struct {
	ID           int64             `json:"id"`
	EnrollmentID int64             `json:"enrollment_id"`
	ClassroomID  int64             `json:"classroom_id"`
	AssignedAt   time.Time         `json:"assigned_at"` // UTC
	State        string            `json:"state"`
	Mode         string            `json:"mode"`
	Reason       null.String       `json:"reason"`
	UpdatedAt    time.Time         `json:"updated_at"` // UTC
	Classroom    *school.Classroom `json:"classroom,omitempty"`
}

func (a ClassroomAssignment) IsActive() bool {
	return a.State == StateActive
}

// Detail is an Enrollment with its full relation graph.
type Detail struct {
	Enrollment
	Guardian   guardian.Guardian    `json:"guardian"`
	Student    student.Student      `json:"student"`
	Grade      school.Grade         `json:"grade"`
	Assignment *ClassroomAssignment `json:"assignment"`
}

// NewEnrollment contains information needed to enroll a Student.
// The Guardian (and the Student) is given either by id or inline; an id wins over inline data.
type NewEnrollment struct {
	TuitionCost    int64                 `json:"tuition_cost" validate:"gte=0"`
	EnrollmentDate core.Date             `json:"enrollment_date"`
	PaymentMethod  string                `json:"payment_method" validate:"required,paymethod"`
	GradeID        int64                 `json:"grade_id" validate:"required"`
	GuardianID     int64                 `json:"guardian_id" validate:"gte=0"`
	Guardian       *guardian.NewGuardian `json:"guardian"`
	StudentID      int64                 `json:"student_id" validate:"gte=0"`
	Student        *student.NewStudent   `json:"student"`
	Placement      *Placement            `json:"placement"`
}

// Placement selects the classroom: automatic (least loaded, default) or manual.
type Placement struct {
	Mode        string `json:"mode" validate:"omitempty,oneof=automatic manual"`
	ClassroomID int64  `json:"classroom_id" validate:"gte=0"`
	Reason      string `json:"reason" validate:"omitempty,max=255"`
}

func (ne *NewEnrollment) Clean() {
	ne.PaymentMethod = core.CleanString(ne.PaymentMethod, true /* lower */)

	if ne.GuardianID != 0 {
		ne.Guardian = nil
	} else if ne.Guardian != nil {
		ne.Guardian.Clean()
	}
	if ne.StudentID != 0 {
		ne.Student = nil
	} else if ne.Student != nil {
		ne.Student.Clean()
	}

	if ne.Placement == nil {
		ne.Placement = &Placement{}
	}
	ne.Placement.Mode = core.CleanString(ne.Placement.Mode, true /* lower */)
	if ne.Placement.Mode == "" {
		ne.Placement.Mode = ModeAutomatic
	}
	ne.Placement.Reason = core.CleanString(ne.Placement.Reason)

	if ne.EnrollmentDate.IsZero() {
		ne.EnrollmentDate = core.Today()
	}
}

func (ne NewEnrollment) GuardianRef() GuardianRef {
	switch {
	case ne.GuardianID != 0:
		return GuardianByID(ne.GuardianID)
	case ne.Guardian != nil:
		return InlineGuardian(*ne.Guardian)
	default:
		return GuardianRef{}
	}
}

func (ne NewEnrollment) StudentRef() StudentRef {
	switch {
	case ne.StudentID != 0:
		return StudentByID(ne.StudentID)
	case ne.Student != nil:
		return InlineStudent(*ne.Student)
	default:
		return StudentRef{}
	}
}

// Transfer moves an Enrollment to another Classroom of the same Grade.
type Transfer struct {
	ClassroomID int64  `json:"classroom_id" validate:"required"`
	Reason      string `json:"reason" validate:"omitempty,max=255"`
}

func (tr *Transfer) Clean() {
	tr.Reason = core.CleanString(tr.Reason)
}
