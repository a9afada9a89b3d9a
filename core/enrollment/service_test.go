package enrollment_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/school"
	"github.com/trezcool/enrollment/core/student"
	emailsvc "github.com/trezcool/enrollment/services/email"
	sqlxrepos "github.com/trezcool/enrollment/storage/database/sqlx"
	"github.com/trezcool/enrollment/testutil"
)

type deps struct {
	db           *sqlx.DB
	schoolRepo   school.Repository
	guardianRepo guardian.Repository
	studentRepo  student.Repository
	schoolSvc    school.Service
	mailSvc      *emailsvc.ConsoleServiceMock
	svc          enrollment.Service
}

func setup(t *testing.T) deps {
	conf := testutil.NewConfig(t)
	logger := testutil.NewLogger(conf)
	db := testutil.PrepareDB(t, conf)
	validate, translator := testutil.NewValidator()
	core.ParseEmailTemplates(logger)

	d := deps{
		db:           db,
		schoolRepo:   sqlxrepos.NewSchoolRepository(db),
		guardianRepo: sqlxrepos.NewGuardianRepository(db),
		studentRepo:  sqlxrepos.NewStudentRepository(db),
		mailSvc:      emailsvc.NewConsoleServiceMock(conf, logger),
	}
	d.schoolSvc = school.NewService(db, d.schoolRepo, validate, translator)
	d.svc = enrollment.NewService(
		db,
		enrollment.Repositories{
			Enrollment: sqlxrepos.NewEnrollmentRepository(db),
			School:     d.schoolRepo,
			Guardian:   d.guardianRepo,
			Student:    d.studentRepo,
		},
		d.mailSvc,
		validate,
		translator,
	)
	return d
}

func (d deps) count(t *testing.T, table string) int {
	var n int
	require.NoError(t, d.db.Get(&n, "SELECT COUNT(*) FROM "+table))
	return n
}

func (d deps) occupancy(t *testing.T, gradeID int64) map[string]school.ClassroomAvailability {
	avail, err := d.schoolSvc.ListAvailableClassrooms(context.Background(), gradeID)
	require.NoError(t, err)
	bySection := make(map[string]school.ClassroomAvailability, len(avail))
	for _, a := range avail {
		bySection[a.Section] = a
	}
	return bySection
}

// fill enrolls n new students into the given classroom.
func (d deps) fill(t *testing.T, gradeID, classroomID int64, n int) {
	g := testutil.CreateGuardian(t, d.guardianRepo, fmt.Sprintf("FILL-G-%d-%d", classroomID, n), "")
	for i := 0; i < n; i++ {
		s := testutil.CreateStudent(t, d.studentRepo, fmt.Sprintf("FILL-S-%d-%d", classroomID, i))
		_, err := d.svc.Enroll(context.Background(), enrollment.NewEnrollment{
			PaymentMethod: enrollment.PayCash,
			GradeID:       gradeID,
			GuardianID:    g.ID,
			StudentID:     s.ID,
			Placement:     &enrollment.Placement{Mode: enrollment.ModeManual, ClassroomID: classroomID},
		})
		require.NoError(t, err)
	}
}

func inlineEnrollment(gradeID int64, guardianDoc, studentDoc string) enrollment.NewEnrollment {
	ng := testutil.NewGuardian(guardianDoc, "jane.doe@test.cd")
	ns := testutil.NewStudent(studentDoc, student.NewEmergencyContact{Name: "Uncle Bob", Phone: "+243 820 000 000"})
	return enrollment.NewEnrollment{
		TuitionCost:   150000,
		PaymentMethod: enrollment.PayBankTransfer,
		GradeID:       gradeID,
		Guardian:      &ng,
		Student:       &ns,
	}
}

func TestService_Enroll_automaticPlacement(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	clsA := testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 2)
	clsB := testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "B", 2)
	ctx := context.Background()

	// A: 0/2, B: 1/2 -> A
	d.fill(t, grade.ID, clsB.ID, 1)
	detail, err := d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-1"))
	require.NoError(t, err)
	require.NotNil(t, detail.Assignment)
	assert.Equal(t, clsA.ID, detail.Assignment.ClassroomID)
	assert.Equal(t, enrollment.ModeAutomatic, detail.Assignment.Mode)
	assert.Equal(t, enrollment.StateActive, detail.Assignment.State)

	// A: 1/2, B: 1/2 -> tie, lowest section wins
	detail, err = d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-2"))
	require.NoError(t, err)
	assert.Equal(t, clsA.ID, detail.Assignment.ClassroomID)

	// A: 2/2, B: 1/2 -> B
	detail, err = d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-3"))
	require.NoError(t, err)
	assert.Equal(t, clsB.ID, detail.Assignment.ClassroomID)

	// A: 2/2, B: 2/2 -> none left
	_, err = d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-4"))
	assert.True(t, core.IsNoCapacityAvailable(err), "got %v", err)
	var noCap *core.NoCapacityAvailableError
	if assert.ErrorAs(t, err, &noCap) {
		assert.Equal(t, grade.ID, noCap.GradeID)
	}
}

func TestService_Enroll_unboundedClassroom(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "4th", 10000)
	full := testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 0)
	open := testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "B", -1)

	for i := 0; i < 3; i++ {
		detail, err := d.svc.Enroll(context.Background(), inlineEnrollment(grade.ID, "G-1", fmt.Sprintf("S-%d", i)))
		require.NoError(t, err)
		assert.Equal(t, open.ID, detail.Assignment.ClassroomID)
	}

	occ := d.occupancy(t, grade.ID)
	assert.Equal(t, 0, occ[full.Section].Occupancy)
	assert.Equal(t, 3, occ[open.Section].Occupancy)
	assert.False(t, occ[open.Section].Available.Valid)
}

func TestService_Enroll_noClassrooms(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "5th", 10000)

	_, err := d.svc.Enroll(context.Background(), inlineEnrollment(grade.ID, "G-1", "S-1"))
	assert.True(t, core.IsNoCapacityAvailable(err), "got %v", err)
	assert.Equal(t, 0, d.count(t, "enrollments"))
	assert.Equal(t, 0, d.count(t, "guardians"))
}

func TestService_Enroll_manualPlacement(t *testing.T) {
	d := setup(t)
	grade3 := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	grade4 := testutil.CreateGrade(t, d.schoolRepo, "4th", 10000)
	clsA := testutil.CreateClassroom(t, d.schoolRepo, grade3.ID, "A", 1)
	clsB := testutil.CreateClassroom(t, d.schoolRepo, grade3.ID, "B", 5)
	clsC := testutil.CreateClassroom(t, d.schoolRepo, grade4.ID, "C", 5)
	ctx := context.Background()

	t.Run("assigns the requested classroom", func(t *testing.T) {
		ne := inlineEnrollment(grade3.ID, "G-1", "S-1")
		ne.Placement = &enrollment.Placement{Mode: enrollment.ModeManual, ClassroomID: clsB.ID, Reason: "sibling in B"}
		detail, err := d.svc.Enroll(ctx, ne)
		require.NoError(t, err)
		assert.Equal(t, clsB.ID, detail.Assignment.ClassroomID)
		assert.Equal(t, enrollment.ModeManual, detail.Assignment.Mode)
		assert.Equal(t, "sibling in B", detail.Assignment.Reason.String)
		assert.Equal(t, "B", detail.Assignment.Classroom.Section)
	})

	t.Run("full classroom", func(t *testing.T) {
		d.fill(t, grade3.ID, clsA.ID, 1)
		ne := inlineEnrollment(grade3.ID, "G-1", "S-2")
		ne.Placement = &enrollment.Placement{Mode: enrollment.ModeManual, ClassroomID: clsA.ID}
		_, err := d.svc.Enroll(ctx, ne)
		assert.True(t, core.IsCapacityExceeded(err), "got %v", err)

		var capErr *core.CapacityExceededError
		if assert.ErrorAs(t, err, &capErr) {
			assert.Equal(t, clsA.ID, capErr.ClassroomID)
			assert.EqualValues(t, 1, capErr.Capacity)
			assert.EqualValues(t, 1, capErr.Occupancy)
		}
		_, err = d.studentRepo.GetStudentByDocument(ctx, "S-2")
		assert.True(t, core.IsNotFound(err), "student must be rolled back")
	})

	t.Run("classroom of another grade", func(t *testing.T) {
		ne := inlineEnrollment(grade3.ID, "G-1", "S-3")
		ne.Placement = &enrollment.Placement{Mode: enrollment.ModeManual, ClassroomID: clsC.ID}
		_, err := d.svc.Enroll(ctx, ne)
		assert.True(t, core.IsValidation(err), "got %v", err)
	})

	t.Run("unknown classroom", func(t *testing.T) {
		ne := inlineEnrollment(grade3.ID, "G-1", "S-4")
		ne.Placement = &enrollment.Placement{Mode: enrollment.ModeManual, ClassroomID: 9999}
		_, err := d.svc.Enroll(ctx, ne)
		assert.True(t, core.IsValidation(err), "got %v", err)
	})

	t.Run("missing classroom id", func(t *testing.T) {
		ne := inlineEnrollment(grade3.ID, "G-1", "S-5")
		ne.Placement = &enrollment.Placement{Mode: enrollment.ModeManual}
		_, err := d.svc.Enroll(ctx, ne)
		var vErr *core.ValidationError
		if assert.ErrorAs(t, err, &vErr) {
			assert.Equal(t, "placement.classroom_id", vErr.Fields[0].Field)
		}
	})
}

func TestService_Enroll_validation(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 10)

	withoutGuardianName := inlineEnrollment(grade.ID, "G-1", "S-1")
	withoutGuardianName.Guardian.FirstName = "  "
	badDocType := inlineEnrollment(grade.ID, "G-1", "S-1")
	badDocType.Student.DocumentType = "library_card"

	tests := []struct {
		name       string
		ne         enrollment.NewEnrollment
		wantFields []string
	}{
		{
			name:       "no parties",
			ne:         enrollment.NewEnrollment{PaymentMethod: enrollment.PayCash, GradeID: grade.ID},
			wantFields: []string{"guardian", "student"},
		},
		{
			name:       "missing payment method & grade",
			ne:         enrollment.NewEnrollment{GuardianID: 1, StudentID: 1},
			wantFields: []string{"payment_method", "grade_id"},
		},
		{
			name:       "unknown payment method",
			ne:         enrollment.NewEnrollment{PaymentMethod: "bitcoin", GradeID: grade.ID, GuardianID: 1, StudentID: 1},
			wantFields: []string{"payment_method"},
		},
		{name: "blank guardian name", ne: withoutGuardianName, wantFields: []string{"guardian.first_name"}},
		{name: "invalid document type", ne: badDocType, wantFields: []string{"student.document_type"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.svc.Enroll(context.Background(), tt.ne)
			var vErr *core.ValidationError
			require.ErrorAs(t, err, &vErr)
			fields := make([]string, 0, len(vErr.Fields))
			for _, f := range vErr.Fields {
				fields = append(fields, f.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
	assert.Equal(t, 0, d.count(t, "guardians"))
	assert.Equal(t, 0, d.count(t, "enrollments"))
}

func TestService_Enroll_notFound(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 10)
	g := testutil.CreateGuardian(t, d.guardianRepo, "G-1", "")
	s := testutil.CreateStudent(t, d.studentRepo, "S-1")

	inactive, err := d.schoolRepo.CreateGrade(context.Background(), school.Grade{
		Name:            "Closed",
		IsActive:        false,
		TuitionConfigID: grade.TuitionConfigID,
	})
	require.NoError(t, err)

	tests := []struct {
		name       string
		ne         enrollment.NewEnrollment
		wantEntity string
	}{
		{name: "guardian", ne: enrollment.NewEnrollment{GuardianID: 999, StudentID: s.ID, GradeID: grade.ID}, wantEntity: guardian.Entity},
		{name: "student", ne: enrollment.NewEnrollment{GuardianID: g.ID, StudentID: 999, GradeID: grade.ID}, wantEntity: student.Entity},
		{name: "grade", ne: enrollment.NewEnrollment{GuardianID: g.ID, StudentID: s.ID, GradeID: 999}, wantEntity: school.EntityGrade},
		{name: "inactive grade", ne: enrollment.NewEnrollment{GuardianID: g.ID, StudentID: s.ID, GradeID: inactive.ID}, wantEntity: school.EntityGrade},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.ne.PaymentMethod = enrollment.PayCard
			_, err := d.svc.Enroll(context.Background(), tt.ne)
			var nfErr *core.NotFoundError
			require.ErrorAs(t, err, &nfErr)
			assert.Equal(t, tt.wantEntity, nfErr.Entity)
		})
	}
}

func TestService_Enroll_atomicity(t *testing.T) {
	d := setup(t)

	// guardian & student get created, then the grade lookup fails
	_, err := d.svc.Enroll(context.Background(), inlineEnrollment(404, "G-1", "S-1"))
	assert.True(t, core.IsNotFound(err), "got %v", err)

	for _, table := range []string{"guardians", "students", "emergency_contacts", "enrollments", "classroom_assignments"} {
		assert.Equal(t, 0, d.count(t, table), table)
	}
}

func TestService_Enroll_idempotentParties(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 10)
	ctx := context.Background()

	first, err := d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-1"))
	require.NoError(t, err)
	assert.NotZero(t, first.Guardian.ID)
	assert.NotZero(t, first.Student.ID)
	assert.Len(t, first.Student.EmergencyContacts, 1)

	// same documents, next school year
	second, err := d.svc.Enroll(ctx, inlineEnrollment(grade.ID, " G-1 ", "S-1"))
	require.NoError(t, err)
	assert.Equal(t, first.Guardian.ID, second.Guardian.ID)
	assert.Equal(t, first.Student.ID, second.Student.ID)
	assert.NotEqual(t, first.ID, second.ID)

	// an id wins over inline data
	ne := inlineEnrollment(grade.ID, "G-2", "S-2")
	ne.GuardianID = first.Guardian.ID
	third, err := d.svc.Enroll(ctx, ne)
	require.NoError(t, err)
	assert.Equal(t, first.Guardian.ID, third.Guardian.ID)

	assert.Equal(t, 1, d.count(t, "guardians"))
	assert.Equal(t, 2, d.count(t, "students"))
	assert.Equal(t, 3, d.count(t, "enrollments"))
	assert.Equal(t, 3, d.count(t, "classroom_assignments"))
}

func TestService_Enroll_concurrentCapacity(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 3)
	testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "B", 2)
	g := testutil.CreateGuardian(t, d.guardianRepo, "G-1", "")

	const attempts = 12
	students := make([]student.Student, attempts)
	for i := range students {
		students[i] = testutil.CreateStudent(t, d.studentRepo, fmt.Sprintf("S-%d", i))
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		ok      int
		noRoom  int
		unknown []error
	)
	for _, s := range students {
		wg.Add(1)
		go func(studentID int64) {
			defer wg.Done()
			_, err := d.svc.Enroll(context.Background(), enrollment.NewEnrollment{
				PaymentMethod: enrollment.PayCash,
				GradeID:       grade.ID,
				GuardianID:    g.ID,
				StudentID:     studentID,
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case core.IsNoCapacityAvailable(err):
				noRoom++
			default:
				unknown = append(unknown, err)
			}
		}(s.ID)
	}
	wg.Wait()

	require.Empty(t, unknown)
	assert.Equal(t, 5, ok)
	assert.Equal(t, attempts-5, noRoom)

	for _, a := range d.occupancy(t, grade.ID) {
		assert.LessOrEqual(t, a.Occupancy, a.Capacity.Int, a.Section)
		assert.Equal(t, 0, a.Available.Int, a.Section)
	}
}

func TestService_Enroll_confirmationEmail(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 10)

	detail, err := d.svc.Enroll(context.Background(), inlineEnrollment(grade.ID, "G-1", "S-1"))
	require.NoError(t, err)

	sent := d.mailSvc.Sent()
	require.Len(t, sent, 1)
	msg := sent[0]
	assert.Equal(t, "jane.doe@test.cd", msg.To[0].Address)
	assert.Contains(t, msg.TextContent, "Tom Doe")
	assert.Contains(t, msg.TextContent, "3rd")
	assert.Contains(t, msg.HTMLContent, fmt.Sprint(detail.ID))

	// no email address, no message
	d.mailSvc.Reset()
	ne := inlineEnrollment(grade.ID, "G-2", "S-2")
	ne.Guardian.Email = ""
	_, err = d.svc.Enroll(context.Background(), ne)
	require.NoError(t, err)
	assert.Empty(t, d.mailSvc.Sent())
}

func TestService_GetByID(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	cls := testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 10)
	ctx := context.Background()

	created, err := d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-1"))
	require.NoError(t, err)

	got, err := d.svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, int64(150000), got.TuitionCost)
	assert.Equal(t, enrollment.PayBankTransfer, got.PaymentMethod)
	assert.Equal(t, core.Today(), got.EnrollmentDate)
	assert.Equal(t, created.Guardian.ID, got.Guardian.ID)
	assert.Equal(t, "S-1", got.Student.DocumentNumber)
	assert.Equal(t, "3rd", got.Grade.Name)
	require.NotNil(t, got.Grade.TuitionConfig)
	assert.Equal(t, int64(10000), got.Grade.TuitionConfig.MonthlyFee)
	require.NotNil(t, got.Assignment)
	assert.Equal(t, cls.ID, got.Assignment.Classroom.ID)

	_, err = d.svc.GetByID(ctx, 999)
	assert.True(t, core.IsNotFound(err), "got %v", err)
}

func TestService_Transfer(t *testing.T) {
	d := setup(t)
	grade3 := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	grade4 := testutil.CreateGrade(t, d.schoolRepo, "4th", 10000)
	clsA := testutil.CreateClassroom(t, d.schoolRepo, grade3.ID, "A", 5)
	clsB := testutil.CreateClassroom(t, d.schoolRepo, grade3.ID, "B", 5)
	clsFull := testutil.CreateClassroom(t, d.schoolRepo, grade3.ID, "Z", 1)
	clsC := testutil.CreateClassroom(t, d.schoolRepo, grade4.ID, "C", 5)
	d.fill(t, grade3.ID, clsFull.ID, 1)
	ctx := context.Background()

	detail, err := d.svc.Enroll(ctx, inlineEnrollment(grade3.ID, "G-1", "S-1"))
	require.NoError(t, err)
	require.Equal(t, clsA.ID, detail.Assignment.ClassroomID)
	original := *detail.Assignment

	failures := []struct {
		name    string
		tr      enrollment.Transfer
		errFunc func(error) bool
	}{
		{name: "cross-grade", tr: enrollment.Transfer{ClassroomID: clsC.ID}, errFunc: core.IsValidation},
		{name: "same classroom", tr: enrollment.Transfer{ClassroomID: clsA.ID}, errFunc: core.IsValidation},
		{name: "full classroom", tr: enrollment.Transfer{ClassroomID: clsFull.ID}, errFunc: core.IsCapacityExceeded},
		{name: "unknown classroom", tr: enrollment.Transfer{ClassroomID: 999}, errFunc: core.IsNotFound},
		{name: "missing classroom", tr: enrollment.Transfer{}, errFunc: core.IsValidation},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.svc.Transfer(ctx, detail.ID, tt.tr)
			assert.True(t, tt.errFunc(err), "got %v", err)

			// prior assignment untouched
			got, err := d.svc.GetByID(ctx, detail.ID)
			require.NoError(t, err)
			assert.Equal(t, original.ClassroomID, got.Assignment.ClassroomID)
			assert.Equal(t, enrollment.StateActive, got.Assignment.State)
		})
	}

	t.Run("moves the active assignment in place", func(t *testing.T) {
		asgmt, err := d.svc.Transfer(ctx, detail.ID, enrollment.Transfer{ClassroomID: clsB.ID, Reason: " behaviour "})
		require.NoError(t, err)
		assert.Equal(t, original.ID, asgmt.ID)
		assert.Equal(t, clsB.ID, asgmt.ClassroomID)
		assert.Equal(t, enrollment.ModeManual, asgmt.Mode)
		assert.Equal(t, "behaviour", asgmt.Reason.String)
		assert.Equal(t, enrollment.StateActive, asgmt.State)
		assert.Equal(t, "B", asgmt.Classroom.Section)

		var active int
		require.NoError(t, d.db.Get(&active, d.db.Rebind(
			"SELECT COUNT(*) FROM classroom_assignments WHERE enrollment_id = ? AND state = 'active'"), detail.ID))
		assert.Equal(t, 1, active)

		occ := d.occupancy(t, grade3.ID)
		assert.Equal(t, 0, occ["A"].Occupancy)
		assert.Equal(t, 1, occ["B"].Occupancy)
	})

	t.Run("unknown enrollment", func(t *testing.T) {
		_, err := d.svc.Transfer(ctx, 999, enrollment.Transfer{ClassroomID: clsB.ID})
		assert.True(t, core.IsNotFound(err), "got %v", err)
	})
}

func TestService_Withdraw(t *testing.T) {
	d := setup(t)
	grade := testutil.CreateGrade(t, d.schoolRepo, "3rd", 10000)
	clsA := testutil.CreateClassroom(t, d.schoolRepo, grade.ID, "A", 2)
	ctx := context.Background()

	detail, err := d.svc.Enroll(ctx, inlineEnrollment(grade.ID, "G-1", "S-1"))
	require.NoError(t, err)

	before := d.occupancy(t, grade.ID)["A"]
	assert.Equal(t, 1, before.Occupancy)
	assert.Equal(t, 1, before.Available.Int)

	asgmt, err := d.svc.Withdraw(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StateWithdrawn, asgmt.State)
	assert.Equal(t, clsA.ID, asgmt.Classroom.ID)

	after := d.occupancy(t, grade.ID)["A"]
	assert.Equal(t, before.Occupancy-1, after.Occupancy)
	assert.Equal(t, before.Available.Int+1, after.Available.Int)

	// the enrollment keeps its (withdrawn) assignment
	got, err := d.svc.GetByID(ctx, detail.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StateWithdrawn, got.Assignment.State)

	_, err = d.svc.Withdraw(ctx, detail.ID)
	var nfErr *core.NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, enrollment.EntityAssignment, nfErr.Entity)

	_, err = d.svc.Transfer(ctx, detail.ID, enrollment.Transfer{ClassroomID: clsA.ID})
	assert.True(t, core.IsNotFound(err), "got %v", err)
}
