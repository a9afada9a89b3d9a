package enrollment

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/enrollment/core"
)

var (
	payMethodTag  = "paymethod"
	payMethodText = "invalid payment method (expected one of: " + strings.Join(PaymentMethods, ", ") + ")"

	guardianRefTag  = "guardianref"
	guardianRefText = "one of guardian_id or guardian is required"

	studentRefTag  = "studentref"
	studentRefText = "one of student_id or student is required"

	manualClassroomTag  = "manualclassroom"
	manualClassroomText = "classroom_id is required for manual placement"
)

// InitValidators registers the enrollment validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(payMethodTag, payMethodValidation)
	core.RegisterCustomTranslation(validate, translator, payMethodTag, payMethodText)

	validate.RegisterStructValidation(newEnrollmentStructValidation, NewEnrollment{})
	core.RegisterCustomTranslation(validate, translator, guardianRefTag, guardianRefText)
	core.RegisterCustomTranslation(validate, translator, studentRefTag, studentRefText)

	validate.RegisterStructValidation(placementStructValidation, Placement{})
	core.RegisterCustomTranslation(validate, translator, manualClassroomTag, manualClassroomText)
}

func payMethodValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, pm := range PaymentMethods {
		if val == pm {
			return true
		}
	}
	return false
}

func newEnrollmentStructValidation(sl validator.StructLevel) {
	ne := sl.Current().Interface().(NewEnrollment)

	if ne.GuardianID == 0 && ne.Guardian == nil {
		sl.ReportError(ne.Guardian, "guardian", "Guardian", guardianRefTag, "")
	}
	if ne.StudentID == 0 && ne.Student == nil {
		sl.ReportError(ne.Student, "student", "Student", studentRefTag, "")
	}
}

func placementStructValidation(sl validator.StructLevel) {
	p := sl.Current().Interface().(Placement)

	if p.Mode == ModeManual && p.ClassroomID == 0 {
		sl.ReportError(p.ClassroomID, "classroom_id", "ClassroomID", manualClassroomTag, "")
	}
}
