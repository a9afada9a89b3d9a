package enrollment

import (
	"net/mail"

	"github.com/trezcool/enrollment/core"
)

const confirmationTemplate = "enrollment_confirmation"

type confirmationData struct {
	EnrollmentID   int64
	EnrollmentDate string
	PaymentMethod  string
	GuardianName   string
	StudentName    string
	GradeName      string
	Section        string
}

// sendConfirmation emails the guardian once the enrollment is committed.
func (svc *service) sendConfirmation(detail Detail) {
	if svc.mailSvc == nil || detail.Guardian.Email == "" {
		return
	}

	data := confirmationData{
		EnrollmentID:   detail.ID,
		EnrollmentDate: detail.EnrollmentDate.String(),
		PaymentMethod:  detail.PaymentMethod,
		GuardianName:   detail.Guardian.FullName(),
		StudentName:    detail.Student.FullName(),
		GradeName:      detail.Grade.Name,
	}
	if detail.Assignment != nil && detail.Assignment.Classroom != nil {
		data.Section = detail.Assignment.Classroom.Section
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: data.GuardianName, Address: detail.Guardian.Email}},
		Subject:      "Enrollment confirmation",
		TemplateName: confirmationTemplate,
		TemplateData: data,
	})
}
