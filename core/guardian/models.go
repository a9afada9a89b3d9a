package guardian

import (
	"time"

	"github.com/trezcool/enrollment/core"
)

// Guardian is the responsible adult of a Student. The principal guardian pays the fees.
type Guardian struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	DocumentType   string    `json:"document_type"`
	DocumentNumber string    `json:"document_number"`
	Phone          string    `json:"phone"`
	Email          string    `json:"email"`
	Address        string    `json:"address"`
	IsPrincipal    bool      `json:"is_principal"`
	Relationship   string    `json:"relationship"`
	CreatedAt      time.Time `json:"created_at"` // UTC
}

func (g Guardian) FullName() string {
	return g.FirstName + " " + g.LastName
}

// NewGuardian contains information needed to create a new Guardian.
type NewGuardian struct {
	FirstName      string `json:"first_name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	DocumentType   string `json:"document_type" validate:"required,doctype"`
	DocumentNumber string `json:"document_number" validate:"required,max=32"`
	Phone          string `json:"phone" validate:"omitempty,max=32"`
	Email          string `json:"email" validate:"omitempty,email"`
	Address        string `json:"address"`
	IsPrincipal    bool   `json:"is_principal"`
	Relationship   string `json:"relationship" validate:"omitempty,max=32"`
}

func (ng *NewGuardian) Clean() {
	ng.FirstName = core.CleanString(ng.FirstName)
	ng.LastName = core.CleanString(ng.LastName)
	ng.DocumentType = core.CleanString(ng.DocumentType, true /* lower */)
	ng.DocumentNumber = core.CleanString(ng.DocumentNumber)
	ng.Phone = core.CleanString(ng.Phone)
	ng.Email = core.CleanString(ng.Email, true /* lower */)
	ng.Address = core.CleanString(ng.Address)
	ng.Relationship = core.CleanString(ng.Relationship, true /* lower */)
}

func (ng NewGuardian) Guardian(createdAt time.Time) Guardian {
	return Guardian{
		FirstName:      ng.FirstName,
		LastName:       ng.LastName,
		DocumentType:   ng.DocumentType,
		DocumentNumber: ng.DocumentNumber,
		Phone:          ng.Phone,
		Email:          ng.Email,
		Address:        ng.Address,
		IsPrincipal:    ng.IsPrincipal,
		Relationship:   ng.Relationship,
		CreatedAt:      createdAt,
	}
}
