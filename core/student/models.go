package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
)

type Student struct {
	ID                int64              `json:"id"`
	FirstName         string             `json:"first_name"`
	LastName          string             `json:"last_name"`
	DocumentType      string             `json:"document_type"`
	DocumentNumber    string             `json:"document_number"`
	BirthDate         *core.Date         `json:"birth_date"`
	Notes             null.String        `json:"notes"`
	CreatedAt         time.Time          `json:"created_at"` // UTC
	EmergencyContacts []EmergencyContact `json:"emergency_contacts"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

// EmergencyContact is owned by a Student; lower Priority is called first.
type EmergencyContact struct {
	ID           int64  `json:"id"`
	StudentID    int64  `json:"student_id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
	Priority     int    `json:"priority"`
	IsPrincipal  bool   `json:"is_principal"`
}

// NewStudent contains information needed to create a new Student and its EmergencyContacts.
type NewStudent struct {
	FirstName         string                `json:"first_name" validate:"required"`
	LastName          string                `json:"last_name" validate:"required"`
	DocumentType      string                `json:"document_type" validate:"required,doctype"`
	DocumentNumber    string                `json:"document_number" validate:"required,max=32"`
	BirthDate         *core.Date            `json:"birth_date"`
	Notes             string                `json:"notes"`
	EmergencyContacts []NewEmergencyContact `json:"emergency_contacts" validate:"omitempty,max=5,dive"`
}

type NewEmergencyContact struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required,max=32"`
	Relationship string `json:"relationship" validate:"omitempty,max=32"`
	Priority     int    `json:"priority" validate:"gte=0"`
	IsPrincipal  bool   `json:"is_principal"`
}

func (ns *NewStudent) Clean() {
	ns.FirstName = core.CleanString(ns.FirstName)
	ns.LastName = core.CleanString(ns.LastName)
	ns.DocumentType = core.CleanString(ns.DocumentType, true /* lower */)
	ns.DocumentNumber = core.CleanString(ns.DocumentNumber)
	ns.Notes = core.CleanString(ns.Notes)
	for i := range ns.EmergencyContacts {
		ec := &ns.EmergencyContacts[i]
		ec.Name = core.CleanString(ec.Name)
		ec.Phone = core.CleanString(ec.Phone)
		ec.Relationship = core.CleanString(ec.Relationship, true /* lower */)
		if ec.Priority == 0 {
			ec.Priority = i + 1
		}
	}
}

func (ns NewStudent) Student(createdAt time.Time) Student {
	stdt := Student{
		FirstName:      ns.FirstName,
		LastName:       ns.LastName,
		DocumentType:   ns.DocumentType,
		DocumentNumber: ns.DocumentNumber,
		BirthDate:      ns.BirthDate,
		Notes:          null.NewString(ns.Notes, ns.Notes != ""),
		CreatedAt:      createdAt,
	}
	if len(ns.EmergencyContacts) > 0 {
		stdt.EmergencyContacts = make([]EmergencyContact, 0, len(ns.EmergencyContacts))
		for _, ec := range ns.EmergencyContacts {
			stdt.EmergencyContacts = append(stdt.EmergencyContacts, EmergencyContact{
				Name:         ec.Name,
				Phone:        ec.Phone,
				Relationship: ec.Relationship,
				Priority:     ec.Priority,
				IsPrincipal:  ec.IsPrincipal,
			})
		}
	}
	return stdt
}
