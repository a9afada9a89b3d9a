package enrollment

import (
	"github.com/trezcool/enrollment/core/guardian"
	"github.com/trezcool/enrollment/core/student"
)

type refKind int

const (
	refNone refKind = iota
	refByID
	refInline
)

// GuardianRef is either ByID(id) or Inline(data). The zero value references nothing.
type GuardianRef struct {
	kind refKind
	id   int64
	data guardian.NewGuardian
}

func GuardianByID(id int64) GuardianRef {
	return GuardianRef{kind: refByID, id: id}
}

func InlineGuardian(ng guardian.NewGuardian) GuardianRef {
	return GuardianRef{kind: refInline, data: ng}
}

// StudentRef is either ByID(id) or Inline(data). The zero value references nothing.
type StudentRef struct {
	kind refKind
	id   int64
	data student.NewStudent
}

func StudentByID(id int64) StudentRef {
	return StudentRef{kind: refByID, id: id}
}

func InlineStudent(ns student.NewStudent) StudentRef {
	return StudentRef{kind: refInline, data: ns}
}
