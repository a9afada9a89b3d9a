package school

import (
	"sort"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/enrollment/core"
)

// TuitionConfig holds the fees charged for a Grade, in minor currency units.
type TuitionConfig struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	EnrollmentFee int64  `json:"enrollment_fee"`
	MonthlyFee    int64  `json:"monthly_fee"`
	Installments  int    `json:"installments"`
}

type Grade struct {
	ID              int64          `json:"id"`
	Name            string         `json:"name"`
	Level           string         `json:"level"`
	IsActive        bool           `json:"is_active"`
	TuitionConfigID int64          `json:"tuition_config_id"`
	TuitionConfig   *TuitionConfig `json:"tuition_config,omitempty"`
}

// Classroom is a section of a Grade. A null Capacity means unbounded.
type Classroom struct {
	ID       int64    `json:"id"`
	GradeID  int64    `json:"grade_id"`
	Section  string   `json:"section"`
	Capacity null.Int `json:"capacity"`
}

// HasRoomFor reports whether one more student fits given the current occupancy.
func (c Classroom) HasRoomFor(occupancy int) bool {
	return !c.Capacity.Valid || occupancy < c.Capacity.Int
}

// ClassroomAvailability is a Classroom with its current load.
// Occupancy counts active assignments; Available is null when capacity is unbounded.
type ClassroomAvailability struct {
	ClassroomID int64    `json:"classroom_id"`
	Section     string   `json:"section"`
	Capacity    null.Int `json:"capacity"`
	Occupancy   int      `json:"occupancy"`
	Available   null.Int `json:"available"`
}

func NewClassroomAvailability(c Classroom, occupancy int) ClassroomAvailability {
	avail := ClassroomAvailability{
		ClassroomID: c.ID,
		Section:     c.Section,
		Capacity:    c.Capacity,
		Occupancy:   occupancy,
	}
	if c.Capacity.Valid {
		free := c.Capacity.Int - occupancy
		if free < 0 {
			free = 0
		}
		avail.Available = null.IntFrom(free)
	}
	return avail
}

func (a ClassroomAvailability) HasRoom() bool {
	return !a.Capacity.Valid || a.Occupancy < a.Capacity.Int
}

// RankByLoad sorts classrooms by ascending occupancy, ties broken by ascending section label.
// This is the load-balancing order used for automatic placement.
func RankByLoad(avail []ClassroomAvailability) {
	sort.SliceStable(avail, func(i, j int) bool {
		if avail[i].Occupancy != avail[j].Occupancy {
			return avail[i].Occupancy < avail[j].Occupancy
		}
		if avail[i].Section != avail[j].Section {
			return avail[i].Section < avail[j].Section
		}
		return avail[i].ClassroomID < avail[j].ClassroomID
	})
}

// PickLeastLoaded returns the first classroom with room in load-balancing order.
func PickLeastLoaded(avail []ClassroomAvailability) (ClassroomAvailability, bool) {
	ranked := make([]ClassroomAvailability, len(avail))
	copy(ranked, avail)
	RankByLoad(ranked)
	for _, a := range ranked {
		if a.HasRoom() {
			return a, true
		}
	}
	return ClassroomAvailability{}, false
}

// NewGrade contains information needed to create a new Grade and its TuitionConfig.
type NewGrade struct {
	Name          string `json:"name" validate:"required"`
	Level         string `json:"level"`
	TuitionName   string `json:"tuition_name"`
	EnrollmentFee int64  `json:"enrollment_fee" validate:"gte=0"`
	MonthlyFee    int64  `json:"monthly_fee" validate:"gte=0"`
	Installments  int    `json:"installments" validate:"gte=0"`
}

func (ng *NewGrade) Clean() {
	ng.Name = core.CleanString(ng.Name)
	ng.Level = core.CleanString(ng.Level)
	ng.TuitionName = core.CleanString(ng.TuitionName)
	if ng.TuitionName == "" {
		ng.TuitionName = ng.Name
	}
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	GradeID  int64    `json:"grade_id" validate:"required"`
	Section  string   `json:"section" validate:"required"`
	Capacity null.Int `json:"capacity"`
}

func (nc *NewClassroom) Clean() {
	nc.Section = core.CleanString(nc.Section)
}
