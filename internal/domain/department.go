package domain

import "time"

// DepartmentType distinguishes seeded departments from ones created by owners.
type DepartmentType string

const (
	DepartmentTypePredefined DepartmentType = "predefined"
	DepartmentTypeCustom     DepartmentType = "custom"
)

// SchedulingConfig holds per-department shift scheduling rules.
type SchedulingConfig struct {
	WeekStartDay       string `json:"weekStartDay"`
	ShiftDurationHours int    `json:"shiftDurationHours"`
	MinRestHours       int    `json:"minRestHours"`
	MaxShiftsPerWeek   int    `json:"maxShiftsPerWeek"`
}

// DefaultSchedulingConfig is assigned to departments created without one.
func DefaultSchedulingConfig() SchedulingConfig {
	return SchedulingConfig{
		WeekStartDay:       "sunday",
		ShiftDurationHours: 8,
		MinRestHours:       8,
		MaxShiftsPerWeek:   6,
	}
}

// DepartmentSettings holds optional capacity settings.
type DepartmentSettings struct {
	Capacity   int      `json:"capacity,omitempty"`
	ShiftTypes []string `json:"shiftTypes,omitempty"`
}

// Department represents a scheduling unit owned by an account.
type Department struct {
	ID         string
	Name       string
	Type       DepartmentType
	OwnerID    string
	Scheduling *SchedulingConfig
	Settings   *DepartmentSettings
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
