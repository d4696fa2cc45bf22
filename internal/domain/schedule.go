package domain

// ScheduleType discriminates the schedule variants of a job.
type ScheduleType string

const (
	// ScheduleTypeOnce fires a single time at start date + start time.
	ScheduleTypeOnce ScheduleType = "once"
	// ScheduleTypeDaily fires on a set of weekdays at one or more times
	// of day.
	ScheduleTypeDaily ScheduleType = "daily"
	// ScheduleTypeWeekly fires on a set of ISO weekdays every N weeks at
	// the start time.
	ScheduleTypeWeekly ScheduleType = "weekly"
	// ScheduleTypeMonthly fires on a set of days of the month at the
	// start time.
	ScheduleTypeMonthly ScheduleType = "monthly"
	// ScheduleTypeCron fires per a standard five-field cron expression.
	ScheduleTypeCron ScheduleType = "cron"
)

// Schedule is the tagged union describing when a job runs. Only the
// fields of the active variant are meaningful; the rest stay zero.
type Schedule struct {
	Type ScheduleType `json:"type"`

	// Once
	// StartDate "2006-01-02"; empty means today
	StartDate string `json:"startDate,omitempty"`
	// StartTime "15:04"; shared with Weekly and Monthly
	StartTime string `json:"startTime,omitempty"`

	// Daily
	// Days weekday set, 0=Sunday .. 6=Saturday; empty defaults to Mon-Fri
	Days []int `json:"days,omitempty"`
	// Times "HH:MM" strings
	Times []string `json:"times,omitempty"`

	// Weekly
	// DaysOfWeek ISO weekday set, 1=Monday .. 7=Sunday
	DaysOfWeek []int `json:"daysOfWeek,omitempty"`
	// EveryNWeeks interval in weeks, >= 1
	EveryNWeeks int `json:"everyNWeeks,omitempty"`

	// Monthly
	DaysOfMonth []int `json:"daysOfMonth,omitempty"`

	// Cron
	Expression string `json:"expression,omitempty"`
}
