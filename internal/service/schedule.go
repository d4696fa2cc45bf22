package service

import (
	"regexp"
	"sort"
	"time"

	"github.com/baluardo/backup-control-service/internal/domain"

	"github.com/robfig/cron/v3"
)

// timePattern validates "HH:MM" time-of-day strings.
var timePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// defaultDailyDays is the weekday set used when a daily schedule names
// none: Monday through Friday (time.Weekday numbering, 0=Sunday).
var defaultDailyDays = []int{1, 2, 3, 4, 5}

// Forward scan bounds. Daily schedules repeat within two weeks by
// construction; monthly day numbers always occur within 60 days except
// for day 29-31 in unlucky months, which then simply wait for the next
// reload.
const (
	dailyScanDays   = 14
	monthlyScanDays = 60
)

// NextRun computes the next instant strictly after now at which the
// schedule fires. ok is false when the schedule can never fire again
// (elapsed Once schedules, empty day/time sets, unknown types).
func NextRun(s domain.Schedule, now time.Time) (next time.Time, ok bool) {
	switch s.Type {
	case domain.ScheduleTypeOnce:
		return nextOnce(s, now)
	case domain.ScheduleTypeDaily:
		return nextDaily(s, now)
	case domain.ScheduleTypeWeekly:
		return nextWeekly(s, now)
	case domain.ScheduleTypeMonthly:
		return nextMonthly(s, now)
	case domain.ScheduleTypeCron:
		return nextCron(s, now)
	}
	return time.Time{}, false
}

// nextOnce fires at start date + start time, only if still in the
// future. An elapsed once-schedule is never rescheduled.
func nextOnce(s domain.Schedule, now time.Time) (time.Time, bool) {
	if !timePattern.MatchString(s.StartTime) {
		return time.Time{}, false
	}
	day := now
	if s.StartDate != "" {
		parsed, err := time.ParseInLocation("2006-01-02", s.StartDate, now.Location())
		if err != nil {
			return time.Time{}, false
		}
		day = parsed
	}
	candidate := atTimeOfDay(day, s.StartTime)
	if candidate.After(now) {
		return candidate, true
	}
	return time.Time{}, false
}

func nextDaily(s domain.Schedule, now time.Time) (time.Time, bool) {
	times := validSortedTimes(s.Times)
	if len(times) == 0 {
		return time.Time{}, false
	}
	days := s.Days
	if days == nil {
		days = defaultDailyDays
	}
	daySet := make(map[int]bool, len(days))
	for _, d := range days {
		if d >= 0 && d <= 6 {
			daySet[d] = true
		}
	}
	if len(daySet) == 0 {
		return time.Time{}, false
	}
	for offset := 0; offset < dailyScanDays; offset++ {
		day := now.AddDate(0, 0, offset)
		if !daySet[int(day.Weekday())] {
			continue
		}
		for _, t := range times {
			candidate := atTimeOfDay(day, t)
			if candidate.After(now) {
				return candidate, true
			}
		}
	}
	return time.Time{}, false
}

func nextWeekly(s domain.Schedule, now time.Time) (time.Time, bool) {
	startTime := s.StartTime
	if startTime == "" {
		startTime = "00:00"
	}
	if !timePattern.MatchString(startTime) {
		return time.Time{}, false
	}
	daySet := make(map[int]bool, len(s.DaysOfWeek))
	for _, d := range s.DaysOfWeek {
		if d >= 1 && d <= 7 {
			daySet[d] = true
		}
	}
	if len(daySet) == 0 {
		return time.Time{}, false
	}
	every := s.EveryNWeeks
	if every < 1 {
		every = 1
	}
	for offset := 0; offset < 7*every; offset++ {
		day := now.AddDate(0, 0, offset)
		if !daySet[isoWeekday(day)] {
			continue
		}
		candidate := atTimeOfDay(day, startTime)
		if candidate.After(now) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func nextMonthly(s domain.Schedule, now time.Time) (time.Time, bool) {
	startTime := s.StartTime
	if startTime == "" {
		startTime = "00:00"
	}
	if !timePattern.MatchString(startTime) {
		return time.Time{}, false
	}
	daySet := make(map[int]bool, len(s.DaysOfMonth))
	for _, d := range s.DaysOfMonth {
		if d >= 1 && d <= 31 {
			daySet[d] = true
		}
	}
	if len(daySet) == 0 {
		return time.Time{}, false
	}
	for offset := 0; offset < monthlyScanDays; offset++ {
		day := now.AddDate(0, 0, offset)
		if !daySet[day.Day()] {
			continue
		}
		candidate := atTimeOfDay(day, startTime)
		if candidate.After(now) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

func nextCron(s domain.Schedule, now time.Time) (time.Time, bool) {
	if s.Expression == "" {
		return time.Time{}, false
	}
	sched, err := cron.ParseStandard(s.Expression)
	if err != nil {
		return time.Time{}, false
	}
	next := sched.Next(now)
	if next.IsZero() {
		return time.Time{}, false
	}
	return next, true
}

// validSortedTimes filters the list down to well-formed "HH:MM" strings
// and sorts them ascending.
func validSortedTimes(times []string) []string {
	var valid []string
	for _, t := range times {
		if timePattern.MatchString(t) {
			valid = append(valid, t)
		}
	}
	sort.Strings(valid)
	return valid
}

// atTimeOfDay returns day's date at the "HH:MM" time of day, in day's
// location. hhmm must already be validated.
func atTimeOfDay(day time.Time, hhmm string) time.Time {
	hour := int(hhmm[0]-'0')*10 + int(hhmm[1]-'0')
	minute := int(hhmm[3]-'0')*10 + int(hhmm[4]-'0')
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

// isoWeekday maps time.Weekday to ISO numbering, 1=Monday .. 7=Sunday.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
