// Package dto defines the request and response bodies of the HTTP API
// and their converters to and from the domain types.
package dto

import (
	"github.com/baluardo/backup-control-service/internal/domain"
	"github.com/baluardo/backup-control-service/pkg/timex"
)

// ScheduleBody mirrors domain.Schedule on the wire.
type ScheduleBody struct {
	Type        string   `json:"type" binding:"required,oneof=once daily weekly monthly cron"`
	StartDate   string   `json:"startDate,omitempty"`
	StartTime   string   `json:"startTime,omitempty"`
	Days        []int    `json:"days,omitempty"`
	Times       []string `json:"times,omitempty"`
	DaysOfWeek  []int    `json:"daysOfWeek,omitempty"`
	EveryNWeeks int      `json:"everyNWeeks,omitempty"`
	DaysOfMonth []int    `json:"daysOfMonth,omitempty"`
	Expression  string   `json:"expression,omitempty"`
}

type CredentialsBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password"`
	Domain   string `json:"domain,omitempty"`
}

type RetentionBody struct {
	MaxBackups int `json:"maxBackups" binding:"required,gte=1"`
}

type MappingBody struct {
	SourcePath      string           `json:"sourcePath" binding:"required"`
	DestinationPath string           `json:"destinationPath" binding:"required"`
	Mode            string           `json:"mode" binding:"omitempty,oneof=copy sync"`
	Retention       *RetentionBody   `json:"retention,omitempty"`
	Credentials     *CredentialsBody `json:"credentials,omitempty"`
	Label           string           `json:"label,omitempty"`
}

// JobPostRequest creates a job when ID is zero, updates it otherwise.
type JobPostRequest struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name" binding:"required,max=200"`
	ClientHostname string        `json:"clientHostname" binding:"required,hostname_rfc1123"`
	Enabled        *bool         `json:"enabled"`
	ModeDefault    string        `json:"modeDefault" binding:"omitempty,oneof=copy sync"`
	Schedule       ScheduleBody  `json:"schedule" binding:"required"`
	Mappings       []MappingBody `json:"mappings" binding:"required,min=1,dive"`
}

type JobGetRequest struct {
	ID int64 `form:"id" binding:"required,gte=1"`
}

type JobDeleteRequest struct {
	ID int64 `json:"id" binding:"required,gte=1"`
}

type JobRunRequest struct {
	ID int64 `json:"id" binding:"required,gte=1"`
}

// JobDTO is the job representation returned by the API.
type JobDTO struct {
	ID             int64         `json:"id"`
	Name           string        `json:"name"`
	ClientHostname string        `json:"clientHostname"`
	Enabled        bool          `json:"enabled"`
	ModeDefault    string        `json:"modeDefault,omitempty"`
	Schedule       ScheduleBody  `json:"schedule"`
	Mappings       []MappingBody `json:"mappings"`
	CreatedAt      timex.Time    `json:"createdAt"`
	UpdatedAt      timex.Time    `json:"updatedAt"`
}

// ToDomain converts the request into a domain job.
func (r *JobPostRequest) ToDomain() *domain.Job {
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	job := &domain.Job{
		ID:             r.ID,
		Name:           r.Name,
		ClientHostname: r.ClientHostname,
		Enabled:        enabled,
		ModeDefault:    r.ModeDefault,
		Schedule:       scheduleToDomain(r.Schedule),
		Mappings:       make([]domain.Mapping, 0, len(r.Mappings)),
	}
	for _, m := range r.Mappings {
		job.Mappings = append(job.Mappings, mappingToDomain(m))
	}
	return job
}

// JobToDTO converts a domain job into its API representation.
func JobToDTO(job *domain.Job) *JobDTO {
	d := &JobDTO{
		ID:             job.ID,
		Name:           job.Name,
		ClientHostname: job.ClientHostname,
		Enabled:        job.Enabled,
		ModeDefault:    job.ModeDefault,
		Schedule:       scheduleToBody(job.Schedule),
		Mappings:       make([]MappingBody, 0, len(job.Mappings)),
		CreatedAt:      timex.Time(job.CreatedAt),
		UpdatedAt:      timex.Time(job.UpdatedAt),
	}
	for _, m := range job.Mappings {
		d.Mappings = append(d.Mappings, mappingToBody(m))
	}
	return d
}

func scheduleToDomain(b ScheduleBody) domain.Schedule {
	return domain.Schedule{
		Type:        domain.ScheduleType(b.Type),
		StartDate:   b.StartDate,
		StartTime:   b.StartTime,
		Days:        b.Days,
		Times:       b.Times,
		DaysOfWeek:  b.DaysOfWeek,
		EveryNWeeks: b.EveryNWeeks,
		DaysOfMonth: b.DaysOfMonth,
		Expression:  b.Expression,
	}
}

func scheduleToBody(s domain.Schedule) ScheduleBody {
	return ScheduleBody{
		Type:        string(s.Type),
		StartDate:   s.StartDate,
		StartTime:   s.StartTime,
		Days:        s.Days,
		Times:       s.Times,
		DaysOfWeek:  s.DaysOfWeek,
		EveryNWeeks: s.EveryNWeeks,
		DaysOfMonth: s.DaysOfMonth,
		Expression:  s.Expression,
	}
}

func mappingToDomain(b MappingBody) domain.Mapping {
	m := domain.Mapping{
		SourcePath:      b.SourcePath,
		DestinationPath: b.DestinationPath,
		Mode:            b.Mode,
		Label:           b.Label,
	}
	if b.Retention != nil {
		m.Retention = &domain.Retention{MaxBackups: b.Retention.MaxBackups}
	}
	if b.Credentials != nil {
		m.Credentials = &domain.Credentials{
			Username: b.Credentials.Username,
			Password: b.Credentials.Password,
			Domain:   b.Credentials.Domain,
		}
	}
	return m
}

func mappingToBody(m domain.Mapping) MappingBody {
	b := MappingBody{
		SourcePath:      m.SourcePath,
		DestinationPath: m.DestinationPath,
		Mode:            m.Mode,
		Label:           m.Label,
	}
	if m.Retention != nil {
		b.Retention = &RetentionBody{MaxBackups: m.Retention.MaxBackups}
	}
	if m.Credentials != nil {
		// Passwords never leave the service.
		b.Credentials = &CredentialsBody{
			Username: m.Credentials.Username,
			Domain:   m.Credentials.Domain,
		}
	}
	return b
}
