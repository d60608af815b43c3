package models

import (
	"fmt"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	TaskStatusDraft      TaskStatus = "draft"
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusAssigned   TaskStatus = "assigned"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
	TaskStatusNoShow     TaskStatus = "no_show"
)

// taskTransitions is the authoritative status transition table. Statuses with
// no entry are terminal.
var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusDraft:      {TaskStatusOpen, TaskStatusCancelled},
	TaskStatusOpen:       {TaskStatusAssigned, TaskStatusCancelled},
	TaskStatusAssigned:   {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusNoShow, TaskStatusCancelled},
}

// CanTransition reports whether from -> to is legal. A same-state transition
// is always a no-op and therefore legal.
func CanTransition(from, to TaskStatus) bool {
	if from == to {
		return true
	}
	for _, next := range taskTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether a task status has no outgoing transitions.
func IsTerminalStatus(s TaskStatus) bool {
	return len(taskTransitions[s]) == 0
}

func IsValidTaskStatus(s TaskStatus) bool {
	switch s {
	case TaskStatusDraft, TaskStatusOpen, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusCancelled, TaskStatusNoShow:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityNormal TaskPriority = "normal"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func IsValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type CertificationLevel string

const (
	CertLevelI  CertificationLevel = "Level_I"
	CertLevelII CertificationLevel = "Level_II"
	CertHARP    CertificationLevel = "HARP"
)

// certAliases maps legacy UI spellings onto schema values.
var certAliases = map[string]CertificationLevel{
	"level-1": CertLevelI,
	"level_1": CertLevelI,
	"Level-1": CertLevelI,
	"level-2": CertLevelII,
	"level_2": CertLevelII,
	"Level-2": CertLevelII,
	"harp":    CertHARP,
}

// NormalizeCertificationLevel resolves legacy aliases and reports whether the
// result is a valid schema value.
func NormalizeCertificationLevel(raw string) (CertificationLevel, bool) {
	if alias, ok := certAliases[raw]; ok {
		return alias, true
	}
	c := CertificationLevel(raw)
	switch c {
	case CertLevelI, CertLevelII, CertHARP:
		return c, true
	}
	return c, false
}

type Specialization string

var Specializations = []Specialization{
	"Chairside Assisting",
	"Dental Radiography",
	"Infection Control",
	"Preventive Dentistry",
	"Orthodontic Assisting",
	"Surgical Assisting",
	"Pediatric Assisting",
	"Laboratory Procedures",
	"Administrative Tasks",
}

func IsValidSpecialization(s Specialization) bool {
	for _, spec := range Specializations {
		if spec == s {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PayCash          PaymentMethod = "Cash"
	PayETransfer     PaymentMethod = "E-transfer"
	PayCheque        PaymentMethod = "Cheque"
	PayDirectDeposit PaymentMethod = "Direct Deposit"
)

func IsValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PayCash, PayETransfer, PayCheque, PayDirectDeposit:
		return true
	}
	return false
}

type PaymentTerms string

const (
	TermsImmediate PaymentTerms = "Immediate"
	TermsSameDay   PaymentTerms = "Same Day"
	TermsNextDay   PaymentTerms = "Next Day"
	TermsWeekly    PaymentTerms = "Weekly"
	TermsBiWeekly  PaymentTerms = "Bi-weekly"
)

func IsValidPaymentTerms(t PaymentTerms) bool {
	switch t {
	case TermsImmediate, TermsSameDay, TermsNextDay, TermsWeekly, TermsBiWeekly:
		return true
	}
	return false
}

const (
	MinHourlyRate    = 15.0
	MaxHourlyRate    = 100.0
	MinDurationHours = 0.5
	MaxDurationHours = 12.0
	MaxBreakMinutes  = 180
	MinMaxApplications = 1
	MaxMaxApplications = 1000
	DefaultMaxApplications = 10
	DefaultBreakMinutes    = 30
)

type TaskRequirements struct {
	CertificationLevel      CertificationLevel `json:"certification_level,omitempty" bson:"certification_level,omitempty"`
	MinimumExperience       int                `json:"minimum_experience" bson:"minimum_experience"`
	RequiredSpecializations []Specialization   `json:"required_specializations" bson:"required_specializations"`
	PreferredSkills         []string           `json:"preferred_skills,omitempty" bson:"preferred_skills,omitempty"`
}

type TaskSchedule struct {
	StartDatetime        time.Time `json:"start_datetime" bson:"start_datetime"`
	EndDatetime          time.Time `json:"end_datetime" bson:"end_datetime"`
	DurationHours        float64   `json:"duration_hours" bson:"duration_hours"`
	BreakDurationMinutes int       `json:"break_duration_minutes" bson:"break_duration_minutes"`
}

type PercentagePay struct {
	Percentage float64 `json:"percentage" bson:"percentage"`
	PayType    string  `json:"pay_type" bson:"pay_type"` // "collection" or "production"
}

type TaskCompensation struct {
	HourlyRate    float64        `json:"hourly_rate,omitempty" bson:"hourly_rate,omitempty"`
	PercentagePay *PercentagePay `json:"percentage_pay,omitempty" bson:"percentage_pay,omitempty"`
	Currency      string         `json:"currency" bson:"currency"`
	TotalAmount   float64        `json:"total_amount,omitempty" bson:"total_amount,omitempty"`
	PaymentMethod PaymentMethod  `json:"payment_method" bson:"payment_method"`
	PaymentTerms  PaymentTerms   `json:"payment_terms" bson:"payment_terms"`
}

type TaskAssignment struct {
	AssignedTo  primitive.ObjectID `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	AssignedAt  *time.Time         `json:"assigned_at,omitempty" bson:"assigned_at,omitempty"`
	StartedAt   *time.Time         `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedAt *time.Time         `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

type ContactPerson struct {
	Name  string `json:"name,omitempty" bson:"name,omitempty"`
	Phone string `json:"phone,omitempty" bson:"phone,omitempty"`
	Role  string `json:"role,omitempty" bson:"role,omitempty"`
}

type LocationDetails struct {
	SpecificInstructions string        `json:"specific_instructions,omitempty" bson:"specific_instructions,omitempty"`
	ParkingInfo          string        `json:"parking_info,omitempty" bson:"parking_info,omitempty"`
	EntranceInfo         string        `json:"entrance_info,omitempty" bson:"entrance_info,omitempty"`
	ContactPerson        ContactPerson `json:"contact_person,omitempty" bson:"contact_person,omitempty"`
}

type TaskFeedback struct {
	ClinicRating      int    `json:"clinic_rating,omitempty" bson:"clinic_rating,omitempty"`
	AssistantRating   int    `json:"assistant_rating,omitempty" bson:"assistant_rating,omitempty"`
	ClinicComments    string `json:"clinic_comments,omitempty" bson:"clinic_comments,omitempty"`
	AssistantComments string `json:"assistant_comments,omitempty" bson:"assistant_comments,omitempty"`
}

// Task is one shift a clinic offers. clinic_id is immutable after creation;
// duration_hours and total_amount are server-derived, never client-supplied.
type Task struct {
	ID       primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ClinicID primitive.ObjectID `json:"clinic_id" bson:"clinic_id"`

	Title       string `json:"title" bson:"title"`
	Description string `json:"description" bson:"description"`

	Requirements TaskRequirements `json:"requirements" bson:"requirements"`
	Schedule     TaskSchedule     `json:"schedule" bson:"schedule"`
	Compensation TaskCompensation `json:"compensation" bson:"compensation"`

	Status   TaskStatus   `json:"status" bson:"status"`
	Priority TaskPriority `json:"priority" bson:"priority"`

	Assignment      *TaskAssignment  `json:"assignment,omitempty" bson:"assignment,omitempty"`
	LocationDetails *LocationDetails `json:"location_details,omitempty" bson:"location_details,omitempty"`

	ApplicationsCount       int        `json:"applications_count" bson:"applications_count"`
	MaxApplications         int        `json:"max_applications" bson:"max_applications"`
	AutoAssign              bool       `json:"auto_assign" bson:"auto_assign"`
	RequiresBackgroundCheck bool       `json:"requires_background_check" bson:"requires_background_check"`
	ApplicationDeadline     *time.Time `json:"application_deadline,omitempty" bson:"application_deadline,omitempty"`

	PostedAt  time.Time `json:"posted_at" bson:"posted_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	CancellationReason string        `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	Feedback           *TaskFeedback `json:"feedback,omitempty" bson:"feedback,omitempty"`
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeDurationHours derives duration_hours from the schedule: elapsed
// hours minus the break, never negative, rounded to two decimals.
func ComputeDurationHours(start, end time.Time, breakMinutes int) float64 {
	raw := end.Sub(start).Hours() - float64(breakMinutes)/60
	return Round2(math.Max(0, raw))
}

// ComputeTotalAmount derives total_amount from the hourly rate and the
// already-derived duration.
func ComputeTotalAmount(hourlyRate, durationHours float64) float64 {
	return Round2(hourlyRate * durationHours)
}

// TaskPayload is the client-supplied shape for creating a task. Derived
// fields are intentionally absent.
type TaskPayload struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Requirements struct {
		CertificationLevel      string   `json:"certification_level"`
		MinimumExperience       int      `json:"minimum_experience"`
		RequiredSpecializations []string `json:"required_specializations"`
		PreferredSkills         []string `json:"preferred_skills"`
	} `json:"requirements"`
	Schedule struct {
		StartDatetime        time.Time `json:"start_datetime"`
		EndDatetime          time.Time `json:"end_datetime"`
		BreakDurationMinutes *int      `json:"break_duration_minutes"`
	} `json:"schedule"`
	Compensation struct {
		HourlyRate    float64        `json:"hourly_rate"`
		PercentagePay *PercentagePay `json:"percentage_pay"`
		Currency      string         `json:"currency"`
		PaymentMethod string         `json:"payment_method"`
		PaymentTerms  string         `json:"payment_terms"`
	} `json:"compensation"`
	Status              string           `json:"status"`
	Priority            string           `json:"priority"`
	LocationDetails     *LocationDetails `json:"location_details"`
	MaxApplications     *int             `json:"max_applications"`
	AutoAssign          bool             `json:"auto_assign"`
	RequiresBackgroundCheck *bool        `json:"requires_background_check"`
	ApplicationDeadline *time.Time       `json:"application_deadline"`
}

// NewTaskFromPayload validates a creation payload and builds the Task
// document with derived fields populated. On failure it returns a
// ValidationError listing every field problem; nothing is persisted.
func NewTaskFromPayload(clinicID primitive.ObjectID, p TaskPayload) (*Task, error) {
	var errs []string

	if clinicID.IsZero() {
		errs = append(errs, "clinic_id is required")
	}
	if p.Title == "" {
		errs = append(errs, "title is required")
	}
	if p.Description == "" {
		errs = append(errs, "description is required")
	}

	var cert CertificationLevel
	if p.Requirements.CertificationLevel != "" {
		normalized, ok := NormalizeCertificationLevel(p.Requirements.CertificationLevel)
		if !ok {
			errs = append(errs, fmt.Sprintf("requirements.certification_level must be one of: %s, %s, %s", CertLevelI, CertLevelII, CertHARP))
		} else {
			cert = normalized
		}
	}

	if p.Requirements.MinimumExperience < 0 {
		errs = append(errs, "requirements.minimum_experience must be >= 0")
	}

	specs := make([]Specialization, 0, len(p.Requirements.RequiredSpecializations))
	for _, raw := range p.Requirements.RequiredSpecializations {
		s := Specialization(raw)
		if !IsValidSpecialization(s) {
			errs = append(errs, fmt.Sprintf("requirements.required_specializations contains invalid value: %s", raw))
			continue
		}
		specs = append(specs, s)
	}

	start := p.Schedule.StartDatetime
	end := p.Schedule.EndDatetime
	if start.IsZero() {
		errs = append(errs, "schedule.start_datetime is required")
	}
	if end.IsZero() {
		errs = append(errs, "schedule.end_datetime is required")
	}
	if !start.IsZero() && !end.IsZero() && !end.After(start) {
		errs = append(errs, "schedule.end_datetime must be after schedule.start_datetime")
	}

	breakMin := DefaultBreakMinutes
	if p.Schedule.BreakDurationMinutes != nil {
		breakMin = *p.Schedule.BreakDurationMinutes
	}
	if breakMin < 0 || breakMin > MaxBreakMinutes {
		errs = append(errs, fmt.Sprintf("schedule.break_duration_minutes must be between 0 and %d", MaxBreakMinutes))
	}

	var duration float64
	if !start.IsZero() && !end.IsZero() && end.After(start) {
		duration = ComputeDurationHours(start, end, breakMin)
		if duration < MinDurationHours || duration > MaxDurationHours {
			errs = append(errs, fmt.Sprintf("computed duration_hours must be between %.1f and %.0f (consider adjusting break or times)", MinDurationHours, MaxDurationHours))
		}
	}

	rate := p.Compensation.HourlyRate
	if rate != 0 && (rate < MinHourlyRate || rate > MaxHourlyRate) {
		errs = append(errs, fmt.Sprintf("compensation.hourly_rate must be between %.0f and %.0f", MinHourlyRate, MaxHourlyRate))
	}
	if rate == 0 && p.Compensation.PercentagePay == nil {
		errs = append(errs, "compensation requires hourly_rate or percentage_pay")
	}

	payMethod := PayETransfer
	if p.Compensation.PaymentMethod != "" {
		payMethod = PaymentMethod(p.Compensation.PaymentMethod)
		if !IsValidPaymentMethod(payMethod) {
			errs = append(errs, fmt.Sprintf("compensation.payment_method must be one of: %s, %s, %s, %s", PayCash, PayETransfer, PayCheque, PayDirectDeposit))
		}
	}
	payTerms := TermsSameDay
	if p.Compensation.PaymentTerms != "" {
		payTerms = PaymentTerms(p.Compensation.PaymentTerms)
		if !IsValidPaymentTerms(payTerms) {
			errs = append(errs, fmt.Sprintf("compensation.payment_terms must be one of: %s, %s, %s, %s, %s", TermsImmediate, TermsSameDay, TermsNextDay, TermsWeekly, TermsBiWeekly))
		}
	}

	status := TaskStatusOpen
	if p.Status != "" {
		status = TaskStatus(p.Status)
		if !IsValidTaskStatus(status) {
			errs = append(errs, fmt.Sprintf("invalid status: %s", p.Status))
		}
	}
	priority := PriorityNormal
	if p.Priority != "" {
		priority = TaskPriority(p.Priority)
		if !IsValidPriority(priority) {
			errs = append(errs, fmt.Sprintf("priority must be one of: %s, %s, %s, %s", PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent))
		}
	}

	maxApps := DefaultMaxApplications
	if p.MaxApplications != nil {
		maxApps = *p.MaxApplications
	}
	if maxApps < MinMaxApplications || maxApps > MaxMaxApplications {
		errs = append(errs, fmt.Sprintf("max_applications must be between %d and %d", MinMaxApplications, MaxMaxApplications))
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	currency := p.Compensation.Currency
	if currency == "" {
		currency = "CAD"
	}
	requiresCheck := true
	if p.RequiresBackgroundCheck != nil {
		requiresCheck = *p.RequiresBackgroundCheck
	}

	now := time.Now()
	task := &Task{
		ID:          primitive.NewObjectID(),
		ClinicID:    clinicID,
		Title:       p.Title,
		Description: p.Description,
		Requirements: TaskRequirements{
			CertificationLevel:      cert,
			MinimumExperience:       p.Requirements.MinimumExperience,
			RequiredSpecializations: specs,
			PreferredSkills:         p.Requirements.PreferredSkills,
		},
		Schedule: TaskSchedule{
			StartDatetime:        start,
			EndDatetime:          end,
			DurationHours:        duration,
			BreakDurationMinutes: breakMin,
		},
		Compensation: TaskCompensation{
			HourlyRate:    rate,
			PercentagePay: p.Compensation.PercentagePay,
			Currency:      currency,
			PaymentMethod: payMethod,
			PaymentTerms:  payTerms,
		},
		Status:                  status,
		Priority:                priority,
		LocationDetails:         p.LocationDetails,
		ApplicationsCount:       0,
		MaxApplications:         maxApps,
		AutoAssign:              p.AutoAssign,
		RequiresBackgroundCheck: requiresCheck,
		ApplicationDeadline:     p.ApplicationDeadline,
		PostedAt:                now,
		UpdatedAt:               now,
	}
	if rate != 0 {
		task.Compensation.TotalAmount = ComputeTotalAmount(rate, duration)
	}
	return task, nil
}

// TaskUpdate is the partial-update document for a task: only non-nil fields
// are applied. Derived fields have no place here.
type TaskUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`

	Requirements *struct {
		CertificationLevel      *string   `json:"certification_level"`
		MinimumExperience       *int      `json:"minimum_experience"`
		RequiredSpecializations *[]string `json:"required_specializations"`
		PreferredSkills         *[]string `json:"preferred_skills"`
	} `json:"requirements"`

	Schedule *struct {
		StartDatetime        *time.Time `json:"start_datetime"`
		EndDatetime          *time.Time `json:"end_datetime"`
		BreakDurationMinutes *int       `json:"break_duration_minutes"`
	} `json:"schedule"`

	Compensation *struct {
		HourlyRate    *float64       `json:"hourly_rate"`
		PercentagePay *PercentagePay `json:"percentage_pay"`
		Currency      *string        `json:"currency"`
		PaymentMethod *string        `json:"payment_method"`
		PaymentTerms  *string        `json:"payment_terms"`
	} `json:"compensation"`

	Status   *string `json:"status"`
	Priority *string `json:"priority"`

	LocationDetails     *LocationDetails `json:"location_details"`
	MaxApplications     *int             `json:"max_applications"`
	ApplicationDeadline *time.Time       `json:"application_deadline"`
	CancellationReason  *string          `json:"cancellation_reason"`
}

// ApplyTo merges the update into a copy of the current document, recomputing
// duration_hours when any schedule field changed and total_amount when the
// rate or duration changed. The status transition is validated against the
// document's current status; an illegal transition fails the whole update.
func (u *TaskUpdate) ApplyTo(current *Task) (*Task, error) {
	merged := *current
	var errs []string

	if u.Title != nil {
		if *u.Title == "" {
			errs = append(errs, "title must not be empty")
		}
		merged.Title = *u.Title
	}
	if u.Description != nil {
		if *u.Description == "" {
			errs = append(errs, "description must not be empty")
		}
		merged.Description = *u.Description
	}

	if u.Requirements != nil {
		reqs := merged.Requirements
		if u.Requirements.CertificationLevel != nil {
			cert, ok := NormalizeCertificationLevel(*u.Requirements.CertificationLevel)
			if !ok {
				errs = append(errs, fmt.Sprintf("requirements.certification_level must be one of: %s, %s, %s", CertLevelI, CertLevelII, CertHARP))
			}
			reqs.CertificationLevel = cert
		}
		if u.Requirements.MinimumExperience != nil {
			if *u.Requirements.MinimumExperience < 0 {
				errs = append(errs, "requirements.minimum_experience must be >= 0")
			}
			reqs.MinimumExperience = *u.Requirements.MinimumExperience
		}
		if u.Requirements.RequiredSpecializations != nil {
			specs := make([]Specialization, 0, len(*u.Requirements.RequiredSpecializations))
			for _, raw := range *u.Requirements.RequiredSpecializations {
				s := Specialization(raw)
				if !IsValidSpecialization(s) {
					errs = append(errs, fmt.Sprintf("requirements.required_specializations contains invalid value: %s", raw))
					continue
				}
				specs = append(specs, s)
			}
			reqs.RequiredSpecializations = specs
		}
		if u.Requirements.PreferredSkills != nil {
			reqs.PreferredSkills = *u.Requirements.PreferredSkills
		}
		merged.Requirements = reqs
	}

	scheduleChanged := false
	if u.Schedule != nil {
		sched := merged.Schedule
		if u.Schedule.StartDatetime != nil {
			sched.StartDatetime = *u.Schedule.StartDatetime
			scheduleChanged = true
		}
		if u.Schedule.EndDatetime != nil {
			sched.EndDatetime = *u.Schedule.EndDatetime
			scheduleChanged = true
		}
		if u.Schedule.BreakDurationMinutes != nil {
			sched.BreakDurationMinutes = *u.Schedule.BreakDurationMinutes
			scheduleChanged = true
		}
		if sched.BreakDurationMinutes < 0 || sched.BreakDurationMinutes > MaxBreakMinutes {
			errs = append(errs, fmt.Sprintf("schedule.break_duration_minutes must be between 0 and %d", MaxBreakMinutes))
		}
		if !sched.EndDatetime.After(sched.StartDatetime) {
			errs = append(errs, "schedule.end_datetime must be after schedule.start_datetime")
		}
		merged.Schedule = sched
	}

	rateChanged := false
	if u.Compensation != nil {
		comp := merged.Compensation
		if u.Compensation.HourlyRate != nil {
			rate := *u.Compensation.HourlyRate
			if rate < MinHourlyRate || rate > MaxHourlyRate {
				errs = append(errs, fmt.Sprintf("compensation.hourly_rate must be between %.0f and %.0f", MinHourlyRate, MaxHourlyRate))
			}
			comp.HourlyRate = rate
			rateChanged = true
		}
		if u.Compensation.PercentagePay != nil {
			comp.PercentagePay = u.Compensation.PercentagePay
		}
		if u.Compensation.Currency != nil {
			comp.Currency = *u.Compensation.Currency
		}
		if u.Compensation.PaymentMethod != nil {
			m := PaymentMethod(*u.Compensation.PaymentMethod)
			if !IsValidPaymentMethod(m) {
				errs = append(errs, fmt.Sprintf("compensation.payment_method must be one of: %s, %s, %s, %s", PayCash, PayETransfer, PayCheque, PayDirectDeposit))
			}
			comp.PaymentMethod = m
		}
		if u.Compensation.PaymentTerms != nil {
			t := PaymentTerms(*u.Compensation.PaymentTerms)
			if !IsValidPaymentTerms(t) {
				errs = append(errs, fmt.Sprintf("compensation.payment_terms must be one of: %s, %s, %s, %s, %s", TermsImmediate, TermsSameDay, TermsNextDay, TermsWeekly, TermsBiWeekly))
			}
			comp.PaymentTerms = t
		}
		merged.Compensation = comp
	}

	if u.Status != nil {
		status := TaskStatus(*u.Status)
		if !IsValidTaskStatus(status) {
			errs = append(errs, fmt.Sprintf("invalid status: %s", *u.Status))
		} else if !CanTransition(current.Status, status) {
			return nil, NewConflict(ReasonInvalidTransition,
				"task cannot move from '%s' to '%s'", current.Status, status)
		}
		merged.Status = status
	}
	if u.Priority != nil {
		p := TaskPriority(*u.Priority)
		if !IsValidPriority(p) {
			errs = append(errs, fmt.Sprintf("priority must be one of: %s, %s, %s, %s", PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent))
		}
		merged.Priority = p
	}
	if u.LocationDetails != nil {
		merged.LocationDetails = u.LocationDetails
	}
	if u.MaxApplications != nil {
		if *u.MaxApplications < MinMaxApplications || *u.MaxApplications > MaxMaxApplications {
			errs = append(errs, fmt.Sprintf("max_applications must be between %d and %d", MinMaxApplications, MaxMaxApplications))
		}
		merged.MaxApplications = *u.MaxApplications
	}
	if u.ApplicationDeadline != nil {
		merged.ApplicationDeadline = u.ApplicationDeadline
	}
	if u.CancellationReason != nil {
		merged.CancellationReason = *u.CancellationReason
	}

	if scheduleChanged {
		merged.Schedule.DurationHours = ComputeDurationHours(
			merged.Schedule.StartDatetime, merged.Schedule.EndDatetime, merged.Schedule.BreakDurationMinutes)
		if merged.Schedule.DurationHours < MinDurationHours || merged.Schedule.DurationHours > MaxDurationHours {
			errs = append(errs, fmt.Sprintf("computed duration_hours must be between %.1f and %.0f (consider adjusting break or times)", MinDurationHours, MaxDurationHours))
		}
	}
	if (scheduleChanged || rateChanged) && merged.Compensation.HourlyRate != 0 {
		merged.Compensation.TotalAmount = ComputeTotalAmount(merged.Compensation.HourlyRate, merged.Schedule.DurationHours)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}

	merged.UpdatedAt = time.Now()
	return &merged, nil
}
