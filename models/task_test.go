package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskStatusDraft, TaskStatusOpen, true},
		{TaskStatusDraft, TaskStatusCancelled, true},
		{TaskStatusDraft, TaskStatusAssigned, false},
		{TaskStatusOpen, TaskStatusAssigned, true},
		{TaskStatusOpen, TaskStatusCancelled, true},
		{TaskStatusOpen, TaskStatusCompleted, false},
		{TaskStatusOpen, TaskStatusInProgress, false},
		{TaskStatusAssigned, TaskStatusInProgress, true},
		{TaskStatusAssigned, TaskStatusCancelled, true},
		{TaskStatusAssigned, TaskStatusCompleted, false},
		{TaskStatusInProgress, TaskStatusCompleted, true},
		{TaskStatusInProgress, TaskStatusNoShow, true},
		{TaskStatusInProgress, TaskStatusCancelled, true},
		{TaskStatusCompleted, TaskStatusOpen, false},
		{TaskStatusCancelled, TaskStatusOpen, false},
		{TaskStatusNoShow, TaskStatusInProgress, false},
		// same-state is a legal no-op
		{TaskStatusOpen, TaskStatusOpen, true},
		{TaskStatusCompleted, TaskStatusCompleted, true},
	}
	for _, c := range cases {
		if got := CanTransition(c.from, c.to); got != c.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestTransitionChainToCompleted(t *testing.T) {
	chain := []TaskStatus{TaskStatusOpen, TaskStatusAssigned, TaskStatusInProgress, TaskStatusCompleted}
	for i := 0; i < len(chain)-1; i++ {
		if !CanTransition(chain[i], chain[i+1]) {
			t.Fatalf("expected %s -> %s to be legal", chain[i], chain[i+1])
		}
	}
}

func TestIsTerminalStatus(t *testing.T) {
	for _, s := range []TaskStatus{TaskStatusCompleted, TaskStatusCancelled, TaskStatusNoShow} {
		if !IsTerminalStatus(s) {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []TaskStatus{TaskStatusDraft, TaskStatusOpen, TaskStatusAssigned, TaskStatusInProgress} {
		if IsTerminalStatus(s) {
			t.Errorf("expected %s not to be terminal", s)
		}
	}
}

func TestNormalizeCertificationLevel(t *testing.T) {
	cases := []struct {
		raw   string
		want  CertificationLevel
		valid bool
	}{
		{"Level_I", CertLevelI, true},
		{"Level_II", CertLevelII, true},
		{"HARP", CertHARP, true},
		{"level-1", CertLevelI, true},
		{"level_1", CertLevelI, true},
		{"Level-1", CertLevelI, true},
		{"level-2", CertLevelII, true},
		{"Level-2", CertLevelII, true},
		{"harp", CertHARP, true},
		{"Level_III", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := NormalizeCertificationLevel(c.raw)
		if ok != c.valid {
			t.Errorf("NormalizeCertificationLevel(%q) valid = %v, want %v", c.raw, ok, c.valid)
			continue
		}
		if c.valid && got != c.want {
			t.Errorf("NormalizeCertificationLevel(%q) = %s, want %s", c.raw, got, c.want)
		}
	}
}

func TestComputeDurationHours(t *testing.T) {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	cases := []struct {
		name         string
		end          time.Time
		breakMinutes int
		want         float64
	}{
		{"standard shift with break", start.Add(4 * time.Hour), 30, 3.5},
		{"no break", start.Add(8 * time.Hour), 0, 8},
		{"break longer than shift clamps to zero", start.Add(30 * time.Minute), 60, 0},
		{"rounds to two decimals", start.Add(3*time.Hour + 20*time.Minute), 0, 3.33},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := ComputeDurationHours(start, c.end, c.breakMinutes); got != c.want {
				t.Errorf("ComputeDurationHours() = %v, want %v", got, c.want)
			}
		})
	}
}

func TestComputeTotalAmount(t *testing.T) {
	if got := ComputeTotalAmount(40, 3.5); got != 140 {
		t.Errorf("ComputeTotalAmount(40, 3.5) = %v, want 140", got)
	}
	if got := ComputeTotalAmount(37.5, 3.5); got != 131.25 {
		t.Errorf("ComputeTotalAmount(37.5, 3.5) = %v, want 131.25", got)
	}
}

func validPayload() TaskPayload {
	var p TaskPayload
	p.Title = "Chairside assistant needed"
	p.Description = "Full day coverage for hygiene department"
	p.Requirements.CertificationLevel = "Level_II"
	p.Requirements.RequiredSpecializations = []string{"Chairside Assisting"}
	p.Schedule.StartDatetime = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	p.Schedule.EndDatetime = time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)
	p.Compensation.HourlyRate = 40
	return p
}

func TestNewTaskFromPayload(t *testing.T) {
	clinicID := primitive.NewObjectID()

	task, err := NewTaskFromPayload(clinicID, validPayload())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if task.Status != TaskStatusOpen {
		t.Errorf("default status = %s, want %s", task.Status, TaskStatusOpen)
	}
	if task.Priority != PriorityNormal {
		t.Errorf("default priority = %s, want %s", task.Priority, PriorityNormal)
	}
	if task.Schedule.BreakDurationMinutes != DefaultBreakMinutes {
		t.Errorf("default break = %d, want %d", task.Schedule.BreakDurationMinutes, DefaultBreakMinutes)
	}
	// 4h shift minus the default 30min break at $40/h
	if task.Schedule.DurationHours != 3.5 {
		t.Errorf("duration_hours = %v, want 3.5", task.Schedule.DurationHours)
	}
	if task.Compensation.TotalAmount != 140 {
		t.Errorf("total_amount = %v, want 140", task.Compensation.TotalAmount)
	}
	if task.Compensation.Currency != "CAD" {
		t.Errorf("currency = %s, want CAD", task.Compensation.Currency)
	}
	if task.Compensation.PaymentMethod != PayETransfer {
		t.Errorf("payment_method = %s, want %s", task.Compensation.PaymentMethod, PayETransfer)
	}
	if task.Compensation.PaymentTerms != TermsSameDay {
		t.Errorf("payment_terms = %s, want %s", task.Compensation.PaymentTerms, TermsSameDay)
	}
	if task.MaxApplications != DefaultMaxApplications {
		t.Errorf("max_applications = %d, want %d", task.MaxApplications, DefaultMaxApplications)
	}
	if task.ApplicationsCount != 0 {
		t.Errorf("applications_count = %d, want 0", task.ApplicationsCount)
	}
	if !task.RequiresBackgroundCheck {
		t.Error("requires_background_check should default to true")
	}
	if task.ClinicID != clinicID {
		t.Error("clinic_id not carried from the caller")
	}
	if task.PostedAt.IsZero() || task.UpdatedAt.IsZero() {
		t.Error("posted_at and updated_at must be set")
	}
}

func TestNewTaskFromPayloadNormalizesCertAlias(t *testing.T) {
	p := validPayload()
	p.Requirements.CertificationLevel = "harp"

	task, err := NewTaskFromPayload(primitive.NewObjectID(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.Requirements.CertificationLevel != CertHARP {
		t.Errorf("certification_level = %s, want %s", task.Requirements.CertificationLevel, CertHARP)
	}
}

func TestNewTaskFromPayloadValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(p *TaskPayload)
		wantErr string
	}{
		{
			"missing title",
			func(p *TaskPayload) { p.Title = "" },
			"title is required",
		},
		{
			"missing description",
			func(p *TaskPayload) { p.Description = "" },
			"description is required",
		},
		{
			"invalid certification level",
			func(p *TaskPayload) { p.Requirements.CertificationLevel = "Level_IV" },
			"requirements.certification_level must be one of",
		},
		{
			"invalid specialization",
			func(p *TaskPayload) { p.Requirements.RequiredSpecializations = []string{"Astrology"} },
			"required_specializations contains invalid value",
		},
		{
			"end before start",
			func(p *TaskPayload) { p.Schedule.EndDatetime = p.Schedule.StartDatetime.Add(-time.Hour) },
			"schedule.end_datetime must be after",
		},
		{
			"rate below floor",
			func(p *TaskPayload) { p.Compensation.HourlyRate = 14 },
			"compensation.hourly_rate must be between",
		},
		{
			"rate above ceiling",
			func(p *TaskPayload) { p.Compensation.HourlyRate = 101 },
			"compensation.hourly_rate must be between",
		},
		{
			"no compensation at all",
			func(p *TaskPayload) { p.Compensation.HourlyRate = 0; p.Compensation.PercentagePay = nil },
			"compensation requires hourly_rate or percentage_pay",
		},
		{
			"break too long",
			func(p *TaskPayload) { b := 200; p.Schedule.BreakDurationMinutes = &b },
			"break_duration_minutes must be between",
		},
		{
			"duration below minimum",
			func(p *TaskPayload) {
				p.Schedule.EndDatetime = p.Schedule.StartDatetime.Add(40 * time.Minute)
				b := 20
				p.Schedule.BreakDurationMinutes = &b
			},
			"computed duration_hours must be between",
		},
		{
			"duration above maximum",
			func(p *TaskPayload) {
				p.Schedule.EndDatetime = p.Schedule.StartDatetime.Add(14 * time.Hour)
				b := 0
				p.Schedule.BreakDurationMinutes = &b
			},
			"computed duration_hours must be between",
		},
		{
			"max_applications zero",
			func(p *TaskPayload) { m := 0; p.MaxApplications = &m },
			"max_applications must be between",
		},
		{
			"max_applications above limit",
			func(p *TaskPayload) { m := 1001; p.MaxApplications = &m },
			"max_applications must be between",
		},
		{
			"invalid payment method",
			func(p *TaskPayload) { p.Compensation.PaymentMethod = "Barter" },
			"payment_method must be one of",
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := validPayload()
			c.mutate(&p)

			_, err := NewTaskFromPayload(primitive.NewObjectID(), p)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			found := false
			for _, msg := range ve.Errors {
				if strings.Contains(msg, c.wantErr) {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("errors %v do not mention %q", ve.Errors, c.wantErr)
			}
		})
	}
}

func TestNewTaskFromPayloadCollectsAllErrors(t *testing.T) {
	p := validPayload()
	p.Title = ""
	p.Description = ""
	p.Compensation.HourlyRate = 5

	_, err := NewTaskFromPayload(primitive.NewObjectID(), p)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(ve.Errors) < 3 {
		t.Errorf("expected at least 3 collected errors, got %v", ve.Errors)
	}
}

func baseTask() *Task {
	task, err := NewTaskFromPayload(primitive.NewObjectID(), validPayload())
	if err != nil {
		panic(err)
	}
	return task
}

func TestTaskUpdateApplyToMergesFields(t *testing.T) {
	current := baseTask()

	title := "Updated title"
	priority := "urgent"
	u := TaskUpdate{Title: &title, Priority: &priority}

	merged, err := u.ApplyTo(current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Title != "Updated title" {
		t.Errorf("title = %q, want %q", merged.Title, "Updated title")
	}
	if merged.Priority != PriorityUrgent {
		t.Errorf("priority = %s, want %s", merged.Priority, PriorityUrgent)
	}
	// untouched fields carry over
	if merged.Description != current.Description {
		t.Error("description should be unchanged")
	}
	if merged.Schedule.DurationHours != current.Schedule.DurationHours {
		t.Error("duration should be unchanged when schedule is untouched")
	}
	if !merged.UpdatedAt.After(current.UpdatedAt) && !merged.UpdatedAt.Equal(current.UpdatedAt) {
		t.Error("updated_at should be refreshed")
	}
	if current.Title == "Updated title" {
		t.Error("ApplyTo must not mutate the current document")
	}
}

func TestTaskUpdateApplyToRecomputesDerivedFields(t *testing.T) {
	current := baseTask()

	newEnd := current.Schedule.StartDatetime.Add(8 * time.Hour)
	u := TaskUpdate{}
	u.Schedule = &struct {
		StartDatetime        *time.Time `json:"start_datetime"`
		EndDatetime          *time.Time `json:"end_datetime"`
		BreakDurationMinutes *int       `json:"break_duration_minutes"`
	}{EndDatetime: &newEnd}

	merged, err := u.ApplyTo(current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 8h minus 30min break
	if merged.Schedule.DurationHours != 7.5 {
		t.Errorf("duration_hours = %v, want 7.5", merged.Schedule.DurationHours)
	}
	if merged.Compensation.TotalAmount != 300 {
		t.Errorf("total_amount = %v, want 300", merged.Compensation.TotalAmount)
	}
}

func TestTaskUpdateApplyToRecomputesTotalOnRateChange(t *testing.T) {
	current := baseTask()

	rate := 60.0
	u := TaskUpdate{}
	u.Compensation = &struct {
		HourlyRate    *float64       `json:"hourly_rate"`
		PercentagePay *PercentagePay `json:"percentage_pay"`
		Currency      *string        `json:"currency"`
		PaymentMethod *string        `json:"payment_method"`
		PaymentTerms  *string        `json:"payment_terms"`
	}{HourlyRate: &rate}

	merged, err := u.ApplyTo(current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Compensation.TotalAmount != 210 {
		t.Errorf("total_amount = %v, want 210 (60 * 3.5)", merged.Compensation.TotalAmount)
	}
}

func TestTaskUpdateApplyToRejectsIllegalTransition(t *testing.T) {
	current := baseTask() // status open

	status := string(TaskStatusCompleted)
	u := TaskUpdate{Status: &status}

	_, err := u.ApplyTo(current)
	var ce *ConflictError
	if !errors.As(err, &ce) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
	if ce.Reason != ReasonInvalidTransition {
		t.Errorf("reason = %s, want %s", ce.Reason, ReasonInvalidTransition)
	}
}

func TestTaskUpdateApplyToAllowsSameStateNoOp(t *testing.T) {
	current := baseTask()

	status := string(TaskStatusOpen)
	u := TaskUpdate{Status: &status}

	merged, err := u.ApplyTo(current)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if merged.Status != TaskStatusOpen {
		t.Errorf("status = %s, want %s", merged.Status, TaskStatusOpen)
	}
}

func TestTaskUpdateApplyToInvalidRate(t *testing.T) {
	current := baseTask()

	rate := 5.0
	u := TaskUpdate{}
	u.Compensation = &struct {
		HourlyRate    *float64       `json:"hourly_rate"`
		PercentagePay *PercentagePay `json:"percentage_pay"`
		Currency      *string        `json:"currency"`
		PaymentMethod *string        `json:"payment_method"`
		PaymentTerms  *string        `json:"payment_terms"`
	}{HourlyRate: &rate}

	_, err := u.ApplyTo(current)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}
