package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ApplicationStatus string

const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationUnderReview ApplicationStatus = "under_review"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationWithdrawn   ApplicationStatus = "withdrawn"
)

// IsTerminal reports whether the application can no longer change status.
func (s ApplicationStatus) IsTerminal() bool {
	switch s {
	case ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return true
	}
	return false
}

// IsWithdrawable reports whether the applicant may still withdraw.
func (s ApplicationStatus) IsWithdrawable() bool {
	return s == ApplicationPending || s == ApplicationUnderReview
}

// LiveApplicationStatuses are the states that count toward the one-live-
// application-per-(task, applicant) rule.
var LiveApplicationStatuses = []ApplicationStatus{
	ApplicationPending, ApplicationUnderReview, ApplicationAccepted,
}

type MatchCriteria struct {
	LocationScore      float64 `json:"location_score" bson:"location_score"`
	ExperienceScore    float64 `json:"experience_score" bson:"experience_score"`
	CertificationScore float64 `json:"certification_score" bson:"certification_score"`
	RatingScore        float64 `json:"rating_score" bson:"rating_score"`
	AvailabilityScore  float64 `json:"availability_score" bson:"availability_score"`
}

// Application is one assistant's bid for one task. (task_id, applicant_id)
// is unique; the index created at startup is the backstop for races.
type Application struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TaskID      primitive.ObjectID `json:"task_id" bson:"task_id"`
	ApplicantID primitive.ObjectID `json:"applicant_id" bson:"applicant_id"`
	ClinicID    primitive.ObjectID `json:"clinic_id" bson:"clinic_id"`

	ApplicationMessage string  `json:"application_message,omitempty" bson:"application_message,omitempty"`
	ProposedRate       float64 `json:"proposed_rate,omitempty" bson:"proposed_rate,omitempty"`

	AvailabilityConfirmation bool `json:"availability_confirmation" bson:"availability_confirmation"`

	Status      ApplicationStatus `json:"status" bson:"status"`
	ReviewNotes string            `json:"review_notes,omitempty" bson:"review_notes,omitempty"`

	AppliedAt  time.Time           `json:"applied_at" bson:"applied_at"`
	ReviewedAt *time.Time          `json:"reviewed_at,omitempty" bson:"reviewed_at,omitempty"`
	ReviewedBy *primitive.ObjectID `json:"reviewed_by,omitempty" bson:"reviewed_by,omitempty"`

	ResponseDeadline *time.Time `json:"response_deadline,omitempty" bson:"response_deadline,omitempty"`

	AutoMatchScore float64        `json:"auto_match_score,omitempty" bson:"auto_match_score,omitempty"`
	MatchCriteria  *MatchCriteria `json:"match_criteria,omitempty" bson:"match_criteria,omitempty"`
}

// ApplyPayload is the optional body an assistant may send with an apply call.
type ApplyPayload struct {
	ApplicationMessage string  `json:"application_message"`
	ProposedRate       float64 `json:"proposed_rate"`
}

// Validate checks the optional apply fields.
func (p *ApplyPayload) Validate() error {
	var errs []string
	if len(p.ApplicationMessage) > 500 {
		errs = append(errs, "application_message must be at most 500 characters")
	}
	if p.ProposedRate != 0 && (p.ProposedRate < MinHourlyRate || p.ProposedRate > MaxHourlyRate) {
		errs = append(errs, "proposed_rate must be between 15 and 100")
	}
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}
