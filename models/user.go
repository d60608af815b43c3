package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles carried in the authenticated context.
const (
	RoleClinic    = "clinic"
	RoleAssistant = "assistant"
	RoleAdmin     = "admin"
)

// User is the read model this core consumes for eligibility checks and
// notification addressing. Account lifecycle lives in the identity service.
type User struct {
	ID             primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Email          string             `json:"email" bson:"email"`
	Mobile         string             `json:"mobile" bson:"mobile"`
	FirstName      string             `json:"first_name" bson:"first_name"`
	LastName       string             `json:"last_name" bson:"last_name"`
	City           string             `json:"city" bson:"city"`
	Province       string             `json:"province" bson:"province"`
	Role           string             `json:"role" bson:"role"`
	IsActive       bool               `json:"is_active" bson:"is_active"`
	ApprovalStatus string             `json:"approval_status" bson:"approval_status"`
}

// IsEligibleAssistant reports whether the user may browse and apply.
func (u *User) IsEligibleAssistant() bool {
	return u.Role == RoleAssistant && u.IsActive && u.ApprovalStatus == "approved"
}

type RatingMetric struct {
	Average float64 `json:"average" bson:"average"`
	Count   int     `json:"count" bson:"count"`
}

type PerformanceMetrics struct {
	Rating           RatingMetric `json:"rating" bson:"rating"`
	CompletedTasks   int          `json:"completed_tasks" bson:"completed_tasks"`
	NoShowCount      int          `json:"no_show_count" bson:"no_show_count"`
	PunctualityScore float64      `json:"punctuality_score" bson:"punctuality_score"`
	ReliabilityScore float64      `json:"reliability_score" bson:"reliability_score"`
}

type ProfessionalInfo struct {
	CertificationLevel CertificationLevel `json:"certification_level" bson:"certification_level"`
	ExperienceYears    int                `json:"experience_years" bson:"experience_years"`
	Specializations    []Specialization   `json:"specializations" bson:"specializations"`
}

// AssistantProfile is the capability record used purely as a matching filter
// source. Read-only from this core's perspective.
type AssistantProfile struct {
	ID                 primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	UserID             primitive.ObjectID `json:"user_id" bson:"user_id"`
	ProfessionalInfo   ProfessionalInfo   `json:"professional_info" bson:"professional_info"`
	PerformanceMetrics PerformanceMetrics `json:"performance_metrics" bson:"performance_metrics"`
	IsActive           bool               `json:"is_active" bson:"is_active"`
}
