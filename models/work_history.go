package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkDetails struct {
	ActualStartTime      time.Time `json:"actual_start_time" bson:"actual_start_time"`
	ActualEndTime        time.Time `json:"actual_end_time" bson:"actual_end_time"`
	ActualDurationHours  float64   `json:"actual_duration_hours" bson:"actual_duration_hours"`
	BreakDurationMinutes int       `json:"break_duration_minutes" bson:"break_duration_minutes"`
	WorkPerformed        string    `json:"work_performed,omitempty" bson:"work_performed,omitempty"`
	ComplicationsNotes   string    `json:"complications_notes,omitempty" bson:"complications_notes,omitempty"`
}

type PaymentInfo struct {
	AgreedRate       float64       `json:"agreed_rate" bson:"agreed_rate"`
	ActualHours      float64       `json:"actual_hours" bson:"actual_hours"`
	TotalAmount      float64       `json:"total_amount" bson:"total_amount"`
	Currency         string        `json:"currency" bson:"currency"`
	PaymentMethod    PaymentMethod `json:"payment_method,omitempty" bson:"payment_method,omitempty"`
	PaymentReference string        `json:"payment_reference,omitempty" bson:"payment_reference,omitempty"`
}

type Confirmation struct {
	Status      bool                `json:"status" bson:"status"`
	ConfirmedAt *time.Time          `json:"confirmed_at,omitempty" bson:"confirmed_at,omitempty"`
	ConfirmedBy *primitive.ObjectID `json:"confirmed_by,omitempty" bson:"confirmed_by,omitempty"`
	Signature   string              `json:"signature,omitempty" bson:"signature,omitempty"`
}

type ConfirmationStatus struct {
	AssistantConfirmed Confirmation `json:"assistant_confirmed" bson:"assistant_confirmed"`
	ClinicConfirmed    Confirmation `json:"clinic_confirmed" bson:"clinic_confirmed"`
	PaymentConfirmed   Confirmation `json:"payment_confirmed" bson:"payment_confirmed"`
}

type DisputeStatus string

const (
	DisputeOpen        DisputeStatus = "open"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeResolved    DisputeStatus = "resolved"
	DisputeEscalated   DisputeStatus = "escalated"
)

type Dispute struct {
	RaisedBy    string        `json:"raised_by" bson:"raised_by"` // "assistant" or "clinic"
	DisputeType string        `json:"dispute_type" bson:"dispute_type"`
	Description string        `json:"description" bson:"description"`
	RaisedAt    time.Time     `json:"raised_at" bson:"raised_at"`
	Status      DisputeStatus `json:"status" bson:"status"`
	Resolution  string        `json:"resolution,omitempty" bson:"resolution,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
}

// WorkHistory is the once-per-completed-task record of actuals. It snapshots
// the task's already-derived schedule and compensation values; nothing is
// recomputed here. Append-only after creation except for confirmation and
// dispute sub-documents.
type WorkHistory struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	TaskID      primitive.ObjectID `json:"task_id" bson:"task_id"`
	AssistantID primitive.ObjectID `json:"assistant_id" bson:"assistant_id"`
	ClinicID    primitive.ObjectID `json:"clinic_id" bson:"clinic_id"`

	WorkDetails WorkDetails `json:"work_details" bson:"work_details"`
	PaymentInfo PaymentInfo `json:"payment_info" bson:"payment_info"`

	ConfirmationStatus ConfirmationStatus `json:"confirmation_status" bson:"confirmation_status"`
	Disputes           []Dispute          `json:"disputes,omitempty" bson:"disputes,omitempty"`

	CompletionStatus string    `json:"completion_status" bson:"completion_status"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
}

// NewWorkHistoryFromTask snapshots a completed, assigned task. Callers are
// responsible for the completed+assigned precondition check.
func NewWorkHistoryFromTask(task *Task) *WorkHistory {
	actualStart := task.Schedule.StartDatetime
	if task.Assignment.StartedAt != nil {
		actualStart = *task.Assignment.StartedAt
	}
	actualEnd := task.Schedule.EndDatetime
	if task.Assignment.CompletedAt != nil {
		actualEnd = *task.Assignment.CompletedAt
	}

	return &WorkHistory{
		ID:          primitive.NewObjectID(),
		TaskID:      task.ID,
		AssistantID: task.Assignment.AssignedTo,
		ClinicID:    task.ClinicID,
		WorkDetails: WorkDetails{
			ActualStartTime:      actualStart,
			ActualEndTime:        actualEnd,
			ActualDurationHours:  task.Schedule.DurationHours,
			BreakDurationMinutes: task.Schedule.BreakDurationMinutes,
		},
		PaymentInfo: PaymentInfo{
			AgreedRate:    task.Compensation.HourlyRate,
			ActualHours:   task.Schedule.DurationHours,
			TotalAmount:   task.Compensation.TotalAmount,
			Currency:      task.Compensation.Currency,
			PaymentMethod: task.Compensation.PaymentMethod,
		},
		CompletionStatus: "completed",
		CreatedAt:        time.Now(),
	}
}
