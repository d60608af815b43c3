package models

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func completedTask() *Task {
	task := baseTask()
	assistantID := primitive.NewObjectID()
	assignedAt := task.Schedule.StartDatetime.Add(-24 * time.Hour)
	task.Status = TaskStatusCompleted
	task.Assignment = &TaskAssignment{
		AssignedTo: assistantID,
		AssignedAt: &assignedAt,
	}
	return task
}

func TestNewWorkHistoryFromTaskSnapshots(t *testing.T) {
	task := completedTask()

	h := NewWorkHistoryFromTask(task)

	if h.TaskID != task.ID {
		t.Error("task_id not snapshotted")
	}
	if h.AssistantID != task.Assignment.AssignedTo {
		t.Error("assistant_id must come from the assignment")
	}
	if h.ClinicID != task.ClinicID {
		t.Error("clinic_id not snapshotted")
	}
	if h.WorkDetails.ActualDurationHours != task.Schedule.DurationHours {
		t.Errorf("actual_duration_hours = %v, want %v", h.WorkDetails.ActualDurationHours, task.Schedule.DurationHours)
	}
	if h.PaymentInfo.AgreedRate != task.Compensation.HourlyRate {
		t.Errorf("agreed_rate = %v, want %v", h.PaymentInfo.AgreedRate, task.Compensation.HourlyRate)
	}
	if h.PaymentInfo.TotalAmount != task.Compensation.TotalAmount {
		t.Errorf("total_amount = %v, want %v", h.PaymentInfo.TotalAmount, task.Compensation.TotalAmount)
	}
	if h.PaymentInfo.Currency != "CAD" {
		t.Errorf("currency = %s, want CAD", h.PaymentInfo.Currency)
	}
	if h.CompletionStatus != "completed" {
		t.Errorf("completion_status = %s, want completed", h.CompletionStatus)
	}
	if h.CreatedAt.IsZero() {
		t.Error("created_at must be set")
	}
}

func TestNewWorkHistoryFromTaskPrefersActualTimes(t *testing.T) {
	task := completedTask()
	startedAt := task.Schedule.StartDatetime.Add(15 * time.Minute)
	completedAt := task.Schedule.EndDatetime.Add(-10 * time.Minute)
	task.Assignment.StartedAt = &startedAt
	task.Assignment.CompletedAt = &completedAt

	h := NewWorkHistoryFromTask(task)

	if !h.WorkDetails.ActualStartTime.Equal(startedAt) {
		t.Errorf("actual_start_time = %v, want %v", h.WorkDetails.ActualStartTime, startedAt)
	}
	if !h.WorkDetails.ActualEndTime.Equal(completedAt) {
		t.Errorf("actual_end_time = %v, want %v", h.WorkDetails.ActualEndTime, completedAt)
	}
}

func TestNewWorkHistoryFromTaskFallsBackToSchedule(t *testing.T) {
	task := completedTask()

	h := NewWorkHistoryFromTask(task)

	if !h.WorkDetails.ActualStartTime.Equal(task.Schedule.StartDatetime) {
		t.Error("actual_start_time should fall back to the scheduled start")
	}
	if !h.WorkDetails.ActualEndTime.Equal(task.Schedule.EndDatetime) {
		t.Error("actual_end_time should fall back to the scheduled end")
	}
}
