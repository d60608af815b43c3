package services

import (
	"context"
	"fmt"

	"github.com/Di-arva/diarva-backend/logging"
	"github.com/Di-arva/diarva-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type WorkHistoryService struct {
	HistoriesCollection *mongo.Collection
}

func NewWorkHistoryService(historiesCollection *mongo.Collection) *WorkHistoryService {
	return &WorkHistoryService{HistoriesCollection: historiesCollection}
}

// CreateFromTask materializes the WorkHistory record for a completed task.
// It is idempotent: an existing record for the task is returned as-is. The
// caller invokes it inside the transaction that flips the task to completed,
// passing the session context, so a committed completion always has exactly
// one record. The unique index on task_id is the backstop.
func (s *WorkHistoryService) CreateFromTask(ctx context.Context, task *models.Task) (*models.WorkHistory, error) {
	if task == nil || task.Status != models.TaskStatusCompleted ||
		task.Assignment == nil || task.Assignment.AssignedTo.IsZero() {
		return nil, models.NewConflict(models.ReasonInvalidState,
			"task must be completed and assigned to create work history")
	}

	var existing models.WorkHistory
	err := s.HistoriesCollection.FindOne(ctx, bson.M{"task_id": task.ID}).Decode(&existing)
	if err == nil {
		logging.Logger.Warnf("Event ID: WORK_HISTORY_EXISTS, Description: WorkHistory record for task %s already exists, skipping creation", task.ID.Hex())
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to check existing work history: %v", err)
	}

	history := models.NewWorkHistoryFromTask(task)
	if _, err := s.HistoriesCollection.InsertOne(ctx, history); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// Lost a race on the unique index; fetch the winner.
			if ferr := s.HistoriesCollection.FindOne(ctx, bson.M{"task_id": task.ID}).Decode(&existing); ferr == nil {
				return &existing, nil
			}
		}
		return nil, fmt.Errorf("failed to create work history: %v", err)
	}

	logging.Logger.Infof("Event ID: WORK_HISTORY_CREATED, Description: Created WorkHistory record %s for task %s", history.ID.Hex(), task.ID.Hex())
	return history, nil
}

func (s *WorkHistoryService) list(ctx context.Context, filter bson.M, p models.Pagination) (models.Paginated[models.WorkHistory], error) {
	var empty models.Paginated[models.WorkHistory]

	total, err := s.HistoriesCollection.CountDocuments(ctx, filter)
	if err != nil {
		return empty, fmt.Errorf("failed to count work histories: %v", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "work_details.actual_start_time", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(p.Skip()).
		SetLimit(int64(p.Limit))

	cursor, err := s.HistoriesCollection.Find(ctx, filter, opts)
	if err != nil {
		return empty, fmt.Errorf("failed to list work histories: %v", err)
	}
	defer cursor.Close(ctx)

	var histories []models.WorkHistory
	if err := cursor.All(ctx, &histories); err != nil {
		return empty, fmt.Errorf("failed to decode work histories: %v", err)
	}

	return models.NewPaginated(histories, total, p), nil
}

// ListForClinic returns the clinic's work history, newest first.
func (s *WorkHistoryService) ListForClinic(ctx context.Context, clinicID primitive.ObjectID, p models.Pagination) (models.Paginated[models.WorkHistory], error) {
	return s.list(ctx, bson.M{"clinic_id": clinicID}, p)
}

// ListForAssistant returns the assistant's work history, newest first.
func (s *WorkHistoryService) ListForAssistant(ctx context.Context, assistantID primitive.ObjectID, p models.Pagination) (models.Paginated[models.WorkHistory], error) {
	return s.list(ctx, bson.M{"assistant_id": assistantID}, p)
}
