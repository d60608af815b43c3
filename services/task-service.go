package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Di-arva/diarva-backend/logging"
	"github.com/Di-arva/diarva-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TaskFilters are the clinic-listing filters, already validated and
// normalized by the caller.
type TaskFilters struct {
	Statuses           []models.TaskStatus
	Priority           models.TaskPriority
	CertificationLevel models.CertificationLevel
	Specialization     models.Specialization
	StartFrom          *time.Time
	StartTo            *time.Time
}

// TaskListOptions carry pagination and sorting for clinic listings.
type TaskListOptions struct {
	Filters    TaskFilters
	Pagination models.Pagination
	SortBy     string
	SortDesc   bool
}

// TaskScope is the authenticated actor's reach: non-admin callers only see
// their own clinic's tasks.
type TaskScope struct {
	ClinicID primitive.ObjectID
	IsAdmin  bool
}

type TaskService struct {
	Client                 *mongo.Client
	TasksCollection        *mongo.Collection
	ApplicationsCollection *mongo.Collection
	UsersCollection        *mongo.Collection
	WorkHistoryService     *WorkHistoryService
	Notifier               Notifier
}

func NewTaskService(
	client *mongo.Client,
	tasksCollection, applicationsCollection, usersCollection *mongo.Collection,
	workHistoryService *WorkHistoryService,
	notifier Notifier,
) *TaskService {
	return &TaskService{
		Client:                 client,
		TasksCollection:        tasksCollection,
		ApplicationsCollection: applicationsCollection,
		UsersCollection:        usersCollection,
		WorkHistoryService:     workHistoryService,
		Notifier:               notifier,
	}
}

func (s *TaskService) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)
	return session.WithTransaction(ctx, fn)
}

// CreateForClinic validates the payload and persists a new task for the
// clinic. On validation failure nothing is persisted and the full field
// error list is returned.
func (s *TaskService) CreateForClinic(ctx context.Context, clinicID primitive.ObjectID, payload models.TaskPayload) (*models.Task, error) {
	task, err := models.NewTaskFromPayload(clinicID, payload)
	if err != nil {
		return nil, err
	}

	if _, err := s.TasksCollection.InsertOne(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created for clinic %s, total_amount=%.2f", task.ID.Hex(), clinicID.Hex(), task.Compensation.TotalAmount)
	return task, nil
}

// allowed sort fields for clinic listings and discovery.
var taskSortFields = map[string]bool{
	"schedule.start_datetime":  true,
	"posted_at":                true,
	"priority":                 true,
	"compensation.hourly_rate": true,
}

// taskSort builds a deterministic sort: the requested field plus _id as the
// tiebreak so ordering is stable across pages.
func taskSort(sortBy string, desc bool) bson.D {
	if !taskSortFields[sortBy] {
		sortBy = "schedule.start_datetime"
	}
	dir := 1
	if desc {
		dir = -1
	}
	return bson.D{{Key: sortBy, Value: dir}, {Key: "_id", Value: 1}}
}

// buildClinicFilter translates TaskFilters into a query document scoped to
// the clinic.
func buildClinicFilter(clinicID primitive.ObjectID, f TaskFilters) bson.M {
	filter := bson.M{"clinic_id": clinicID}

	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}
	if f.CertificationLevel != "" {
		filter["requirements.certification_level"] = f.CertificationLevel
	}
	if f.Specialization != "" {
		filter["requirements.required_specializations"] = f.Specialization
	}
	if f.StartFrom != nil || f.StartTo != nil {
		rangeFilter := bson.M{}
		if f.StartFrom != nil {
			rangeFilter["$gte"] = *f.StartFrom
		}
		if f.StartTo != nil {
			rangeFilter["$lte"] = *f.StartTo
		}
		filter["schedule.start_datetime"] = rangeFilter
	}
	return filter
}

// ListForClinic returns the clinic's tasks with filters and stable
// pagination.
func (s *TaskService) ListForClinic(ctx context.Context, clinicID primitive.ObjectID, opts TaskListOptions) (models.Paginated[models.Task], error) {
	var empty models.Paginated[models.Task]
	filter := buildClinicFilter(clinicID, opts.Filters)

	total, err := s.TasksCollection.CountDocuments(ctx, filter)
	if err != nil {
		return empty, fmt.Errorf("failed to count tasks: %v", err)
	}

	findOpts := options.Find().
		SetSort(taskSort(opts.SortBy, opts.SortDesc)).
		SetSkip(opts.Pagination.Skip()).
		SetLimit(int64(opts.Pagination.Limit))

	cursor, err := s.TasksCollection.Find(ctx, filter, findOpts)
	if err != nil {
		return empty, fmt.Errorf("failed to list tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return empty, fmt.Errorf("failed to decode tasks: %v", err)
	}

	return models.NewPaginated(tasks, total, opts.Pagination), nil
}

// scopedFilter limits a task lookup to the caller's clinic unless the
// caller is an admin.
func scopedFilter(taskID primitive.ObjectID, scope TaskScope) bson.M {
	filter := bson.M{"_id": taskID}
	if !scope.IsAdmin {
		filter["clinic_id"] = scope.ClinicID
	}
	return filter
}

// GetByID returns the task, or ErrNotFound when it is absent or outside the
// caller's scope. Absence and lack of scope are indistinguishable.
func (s *TaskService) GetByID(ctx context.Context, taskID primitive.ObjectID, scope TaskScope) (*models.Task, error) {
	var task models.Task
	err := s.TasksCollection.FindOne(ctx, scopedFilter(taskID, scope)).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}
	return &task, nil
}

// UpdateByID applies a partial update inside one transaction: read current,
// validate the status transition against it, merge, recompute derived
// fields, persist with the current status as the write precondition. A
// transition to completed creates the WorkHistory record in the same
// transaction.
func (s *TaskService) UpdateByID(ctx context.Context, taskID primitive.ObjectID, update models.TaskUpdate, scope TaskScope) (*models.Task, error) {
	result, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var current models.Task
		err := s.TasksCollection.FindOne(sc, scopedFilter(taskID, scope)).Decode(&current)
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch task: %v", err)
		}

		merged, err := update.ApplyTo(&current)
		if err != nil {
			return nil, err
		}

		statusChanged := merged.Status != current.Status
		if statusChanged {
			s.stampStatusChange(merged, current.Status)
		}

		// CAS on the status we merged against: a concurrent status change
		// makes this match nothing and the transaction aborts.
		res, err := s.TasksCollection.ReplaceOne(sc,
			bson.M{"_id": current.ID, "status": current.Status}, merged)
		if err != nil {
			return nil, fmt.Errorf("failed to update task: %v", err)
		}
		if res.MatchedCount == 0 {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"task was modified concurrently, please retry")
		}

		if statusChanged && merged.Status == models.TaskStatusCompleted {
			if _, err := s.WorkHistoryService.CreateFromTask(sc, merged); err != nil {
				return nil, err
			}
		}

		return merged, nil
	})
	if err != nil {
		return nil, err
	}

	task := result.(*models.Task)
	logging.Logger.Infof("Event ID: TASK_UPDATED, Description: Task %s updated, status=%s", task.ID.Hex(), task.Status)
	return task, nil
}

// stampStatusChange records assignment timestamps for progress transitions.
func (s *TaskService) stampStatusChange(task *models.Task, from models.TaskStatus) {
	now := time.Now()
	switch task.Status {
	case models.TaskStatusInProgress:
		if task.Assignment != nil && task.Assignment.StartedAt == nil {
			task.Assignment.StartedAt = &now
		}
	case models.TaskStatusCompleted:
		if task.Assignment != nil && task.Assignment.CompletedAt == nil {
			task.Assignment.CompletedAt = &now
		}
	}
}

// CancelResult is the caller-visible outcome of a cancellation.
type CancelResult struct {
	TaskID primitive.ObjectID `json:"task_id"`
	Status models.TaskStatus  `json:"status"`
}

// Cancel moves a task to cancelled when the transition table allows it,
// stores the reason, and notifies every applicant still pending or under
// review that the task is no longer available. The applications themselves
// are left untouched; a cancelled task can never be accepted against.
func (s *TaskService) Cancel(ctx context.Context, taskID primitive.ObjectID, scope TaskScope, reason string) (*CancelResult, error) {
	result, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var current models.Task
		err := s.TasksCollection.FindOne(sc, scopedFilter(taskID, scope)).Decode(&current)
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch task: %v", err)
		}

		if !models.CanTransition(current.Status, models.TaskStatusCancelled) {
			return nil, models.NewConflict(models.ReasonInvalidTransition,
				"task cannot move from '%s' to '%s'", current.Status, models.TaskStatusCancelled)
		}

		res, err := s.TasksCollection.UpdateOne(sc,
			bson.M{"_id": current.ID, "status": current.Status},
			bson.M{"$set": bson.M{
				"status":              models.TaskStatusCancelled,
				"cancellation_reason": reason,
				"updated_at":          time.Now(),
			}})
		if err != nil {
			return nil, fmt.Errorf("failed to cancel task: %v", err)
		}
		if res.MatchedCount == 0 {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"task was modified concurrently, please retry")
		}

		return &current, nil
	})
	if err != nil {
		return nil, err
	}

	task := result.(*models.Task)
	logging.Logger.Infof("Event ID: TASK_CANCELLED, Description: Task %s cancelled by clinic %s", task.ID.Hex(), task.ClinicID.Hex())

	go s.notifyTaskCancelled(task)

	return &CancelResult{TaskID: task.ID, Status: models.TaskStatusCancelled}, nil
}

// notifyTaskCancelled tells open applicants the task is gone. Best effort,
// after commit; failures are logged inside the notifier.
func (s *TaskService) notifyTaskCancelled(task *models.Task) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cursor, err := s.ApplicationsCollection.Find(ctx, bson.M{
		"task_id": task.ID,
		"status":  bson.M{"$in": []models.ApplicationStatus{models.ApplicationPending, models.ApplicationUnderReview}},
	})
	if err != nil {
		logging.Logger.Errorf("Event ID: CANCEL_NOTIFY_FAILED, Description: Failed to fetch applications for cancelled task %s: %v", task.ID.Hex(), err)
		return
	}
	defer cursor.Close(ctx)

	var applications []models.Application
	if err := cursor.All(ctx, &applications); err != nil {
		logging.Logger.Errorf("Event ID: CANCEL_NOTIFY_FAILED, Description: Failed to decode applications for cancelled task %s: %v", task.ID.Hex(), err)
		return
	}

	for _, app := range applications {
		var applicant models.User
		if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": app.ApplicantID}).Decode(&applicant); err != nil {
			logging.Logger.Errorf("Event ID: CANCEL_NOTIFY_FAILED, Description: Failed to load applicant %s: %v", app.ApplicantID.Hex(), err)
			continue
		}
		s.Notifier.SendEmail(applicant.Email,
			fmt.Sprintf("Update on your application for \"%s\"", task.Title),
			fmt.Sprintf("The task \"%s\" is no longer available. We encourage you to apply for other open tasks.", task.Title))
	}
}
