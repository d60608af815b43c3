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

type ApplicationService struct {
	Client                 *mongo.Client
	TasksCollection        *mongo.Collection
	ApplicationsCollection *mongo.Collection
	UsersCollection        *mongo.Collection
	ProfilesCollection     *mongo.Collection
	Notifier               Notifier
}

func NewApplicationService(
	client *mongo.Client,
	tasksCollection, applicationsCollection, usersCollection, profilesCollection *mongo.Collection,
	notifier Notifier,
) *ApplicationService {
	return &ApplicationService{
		Client:                 client,
		TasksCollection:        tasksCollection,
		ApplicationsCollection: applicationsCollection,
		UsersCollection:        usersCollection,
		ProfilesCollection:     profilesCollection,
		Notifier:               notifier,
	}
}

func (s *ApplicationService) withTransaction(ctx context.Context, fn func(sc mongo.SessionContext) (interface{}, error)) (interface{}, error) {
	session, err := s.Client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %v", err)
	}
	defer session.EndSession(ctx)
	return session.WithTransaction(ctx, fn)
}

// assistantContext is the user + profile pair backing eligibility checks and
// match scoring.
type assistantContext struct {
	User    models.User
	Profile *models.AssistantProfile
}

// loadAssistantContext fetches the user and profile. The second return is
// false when the user is missing, not an assistant, inactive, or not yet
// approved.
func (s *ApplicationService) loadAssistantContext(ctx context.Context, userID primitive.ObjectID) (assistantContext, bool, error) {
	var actx assistantContext

	err := s.UsersCollection.FindOne(ctx, bson.M{"_id": userID}).Decode(&actx.User)
	if err == mongo.ErrNoDocuments {
		return actx, false, nil
	}
	if err != nil {
		return actx, false, fmt.Errorf("failed to fetch user: %v", err)
	}
	if !actx.User.IsEligibleAssistant() {
		return actx, false, nil
	}

	var profile models.AssistantProfile
	err = s.ProfilesCollection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err == nil {
		actx.Profile = &profile
	} else if err != mongo.ErrNoDocuments {
		return actx, false, fmt.Errorf("failed to fetch assistant profile: %v", err)
	}

	return actx, true, nil
}

// DiscoverOptions carry the assistant-facing search parameters.
type DiscoverOptions struct {
	Filters    TaskFilters
	Pagination models.Pagination
	SortBy     string
	SortDesc   bool
}

// TaskPreview is the reduced task projection returned by discovery. Clinic
// internals (location details, feedback, assignment) are not exposed.
type TaskPreview struct {
	ID       primitive.ObjectID `json:"id" bson:"_id"`
	ClinicID primitive.ObjectID `json:"clinic_id" bson:"clinic_id"`
	Title    string             `json:"title" bson:"title"`
	Status   models.TaskStatus  `json:"status" bson:"status"`
	Priority models.TaskPriority `json:"priority" bson:"priority"`
	Requirements struct {
		RequiredSpecializations []models.Specialization `json:"required_specializations" bson:"required_specializations"`
	} `json:"requirements" bson:"requirements"`
	Schedule struct {
		StartDatetime time.Time `json:"start_datetime" bson:"start_datetime"`
		EndDatetime   time.Time `json:"end_datetime" bson:"end_datetime"`
		DurationHours float64   `json:"duration_hours" bson:"duration_hours"`
	} `json:"schedule" bson:"schedule"`
	Compensation struct {
		HourlyRate float64 `json:"hourly_rate" bson:"hourly_rate"`
		Currency   string  `json:"currency" bson:"currency"`
	} `json:"compensation" bson:"compensation"`
	ApplicationsCount int       `json:"applications_count" bson:"applications_count"`
	MaxApplications   int       `json:"max_applications" bson:"max_applications"`
	PostedAt          time.Time `json:"posted_at" bson:"posted_at"`
}

var taskPreviewProjection = bson.M{
	"title":     1,
	"clinic_id": 1,
	"status":    1,
	"priority":  1,
	"requirements.required_specializations": 1,
	"schedule.start_datetime":               1,
	"schedule.end_datetime":                 1,
	"schedule.duration_hours":               1,
	"compensation.hourly_rate":              1,
	"compensation.currency":                 1,
	"applications_count":                    1,
	"max_applications":                      1,
	"posted_at":                             1,
}

// buildDiscoverFilter assembles the base discovery query: open tasks that
// have not started, whose deadline has not passed, restricted by the
// assistant's specializations unless an explicit specialization filter was
// given. Specialization matching is inclusive: tasks requiring nothing match
// everyone, tasks requiring something match any overlap.
func buildDiscoverFilter(now time.Time, specs []models.Specialization, f TaskFilters) bson.M {
	filter := bson.M{
		"status": bson.M{"$in": []models.TaskStatus{models.TaskStatusOpen}},
	}

	startRange := bson.M{"$gte": now}
	if f.StartFrom != nil && f.StartFrom.After(now) {
		startRange["$gte"] = *f.StartFrom
	}
	if f.StartTo != nil {
		startRange["$lte"] = *f.StartTo
	}
	filter["schedule.start_datetime"] = startRange

	and := []bson.M{
		{"$or": []bson.M{
			{"application_deadline": bson.M{"$exists": false}},
			{"application_deadline": nil},
			{"application_deadline": bson.M{"$gte": now}},
		}},
	}

	if f.CertificationLevel != "" {
		filter["requirements.certification_level"] = f.CertificationLevel
	}
	if f.Priority != "" {
		filter["priority"] = f.Priority
	}

	if f.Specialization != "" {
		filter["requirements.required_specializations"] = f.Specialization
	} else if len(specs) > 0 {
		and = append(and, bson.M{"$or": []bson.M{
			{"requirements.required_specializations": bson.M{"$exists": false}},
			{"requirements.required_specializations": bson.M{"$size": 0}},
			{"requirements.required_specializations": bson.M{"$in": specs}},
		}})
	}

	filter["$and"] = and
	return filter
}

// Discover returns open tasks matching the assistant's profile. An
// ineligible caller gets an empty result set, not an error, so approval
// state is not leaked.
func (s *ApplicationService) Discover(ctx context.Context, userID primitive.ObjectID, opts DiscoverOptions) (models.Paginated[TaskPreview], error) {
	empty := models.NewPaginated[TaskPreview](nil, 0, opts.Pagination)

	actx, eligible, err := s.loadAssistantContext(ctx, userID)
	if err != nil {
		return empty, err
	}
	if !eligible {
		logging.Logger.Warnf("Event ID: DISCOVER_NOT_ELIGIBLE, Description: User %s is not an active approved assistant, returning empty result", userID.Hex())
		return empty, nil
	}

	var specs []models.Specialization
	if actx.Profile != nil {
		specs = actx.Profile.ProfessionalInfo.Specializations
	}
	filter := buildDiscoverFilter(time.Now(), specs, opts.Filters)

	total, err := s.TasksCollection.CountDocuments(ctx, filter)
	if err != nil {
		return empty, fmt.Errorf("failed to count discoverable tasks: %v", err)
	}

	findOpts := options.Find().
		SetSort(taskSort(opts.SortBy, opts.SortDesc)).
		SetSkip(opts.Pagination.Skip()).
		SetLimit(int64(opts.Pagination.Limit)).
		SetProjection(taskPreviewProjection)

	cursor, err := s.TasksCollection.Find(ctx, filter, findOpts)
	if err != nil {
		return empty, fmt.Errorf("failed to discover tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var previews []TaskPreview
	if err := cursor.All(ctx, &previews); err != nil {
		return empty, fmt.Errorf("failed to decode tasks: %v", err)
	}

	return models.NewPaginated(previews, total, opts.Pagination), nil
}

// Apply submits an application for an open task. Everything that touches
// state runs in one transaction: the capacity-checked task read, the
// duplicate check, the application insert, and the conditional counter
// increment. If the increment matches nothing the insert is rolled back and
// the caller sees limit_reached; the counter can never exceed
// max_applications.
func (s *ApplicationService) Apply(ctx context.Context, userID, taskID primitive.ObjectID, payload models.ApplyPayload) (*models.Application, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	actx, eligible, err := s.loadAssistantContext(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !eligible {
		return nil, models.NewConflict(models.ReasonNotEligible, "assistant is not active or approved")
	}

	result, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		// The task must be open, not started, and under capacity -- checked
		// server-side at read time, never trusted from a cache.
		var task models.Task
		err := s.TasksCollection.FindOne(sc, bson.M{
			"_id":                     taskID,
			"status":                  models.TaskStatusOpen,
			"schedule.start_datetime": bson.M{"$gt": time.Now()},
			"$expr":                   bson.M{"$lt": bson.A{"$applications_count", "$max_applications"}},
		}).Decode(&task)
		if err == mongo.ErrNoDocuments {
			return nil, models.NewConflict(models.ReasonTaskNotAvailable, "task not available")
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch task: %v", err)
		}

		count, err := s.ApplicationsCollection.CountDocuments(sc, bson.M{
			"task_id":      task.ID,
			"applicant_id": userID,
			"status":       bson.M{"$in": models.LiveApplicationStatuses},
		})
		if err != nil {
			return nil, fmt.Errorf("failed to check for duplicate application: %v", err)
		}
		if count > 0 {
			return nil, models.NewConflict(models.ReasonDuplicateApplication, "already applied for this task")
		}

		application := &models.Application{
			ID:                       primitive.NewObjectID(),
			TaskID:                   task.ID,
			ApplicantID:              userID,
			ClinicID:                 task.ClinicID,
			ApplicationMessage:       payload.ApplicationMessage,
			ProposedRate:             payload.ProposedRate,
			AvailabilityConfirmation: true,
			Status:                   models.ApplicationPending,
			AppliedAt:                time.Now(),
		}
		application.MatchCriteria, application.AutoMatchScore = computeMatchScore(actx.Profile, &task)

		if _, err := s.ApplicationsCollection.InsertOne(sc, application); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				return nil, models.NewConflict(models.ReasonDuplicateApplication, "already applied for this task")
			}
			return nil, fmt.Errorf("failed to create application: %v", err)
		}

		// The capacity check is repeated as the update's own precondition so
		// two concurrent applies cannot both slip past the earlier read.
		res, err := s.TasksCollection.UpdateOne(sc,
			bson.M{"_id": task.ID, "applications_count": bson.M{"$lt": task.MaxApplications}},
			bson.M{"$inc": bson.M{"applications_count": 1}, "$set": bson.M{"updated_at": time.Now()}})
		if err != nil {
			return nil, fmt.Errorf("failed to increment applications_count: %v", err)
		}
		if res.ModifiedCount == 0 {
			return nil, models.NewConflict(models.ReasonLimitReached, "task application limit reached")
		}

		return application, nil
	})
	if err != nil {
		return nil, err
	}

	application := result.(*models.Application)
	logging.Logger.Infof("Event ID: APPLICATION_CREATED, Description: Application %s created by user %s for task %s", application.ID.Hex(), userID.Hex(), taskID.Hex())
	return application, nil
}

// computeMatchScore derives the advisory auto-match score from the
// assistant's profile against the task requirements. Scores rank candidates
// for the clinic; they gate nothing.
func computeMatchScore(profile *models.AssistantProfile, task *models.Task) (*models.MatchCriteria, float64) {
	criteria := &models.MatchCriteria{
		LocationScore:     50, // neutral: no geospatial ranking
		AvailabilityScore: 100,
	}

	if profile == nil {
		criteria.ExperienceScore = 50
		criteria.CertificationScore = 50
		criteria.RatingScore = 50
	} else {
		required := task.Requirements.MinimumExperience
		years := profile.ProfessionalInfo.ExperienceYears
		if required <= 0 || years >= required {
			criteria.ExperienceScore = 100
		} else {
			criteria.ExperienceScore = models.Round2(float64(years) / float64(required) * 100)
		}

		switch {
		case task.Requirements.CertificationLevel == "":
			criteria.CertificationScore = 100
		case profile.ProfessionalInfo.CertificationLevel == task.Requirements.CertificationLevel:
			criteria.CertificationScore = 100
		case profile.ProfessionalInfo.CertificationLevel == models.CertLevelII && task.Requirements.CertificationLevel == models.CertLevelI:
			criteria.CertificationScore = 75
		default:
			criteria.CertificationScore = 25
		}

		rating := profile.PerformanceMetrics.Rating
		if rating.Count == 0 {
			criteria.RatingScore = 50
		} else {
			criteria.RatingScore = models.Round2(rating.Average / 5 * 100)
		}
	}

	overall := models.Round2(
		criteria.LocationScore*0.15 +
			criteria.ExperienceScore*0.25 +
			criteria.CertificationScore*0.30 +
			criteria.RatingScore*0.20 +
			criteria.AvailabilityScore*0.10)
	return criteria, overall
}

// AcceptResult is the caller-visible outcome of an acceptance.
type AcceptResult struct {
	TaskID                primitive.ObjectID `json:"task_id"`
	AcceptedApplicationID primitive.ObjectID `json:"accepted_application_id"`
}

// Accept assigns the task to the applicant: the application becomes
// accepted, the task becomes assigned, and every other still-pending
// application for the task is rejected, all in one transaction. Applicants
// are notified after commit, best effort.
func (s *ApplicationService) Accept(ctx context.Context, applicationID, clinicID, actorID primitive.ObjectID) (*AcceptResult, error) {
	type acceptOutcome struct {
		application models.Application
		task        models.Task
		rejectedIDs []primitive.ObjectID
	}

	result, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var application models.Application
		err := s.ApplicationsCollection.FindOne(sc, bson.M{"_id": applicationID}).Decode(&application)
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch application: %v", err)
		}

		var task models.Task
		err = s.TasksCollection.FindOne(sc, bson.M{"_id": application.TaskID, "clinic_id": clinicID}).Decode(&task)
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch task: %v", err)
		}

		if task.Status != models.TaskStatusOpen {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"task cannot be assigned because its current status is '%s', it must be 'open'", task.Status)
		}
		if application.Status.IsTerminal() {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"application has already been %s", application.Status)
		}

		now := time.Now()

		res, err := s.ApplicationsCollection.UpdateOne(sc,
			bson.M{"_id": application.ID, "status": application.Status},
			bson.M{"$set": bson.M{
				"status":      models.ApplicationAccepted,
				"reviewed_at": now,
				"reviewed_by": actorID,
			}})
		if err != nil {
			return nil, fmt.Errorf("failed to accept application: %v", err)
		}
		if res.MatchedCount == 0 {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"application was modified concurrently, please retry")
		}

		res, err = s.TasksCollection.UpdateOne(sc,
			bson.M{"_id": task.ID, "status": models.TaskStatusOpen},
			bson.M{"$set": bson.M{
				"status": models.TaskStatusAssigned,
				"assignment": models.TaskAssignment{
					AssignedTo: application.ApplicantID,
					AssignedAt: &now,
				},
				"updated_at": now,
			}})
		if err != nil {
			return nil, fmt.Errorf("failed to assign task: %v", err)
		}
		if res.MatchedCount == 0 {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"task was modified concurrently, please retry")
		}

		// Everyone else still pending loses, atomically with the acceptance,
		// so a reader can never observe an assigned task with two accepted
		// applications.
		competing := bson.M{"task_id": task.ID, "status": models.ApplicationPending}
		cursor, err := s.ApplicationsCollection.Find(sc, competing)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch competing applications: %v", err)
		}
		var others []models.Application
		if err := cursor.All(sc, &others); err != nil {
			return nil, fmt.Errorf("failed to decode competing applications: %v", err)
		}

		if _, err := s.ApplicationsCollection.UpdateMany(sc, competing,
			bson.M{"$set": bson.M{
				"status":      models.ApplicationRejected,
				"reviewed_at": now,
				"reviewed_by": actorID,
			}}); err != nil {
			return nil, fmt.Errorf("failed to reject competing applications: %v", err)
		}

		outcome := acceptOutcome{application: application, task: task}
		for _, other := range others {
			outcome.rejectedIDs = append(outcome.rejectedIDs, other.ApplicantID)
		}
		return outcome, nil
	})
	if err != nil {
		return nil, err
	}

	outcome := result.(acceptOutcome)
	logging.Logger.Infof("Event ID: APPLICATION_ACCEPTED, Description: Application %s accepted for task %s, %d competing applications rejected", outcome.application.ID.Hex(), outcome.task.ID.Hex(), len(outcome.rejectedIDs))

	go s.notifyAcceptOutcome(outcome.task, outcome.application.ApplicantID, outcome.rejectedIDs)

	return &AcceptResult{TaskID: outcome.task.ID, AcceptedApplicationID: outcome.application.ID}, nil
}

func (s *ApplicationService) notifyAcceptOutcome(task models.Task, acceptedID primitive.ObjectID, rejectedIDs []primitive.ObjectID) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var accepted models.User
	if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": acceptedID}).Decode(&accepted); err != nil {
		logging.Logger.Errorf("Event ID: ACCEPT_NOTIFY_FAILED, Description: Failed to load accepted applicant %s: %v", acceptedID.Hex(), err)
	} else {
		s.Notifier.SendEmail(accepted.Email,
			fmt.Sprintf("Congratulations! Your application for \"%s\" has been accepted.", task.Title),
			fmt.Sprintf("Your application for the task \"%s\" has been accepted. Please log in to your dashboard for more details.", task.Title))
		s.Notifier.SendSMS(accepted.Mobile,
			fmt.Sprintf("Congratulations! Your application for \"%s\" has been accepted.", task.Title))
	}

	for _, rejectedID := range rejectedIDs {
		var rejected models.User
		if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": rejectedID}).Decode(&rejected); err != nil {
			logging.Logger.Errorf("Event ID: ACCEPT_NOTIFY_FAILED, Description: Failed to load rejected applicant %s: %v", rejectedID.Hex(), err)
			continue
		}
		s.Notifier.SendEmail(rejected.Email,
			fmt.Sprintf("Update on your application for \"%s\"", task.Title),
			fmt.Sprintf("Thank you for your interest in the task \"%s\". The position has now been filled. We encourage you to apply for other open tasks.", task.Title))
	}
}

// RejectResult is the caller-visible outcome of a rejection.
type RejectResult struct {
	ApplicationID primitive.ObjectID `json:"application_id"`
}

// Reject turns down a single application. No task mutation and no counter
// change: applications_count tracks total submissions, not live ones.
func (s *ApplicationService) Reject(ctx context.Context, applicationID, clinicID, actorID primitive.ObjectID) (*RejectResult, error) {
	var application models.Application
	err := s.ApplicationsCollection.FindOne(ctx, bson.M{"_id": applicationID}).Decode(&application)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch application: %v", err)
	}

	var task models.Task
	err = s.TasksCollection.FindOne(ctx, bson.M{"_id": application.TaskID, "clinic_id": clinicID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}

	if application.Status.IsTerminal() {
		return nil, models.NewConflict(models.ReasonInvalidState,
			"application has already been %s", application.Status)
	}

	res, err := s.ApplicationsCollection.UpdateOne(ctx,
		bson.M{"_id": application.ID, "status": application.Status},
		bson.M{"$set": bson.M{
			"status":      models.ApplicationRejected,
			"reviewed_at": time.Now(),
			"reviewed_by": actorID,
		}})
	if err != nil {
		return nil, fmt.Errorf("failed to reject application: %v", err)
	}
	if res.MatchedCount == 0 {
		return nil, models.NewConflict(models.ReasonInvalidState,
			"application was modified concurrently, please retry")
	}

	logging.Logger.Infof("Event ID: APPLICATION_REJECTED, Description: Application %s rejected by clinic %s", application.ID.Hex(), clinicID.Hex())

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		var applicant models.User
		if err := s.UsersCollection.FindOne(ctx, bson.M{"_id": application.ApplicantID}).Decode(&applicant); err != nil {
			logging.Logger.Errorf("Event ID: REJECT_NOTIFY_FAILED, Description: Failed to load applicant %s: %v", application.ApplicantID.Hex(), err)
			return
		}
		s.Notifier.SendEmail(applicant.Email,
			fmt.Sprintf("Update on your application for \"%s\"", task.Title),
			fmt.Sprintf("Thank you for your interest in the task \"%s\". After careful consideration, we have decided to move forward with other candidates. We encourage you to apply for other open tasks.", task.Title))
	}()

	return &RejectResult{ApplicationID: application.ID}, nil
}

// WithdrawResult is the caller-visible outcome of a withdrawal.
type WithdrawResult struct {
	ApplicationID primitive.ObjectID `json:"application_id"`
}

// Withdraw retracts the applicant's own pending or under-review application
// and decrements the task's applications_count -- the one place the counter
// ever goes down.
func (s *ApplicationService) Withdraw(ctx context.Context, applicationID, applicantID primitive.ObjectID) (*WithdrawResult, error) {
	result, err := s.withTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var application models.Application
		err := s.ApplicationsCollection.FindOne(sc, bson.M{
			"_id":          applicationID,
			"applicant_id": applicantID,
		}).Decode(&application)
		if err == mongo.ErrNoDocuments {
			return nil, models.ErrNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to fetch application: %v", err)
		}

		if !application.Status.IsWithdrawable() {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"application cannot be withdrawn because its status is '%s'", application.Status)
		}

		res, err := s.ApplicationsCollection.UpdateOne(sc,
			bson.M{"_id": application.ID, "status": application.Status},
			bson.M{"$set": bson.M{"status": models.ApplicationWithdrawn}})
		if err != nil {
			return nil, fmt.Errorf("failed to withdraw application: %v", err)
		}
		if res.MatchedCount == 0 {
			return nil, models.NewConflict(models.ReasonInvalidState,
				"application was modified concurrently, please retry")
		}

		if _, err := s.TasksCollection.UpdateOne(sc,
			bson.M{"_id": application.TaskID, "applications_count": bson.M{"$gt": 0}},
			bson.M{"$inc": bson.M{"applications_count": -1}}); err != nil {
			return nil, fmt.Errorf("failed to decrement applications_count: %v", err)
		}

		return &application, nil
	})
	if err != nil {
		return nil, err
	}

	application := result.(*models.Application)
	logging.Logger.Infof("Event ID: APPLICATION_WITHDRAWN, Description: Application %s withdrawn by user %s", application.ID.Hex(), applicantID.Hex())
	return &WithdrawResult{ApplicationID: application.ID}, nil
}

// ApplicantSummary is the contact view of an applicant a clinic sees when
// reviewing applications.
type ApplicantSummary struct {
	ID        primitive.ObjectID `json:"id"`
	FirstName string             `json:"first_name"`
	LastName  string             `json:"last_name"`
	Email     string             `json:"email"`
	Mobile    string             `json:"mobile"`
}

// ApplicationWithApplicant pairs an application with its applicant's
// contact summary.
type ApplicationWithApplicant struct {
	models.Application
	Applicant *ApplicantSummary `json:"applicant,omitempty"`
}

// ListForTask returns every application for one of the clinic's tasks with
// applicant contact details attached.
func (s *ApplicationService) ListForTask(ctx context.Context, taskID primitive.ObjectID, scope TaskScope) ([]ApplicationWithApplicant, error) {
	var task models.Task
	err := s.TasksCollection.FindOne(ctx, scopedFilter(taskID, scope)).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch task: %v", err)
	}

	cursor, err := s.ApplicationsCollection.Find(ctx, bson.M{"task_id": taskID},
		options.Find().SetSort(bson.D{{Key: "applied_at", Value: -1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %v", err)
	}
	defer cursor.Close(ctx)

	var applications []models.Application
	if err := cursor.All(ctx, &applications); err != nil {
		return nil, fmt.Errorf("failed to decode applications: %v", err)
	}

	applicantIDs := make([]primitive.ObjectID, 0, len(applications))
	for _, app := range applications {
		applicantIDs = append(applicantIDs, app.ApplicantID)
	}

	applicants := map[primitive.ObjectID]*ApplicantSummary{}
	if len(applicantIDs) > 0 {
		userCursor, err := s.UsersCollection.Find(ctx, bson.M{"_id": bson.M{"$in": applicantIDs}})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch applicants: %v", err)
		}
		defer userCursor.Close(ctx)

		var users []models.User
		if err := userCursor.All(ctx, &users); err != nil {
			return nil, fmt.Errorf("failed to decode applicants: %v", err)
		}
		for _, user := range users {
			applicants[user.ID] = &ApplicantSummary{
				ID:        user.ID,
				FirstName: user.FirstName,
				LastName:  user.LastName,
				Email:     user.Email,
				Mobile:    user.Mobile,
			}
		}
	}

	result := make([]ApplicationWithApplicant, 0, len(applications))
	for _, app := range applications {
		result = append(result, ApplicationWithApplicant{
			Application: app,
			Applicant:   applicants[app.ApplicantID],
		})
	}
	return result, nil
}

// ListForApplicant returns the assistant's own applications, newest first.
func (s *ApplicationService) ListForApplicant(ctx context.Context, applicantID primitive.ObjectID, p models.Pagination) (models.Paginated[models.Application], error) {
	var empty models.Paginated[models.Application]
	filter := bson.M{"applicant_id": applicantID}

	total, err := s.ApplicationsCollection.CountDocuments(ctx, filter)
	if err != nil {
		return empty, fmt.Errorf("failed to count applications: %v", err)
	}

	cursor, err := s.ApplicationsCollection.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "applied_at", Value: -1}, {Key: "_id", Value: 1}}).
			SetSkip(p.Skip()).
			SetLimit(int64(p.Limit)))
	if err != nil {
		return empty, fmt.Errorf("failed to list applications: %v", err)
	}
	defer cursor.Close(ctx)

	var applications []models.Application
	if err := cursor.All(ctx, &applications); err != nil {
		return empty, fmt.Errorf("failed to decode applications: %v", err)
	}

	return models.NewPaginated(applications, total, p), nil
}
