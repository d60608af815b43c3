package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/Di-arva/diarva-backend/handlers"
	"github.com/Di-arva/diarva-backend/logging"
	"github.com/Di-arva/diarva-backend/middleware"
	"github.com/Di-arva/diarva-backend/services"
	"github.com/Di-arva/diarva-backend/utils"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sony/gobreaker"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ensureIndexes creates the unique-constraint backstops and the query
// indexes the listing paths rely on.
func ensureIndexes(ctx context.Context, tasks, applications, histories *mongo.Collection) error {
	_, err := applications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "applicant_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create applications index: %v", err)
	}

	_, err = histories.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "task_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create work_histories index: %v", err)
	}

	_, err = tasks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "clinic_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "schedule.start_datetime", Value: 1}}},
		{Keys: bson.D{{Key: "posted_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create tasks indexes: %v", err)
	}

	_, err = applications.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "applicant_id", Value: 1}, {Key: "status", Value: 1}, {Key: "applied_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create applications listing index: %v", err)
	}

	return nil
}

func main() {
	logging.InitLogger()

	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting Staffing Service...")
	if err := godotenv.Load(".env"); err != nil {
		logging.Logger.Warnf("Event ID: ENV_LOAD_WARNING, Description: No .env file loaded: %v", err)
	}

	mongoURI := os.Getenv("MONGO_URI")
	mongoDBName := os.Getenv("MONGO_DB_NAME")
	if mongoURI == "" || mongoDBName == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: MONGO_URI and MONGO_DB_NAME must be set in the environment variables.")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", mongoURI)

	db := client.Database(mongoDBName)
	tasksCollection := db.Collection("tasks")
	applicationsCollection := db.Collection("applications")
	historiesCollection := db.Collection("work_histories")
	usersCollection := db.Collection("users")
	profilesCollection := db.Collection("assistant_profiles")

	if err := ensureIndexes(ctx, tasksCollection, applicationsCollection, historiesCollection); err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Index creation failed: %v", err)
	}

	notificationsBreaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifications-cb",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("Event ID: CIRCUIT_BREAKER_STATE_CHANGE, Description: Circuit Breaker '%s' state changed from %s to %s", name, from.String(), to.String())
		},
	})

	notifier := services.NewNotificationService(
		os.Getenv("NOTIFICATIONS_SERVICE_URL"),
		utils.NewHTTPClient(),
		notificationsBreaker,
	)

	workHistoryService := services.NewWorkHistoryService(historiesCollection)
	taskService := services.NewTaskService(client, tasksCollection, applicationsCollection, usersCollection, workHistoryService, notifier)
	applicationService := services.NewApplicationService(client, tasksCollection, applicationsCollection, usersCollection, profilesCollection, notifier)

	taskHandler := handlers.NewTaskHandler(taskService)
	applicationHandler := handlers.NewApplicationHandler(applicationService)
	workHistoryHandler := handlers.NewWorkHistoryHandler(workHistoryService)

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.JWTAuthMiddleware)

	api.HandleFunc("/clinic/tasks", taskHandler.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/clinic/tasks", taskHandler.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/clinic/tasks/{id}", taskHandler.GetTask).Methods(http.MethodGet)
	api.HandleFunc("/clinic/tasks/{id}", taskHandler.UpdateTask).Methods(http.MethodPatch)
	api.HandleFunc("/clinic/tasks/{id}/cancel", taskHandler.CancelTask).Methods(http.MethodPost)
	api.HandleFunc("/clinic/tasks/{id}/applications", applicationHandler.ListForTask).Methods(http.MethodGet)
	api.HandleFunc("/clinic/work-history", workHistoryHandler.ListForClinic).Methods(http.MethodGet)

	api.HandleFunc("/assistant/tasks/discover", applicationHandler.Discover).Methods(http.MethodGet)
	api.HandleFunc("/assistant/tasks/{id}/apply", applicationHandler.Apply).Methods(http.MethodPost)
	api.HandleFunc("/assistant/applications", applicationHandler.ListMine).Methods(http.MethodGet)
	api.HandleFunc("/assistant/work-history", workHistoryHandler.ListForAssistant).Methods(http.MethodGet)

	api.HandleFunc("/applications/{id}/accept", applicationHandler.Accept).Methods(http.MethodPost)
	api.HandleFunc("/applications/{id}/reject", applicationHandler.Reject).Methods(http.MethodPost)
	api.HandleFunc("/applications/{id}/withdraw", applicationHandler.Withdraw).Methods(http.MethodPost)

	corsRouter := enableCORS(r)

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: SERVER_PORT is not set in the environment variables.")
	}

	serverAddress := fmt.Sprintf(":%s", serverPort)
	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)

	if err := http.ListenAndServe(serverAddress, corsRouter); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
