package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"repflow/workout-app/internal/api"
	"repflow/workout-app/internal/config"
	"repflow/workout-app/internal/repository/mongo"
	"repflow/workout-app/internal/service"
	"repflow/workout-app/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("Starting Workout App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	// The unique order and templateSetRef indexes back the engine's invariants,
	// so failures here are worth surfacing even though startup continues.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
			log.Printf("ERROR: users indexes: %v", err)
		}
		if err := mongo.EnsureExerciseIndexes(ctx, appDB.Collection("exercises")); err != nil {
			log.Printf("ERROR: exercises indexes: %v", err)
		}
		if err := mongo.EnsureRoutineIndexes(ctx, appDB.Collection("routines")); err != nil {
			log.Printf("ERROR: routines indexes: %v", err)
		}
		if err := mongo.EnsureRoutineExerciseIndexes(ctx, appDB.Collection("routine_exercises")); err != nil {
			log.Printf("ERROR: routine_exercises indexes: %v", err)
		}
		if err := mongo.EnsureTemplateSetIndexes(ctx, appDB.Collection("template_sets")); err != nil {
			log.Printf("ERROR: template_sets indexes: %v", err)
		}
		if err := mongo.EnsureWorkoutIndexes(ctx, appDB.Collection("workouts")); err != nil {
			log.Printf("ERROR: workouts indexes: %v", err)
		}
		if err := mongo.EnsureWorkoutExerciseIndexes(ctx, appDB.Collection("workout_exercises")); err != nil {
			log.Printf("ERROR: workout_exercises indexes: %v", err)
		}
		if err := mongo.EnsureLoggedSetIndexes(ctx, appDB.Collection("logged_sets")); err != nil {
			log.Printf("ERROR: logged_sets indexes: %v", err)
		}
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	exerciseRepo := mongo.NewMongoExerciseRepository(appDB)
	routineRepo := mongo.NewMongoRoutineRepository(appDB)
	routineExerciseRepo := mongo.NewMongoRoutineExerciseRepository(appDB)
	templateSetRepo := mongo.NewMongoTemplateSetRepository(appDB)
	workoutRepo := mongo.NewMongoWorkoutRepository(appDB)
	workoutExerciseRepo := mongo.NewMongoWorkoutExerciseRepository(appDB)
	loggedSetRepo := mongo.NewMongoLoggedSetRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	routineService := service.NewRoutineService(routineRepo, routineExerciseRepo, templateSetRepo, exerciseRepo)
	sessionService := service.NewSessionService(workoutRepo, workoutExerciseRepo, loggedSetRepo, routineRepo, routineExerciseRepo, templateSetRepo, exerciseRepo)
	shareService := service.NewShareService(workoutRepo, fileStorage)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, routineService, sessionService, shareService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
