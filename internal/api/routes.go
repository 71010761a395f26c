package api

import (
	"net/http"

	"repflow/workout-app/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the handlers onto the Gin engine.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	routineService service.RoutineService,
	sessionService service.SessionService,
	shareService service.ShareService,
) {
	authHandler := NewAuthHandler(authService)
	routineHandler := NewRoutineHandler(routineService)
	workoutHandler := NewWorkoutHandler(sessionService, shareService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}

		protected := apiV1.Group("")
		protected.Use(authMiddleware)
		{
			routineGroup := protected.Group("/routines")
			{
				routineGroup.POST("", routineHandler.CreateRoutine)
				routineGroup.POST("/copy", routineHandler.CopyRoutine)
				routineGroup.GET("", routineHandler.ListRoutines)
				routineGroup.GET("/:routineId", routineHandler.GetRoutine)
				routineGroup.PATCH("/:routineId/name", routineHandler.RenameRoutine)
				routineGroup.PATCH("/:routineId/archive", routineHandler.ArchiveRoutine)
				routineGroup.DELETE("/:routineId", routineHandler.DeleteRoutine)
				routineGroup.POST("/:routineId/exercises", routineHandler.AddExercise)
				routineGroup.PUT("/:routineId/order", routineHandler.ReorderExercises)
			}

			// Template sets are addressed directly; ownership is verified by
			// walking set -> routine exercise -> routine.
			setGroup := protected.Group("/template-sets")
			{
				setGroup.PUT("/:setId", routineHandler.UpdateTemplateSet)
				setGroup.DELETE("/:setId", routineHandler.DeleteTemplateSet)
			}

			workoutGroup := protected.Group("/workouts")
			{
				// The live session engine: one multiplexed action endpoint.
				workoutGroup.POST("/actions", workoutHandler.HandleAction)
				workoutGroup.GET("/active", workoutHandler.GetActiveWorkout)
				workoutGroup.GET("/:workoutId", workoutHandler.GetWorkout)
				workoutGroup.PUT("/:workoutId/order", workoutHandler.ReorderExercises)
				workoutGroup.PATCH("/:workoutId/exercises/:exerciseId", workoutHandler.OverrideExercise)
				workoutGroup.POST("/:workoutId/share-image", workoutHandler.RequestShareImage)
				workoutGroup.GET("/:workoutId/share-image", workoutHandler.GetShareImage)
			}
		}
	}
}
