package main

import (
	"net/http"

	"classroombooking/internal/config"
	"classroombooking/internal/database"
	"classroombooking/internal/domain"
	"classroombooking/internal/domain/booking"
	"classroombooking/internal/domain/classroom"
	"classroombooking/internal/middleware"
	jwtsvc "classroombooking/internal/pkg/jwt"
	"classroombooking/internal/pkg/response"
	"classroombooking/internal/repository"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newRouter(cfg *config.Config, db *gorm.DB, j *jwtsvc.Service) *gin.Engine {
	if cfg.IsProdLike() {
		gin.SetMode(gin.ReleaseMode)
	}

	classroomRepo := repository.NewClassroomRepository(db)
	classroomHandler := classroom.NewHandler(classroomRepo)
	bookingStore := booking.NewStore(db, cfg.WriteTimeout)
	bookingService := booking.NewService(bookingStore, classroomRepo, repository.NewUserRepository(db))
	bookingHandler := booking.NewHandler(bookingService)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.ErrorLogger(), middleware.CORS(cfg.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Database unreachable")
			return
		}
		response.Success(c, http.StatusOK, gin.H{
			"status":  "healthy",
			"env":     cfg.AppEnv,
			"dialect": database.Dialect(db),
		})
	})

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(j), middleware.RequireRole(domain.RoleUser, domain.RoleAdmin))
	{
		bookingHandler.RegisterRoutes(protected)
		classroomHandler.RegisterRoutes(protected)
	}

	return r
}
