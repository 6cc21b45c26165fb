package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/unireg-api/api/swagger"
	"github.com/noah-isme/unireg-api/internal/handler"
	internalmiddleware "github.com/noah-isme/unireg-api/internal/middleware"
	"github.com/noah-isme/unireg-api/internal/models"
	"github.com/noah-isme/unireg-api/internal/repository"
	"github.com/noah-isme/unireg-api/internal/service"
	"github.com/noah-isme/unireg-api/pkg/cache"
	"github.com/noah-isme/unireg-api/pkg/config"
	"github.com/noah-isme/unireg-api/pkg/database"
	"github.com/noah-isme/unireg-api/pkg/feetable"
	"github.com/noah-isme/unireg-api/pkg/jobs"
	"github.com/noah-isme/unireg-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/unireg-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/unireg-api/pkg/middleware/requestid"
	"github.com/noah-isme/unireg-api/pkg/money"
)

// @title University Registration API
// @version 1.0.0
// @description Registration eligibility, fee structures, program courses and grading.
// @BasePath /api/v1
// @schemes http

const catalogRefreshJob = "catalog.refresh"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis unavailable", "error", err)
	}
	defer redisClient.Close() //nolint:errcheck

	fees, err := feetable.Load(cfg.Registration.FeeTablePath)
	if err != nil {
		logr.Sugar().Fatalw("failed to load fee table", "path", cfg.Registration.FeeTablePath, "error", err)
	}

	scale, err := service.ParseGradeScale(cfg.Grades.Scale)
	if err != nil {
		logr.Sugar().Fatalw("invalid grade scale", "error", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	formatter := money.NewFormatter(cfg.Currency.Code, cfg.Currency.MajorUnit, cfg.Currency.MinorUnit)

	studentRepo := repository.NewStudentRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	programRepo := repository.NewProgramRepository(db)
	registrationRepo := repository.NewRegistrationRepository(db)
	submissionRepo := repository.NewGradeSubmissionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, "unireg", logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.CatalogTTL, logr, cfg.Cache.Enabled)
	feeSvc := service.NewFeeService(fees, formatter)
	periodSvc := service.NewPeriodService(periodRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, programRepo, periodRepo, validate, logr)
	catalogSvc := service.NewCatalogService(courseRepo, programRepo, cacheSvc, validate, logr)
	resolverSvc := service.NewCourseResolverService(catalogSvc, nil, metrics, logr)
	eligibilitySvc := service.NewEligibilityService(studentRepo, paymentRepo, feeSvc, cfg.Registration.PaymentThreshold, metrics, logr)
	paymentSvc := service.NewPaymentService(paymentRepo, studentSvc, feeSvc, formatter, validate, logr)
	registrationSvc := service.NewRegistrationService(registrationRepo, studentSvc, eligibilitySvc, resolverSvc, validate, logr)
	gradeSvc := service.NewGradeSubmissionService(submissionRepo, service.NewGradeCalculator(scale), nil, validate, metrics, logr)

	publications := jobs.NewQueue("grade-publication", gradeSvc.HandlePublication, jobs.QueueConfig{
		Workers:    cfg.Grades.PublishWorkers,
		MaxRetries: cfg.Grades.PublishRetries,
		RetryDelay: 2 * time.Second,
		Logger:     logr,
		OnExhausted: func(job jobs.Job, err error) {
			metrics.RecordPublication("exhausted")
		},
	})
	publications.Start(ctx)
	defer publications.Stop()
	gradeSvc.SetQueue(publications)

	scheduler := jobs.NewScheduler(logr, time.Minute)
	if err := scheduler.Register(catalogRefreshJob, cfg.Cache.RefreshSchedule, catalogSvc.Refresh); err != nil {
		logr.Sugar().Fatalw("invalid catalog refresh schedule", "schedule", cfg.Cache.RefreshSchedule, "error", err)
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()
	scheduler.RunNow(catalogRefreshJob, catalogSvc.Refresh)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, cfg.Actor.IDHeader))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins, cfg.Actor.IDHeader, cfg.Actor.RoleHeader))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": handler.PingFunc(db.PingContext),
		"redis": handler.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), cfg, logr, routeHandlers{
		students:      handler.NewStudentHandler(studentSvc),
		eligibility:   handler.NewEligibilityHandler(eligibilitySvc, periodSvc),
		fees:          handler.NewFeeHandler(feeSvc),
		courses:       handler.NewCourseHandler(catalogSvc, resolverSvc),
		grades:        handler.NewGradeHandler(gradeSvc),
		payments:      handler.NewPaymentHandler(paymentSvc),
		registrations: handler.NewRegistrationHandler(registrationSvc),
		periods:       handler.NewPeriodHandler(periodSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type routeHandlers struct {
	students      *handler.StudentHandler
	eligibility   *handler.EligibilityHandler
	fees          *handler.FeeHandler
	courses       *handler.CourseHandler
	grades        *handler.GradeHandler
	payments      *handler.PaymentHandler
	registrations *handler.RegistrationHandler
	periods       *handler.PeriodHandler
}

func registerRoutes(api *gin.RouterGroup, cfg *config.Config, logr *zap.Logger, h routeHandlers) {
	api.Use(internalmiddleware.Actor(cfg.Actor.IDHeader, cfg.Actor.RoleHeader))

	admin := string(models.RoleAdmin)
	affairs := string(models.RoleAcademicAffairs)
	finance := string(models.RoleFinance)
	lecturer := string(models.RoleLecturer)
	self := internalmiddleware.RoleSelf

	api.GET("/fees", h.fees.List)
	api.GET("/fees/:level/:studyMode", h.fees.Get)

	api.GET("/courses", h.courses.ListCourses)
	api.PUT("/courses/:code",
		internalmiddleware.RBAC(admin, affairs),
		internalmiddleware.Audit(logr, "course.upsert", "course"),
		h.courses.UpsertCourse)
	api.GET("/programs", h.courses.Programs)
	api.GET("/programs/:id", h.courses.Program)
	api.GET("/programs/:id/courses", h.courses.ProgramCourses)
	api.PUT("/programs/:id/course-mapping",
		internalmiddleware.RBAC(admin, affairs),
		internalmiddleware.Audit(logr, "program.mapping.update", "program"),
		h.courses.UpdateMapping)

	api.GET("/periods", h.periods.List)
	api.GET("/periods/current", h.periods.Current)
	api.PUT("/periods/current",
		internalmiddleware.RequireRoles(models.RoleAdmin),
		internalmiddleware.Audit(logr, "period.current.set", "academic_period"),
		h.periods.SetCurrent)

	students := api.Group("/students")
	students.GET("", internalmiddleware.RBAC(admin, affairs, finance), h.students.List)
	students.POST("",
		internalmiddleware.RBAC(admin, affairs),
		internalmiddleware.Audit(logr, "student.create", "student"),
		h.students.Create)
	students.GET("/:id", internalmiddleware.RBAC(admin, affairs, finance, self), h.students.Get)
	students.PUT("/:id/level",
		internalmiddleware.RBAC(admin, affairs),
		internalmiddleware.Audit(logr, "student.level.update", "student"),
		h.students.UpdateLevel)
	students.GET("/:id/eligibility", internalmiddleware.RBAC(admin, affairs, finance, self), h.eligibility.Check)
	students.GET("/:id/payments", internalmiddleware.RBAC(admin, finance, self), h.payments.StudentPayments)
	students.GET("/:id/registrations", internalmiddleware.RBAC(admin, affairs, self), h.registrations.StudentRegistrations)
	students.GET("/:id/grades", internalmiddleware.RBAC(admin, affairs, self), h.grades.StudentGrades)

	api.POST("/payments",
		internalmiddleware.RBAC(admin, finance),
		internalmiddleware.Audit(logr, "payment.record", "payment"),
		h.payments.Record)

	api.POST("/registrations",
		internalmiddleware.RequireRoles(models.RoleStudent, models.RoleAdmin, models.RoleAcademicAffairs),
		internalmiddleware.Audit(logr, "registration.create", "registration"),
		h.registrations.Register)

	api.POST("/grades/compute", h.grades.Compute)

	submissions := api.Group("/grade-submissions")
	submissions.Use(internalmiddleware.RBAC(admin, affairs, lecturer))
	submissions.POST("", internalmiddleware.Audit(logr, "grade_submission.create", "grade_submission"), h.grades.CreateSubmission)
	submissions.GET("", h.grades.ListSubmissions)
	submissions.GET("/:id", h.grades.GetSubmission)
	submissions.POST("/:id/submit", internalmiddleware.Audit(logr, "grade_submission.submit", "grade_submission"), h.grades.Submit)
	submissions.POST("/:id/approve",
		internalmiddleware.RBAC(admin, affairs),
		internalmiddleware.Audit(logr, "grade_submission.approve", "grade_submission"),
		h.grades.Approve)
	submissions.POST("/:id/publish",
		internalmiddleware.RBAC(admin, affairs),
		internalmiddleware.Audit(logr, "grade_submission.publish", "grade_submission"),
		h.grades.Publish)
}
