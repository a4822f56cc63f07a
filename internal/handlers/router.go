package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"alfredoptarigan/ats-analyzer/internal/handlers/presenter"
)

type AppOptions struct {
	BodyLimit    int64
	OriginURL    string
	AccessLog    bool
	WriteTimeout time.Duration
}

// Handlers groups everything NewApp mounts.
type Handlers struct {
	Upload   *UploadHandler
	Analysis *AnalysisHandler
	Analyze  *AnalyzeHandler
	Health   *HealthHandler
}

// NewApp builds the fiber app with middleware and every route.
func NewApp(h Handlers, opts AppOptions) *fiber.App {
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 30 * time.Second
	}

	app := fiber.New(fiber.Config{
		AppName:      "ATS Resume Analyzer API",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: opts.WriteTimeout,
		BodyLimit:    int(opts.BodyLimit) + multipartOverhead,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	if opts.AccessLog {
		app.Use(fiberlogger.New(fiberlogger.Config{
			Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
			TimeFormat: "2006-01-02 15:04:05",
		}))
	}

	origin := opts.OriginURL
	if origin == "" {
		origin = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origin,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: origin != "*",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "ATS Resume Analyzer API",
			"version": "1.0.0",
			"endpoints": []string{
				"POST /upload",
				"POST /api/v1/upload",
				"POST /api/v1/analyses",
				"GET /api/v1/analyses/:id",
				"GET /api/v1/analyses/:id/report",
				"POST /api/v1/analyze",
				"POST /api/v1/transform",
			},
		})
	})
	app.Post("/upload", h.Upload.HandleExtractText)

	api := app.Group("/api/v1")
	api.Get("/health", h.Health.HandleHealth)
	api.Get("/ready", h.Health.HandleReady)
	api.Post("/upload", h.Upload.HandleUpload)
	api.Post("/analyses", h.Analysis.HandleCreate)
	api.Get("/analyses/:id", h.Analysis.HandleGet)
	api.Get("/analyses/:id/report", h.Analysis.HandleReport)
	api.Post("/analyze", h.Analyze.HandleAnalyze)
	api.Post("/transform", h.Analyze.HandleTransform)

	return app
}

// multipartOverhead leaves room for form boundaries around a max size file.
const multipartOverhead = 64 * 1024

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	return presenter.Error(c, code, err.Error())
}
