package main

import (
	"context"
	"log"

	"pixelcraft-backend/audit"
	"pixelcraft-backend/auth"
	"pixelcraft-backend/config"
	"pixelcraft-backend/convert"
	"pixelcraft-backend/handlers"
	"pixelcraft-backend/middleware"
	"pixelcraft-backend/repository"
	"pixelcraft-backend/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

func main() {
	// Load .env file from project root (relative to cmd/server/)
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("../../.env"); err != nil {
			log.Printf("Warning: No .env file found, using environment variables")
		}
	}

	cfg := config.Load()
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Println("Warning: JWT_SECRET not set, using development default")
	}

	// Initialize database connection
	db, err := initPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize Postgres:", err)
	}
	defer db.Close()

	// Initialize storage for converted outputs
	outputStorage, err := storage.NewStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	log.Println("Storage initialized")

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	logRepo := repository.NewConversionLogRepository(db)
	fileRepo := repository.NewFileMetadataRepository(db)

	// Initialize Gemini client for background removal
	var rembg *convert.BackgroundService
	if cfg.GeminiAPIKey != "" {
		geminiClient, err := initGemini(cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal("Failed to initialize Gemini:", err)
		}
		rembg = convert.NewBackgroundService(geminiClient)
	} else {
		log.Println("Warning: GEMINI_API_KEY not set, background removal disabled")
		rembg = convert.NewBackgroundService(nil)
	}

	// Initialize conversion services
	scratch := convert.NewScratch("")
	ocrService := convert.NewOCRService()
	pdfService := convert.NewPDFService(scratch, ocrService)
	imageService := convert.NewImageService()

	// Initialize audit recorder
	recorder := audit.NewRecorder(
		audit.WithLogStore(logRepo),
		audit.WithMetadataStore(fileRepo),
		audit.WithArchive(outputStorage),
	)

	// Initialize auth service
	authOpts := []auth.ServiceOption{
		auth.WithUserStore(userRepo),
		auth.WithTokenConfig(cfg.JWTSecret, cfg.TokenExpiry),
	}
	if cfg.GoogleOAuthEnabled() {
		authOpts = append(authOpts, auth.WithGoogleProvider(auth.NewGoogleProvider(auth.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
		})))
	} else {
		log.Println("Warning: Google OAuth not configured, google login disabled")
	}
	authService := auth.NewService(authOpts...)

	// Initialize handlers
	pdfHandler := handlers.NewPDFHandler(pdfService, recorder, cfg.MaxUploadBytes)
	imageHandler := handlers.NewImageHandler(imageService, rembg, recorder, cfg.MaxUploadBytes)
	ocrHandler := handlers.NewOCRHandler(ocrService, recorder, cfg.MaxUploadBytes)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userRepo, logRepo, fileRepo, outputStorage)
	healthHandler := handlers.NewHealthHandler(db, userRepo)

	// Setup Gin router
	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Disposition"},
	}))

	metrics := middleware.NewMetrics()
	r.Use(metrics.Middleware())

	if cfg.RateLimitRPS > 0 {
		limiter := middleware.NewRateLimiter(cfg.RateLimitRPS)
		defer limiter.Stop()
		r.Use(limiter.Middleware())
	}

	r.Use(auth.OptionalIdentity(authService))

	registerRoutes(r, pdfHandler, imageHandler, ocrHandler, authHandler, userHandler, healthHandler, metrics)

	log.Printf("Server starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func registerRoutes(
	r *gin.Engine,
	pdfHandler *handlers.PDFHandler,
	imageHandler *handlers.ImageHandler,
	ocrHandler *handlers.OCRHandler,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	healthHandler *handlers.HealthHandler,
	metrics *middleware.Metrics,
) {
	// Health and diagnostics
	r.GET("/", healthHandler.Root)
	r.GET("/health", healthHandler.Health)
	r.GET("/db-status", healthHandler.DBStatus)
	r.GET("/test-db", healthHandler.TestDB)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	// PDF routes, with legacy /api aliases against the same handlers
	registerPDF := func(g *gin.RouterGroup) {
		g.POST("/to-word", pdfHandler.ToWord)
		g.POST("/to-excel", pdfHandler.ToExcel)
		g.POST("/to-powerpoint", pdfHandler.ToPowerPoint)
		g.POST("/to-html", pdfHandler.ToHTML)
		g.POST("/to-images", pdfHandler.ToImages)
		g.POST("/extract-text", pdfHandler.ExtractText)
		g.POST("/merge", pdfHandler.Merge)
		g.POST("/split", pdfHandler.Split)
		g.POST("/compress", pdfHandler.Compress)
		g.POST("/rotate", pdfHandler.Rotate)
		g.POST("/crop", pdfHandler.Crop)
		g.POST("/watermark", pdfHandler.Watermark)
		g.POST("/page-numbers", pdfHandler.PageNumbers)
		g.POST("/redact", pdfHandler.Redact)
		g.POST("/search", pdfHandler.Search)
		g.POST("/protect", pdfHandler.Protect)
		g.POST("/unlock", pdfHandler.Unlock)
	}
	registerPDF(r.Group("/pdf"))
	registerPDF(r.Group("/api/pdf"))

	// Image routes
	registerImage := func(g *gin.RouterGroup) {
		g.POST("/convert", imageHandler.Convert)
		g.POST("/resize", imageHandler.Resize)
		g.POST("/enhance", imageHandler.Enhance)
		g.POST("/compress", imageHandler.Compress)
		g.POST("/add-watermark", imageHandler.AddWatermark)
		g.POST("/remove-background", imageHandler.RemoveBackground)
		g.POST("/to-pdf", imageHandler.ToPDF)
	}
	registerImage(r.Group("/image"))
	registerImage(r.Group("/api/convert"))

	// OCR
	r.POST("/ocr/extract-text", ocrHandler.ExtractText)

	// Auth
	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/google-register", authHandler.GoogleLogin)
		authGroup.POST("/google-login", authHandler.GoogleLogin)
	}
	r.POST("/token", authHandler.Token)

	// User routes require identity
	userGroup := r.Group("/user", auth.RequireIdentity())
	{
		userGroup.GET("/stats", userHandler.Stats)
		userGroup.GET("/files", userHandler.Files)
		userGroup.GET("/files/:id", userHandler.DownloadFile)
		userGroup.GET("/conversions", userHandler.Conversions)
	}

	r.GET("/admin/stats", userHandler.AdminStats)
}

func initPostgres(connString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), connString)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, err
	}

	log.Println("Postgres connection established")
	return pool, nil
}

func initGemini(apiKey string) (*genai.Client, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	log.Println("Gemini client initialized")
	return client, nil
}
