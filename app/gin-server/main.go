package main

import (
	"context"
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/hireprep/hireprep/config"
	"github.com/hireprep/hireprep/internal/ai"
	"github.com/hireprep/hireprep/internal/api/handlers"
	"github.com/hireprep/hireprep/internal/api/middleware"
	"github.com/hireprep/hireprep/internal/api/routes"
	"github.com/hireprep/hireprep/internal/cache"
	"github.com/hireprep/hireprep/internal/events"
	"github.com/hireprep/hireprep/internal/logger"
	"github.com/hireprep/hireprep/internal/providers/llm"
	"github.com/hireprep/hireprep/internal/providers/stt"
	mongorepo "github.com/hireprep/hireprep/internal/repositories/mongo"
	pgrepo "github.com/hireprep/hireprep/internal/repositories/postgres"
	"github.com/hireprep/hireprep/internal/services"
	"github.com/hireprep/hireprep/internal/storage"
	"github.com/hireprep/hireprep/internal/workers"
)

func main() {
	_ = godotenv.Load()

	l := logger.New()
	ctx := context.Background()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}

	if err := config.InitPostgres(); err != nil {
		log.Fatalf("PostgreSQL init error: %v", err)
	}
	if err := config.MigratePostgres(); err != nil {
		log.Fatalf("PostgreSQL migrate error: %v", err)
	}
	l.Info("PostgreSQL connected")

	if err := config.InitMongo(); err != nil {
		log.Fatalf("MongoDB init error: %v", err)
	}
	if err := config.EnsureMongoIndexes(); err != nil {
		log.Fatalf("MongoDB index error: %v", err)
	}
	l.Info("MongoDB connected")

	if err := config.InitRedis(); err != nil {
		log.Fatalf("Redis init error: %v", err)
	}
	l.Info("Redis connected")

	// LLM provider: Vertex Gemini by default, OpenAI-compatible gateway when
	// LLM_PROVIDER=openai.
	var provider llm.Provider
	if os.Getenv("LLM_PROVIDER") == "openai" {
		provider = llm.NewOpenAICompatible(os.Getenv("OPENAI_BASE_URL"), os.Getenv("OPENAI_API_KEY"), os.Getenv("OPENAI_MODEL"))
	} else {
		var err error
		provider, err = llm.NewVertexGemini(ctx, os.Getenv("GCP_PROJECT"), os.Getenv("GCP_LOCATION"), os.Getenv("GEMINI_MODEL"))
		if err != nil {
			log.Fatalf("LLM init error: %v", err)
		}
	}
	defer provider.Close()
	generator := ai.NewGenerator(provider)

	// STT is optional: without it oral answers are text-only
	var sttProvider stt.Provider
	if sp, err := stt.NewGoogleSpeech(ctx); err != nil {
		l.WithError(err).Warn("speech-to-text unavailable; oral answers are text-only")
	} else {
		sttProvider = sp
		defer sp.Close()
	}

	bucket, err := storage.NewGCSBucket(ctx, os.Getenv("GCS_BUCKET"))
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer bucket.Close()

	// repositories
	users := pgrepo.NewUserRepo(config.PostgresDB)
	profiles := pgrepo.NewProfileRepo(config.PostgresDB)
	resumes := pgrepo.NewResumeFileRepo(config.PostgresDB)
	interviews := mongorepo.NewInterviewRepo(config.MongoDatabase())

	// services
	fenceCache := cache.NewRedisCache(config.RedisClient)
	publisher := events.NewRedisPublisher(config.RedisClient)
	queue := &workers.RedisQueue{Redis: config.RedisClient}

	fence := services.NewFenceService(users, fenceCache, l)
	auth := services.NewAuthService(users, fence, jwtSecret)
	profileSvc := services.NewProfileService(profiles)
	resumeSvc := services.NewResumeService(resumes, profiles, bucket, bucket)
	interviewSvc := services.NewInterviewService(interviews, users, profiles, generator, queue, publisher, sttProvider, l)

	// question-generation workers
	pool := &workers.QuestionWorkerPool{
		Redis:      config.RedisClient,
		Interviews: interviews,
		Profiles:   profiles,
		Generator:  generator,
		Events:     publisher,
		Logger:     l,
	}
	if err := pool.Start(ctx); err != nil {
		log.Fatalf("worker pool error: %v", err)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(l))

	routes.RegisterRoutes(r, routes.Deps{
		Fence:     fence,
		JWTSecret: jwtSecret,
		Auth:      handlers.NewAuthHandler(auth),
		Profile:   handlers.NewProfileHandler(profileSvc),
		Resume:    handlers.NewResumeHandler(resumeSvc),
		Interview: handlers.NewInterviewHandler(interviewSvc),
		WS:        handlers.NewWSHandler(interviewSvc, config.RedisClient),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
