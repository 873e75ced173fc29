package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron"
	config "github.com/socialmatic/socialmatic/configs"
	"github.com/socialmatic/socialmatic/internal/api/handlers"
	"github.com/socialmatic/socialmatic/internal/api/middleware"
	"github.com/socialmatic/socialmatic/internal/identity"
	job "github.com/socialmatic/socialmatic/internal/jobs"
	"github.com/socialmatic/socialmatic/internal/models"
	"github.com/socialmatic/socialmatic/internal/ratelimit"
	"github.com/socialmatic/socialmatic/internal/repository"
	"github.com/socialmatic/socialmatic/internal/scheduler"
	"github.com/socialmatic/socialmatic/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Failed to load environment variables", err)
	}

	cfg := config.LoadConfig()

	db, err := sql.Open("postgres", cfg.PostgresURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer closeDB(db)

	if err := db.Ping(); err != nil {
		log.Fatalf("Database is unreachable: %v", err)
	}

	redisConn := asynq.RedisClientOpt{Addr: cfg.RedisURI}
	asynqClient := asynq.NewClient(redisConn)
	defer asynqClient.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisURI})
	defer rdb.Close()

	identityClient := identity.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPIKey)
	defer identityClient.Close()

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
		},
	})

	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           3600,
	}))

	postRepo := repository.NewPostRepository(db)
	limiter := ratelimit.NewSlidingWindow(rdb, 3, time.Minute)
	schedulerClient := scheduler.NewClient(asynqClient, cfg.CallbackBaseURL)

	postService := service.NewPostService(db, postRepo, limiter, schedulerClient, identityClient)
	twitterService := service.NewTwitterService(*cfg)
	linkedinService := service.NewLinkedinService()

	authMiddleware := middleware.NewAuthMiddleware(*cfg)

	api := app.Group("/api")
	api.Use(authMiddleware.AuthMiddleware())

	post := handlers.NewPostHandler(postService)
	api.Post("/posts/create", post.CreatePost)
	api.Get("/posts", post.ListPosts)

	// delivery callbacks: signature-verified, one fixed URL per platform
	twitterCallback := handlers.NewCallbackHandler(*cfg, models.PlatformTwitter, identityClient, twitterService)
	linkedinCallback := handlers.NewCallbackHandler(*cfg, models.PlatformLinkedin, identityClient, linkedinService)
	app.Post("/callbacks/twitter", twitterCallback.HandleDelivery)
	app.Post("/callbacks/linkedin", linkedinCallback.HandleDelivery)

	// cron jobs
	reRegisterJob := job.NewReRegisterJob(postRepo, schedulerClient)

	c := cron.New()
	c.AddFunc("@every 0h1m0s", reRegisterJob.ReRegister)
	c.Start()

	//queue
	dispatcher := scheduler.NewDispatcher(cfg.SigningSecret)

	go func() {
		server := asynq.NewServer(redisConn, asynq.Config{
			Concurrency: 10,
		})

		mux := asynq.NewServeMux()
		mux.HandleFunc(scheduler.TaskTypeDeliverPost, dispatcher.HandleDeliveryTask)

		log.Println("Starting the Asynq server...")
		if err := server.Run(mux); err != nil {
			log.Fatalf("Could not start Asynq server: %v", err)
		}
	}()

	go func() {
		if err := app.Listen(":3000"); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()
	log.Println("Server is running on http://localhost:3000")

	gracefulShutdown(app, db)
}

func closeDB(db *sql.DB) {
	fmt.Fprint(os.Stdout, "Closing database connection... ")
	if err := db.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to close database: %v", err)
		return
	}
	fmt.Fprintln(os.Stdout, "Done")
}

func gracefulShutdown(app *fiber.App, db *sql.DB) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Fatalf("Failed to shut down server: %v", err)
	}

	closeDB(db)
	log.Println("Server shutdown complete.")
}
