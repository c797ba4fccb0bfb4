package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/template/html/v2"

	"github.com/subamericanetwork/nx8up/app/controllers"
	"github.com/subamericanetwork/nx8up/app/models"
	"github.com/subamericanetwork/nx8up/app/repository"
	"github.com/subamericanetwork/nx8up/internal/pkg/avatar"
	"github.com/subamericanetwork/nx8up/internal/pkg/cache"
	"github.com/subamericanetwork/nx8up/internal/pkg/database"
	"github.com/subamericanetwork/nx8up/internal/pkg/env"
	"github.com/subamericanetwork/nx8up/internal/pkg/jobqueue"
	"github.com/subamericanetwork/nx8up/internal/pkg/router"
	"github.com/subamericanetwork/nx8up/internal/pkg/secrets"
	"github.com/subamericanetwork/nx8up/internal/pkg/social"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitGlobalFactory(database.GetDB())

	vault, err := secrets.NewVaultFromEnv()
	if err != nil {
		log.Fatalf("token vault: %v", err)
	}

	states := social.NewStateStore(cache.GetClient())
	mirror := avatar.NewMirrorFromEnv()

	socialService := social.NewService(
		repository.GetGlobalFactory().GetRepositories(),
		vault,
		states,
		social.WithSyncTrigger(jobqueue.EnqueueStatsSync),
		social.WithConnectedHook(func(account *models.SocialAccount) {
			if mirror == nil || account.ProfileImageURL == "" {
				return
			}
			if err := jobqueue.EnqueueAvatarMirror(account.ID); err != nil {
				log.Printf("avatar mirror enqueue for %s failed: %v", account.ID, err)
			}
		}),
	)

	controllers.InitializeSocialController(socialService, states)

	// background workers
	queue := jobqueue.GetQueue()
	queue.RegisterProcessor(jobqueue.NewStatsSyncProcessor(socialService))
	if mirror != nil {
		queue.RegisterProcessor(jobqueue.NewAvatarMirrorProcessor(
			repository.GetGlobalFactory().GetSocialAccountRepository(), mirror))
	}
	queue.Start()

	// Define possible base paths
	basePaths := []string{
		"./",        // Current directory
		"../../",    // From cmd/nx8up to project root
		"../../../", // Fallback
	}

	// Find the correct base path
	basePath := ""
	for _, path := range basePaths {
		if _, err := os.Stat(path + "views"); !os.IsNotExist(err) {
			basePath = path
			break
		}
	}

	if basePath == "" {
		panic("Could not find project root directory")
	}

	// init fiber app
	app := fiber.New(fiber.Config{
		Views: html.New(basePath+"views", ".html"),
	})

	// ignore and cache favicon
	app.Use(favicon.New(favicon.Config{
		File:         basePath + "public/assets/icons/favicon.ico",
		URL:          "/favicon.ico",
		CacheControl: "public, max-age=604800",
	}))

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// static files
	app.Static("/", basePath+"public/assets", fiber.Static{
		CacheDuration: 15 * time.Second,
		Compress:      true,
	})

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: basePath + "public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	router.InstallRouter(app)

	return app
}
