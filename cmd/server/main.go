// The Fantasy Football League API server.
//
// Startup order: load config, connect to PostgreSQL, run pending migrations,
// start the webhook dispatcher loop, then build the Fiber app and its route
// table. Every route composes its middleware chain explicitly:
//
//	credential verifier → authorization policies → resource loader → handler
//
// so the pipeline for each endpoint can be read off its registration line.
package main

import (
	"errors"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/rs/zerolog"

	"github.com/fflapi/fantasy-league/internal/config"
	"github.com/fflapi/fantasy-league/internal/database"
	"github.com/fflapi/fantasy-league/internal/handlers"
	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
	"github.com/fflapi/fantasy-league/internal/webhook"
)

func main() {
	cfg := config.Load()
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// The dispatcher consumes notifications on its own goroutine so request
	// handlers never block on outbound webhook deliveries.
	dispatcher := webhook.NewDispatcher(webhook.NewStore(db), log)
	go dispatcher.Run()

	app := fiber.New(fiber.Config{
		AppName:      "Fantasy Football League API",
		ErrorHandler: newErrorHandler(cfg, log),
	})

	app.Use(fiberlogger.New())
	app.Use(cors.New(corsConfig(cfg)))

	// Shared pipeline stages.
	auth := middleware.Auth(cfg)
	admin := middleware.RequireRole(models.UserRoleAdmin)

	// Public surface.
	app.Get("/", handlers.Welcome)
	app.Get("/health", handlers.HealthCheck)
	app.Post("/register", handlers.Register(db))
	app.Post("/login", handlers.Login(db, cfg))

	// Users: reading the directory is admin-only; accounts are mutable by
	// their owner. The self policy runs before the loader so a forbidden
	// request never touches the database.
	users := app.Group("/users")
	users.Get("/", auth, admin, handlers.GetAllUsers(db))
	users.Get("/:id", auth, admin, middleware.LoadUser(db), handlers.GetUserByID())
	users.Patch("/:id", auth, middleware.RequireSelf(), middleware.LoadUser(db), handlers.UpdateUser(db))
	users.Delete("/:id", auth, middleware.RequireSelf(), middleware.LoadUser(db), handlers.DeleteUser(db))

	// Real-world teams: anyone can browse; only admins mutate.
	teams := app.Group("/teams")
	teams.Get("/", handlers.GetAllTeams(db))
	teams.Get("/:id", middleware.LoadTeam(db), handlers.GetTeamByID())
	teams.Get("/:id/players", auth, middleware.LoadTeam(db), handlers.GetTeamPlayers(db))
	teams.Post("/", auth, admin, handlers.CreateTeam(db))
	teams.Patch("/:id", auth, admin, middleware.LoadTeam(db), handlers.UpdateTeam(db))
	teams.Delete("/:id", auth, admin, middleware.LoadTeam(db), handlers.DeleteTeam(db))

	// Players: anyone can browse; only admins mutate. The points route feeds
	// the webhook dispatcher.
	players := app.Group("/players")
	players.Get("/", handlers.GetAllPlayers(db))
	players.Get("/:id", middleware.LoadPlayer(db), handlers.GetPlayerByID())
	players.Post("/", auth, admin, handlers.CreatePlayer(db))
	players.Put("/:id", auth, admin, middleware.LoadPlayer(db), handlers.ReplacePlayer(db))
	players.Patch("/points/:id", auth, admin, middleware.LoadPlayer(db), handlers.UpdatePlayerPoints(db, dispatcher))
	players.Patch("/:id", auth, admin, middleware.LoadPlayer(db), handlers.UpdatePlayer(db))
	players.Delete("/:id", auth, admin, middleware.LoadPlayer(db), handlers.DeletePlayer(db))

	// Fantasy teams: any authenticated user can browse and create; mutating
	// a specific team is restricted to its owner, and the score update —
	// which also feeds the dispatcher — to admins. Ownership policies run
	// after the loader because they inspect the loaded record.
	fantasyTeams := app.Group("/fantasyTeams")
	fantasyTeams.Get("/", auth, handlers.GetAllFantasyTeams(db))
	fantasyTeams.Get("/:id", auth, middleware.LoadFantasyTeam(db), handlers.GetFantasyTeamByID())
	fantasyTeams.Get("/:id/players", auth, middleware.LoadFantasyTeam(db), handlers.GetFantasyTeamPlayers(db))
	fantasyTeams.Post("/", auth, handlers.CreateFantasyTeam(db))
	fantasyTeams.Patch("/:id/points", auth, admin, middleware.LoadFantasyTeam(db), handlers.UpdateFantasyTeamScore(db, dispatcher))
	fantasyTeams.Patch("/:id", auth, middleware.LoadFantasyTeam(db), middleware.RequireFantasyTeamOwner(), handlers.UpdateFantasyTeam(db))
	fantasyTeams.Delete("/:id", auth, middleware.LoadFantasyTeam(db), middleware.RequireFantasyTeamOwner(), handlers.DeleteFantasyTeam(db))

	// Leagues. The standings route must be registered before the :id routes
	// so "standings" is not captured as an id.
	leagues := app.Group("/leagues")
	leagues.Get("/standings", auth, handlers.GetLeagueStandings(db))
	leagues.Get("/:id", auth, middleware.LoadLeague(db), handlers.GetLeagueByID())
	leagues.Post("/", auth, admin, handlers.CreateLeague(db))

	// Webhook registration is open: the secret token returned at creation is
	// the subscriber's credential.
	webhooks := app.Group("/webhooks")
	webhooks.Post("/", handlers.RegisterWebhook(db))
	webhooks.Delete("/:id", middleware.LoadWebhook(db), handlers.DeleteWebhook(db))

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// corsConfig builds the CORS middleware config from the configured origins,
// falling back to the permissive default when none are set (development).
func corsConfig(cfg *config.Config) cors.Config {
	if len(cfg.CORSOrigins) == 0 {
		return cors.Config{}
	}
	return cors.Config{
		AllowOrigins:     strings.Join(cfg.CORSOrigins, ","),
		AllowCredentials: true,
	}
}

// newErrorHandler is the outermost pipeline stage: every error returned by a
// middleware or handler lands here and is serialized as {status, message}.
// Outside production the original error text is included as the cause, which
// keeps stack-level detail out of production responses.
func newErrorHandler(cfg *config.Config, log zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := "Internal Server Error"

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
			message = fiberErr.Message
		}

		if status >= fiber.StatusInternalServerError {
			log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
		}

		body := fiber.Map{
			"status":  status,
			"message": message,
		}
		if !cfg.IsProduction() {
			body["cause"] = err.Error()
		}

		return c.Status(status).JSON(body)
	}
}
