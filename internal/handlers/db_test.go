package handlers

// Handler tests that exercise the real persistence path run against an
// in-memory SQLite database with the same tables, unique indexes, and enum
// value constraints as the Postgres schema. Records get their UUIDs app-side,
// so the models behave identically on both engines.

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fflapi/fantasy-league/internal/config"
	"github.com/fflapi/fantasy-league/internal/middleware"
	"github.com/fflapi/fantasy-league/internal/models"
	"github.com/fflapi/fantasy-league/internal/webhook"
)

var testCfg = &config.Config{
	JWTSecret:       "handler-test-secret",
	AccessTokenLife: time.Hour,
	Env:             "test",
}

var testSchema = []string{
	`CREATE TABLE users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE players (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL CHECK (name <> ''),
		position TEXT NOT NULL CHECK (position IN ('Goalkeeper', 'Defender', 'Midfielder', 'Forward')),
		team_id TEXT NOT NULL,
		goals_scored INTEGER NOT NULL DEFAULT 0,
		clean_sheets INTEGER NOT NULL DEFAULT 0,
		total_points INTEGER NOT NULL DEFAULT 0,
		recent_points INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE fantasy_teams (
		id TEXT PRIMARY KEY,
		team_name TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		total_score INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE fantasy_team_players (
		fantasy_team_id TEXT NOT NULL,
		player_id TEXT NOT NULL,
		PRIMARY KEY (fantasy_team_id, player_id)
	)`,
	`CREATE TABLE leagues (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		created_at DATETIME,
		updated_at DATETIME
	)`,
	`CREATE TABLE league_users (
		league_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		PRIMARY KEY (league_id, user_id)
	)`,
	`CREATE TABLE webhooks (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		event TEXT NOT NULL CHECK (event IN ('pointsUpdate', 'fantasyTeamScoreUpdate')),
		secret_token TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME
	)`,
}

// newTestDB opens a fresh in-memory database named after the test so parallel
// tests never share state, and creates the schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	for _, stmt := range testSchema {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

// newTestAPI builds a Fiber app with the production middleware chains for the
// routes the database-backed tests exercise.
func newTestAPI(t *testing.T) (*fiber.App, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	dispatcher := webhook.NewDispatcher(webhook.NewStore(db), zerolog.Nop())

	app := fiber.New()
	auth := middleware.Auth(testCfg)
	admin := middleware.RequireRole(models.UserRoleAdmin)

	app.Post("/register", Register(db))
	app.Post("/login", Login(db, testCfg))

	players := app.Group("/players")
	players.Patch("/points/:id", auth, admin, middleware.LoadPlayer(db), UpdatePlayerPoints(db, dispatcher))

	fantasyTeams := app.Group("/fantasyTeams")
	fantasyTeams.Post("/", auth, CreateFantasyTeam(db))
	fantasyTeams.Patch("/:id/points", auth, admin, middleware.LoadFantasyTeam(db), UpdateFantasyTeamScore(db, dispatcher))
	fantasyTeams.Patch("/:id", auth, middleware.LoadFantasyTeam(db), middleware.RequireFantasyTeamOwner(), UpdateFantasyTeam(db))

	leagues := app.Group("/leagues")
	leagues.Get("/standings", auth, GetLeagueStandings(db))

	return app, db
}

func seedUser(t *testing.T, db *gorm.DB, username string, role models.UserRole) models.User {
	t.Helper()
	user := models.User{
		Username: username,
		Password: "not-a-real-hash",
		Email:    username + "@example.com",
		Role:     role,
	}
	require.NoError(t, db.Create(&user).Error)
	return user
}

// seedSquad creates a team and eleven players on it, positions cycling through
// the four allowed values.
func seedSquad(t *testing.T, db *gorm.DB, teamName string) []models.Player {
	t.Helper()

	team := models.Team{Name: teamName}
	require.NoError(t, db.Create(&team).Error)

	positions := []models.PlayerPosition{
		models.PositionGoalkeeper,
		models.PositionDefender,
		models.PositionMidfielder,
		models.PositionForward,
	}
	players := make([]models.Player, models.SquadSize)
	for i := range players {
		players[i] = models.Player{
			Name:     teamName + " player " + string(rune('A'+i)),
			Position: positions[i%len(positions)],
			TeamID:   team.ID,
		}
		require.NoError(t, db.Create(&players[i]).Error)
	}
	return players
}

func bearerFor(t *testing.T, user *models.User) string {
	t.Helper()
	token, err := middleware.NewAccessToken(testCfg, user)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target, bearer string, body any) *http.Request {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(buf))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(fiber.HeaderAuthorization, bearer)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, into), "body: %s", raw)
}
