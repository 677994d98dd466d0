package handlers

import (
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/fflapi/fantasy-league/internal/models"
)

func playerIDs(players []models.Player) []uuid.UUID {
	ids := make([]uuid.UUID, len(players))
	for i, p := range players {
		ids[i] = p.ID
	}
	return ids
}

// squadFor creates a fantasy team with the given players directly in the
// database, the same way the create handler persists one.
func squadFor(t *testing.T, db *gorm.DB, owner models.User, name string, players []models.Player) models.FantasyTeam {
	t.Helper()
	team := models.FantasyTeam{TeamName: name, OwnerID: owner.ID}
	require.NoError(t, db.Omit("Players").Create(&team).Error)
	require.NoError(t, db.Model(&team).Omit("Players.*").Association("Players").Append(playerRefs(playerIDs(players))))
	return team
}

// Creating a fantasy team must write only join rows for the referenced
// players; the players table itself stays untouched. ID-only association
// records would otherwise be upserted as blank players, which the enum
// constraint rejects.
func TestCreateFantasyTeamPersistsSquadReferences(t *testing.T) {
	app, db := newTestAPI(t)
	players := seedSquad(t, db, "Arsenal")
	owner := seedUser(t, db, "squadbuilder", models.UserRoleUser)

	req := jsonRequest(t, fiber.MethodPost, "/fantasyTeams", bearerFor(t, &owner), CreateFantasyTeamRequest{
		TeamName: "Dream XI",
		Players:  playerIDs(players),
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		ID uuid.UUID `json:"id"`
	}
	decodeBody(t, resp, &body)

	var team models.FantasyTeam
	require.NoError(t, db.First(&team, "id = ?", body.ID).Error)
	assert.Equal(t, owner.ID, team.OwnerID)
	assert.Equal(t, int64(models.SquadSize), db.Model(&team).Association("Players").Count())

	var playerCount int64
	require.NoError(t, db.Model(&models.Player{}).Count(&playerCount).Error)
	assert.Equal(t, int64(models.SquadSize), playerCount, "no extra player records created")
}

func TestCreateFantasyTeamRejectsUnknownPlayers(t *testing.T) {
	app, db := newTestAPI(t)
	players := seedSquad(t, db, "Chelsea")
	owner := seedUser(t, db, "optimist", models.UserRoleUser)

	ids := playerIDs(players)
	ids[10] = uuid.New() // not a real player

	req := jsonRequest(t, fiber.MethodPost, "/fantasyTeams", bearerFor(t, &owner), CreateFantasyTeamRequest{
		TeamName: "Ghost XI",
		Players:  ids,
	})
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestUpdateFantasyTeamReplacesSquad(t *testing.T) {
	app, db := newTestAPI(t)
	players := seedSquad(t, db, "Liverpool")
	extra := models.Player{Name: "new signing", Position: models.PositionForward, TeamID: players[0].TeamID}
	require.NoError(t, db.Create(&extra).Error)

	owner := seedUser(t, db, "tinkerer", models.UserRoleUser)
	team := squadFor(t, db, owner, "First Draft", players)

	// Swap player 0 out for the new signing.
	newSquad := append(playerIDs(players[1:]), extra.ID)
	body := UpdateFantasyTeamRequest{Players: &newSquad}

	req := jsonRequest(t, fiber.MethodPatch, "/fantasyTeams/"+team.ID.String(), bearerFor(t, &owner), body)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var squad []models.Player
	require.NoError(t, db.Model(&team).Association("Players").Find(&squad))
	require.Len(t, squad, models.SquadSize)

	inSquad := make(map[uuid.UUID]bool, len(squad))
	for _, p := range squad {
		inSquad[p.ID] = true
	}
	assert.True(t, inSquad[extra.ID], "replacement player joined the squad")
	assert.False(t, inSquad[players[0].ID], "replaced player left the squad")

	var playerCount int64
	require.NoError(t, db.Model(&models.Player{}).Count(&playerCount).Error)
	assert.Equal(t, int64(models.SquadSize+1), playerCount, "no extra player records created")
}

// Folding the squad's recent points into the total must reset them, so a
// second run with no intervening point updates adds nothing.
func TestUpdateFantasyTeamScoreFoldsRecentPointsOnce(t *testing.T) {
	app, db := newTestAPI(t)
	players := seedSquad(t, db, "Everton")
	require.NoError(t, db.Model(&players[0]).Update("recent_points", 4).Error)
	require.NoError(t, db.Model(&players[1]).Update("recent_points", 3).Error)

	owner := seedUser(t, db, "scorekeeper", models.UserRoleUser)
	adminUser := seedUser(t, db, "scoreadmin", models.UserRoleAdmin)
	team := squadFor(t, db, owner, "Top Scorers", players)

	target := "/fantasyTeams/" + team.ID.String() + "/points"

	resp, err := app.Test(jsonRequest(t, fiber.MethodPatch, target, bearerFor(t, &adminUser), fiber.Map{}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.FantasyTeam
	require.NoError(t, db.First(&updated, "id = ?", team.ID).Error)
	assert.Equal(t, 7, updated.TotalScore)

	var pending int64
	require.NoError(t, db.Model(&models.Player{}).Where("recent_points <> 0").Count(&pending).Error)
	assert.Zero(t, pending, "every squad member's recent points reset")

	// A repeat run finds nothing left to fold.
	resp, err = app.Test(jsonRequest(t, fiber.MethodPatch, target, bearerFor(t, &adminUser), fiber.Map{}))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	require.NoError(t, db.First(&updated, "id = ?", team.ID).Error)
	assert.Equal(t, 7, updated.TotalScore)
}
