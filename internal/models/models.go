// Package models defines the data structures that map to database tables.
// GORM uses these structs to generate SQL and map rows back to Go values; the
// struct tags tell it about column types, constraints, defaults, and
// relationships.
//
// The data model represents a fantasy football platform where:
//   - Users register accounts and build FantasyTeams out of real Players
//   - Teams are real-world clubs that own Players
//   - Leagues group Users and rank their FantasyTeams by total score
//   - Webhooks subscribe to point/score update events
//
// Sensitive columns (password hashes, webhook secret tokens) carry `json:"-"`
// so they can never leak through response serialization.
package models

import (
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- Enums ---
// Go has no enum keyword; a named string type plus constants gives type
// safety while keeping the stored values human-readable.

// UserRole represents a user's permission level across the platform.
type UserRole string

const (
	UserRoleAdmin UserRole = "admin" // Full access: manage teams, players, leagues, users
	UserRoleUser  UserRole = "user"  // Regular account: own fantasy team, own profile
)

// PlayerPosition is the position a real-world player occupies on the pitch.
type PlayerPosition string

const (
	PositionGoalkeeper PlayerPosition = "Goalkeeper"
	PositionDefender   PlayerPosition = "Defender"
	PositionMidfielder PlayerPosition = "Midfielder"
	PositionForward    PlayerPosition = "Forward"
)

// Valid reports whether the position is one of the four allowed values.
func (p PlayerPosition) Valid() bool {
	switch p {
	case PositionGoalkeeper, PositionDefender, PositionMidfielder, PositionForward:
		return true
	}
	return false
}

// WebhookEvent names a mutation that webhook subscribers can be notified of.
type WebhookEvent string

const (
	EventPointsUpdate           WebhookEvent = "pointsUpdate"
	EventFantasyTeamScoreUpdate WebhookEvent = "fantasyTeamScoreUpdate"
)

// Valid reports whether the event is one a webhook can subscribe to.
func (e WebhookEvent) Valid() bool {
	return e == EventPointsUpdate || e == EventFantasyTeamScoreUpdate
}

// --- Models ---
// Each model assigns its own UUID in BeforeCreate when the caller left it
// zero, so inserted records carry their key regardless of whether the
// database provides a column default.

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

// User represents a registered account. The stored password is a bcrypt hash,
// never the plain text, and is excluded from every JSON response.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Username  string    `gorm:"uniqueIndex;not null" json:"username"`
	Password  string    `gorm:"not null" json:"-"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	Role      UserRole  `gorm:"type:user_role;not null;default:'user'" json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	u.ID = newID(u.ID)
	return nil
}

// Team is a real-world club. It owns Players via their TeamID foreign key.
type Team struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Players   []Player  `gorm:"foreignKey:TeamID" json:"players,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (t *Team) BeforeCreate(*gorm.DB) error {
	t.ID = newID(t.ID)
	return nil
}

// Player is a real-world footballer belonging to exactly one Team.
//
// TotalPoints accumulates over the season. RecentPoints holds the points from
// the latest update and is reset to zero whenever a fantasy team score update
// consumes them.
type Player struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name         string         `gorm:"not null" json:"name"`
	Position     PlayerPosition `gorm:"type:player_position;not null" json:"position"`
	TeamID       uuid.UUID      `gorm:"type:uuid;not null" json:"team"`
	GoalsScored  int            `gorm:"not null;default:0" json:"goalsScored"`
	CleanSheets  int            `gorm:"not null;default:0" json:"cleanSheets"`
	TotalPoints  int            `gorm:"not null;default:0" json:"totalPoints"`
	RecentPoints int            `gorm:"not null;default:0" json:"recentPoints"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

func (p *Player) BeforeCreate(*gorm.DB) error {
	p.ID = newID(p.ID)
	return nil
}

// FantasyTeam is a user-owned selection of exactly eleven real Players.
// Players are non-owning references: deleting a fantasy team never touches
// the player records.
type FantasyTeam struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	TeamName   string    `gorm:"not null" json:"teamName"`
	OwnerID    uuid.UUID `gorm:"type:uuid;not null" json:"owner"`
	Owner      User      `gorm:"foreignKey:OwnerID" json:"-"`
	Players    []Player  `gorm:"many2many:fantasy_team_players" json:"players,omitempty"`
	TotalScore int       `gorm:"not null;default:0" json:"totalScore"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (f *FantasyTeam) BeforeCreate(*gorm.DB) error {
	f.ID = newID(f.ID)
	return nil
}

// League groups users under a named competition. Membership is a non-owning
// reference set; a user may belong to many leagues.
type League struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	Name      string    `gorm:"uniqueIndex;not null" json:"name"`
	Users     []User    `gorm:"many2many:league_users" json:"users,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (l *League) BeforeCreate(*gorm.DB) error {
	l.ID = newID(l.ID)
	return nil
}

// Webhook is a subscriber endpoint notified when its event fires. The secret
// token is generated server-side at registration, returned exactly once in
// the registration response, and never serialized afterwards.
type Webhook struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	URL         string       `gorm:"not null" json:"url"`
	Event       WebhookEvent `gorm:"type:webhook_event;not null" json:"event"`
	SecretToken string       `gorm:"not null" json:"-"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

func (w *Webhook) BeforeCreate(*gorm.DB) error {
	w.ID = newID(w.ID)
	return nil
}

// --- Validation ---
// The rules below mirror the registration and squad constraints enforced at
// the API boundary. They are plain functions so handlers and tests can use
// them without a database.

// usernameRe: starts with a letter, then letters, digits, or underscores.
// Length 3-256 overall.
var usernameRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{2,255}$`)

// emailRe is a deliberately loose shape check; real validation happens when
// mail is actually sent.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// ValidUsername reports whether the username satisfies the account rules.
func ValidUsername(username string) bool {
	return usernameRe.MatchString(username)
}

// ValidPassword reports whether the password length is within 10-256 characters.
func ValidPassword(password string) bool {
	return len(password) >= 10 && len(password) <= 256
}

// ValidEmail reports whether the address looks like an email.
func ValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// SquadSize is the number of players every fantasy team must field.
const SquadSize = 11

// ValidSquad reports whether ids contains exactly eleven distinct player
// references.
func ValidSquad(ids []uuid.UUID) bool {
	if len(ids) != SquadSize {
		return false
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return false
		}
		seen[id] = struct{}{}
	}
	return true
}
