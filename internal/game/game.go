package game

import (
	"strings"
	"time"
)

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

type Mode string

const (
	// ModePrompt grows one shared text prompt turn by turn.
	ModePrompt Mode = "prompt"
	// ModeEdit applies each turn as an edit command to the latest image.
	// The creator supplies the seed before the game starts.
	ModeEdit Mode = "edit"
)

type PlayerInfo struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	JoinedAt    time.Time `json:"joined_at"`
}

// Game is the single shared aggregate. Every mutating operation
// validates all preconditions before touching any field, so a failed
// call leaves the record unchanged.
type Game struct {
	ID                 string                `json:"id"`
	Creator            string                `json:"creator"`
	Players            []string              `json:"players"`
	PlayerInfo         map[string]PlayerInfo `json:"player_info"`
	Turns              []Turn                `json:"turns"`
	CreatedAt          time.Time             `json:"created_at"`
	Status             Status                `json:"status"`
	CurrentPlayerIndex int                   `json:"current_player_index"`
	ImageHistory       []ImageRecord         `json:"image_history"`
	MinPlayers         int                   `json:"min_players"`
	MaxPlayers         int                   `json:"max_players"`
	Config             Config                `json:"config"`
	Mode               Mode                  `json:"mode"`
	SeedImageURL       string                `json:"seed_image_url,omitempty"`
	PendingSeed        *SeedImage            `json:"pending_seed,omitempty"`
	Generation         *GenerationLease      `json:"generation,omitempty"`

	// Revision increases on every store write and backs
	// compare-and-swap updates.
	Revision int64 `json:"revision"`
}

func New(creator string, cfg Config) *Game {
	return &Game{
		Creator:            creator,
		Players:            []string{creator},
		PlayerInfo:         make(map[string]PlayerInfo),
		Turns:              []Turn{},
		CreatedAt:          time.Now().UTC(),
		Status:             StatusWaiting,
		CurrentPlayerIndex: 0,
		ImageHistory:       []ImageRecord{},
		MinPlayers:         cfg.MinPlayers,
		MaxPlayers:         cfg.MaxPlayers,
		Config:             cfg,
		Mode:               ModePrompt,
	}
}

func (g *Game) HasPlayer(playerID string) bool {
	for _, id := range g.Players {
		if id == playerID {
			return true
		}
	}
	return false
}

func (g *Game) AddPlayer(playerID string) error {
	if g.Status != StatusWaiting && !(g.Config.AllowMidGameJoins && g.Status == StatusInProgress) {
		return statef("cannot join a game that has already started")
	}
	if g.HasPlayer(playerID) {
		return validationf("player %s is already in the game", playerID)
	}
	if len(g.Players) >= g.MaxPlayers {
		return validationf("game is full (maximum %d players)", g.MaxPlayers)
	}
	g.Players = append(g.Players, playerID)
	return nil
}

func (g *Game) Start() error {
	if g.Status != StatusWaiting {
		return statef("game has already started")
	}
	if len(g.Players) < g.MinPlayers {
		return validationf("need at least %d players to start", g.MinPlayers)
	}
	if g.Mode == ModeEdit && g.PendingSeed == nil {
		return validationf("edit-mode games need a seed image before starting")
	}
	g.Status = StatusInProgress
	g.CurrentPlayerIndex = 0
	// In edit mode the creator already supplied the seed image; it
	// becomes the opening turn and the first image-history entry, so
	// players can react to it like any generated image. The second
	// player takes over.
	if g.Mode == ModeEdit {
		seed := g.PendingSeed
		prompt := strings.TrimSpace(seed.Prompt)
		g.Turns = append(g.Turns, Turn{
			UserID:         g.Creator,
			Kind:           TurnSeed,
			Text:           prompt,
			Timestamp:      time.Now().UTC(),
			CharacterCount: len([]rune(prompt)),
			Seed:           seed,
		})
		g.AppendImage(GenerationResult{
			ImageURL: seed.ImageURL,
			Prompt:   prompt,
		})
		g.PendingSeed = nil
		if len(g.Players) > 1 {
			g.CurrentPlayerIndex = 1
		}
	}
	return nil
}

// AddTurn validates ownership and limits, appends the turn and
// advances the cursor. Completion is judged purely by played turn
// count: when the turn limit does not divide evenly by the player
// count some players get more turns than others, and that is
// deliberate. The seed turn is starting material, not a move, and is
// not charged against the budget.
func (g *Game) AddTurn(playerID, text string) error {
	if g.Status != StatusInProgress {
		return statef("game is not in progress")
	}
	if !g.HasPlayer(playerID) {
		return validationf("player %s is not in the game", playerID)
	}
	if playerID != g.Players[g.CurrentPlayerIndex] {
		return authorizationf("it is not %s's turn", playerID)
	}
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return validationf("turn text cannot be empty")
	}
	if len([]rune(trimmed)) > g.Config.MaxTurnLength {
		return validationf("turn text exceeds %d character limit", g.Config.MaxTurnLength)
	}
	total := len([]rune(BuildFullPrompt(g.Turns))) + len([]rune(trimmed)) + 1
	if total > g.Config.MaxTotalLength {
		return validationf("total prompt would exceed %d character limit", g.Config.MaxTotalLength)
	}

	kind := TurnPrompt
	if g.Mode == ModeEdit {
		kind = TurnEdit
	}
	g.Turns = append(g.Turns, Turn{
		UserID:         playerID,
		Kind:           kind,
		Text:           trimmed,
		Timestamp:      time.Now().UTC(),
		CharacterCount: len([]rune(trimmed)),
	})
	g.CurrentPlayerIndex = (g.CurrentPlayerIndex + 1) % len(g.Players)
	if g.PlayedTurns() >= g.Config.TurnsPerGame {
		g.Status = StatusCompleted
	}
	return nil
}

// PlayedTurns counts the edit and prompt contributions toward the
// turn budget, excluding the seed turn.
func (g *Game) PlayedTurns() int {
	count := 0
	for _, turn := range g.Turns {
		if turn.Kind != TurnSeed {
			count++
		}
	}
	return count
}

// ProvideSeed stages the creator's seed image while the game is still
// in the lobby. Start turns it into the opening seed turn.
func (g *Game) ProvideSeed(playerID string, seed SeedImage) error {
	if g.Mode != ModeEdit {
		return statef("seed images only apply to edit-mode games")
	}
	if g.Status != StatusWaiting {
		return statef("seed must be supplied before the game starts")
	}
	if playerID != g.Creator {
		return authorizationf("only the creator can supply the seed image")
	}
	if strings.TrimSpace(seed.ImageURL) == "" {
		return validationf("seed image reference cannot be empty")
	}
	g.PendingSeed = &seed
	g.SeedImageURL = seed.ImageURL
	return nil
}

// CurrentPlayer reports whose turn it is. The second value is false
// unless the game is in progress.
func (g *Game) CurrentPlayer() (string, bool) {
	if g.Status != StatusInProgress {
		return "", false
	}
	return g.Players[g.CurrentPlayerIndex], true
}

// RemovePlayer drops a player from a waiting game. The returned flag
// signals that the last player left and the whole game should be
// deleted. When the creator leaves with others remaining, the first
// remaining player becomes the creator.
func (g *Game) RemovePlayer(playerID string) (empty bool, err error) {
	if g.Status != StatusWaiting {
		return false, statef("cannot leave a game that has already started")
	}
	if !g.HasPlayer(playerID) {
		return false, validationf("player %s is not in the game", playerID)
	}
	kept := g.Players[:0]
	for _, id := range g.Players {
		if id != playerID {
			kept = append(kept, id)
		}
	}
	g.Players = kept
	delete(g.PlayerInfo, playerID)
	if g.Creator == playerID {
		if len(g.Players) == 0 {
			return true, nil
		}
		g.Creator = g.Players[0]
	}
	return false, nil
}

func (g *Game) CanStart() bool {
	return g.Status == StatusWaiting && len(g.Players) >= g.MinPlayers
}

func (g *Game) IsComplete() bool {
	return g.Status == StatusCompleted
}

func (g *Game) TotalPromptLength() int {
	return len([]rune(BuildFullPrompt(g.Turns)))
}
