package game

import (
	"strings"
	"time"
)

// Config holds the per-game rules. Presets mirror the tuning knobs the
// game was balanced with; a custom Config must pass Validate.
type Config struct {
	TurnsPerGame     int
	MinPlayers       int
	MaxPlayers       int
	MaxTurnLength    int
	MaxTotalLength   int
	WarningThreshold int

	AutoStartOnFull   bool
	AllowMidGameJoins bool

	GenerateImageEveryTurn bool
	ImageHistoryEnabled    bool

	SessionTimeout       time.Duration
	MaxSessionsPerPlayer int
}

func StandardConfig() Config {
	return Config{
		TurnsPerGame:           6,
		MinPlayers:             2,
		MaxPlayers:             6,
		MaxTurnLength:          25,
		MaxTotalLength:         1000,
		WarningThreshold:       20,
		GenerateImageEveryTurn: true,
		ImageHistoryEnabled:    true,
		SessionTimeout:         30 * time.Minute,
		MaxSessionsPerPlayer:   1,
	}
}

func QuickConfig() Config {
	cfg := StandardConfig()
	cfg.TurnsPerGame = 4
	cfg.MaxTurnLength = 20
	// Warning threshold tracks 80% of the turn limit.
	cfg.WarningThreshold = 16
	cfg.AutoStartOnFull = true
	return cfg
}

func ExtendedConfig() Config {
	cfg := StandardConfig()
	cfg.TurnsPerGame = 10
	cfg.MaxTurnLength = 30
	cfg.MaxTotalLength = 1500
	return cfg
}

func ExperimentalConfig() Config {
	cfg := StandardConfig()
	cfg.TurnsPerGame = 8
	cfg.MaxTurnLength = 35
	cfg.MaxTotalLength = 2000
	cfg.AllowMidGameJoins = true
	cfg.GenerateImageEveryTurn = false
	return cfg
}

func ConfigForPreset(name string) (Config, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "standard":
		return StandardConfig(), true
	case "quick":
		return QuickConfig(), true
	case "extended":
		return ExtendedConfig(), true
	case "experimental":
		return ExperimentalConfig(), true
	}
	return Config{}, false
}

func (c Config) Validate() error {
	var problems []string
	if c.TurnsPerGame < 1 {
		problems = append(problems, "turns per game must be at least 1")
	}
	if c.MinPlayers < 1 {
		problems = append(problems, "min players must be at least 1")
	}
	if c.MaxPlayers < c.MinPlayers {
		problems = append(problems, "max players must not be below min players")
	}
	if c.MaxTurnLength < 1 {
		problems = append(problems, "max turn length must be at least 1")
	}
	if c.MaxTotalLength < c.MaxTurnLength {
		problems = append(problems, "max total length must not be below max turn length")
	}
	if c.WarningThreshold >= c.MaxTurnLength {
		problems = append(problems, "warning threshold must be below max turn length")
	}
	if len(problems) > 0 {
		return &ValidationError{Message: strings.Join(problems, "; ")}
	}
	return nil
}

// CountStatus classifies a turn's character count for client UIs.
type CountStatus string

const (
	CountSafe     CountStatus = "safe"
	CountWarning  CountStatus = "warning"
	CountDanger   CountStatus = "danger"
	CountExceeded CountStatus = "exceeded"
)

func (c Config) CountStatus(count int) CountStatus {
	switch {
	case count > c.MaxTurnLength:
		return CountExceeded
	case count >= c.MaxTurnLength:
		return CountDanger
	case count >= c.WarningThreshold:
		return CountWarning
	default:
		return CountSafe
	}
}

// TurnsPerPlayer reports how many turns each player gets at most. When
// the turn limit does not divide evenly, earlier players get one more.
func (c Config) TurnsPerPlayer(playerCount int) int {
	if playerCount < 1 {
		return 0
	}
	return (c.TurnsPerGame + playerCount - 1) / playerCount
}
