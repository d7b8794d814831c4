package game

import (
	"strings"
	"time"
)

// TurnKind discriminates the turn variants explicitly instead of
// leaving callers to guess which optional fields belong together.
type TurnKind string

const (
	// TurnSeed is the creator's opening contribution in edit mode and
	// is the only kind that carries an embedded image payload.
	TurnSeed TurnKind = "seed"
	// TurnEdit is an edit command applied to the latest image.
	TurnEdit TurnKind = "edit"
	// TurnPrompt extends the shared text prompt.
	TurnPrompt TurnKind = "prompt"
)

type SeedImage struct {
	ImageURL string `json:"image_url"`
	Prompt   string `json:"prompt,omitempty"`
}

// Turn is immutable once appended; turns are never edited or removed.
type Turn struct {
	UserID         string     `json:"user_id"`
	Kind           TurnKind   `json:"kind"`
	Text           string     `json:"text"`
	Timestamp      time.Time  `json:"timestamp"`
	CharacterCount int        `json:"character_count"`
	Seed           *SeedImage `json:"seed,omitempty"`
}

// Validate checks that the payload matches the declared kind.
func (t Turn) Validate() error {
	switch t.Kind {
	case TurnSeed:
		if t.Seed == nil || strings.TrimSpace(t.Seed.ImageURL) == "" {
			return validationf("seed turn is missing its image payload")
		}
	case TurnEdit, TurnPrompt:
		if t.Seed != nil {
			return validationf("%s turn must not carry an image payload", t.Kind)
		}
		if strings.TrimSpace(t.Text) == "" {
			return validationf("%s turn text cannot be empty", t.Kind)
		}
	default:
		return validationf("unknown turn kind %q", t.Kind)
	}
	return nil
}

// BuildFullPrompt joins the turn texts into the composed prompt sent
// to the image generator. Seed turns contribute their prompt text too.
func BuildFullPrompt(turns []Turn) string {
	parts := make([]string, 0, len(turns))
	for _, turn := range turns {
		if turn.Text == "" {
			continue
		}
		parts = append(parts, turn.Text)
	}
	return strings.Join(parts, " ")
}
