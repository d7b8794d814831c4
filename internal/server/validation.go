package server

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"prompt-party/internal/game"
)

const (
	maxNameLength     = 20
	maxPlayerIDLength = 64
	// Upper bound for any turn text; the per-game limit from the game
	// config is enforced again inside the state machine.
	maxTurnTextLength = 280
)

var validatorOnce sync.Once

func registerValidators() {
	validatorOnce.Do(func() {
		engine, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_ = engine.RegisterValidation("playername", func(fl validator.FieldLevel) bool {
			_, err := validateName(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("playerid", func(fl validator.FieldLevel) bool {
			return validatePlayerID(fl.Field().String()) == nil
		})
		_ = engine.RegisterValidation("turntext", func(fl validator.FieldLevel) bool {
			_, err := validateTurnText(fl.Field().String())
			return err == nil
		})
		_ = engine.RegisterValidation("emoji", func(fl validator.FieldLevel) bool {
			return game.IsReactionEmoji(fl.Field().String())
		})
	})
}

func validateName(name string) (string, error) {
	trimmed := normalizeText(name)
	if trimmed == "" {
		return "", errors.New("name is required")
	}
	if len([]rune(trimmed)) > maxNameLength {
		return "", fmt.Errorf("name must be %d characters or fewer", maxNameLength)
	}
	return trimmed, nil
}

func validatePlayerID(id string) error {
	trimmed := strings.TrimSpace(id)
	if trimmed == "" {
		return errors.New("player id is required")
	}
	if len(trimmed) > maxPlayerIDLength {
		return fmt.Errorf("player id must be %d characters or fewer", maxPlayerIDLength)
	}
	for _, r := range trimmed {
		if r >= 'a' && r <= 'z' {
			continue
		}
		if r >= 'A' && r <= 'Z' {
			continue
		}
		if r >= '0' && r <= '9' {
			continue
		}
		if r == '-' || r == '_' {
			continue
		}
		return errors.New("player id contains unsupported characters")
	}
	return nil
}

func validateTurnText(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", errors.New("turn text is required")
	}
	if len([]rune(trimmed)) > maxTurnTextLength {
		return "", fmt.Errorf("turn text must be %d characters or fewer", maxTurnTextLength)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	fields := strings.Fields(strings.TrimSpace(text))
	return strings.Join(fields, " ")
}
