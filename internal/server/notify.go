package server

import (
	"log"

	"prompt-party/internal/game"
)

// Notifier observes game events so an external push channel can alert
// the next player or an image's reactors. It only ever reads: nothing
// behind this interface is allowed to mutate the game record.
type Notifier interface {
	TurnAdvanced(gameID string, next game.PlayerInfo)
	GameCompleted(gameID string, prompt string)
	ReactionAdded(gameID, imageID, emoji, reactorID string)
}

// logNotifier is the default observer; deployments swap in a real
// push-notification sender.
type logNotifier struct{}

func (logNotifier) TurnAdvanced(gameID string, next game.PlayerInfo) {
	log.Printf("notify turn game_id=%s next_player=%s", gameID, next.ID)
}

func (logNotifier) GameCompleted(gameID string, prompt string) {
	log.Printf("notify complete game_id=%s prompt_len=%d", gameID, len(prompt))
}

func (logNotifier) ReactionAdded(gameID, imageID, emoji, reactorID string) {
	log.Printf("notify reaction game_id=%s image_id=%s emoji=%s player=%s", gameID, imageID, emoji, reactorID)
}
