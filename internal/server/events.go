package server

import (
	"encoding/json"
	"log"

	"prompt-party/internal/db"
)

const (
	eventGameCreated   = "game_created"
	eventPlayerJoined  = "player_joined"
	eventPlayerLeft    = "player_left"
	eventGameStarted   = "game_started"
	eventTurnAdded     = "turn_added"
	eventSeedProvided  = "seed_provided"
	eventGameCompleted = "game_completed"
	eventReactionAdded = "reaction_added"
)

// recordEvent appends an audit row for the game. Events are best
// effort; a failed insert is logged and the request continues.
func (s *Server) recordEvent(gameID, playerID, eventType string, payload map[string]any) {
	if s.db == nil {
		return
	}
	dbID, err := s.gameDBID(gameID)
	if err != nil {
		log.Printf("record event game_id=%s type=%s error=%v", gameID, eventType, err)
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("record event game_id=%s type=%s error=%v", gameID, eventType, err)
		return
	}
	event := db.Event{
		GameID:    dbID,
		PlayerKey: playerID,
		Type:      eventType,
		Payload:   data,
		CreatedAt: timeNowUTC(),
	}
	if err := s.db.Create(&event).Error; err != nil {
		log.Printf("record event game_id=%s type=%s error=%v", gameID, eventType, err)
	}
}
