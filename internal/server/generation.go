package server

import (
	"context"
	"log"

	"prompt-party/internal/game"
)

// beginGeneration takes the advisory generating lease on the game and
// pushes the change so clients can block their UI.
func (s *Server) beginGeneration(gameID string) (*game.Game, error) {
	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		g.BeginGeneration(s.cfg.GenerationLeaseTTL, timeNowUTC())
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.broadcastGame(g)
	return g, nil
}

// endGeneration releases the lease. Callers run it on success and
// failure alike; only a process crash can skip it, and then the lease
// expiry clears the flag on its own.
func (s *Server) endGeneration(gameID string) {
	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		g.EndGeneration()
		return nil
	})
	if err != nil {
		log.Printf("end generation game_id=%s error=%v", gameID, err)
		return
	}
	s.broadcastGame(g)
}

// generateImage brackets the external call with the lease, appends the
// result to the version chain and persists it. The external call is
// the only blocking step in the whole turn flow.
func (s *Server) generateImage(ctx context.Context, gameID, prompt, sourceImage string) (*game.ImageRecord, error) {
	if _, err := s.beginGeneration(gameID); err != nil {
		return nil, err
	}
	defer s.endGeneration(gameID)

	result, err := s.generator.Generate(ctx, prompt, sourceImage)
	if err != nil {
		return nil, err
	}

	var record *game.ImageRecord
	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		record = g.AppendImage(result)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.persistImage(g, record); err != nil {
		log.Printf("persist image game_id=%s error=%v", gameID, err)
	}
	return record, nil
}
