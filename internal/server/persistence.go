package server

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"prompt-party/internal/db"
	"prompt-party/internal/game"
)

// Persistence mirrors the in-memory store into Postgres so a restart
// can be reconstructed from the tables. Every helper is a no-op when
// no database is configured, and callers treat failures as log-only:
// the in-memory record is the source of truth for a live process.

func (s *Server) persistGame(g *game.Game) error {
	if s.db == nil {
		return nil
	}
	cfg, err := json.Marshal(g.Config)
	if err != nil {
		return err
	}
	record := db.Game{
		GameKey:      g.ID,
		Creator:      g.Creator,
		Status:       string(g.Status),
		Mode:         string(g.Mode),
		Config:       cfg,
		Revision:     g.Revision,
		SeedImageURL: g.SeedImageURL,
		CreatedAt:    g.CreatedAt,
		UpdatedAt:    timeNowUTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"creator", "status", "mode", "config", "revision", "seed_image_url", "updated_at",
		}),
	}).Create(&record).Error
}

func (s *Server) persistPlayer(g *game.Game, playerID string) error {
	if s.db == nil {
		return nil
	}
	dbID, err := s.gameDBID(g.ID)
	if err != nil {
		return err
	}
	info := g.PlayerInfo[playerID]
	now := timeNowUTC()
	record := db.Player{
		GameID:      dbID,
		PlayerKey:   playerID,
		DisplayName: info.DisplayName,
		JoinedAt:    info.JoinedAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "player_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "updated_at"}),
	}).Create(&record).Error
	if isUniqueViolation(err) {
		return fmt.Errorf("display name %q is already taken in game %s", info.DisplayName, g.ID)
	}
	return err
}

func (s *Server) persistTurn(g *game.Game, number int) error {
	if s.db == nil {
		return nil
	}
	if number < 0 || number >= len(g.Turns) {
		return fmt.Errorf("turn %d out of range for game %s", number, g.ID)
	}
	dbID, err := s.gameDBID(g.ID)
	if err != nil {
		return err
	}
	turn := g.Turns[number]
	record := db.Turn{
		GameID:         dbID,
		Number:         number,
		PlayerKey:      turn.UserID,
		Kind:           string(turn.Kind),
		Text:           turn.Text,
		CharacterCount: turn.CharacterCount,
		SubmittedAt:    turn.Timestamp,
		CreatedAt:      timeNowUTC(),
	}
	if turn.Seed != nil {
		record.SeedImageURL = turn.Seed.ImageURL
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "number"}},
		DoNothing: true,
	}).Create(&record).Error
}

func (s *Server) persistImage(g *game.Game, image *game.ImageRecord) error {
	if s.db == nil {
		return nil
	}
	dbID, err := s.gameDBID(g.ID)
	if err != nil {
		return err
	}
	reactions, err := json.Marshal(image.ReactionCounts())
	if err != nil {
		return err
	}
	users, err := json.Marshal(image.ReactionUsers)
	if err != nil {
		return err
	}
	record := db.Image{
		GameID:        dbID,
		ImageKey:      image.ID,
		ImageURL:      image.ImageURL,
		Prompt:        image.Prompt,
		Reactions:     reactions,
		ReactionUsers: users,
		CreatedAt:     image.CreatedAt,
		UpdatedAt:     timeNowUTC(),
	}
	return s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "image_key"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"reactions", "reaction_users", "updated_at",
		}),
	}).Create(&record).Error
}

func (s *Server) removePlayerRow(gameID, playerID string) error {
	if s.db == nil {
		return nil
	}
	dbID, err := s.gameDBID(gameID)
	if err != nil {
		return err
	}
	return s.db.Where("game_id = ? AND player_key = ?", dbID, playerID).
		Delete(&db.Player{}).Error
}

// removeGame deletes the game row and its children. Child tables are
// cleared explicitly so the helper works without foreign-key cascades.
func (s *Server) removeGame(gameID string) error {
	if s.db == nil {
		return nil
	}
	dbID, err := s.gameDBID(gameID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&db.Player{}, &db.Turn{}, &db.Image{}, &db.Event{}} {
			if err := tx.Where("game_id = ?", dbID).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("game_key = ?", gameID).Delete(&db.Session{}).Error; err != nil {
			return err
		}
		return tx.Delete(&db.Game{}, dbID).Error
	})
}

func (s *Server) gameDBID(gameID string) (uint, error) {
	var record db.Game
	if err := s.db.Select("id").Where("game_key = ?", gameID).First(&record).Error; err != nil {
		return 0, err
	}
	return record.ID, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
