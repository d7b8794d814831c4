package server

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"prompt-party/internal/db"
)

// sessionStore binds (gameID, playerID, sessionID) triples to activity
// timestamps. It answers one question: is this client allowed to act
// as this player? Whose turn it is stays with the game logic, and the
// two checks are enforced independently.
//
// Sessions live in Postgres when a connection is configured and fall
// back to process memory otherwise.
type sessionStore struct {
	db       *gorm.DB
	mu       sync.Mutex
	sessions map[string]*sessionData
}

type sessionData struct {
	JoinedAt   time.Time
	LastActive time.Time
}

func newSessionStore(conn *gorm.DB) *sessionStore {
	return &sessionStore{
		db:       conn,
		sessions: make(map[string]*sessionData),
	}
}

func sessionKey(gameID, playerID, sessionID string) string {
	return gameID + "/" + playerID + "/" + sessionID
}

// Create issues a fresh session id for the player in this game.
func (s *sessionStore) Create(gameID, playerID string) (string, error) {
	sessionID := newSessionID()
	now := timeNowUTC()
	if s.db == nil {
		s.mu.Lock()
		s.sessions[sessionKey(gameID, playerID, sessionID)] = &sessionData{
			JoinedAt:   now,
			LastActive: now,
		}
		s.mu.Unlock()
		return sessionID, nil
	}
	record := db.Session{
		GameKey:    gameID,
		PlayerKey:  playerID,
		SessionKey: sessionID,
		JoinedAt:   now,
		LastActive: now,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return "", err
	}
	return sessionID, nil
}

// Validate checks that the triple exists and, when maxIdle is positive,
// that the session has been active within that window.
func (s *sessionStore) Validate(gameID, playerID, sessionID string, maxIdle time.Duration) bool {
	if strings.TrimSpace(sessionID) == "" {
		return false
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		data, ok := s.sessions[sessionKey(gameID, playerID, sessionID)]
		if !ok {
			return false
		}
		return maxIdle <= 0 || timeNowUTC().Sub(data.LastActive) <= maxIdle
	}
	query := s.db.Model(&db.Session{}).
		Where("game_key = ? AND player_key = ? AND session_key = ?", gameID, playerID, sessionID)
	if maxIdle > 0 {
		query = query.Where("last_active > ?", timeNowUTC().Add(-maxIdle))
	}
	var count int64
	err := query.Count(&count).Error
	return err == nil && count > 0
}

// TrimPlayerSessions keeps at most max sessions for the player, evicting
// the least recently active ones. A non-positive max means no limit.
func (s *sessionStore) TrimPlayerSessions(gameID, playerID string, max int) {
	if max <= 0 {
		return
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		prefix := gameID + "/" + playerID + "/"
		type entry struct {
			key  string
			data *sessionData
		}
		var entries []entry
		for key, data := range s.sessions {
			if strings.HasPrefix(key, prefix) {
				entries = append(entries, entry{key, data})
			}
		}
		for len(entries) > max {
			oldest := 0
			for i, e := range entries {
				if e.data.LastActive.Before(entries[oldest].data.LastActive) {
					oldest = i
				}
			}
			delete(s.sessions, entries[oldest].key)
			entries = append(entries[:oldest], entries[oldest+1:]...)
		}
		return
	}
	var keep []uint
	err := s.db.Model(&db.Session{}).
		Where("game_key = ? AND player_key = ?", gameID, playerID).
		Order("last_active DESC").
		Limit(max).
		Pluck("id", &keep).Error
	if err != nil || len(keep) == 0 {
		return
	}
	_ = s.db.Where("game_key = ? AND player_key = ? AND id NOT IN ?", gameID, playerID, keep).
		Delete(&db.Session{}).Error
}

// Touch bumps the session's last-active timestamp.
func (s *sessionStore) Touch(gameID, playerID, sessionID string) {
	now := timeNowUTC()
	if s.db == nil {
		s.mu.Lock()
		if data, ok := s.sessions[sessionKey(gameID, playerID, sessionID)]; ok {
			data.LastActive = now
		}
		s.mu.Unlock()
		return
	}
	_ = s.db.Model(&db.Session{}).
		Where("game_key = ? AND player_key = ? AND session_key = ?", gameID, playerID, sessionID).
		Update("last_active", now).Error
}

// RemovePlayer drops every session the player holds in the game, for
// when they leave the lobby.
func (s *sessionStore) RemovePlayer(gameID, playerID string) {
	if s.db == nil {
		s.mu.Lock()
		prefix := gameID + "/" + playerID + "/"
		for key := range s.sessions {
			if strings.HasPrefix(key, prefix) {
				delete(s.sessions, key)
			}
		}
		s.mu.Unlock()
		return
	}
	_ = s.db.Where("game_key = ? AND player_key = ?", gameID, playerID).
		Delete(&db.Session{}).Error
}

// RemoveGame drops every session tied to a deleted game.
func (s *sessionStore) RemoveGame(gameID string) {
	if s.db == nil {
		s.mu.Lock()
		prefix := gameID + "/"
		for key := range s.sessions {
			if strings.HasPrefix(key, prefix) {
				delete(s.sessions, key)
			}
		}
		s.mu.Unlock()
		return
	}
	_ = s.db.Where("game_key = ?", gameID).Delete(&db.Session{}).Error
}

func newSessionID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("sess-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%x", buf)
}
