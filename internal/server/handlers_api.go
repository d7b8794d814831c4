package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"prompt-party/internal/game"
)

type createGameRequest struct {
	PlayerID    string `json:"player_id" binding:"required,playerid"`
	DisplayName string `json:"display_name" binding:"required,playername"`
	Preset      string `json:"preset"`
	Mode        string `json:"mode"`

	// Optional overrides on top of the chosen preset.
	TurnsPerGame  *int `json:"turns_per_game"`
	MinPlayers    *int `json:"min_players"`
	MaxPlayers    *int `json:"max_players"`
	MaxTurnLength *int `json:"max_turn_length"`
}

type joinGameRequest struct {
	PlayerID    string `json:"player_id" binding:"required,playerid"`
	DisplayName string `json:"display_name" binding:"required,playername"`
}

type sessionRequest struct {
	PlayerID  string `json:"player_id" binding:"required,playerid"`
	SessionID string `json:"session_id" binding:"required"`
}

type addTurnRequest struct {
	PlayerID  string `json:"player_id" binding:"required,playerid"`
	SessionID string `json:"session_id" binding:"required"`
	Text      string `json:"text" binding:"required,turntext"`

	// Revision, when set, makes the submission compare-and-swap: it is
	// rejected when the game changed since the client read it.
	Revision *int64 `json:"revision"`
}

type seedRequest struct {
	PlayerID  string `json:"player_id" binding:"required,playerid"`
	SessionID string `json:"session_id" binding:"required"`
	ImageURL  string `json:"image_url" binding:"required"`
	Prompt    string `json:"prompt"`
}

type reactionRequest struct {
	PlayerID  string `json:"player_id" binding:"required,playerid"`
	SessionID string `json:"session_id" binding:"required"`
	Emoji     string `json:"emoji" binding:"required,emoji"`
}

var playerFieldMessages = bindMessages{
	"PlayerID": {
		"required": "player_id is required",
		"playerid": "player_id may only contain letters, digits, - and _",
	},
	"DisplayName": {
		"required":   "display_name is required",
		"playername": "display_name must be 1-20 characters",
	},
	"SessionID": {
		"required": "session_id is required",
	},
	"Text": {
		"required": "text is required",
		"turntext": "text must be 1-280 characters",
	},
	"ImageURL": {
		"required": "image_url is required",
	},
	"Emoji": {
		"required": "emoji is required",
		"emoji":    "emoji is not one of the supported reactions",
	},
}

// writeGameError maps the core error taxonomy onto HTTP statuses.
func writeGameError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	var validationErr *game.ValidationError
	var stateErr *game.StateError
	var authErr *game.AuthorizationError
	var notFoundErr *game.NotFoundError
	var serviceErr *game.ExternalServiceError
	switch {
	case errors.As(err, &validationErr):
		status = http.StatusBadRequest
	case errors.As(err, &stateErr):
		status = http.StatusConflict
	case errors.As(err, &authErr):
		status = http.StatusUnauthorized
	case errors.As(err, &notFoundErr):
		status = http.StatusNotFound
	case errors.As(err, &serviceErr):
		status = http.StatusBadGateway
		if serviceErr.Reason == game.FailureRateLimited {
			status = http.StatusTooManyRequests
		}
		body["reason"] = string(serviceErr.Reason)
	case IsRevisionConflict(err):
		status = http.StatusConflict
	}
	c.JSON(status, body)
}

// authorize checks the session triple and refreshes its activity
// timestamp. It writes the 401 itself so handlers can just return.
func (s *Server) authorize(c *gin.Context, gameID, playerID, sessionID string) bool {
	var maxIdle time.Duration
	if g, ok := s.store.GetGame(gameID); ok {
		maxIdle = g.Config.SessionTimeout
	}
	if !s.sessions.Validate(gameID, playerID, sessionID, maxIdle) {
		writeGameError(c, &game.AuthorizationError{Message: "invalid session"})
		return false
	}
	s.sessions.Touch(gameID, playerID, sessionID)
	return true
}

func (s *Server) handleCreateGame(c *gin.Context) {
	var req createGameRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid create request") {
		return
	}

	cfg := s.defaults
	if req.Preset != "" {
		preset, ok := game.ConfigForPreset(req.Preset)
		if !ok {
			writeGameError(c, &game.ValidationError{Message: "unknown preset " + req.Preset})
			return
		}
		cfg = preset
	}
	if req.TurnsPerGame != nil {
		cfg.TurnsPerGame = *req.TurnsPerGame
	}
	if req.MinPlayers != nil {
		cfg.MinPlayers = *req.MinPlayers
	}
	if req.MaxPlayers != nil {
		cfg.MaxPlayers = *req.MaxPlayers
	}
	if req.MaxTurnLength != nil {
		cfg.MaxTurnLength = *req.MaxTurnLength
	}
	if err := cfg.Validate(); err != nil {
		writeGameError(c, err)
		return
	}

	var mode game.Mode
	switch req.Mode {
	case "", string(game.ModePrompt):
		mode = game.ModePrompt
	case string(game.ModeEdit):
		mode = game.ModeEdit
	default:
		writeGameError(c, &game.ValidationError{Message: "mode must be prompt or edit"})
		return
	}

	displayName, err := validateName(req.DisplayName)
	if err != nil {
		writeGameError(c, &game.ValidationError{Message: err.Error()})
		return
	}

	created := s.store.CreateGame(req.PlayerID, cfg, mode)
	g, err := s.store.UpdateGame(created.ID, func(g *game.Game) error {
		g.PlayerInfo[req.PlayerID] = game.PlayerInfo{
			ID:          req.PlayerID,
			DisplayName: displayName,
			JoinedAt:    timeNowUTC(),
		}
		return nil
	})
	if err != nil {
		writeGameError(c, err)
		return
	}

	sessionID, err := s.sessions.Create(g.ID, req.PlayerID)
	if err != nil {
		s.store.DeleteGame(g.ID)
		writeGameError(c, err)
		return
	}
	s.sessions.TrimPlayerSessions(g.ID, req.PlayerID, g.Config.MaxSessionsPerPlayer)

	if err := s.persistGame(g); err != nil {
		log.Printf("persist game game_id=%s error=%v", g.ID, err)
	} else if err := s.persistPlayer(g, req.PlayerID); err != nil {
		log.Printf("persist player game_id=%s player=%s error=%v", g.ID, req.PlayerID, err)
	}
	s.recordEvent(g.ID, req.PlayerID, eventGameCreated, map[string]any{
		"mode":   string(g.Mode),
		"preset": req.Preset,
	})

	log.Printf("game created game_id=%s creator=%s mode=%s", g.ID, req.PlayerID, g.Mode)
	c.JSON(http.StatusCreated, gin.H{
		"game":       snapshot(g),
		"session_id": sessionID,
	})
}

func (s *Server) handleListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"games": s.store.ListGameSummaries()})
}

func (s *Server) handleGetGame(c *gin.Context) {
	g, ok := s.store.GetGame(c.Param("id"))
	if !ok {
		writeGameError(c, &game.NotFoundError{Message: "game not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": snapshot(g)})
}

func (s *Server) handleJoinGame(c *gin.Context) {
	gameID := c.Param("id")
	var req joinGameRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid join request") {
		return
	}
	displayName, err := validateName(req.DisplayName)
	if err != nil {
		writeGameError(c, &game.ValidationError{Message: err.Error()})
		return
	}

	autoStarted := false
	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		if err := g.AddPlayer(req.PlayerID); err != nil {
			return err
		}
		existing := make([]string, 0, len(g.PlayerInfo))
		for _, info := range g.PlayerInfo {
			existing = append(existing, info.DisplayName)
		}
		g.PlayerInfo[req.PlayerID] = game.PlayerInfo{
			ID:          req.PlayerID,
			DisplayName: game.UniqueDisplayName(existing, displayName),
			JoinedAt:    timeNowUTC(),
		}
		if g.Config.AutoStartOnFull && len(g.Players) == g.MaxPlayers {
			if err := g.Start(); err == nil {
				autoStarted = true
			}
		}
		return nil
	})
	if err != nil {
		writeGameError(c, err)
		return
	}

	sessionID, err := s.sessions.Create(gameID, req.PlayerID)
	if err != nil {
		writeGameError(c, err)
		return
	}
	s.sessions.TrimPlayerSessions(gameID, req.PlayerID, g.Config.MaxSessionsPerPlayer)

	if err := s.persistGame(g); err != nil {
		log.Printf("persist game game_id=%s error=%v", g.ID, err)
	} else if err := s.persistPlayer(g, req.PlayerID); err != nil {
		log.Printf("persist player game_id=%s player=%s error=%v", g.ID, req.PlayerID, err)
	}
	s.recordEvent(gameID, req.PlayerID, eventPlayerJoined, map[string]any{
		"display_name": g.PlayerInfo[req.PlayerID].DisplayName,
	})
	if autoStarted {
		s.recordEvent(gameID, "", eventGameStarted, map[string]any{"auto": true})
		if current, ok := g.CurrentPlayer(); ok {
			s.notifier.TurnAdvanced(gameID, g.PlayerInfo[current])
		}
	}
	s.broadcastGame(g)

	c.JSON(http.StatusOK, gin.H{
		"game":       snapshot(g),
		"session_id": sessionID,
	})
}

func (s *Server) handleStartGame(c *gin.Context) {
	gameID := c.Param("id")
	var req sessionRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid start request") {
		return
	}
	if !s.authorize(c, gameID, req.PlayerID, req.SessionID) {
		return
	}

	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		if req.PlayerID != g.Creator {
			return &game.AuthorizationError{Message: "only the creator can start the game"}
		}
		return g.Start()
	})
	if err != nil {
		writeGameError(c, err)
		return
	}

	if err := s.persistGame(g); err != nil {
		log.Printf("persist game game_id=%s error=%v", g.ID, err)
	}
	// Edit-mode games open with the materialized seed turn and the
	// seed as the first image record.
	if len(g.Turns) > 0 && g.Turns[0].Kind == game.TurnSeed {
		if err := s.persistTurn(g, 0); err != nil {
			log.Printf("persist turn game_id=%s number=0 error=%v", g.ID, err)
		}
		if len(g.ImageHistory) > 0 {
			if err := s.persistImage(g, &g.ImageHistory[0]); err != nil {
				log.Printf("persist image game_id=%s image_id=%s error=%v", g.ID, g.ImageHistory[0].ID, err)
			}
		}
	}
	s.recordEvent(gameID, req.PlayerID, eventGameStarted, map[string]any{"auto": false})
	if current, ok := g.CurrentPlayer(); ok {
		s.notifier.TurnAdvanced(gameID, g.PlayerInfo[current])
	}
	s.broadcastGame(g)

	c.JSON(http.StatusOK, gin.H{"game": snapshot(g)})
}

func (s *Server) handleProvideSeed(c *gin.Context) {
	gameID := c.Param("id")
	var req seedRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid seed request") {
		return
	}
	if !s.authorize(c, gameID, req.PlayerID, req.SessionID) {
		return
	}

	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		return g.ProvideSeed(req.PlayerID, game.SeedImage{
			ImageURL: req.ImageURL,
			Prompt:   req.Prompt,
		})
	})
	if err != nil {
		writeGameError(c, err)
		return
	}

	if err := s.persistGame(g); err != nil {
		log.Printf("persist game game_id=%s error=%v", g.ID, err)
	}
	s.recordEvent(gameID, req.PlayerID, eventSeedProvided, map[string]any{
		"image_url": req.ImageURL,
	})
	s.broadcastGame(g)

	c.JSON(http.StatusOK, gin.H{"game": snapshot(g)})
}

func (s *Server) handleAddTurn(c *gin.Context) {
	gameID := c.Param("id")
	var req addTurnRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid turn request") {
		return
	}
	if !s.limiter.Allow(req.PlayerID) {
		c.Header("Retry-After", s.limiter.RetryAfter(req.PlayerID).Round(time.Second).String())
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}
	if !s.authorize(c, gameID, req.PlayerID, req.SessionID) {
		return
	}

	apply := func(g *game.Game) error {
		return g.AddTurn(req.PlayerID, req.Text)
	}
	var g *game.Game
	var err error
	if req.Revision != nil {
		g, err = s.store.UpdateGameAt(gameID, *req.Revision, apply)
	} else {
		g, err = s.store.UpdateGame(gameID, apply)
	}
	if err != nil {
		writeGameError(c, err)
		return
	}

	turnNumber := len(g.Turns) - 1
	if err := s.persistGame(g); err != nil {
		log.Printf("persist game game_id=%s error=%v", g.ID, err)
	} else if err := s.persistTurn(g, turnNumber); err != nil {
		log.Printf("persist turn game_id=%s number=%d error=%v", g.ID, turnNumber, err)
	}
	s.recordEvent(gameID, req.PlayerID, eventTurnAdded, map[string]any{
		"number": turnNumber,
		"kind":   string(g.Turns[turnNumber].Kind),
	})
	s.broadcastGame(g)

	if g.IsComplete() {
		s.recordEvent(gameID, "", eventGameCompleted, map[string]any{
			"turns": g.PlayedTurns(),
		})
		s.notifier.GameCompleted(gameID, game.BuildFullPrompt(g.Turns))
	} else if current, ok := g.CurrentPlayer(); ok {
		s.notifier.TurnAdvanced(gameID, g.PlayerInfo[current])
	}

	response := gin.H{"game": snapshot(g)}
	if g.Config.GenerateImageEveryTurn || g.IsComplete() {
		record, genErr := s.generateForTurn(c.Request.Context(), g)
		if genErr != nil {
			log.Printf("generate image game_id=%s error=%v", gameID, genErr)
			response["generation_error"] = generationErrorBody(genErr)
		} else if record != nil {
			response["image"] = gin.H{
				"id":        record.ID,
				"image_url": record.ImageURL,
				"prompt":    record.Prompt,
			}
		}
		if refreshed, ok := s.store.GetGame(gameID); ok {
			response["game"] = snapshot(refreshed)
		}
	}
	c.JSON(http.StatusCreated, response)
}

// generateForTurn builds the generation prompt for the game's mode and
// runs the external call. In prompt mode the full accumulated prompt is
// regenerated from scratch; in edit mode the latest turn is applied to
// the newest image in the chain.
func (s *Server) generateForTurn(ctx context.Context, g *game.Game) (*game.ImageRecord, error) {
	var prompt, sourceImage string
	switch g.Mode {
	case game.ModeEdit:
		latest := g.Turns[len(g.Turns)-1]
		source, hasSource := g.ResolveSourceImage()
		prompt = expandEditCommand(latest.Text, hasSource)
		sourceImage = source
	default:
		prompt = game.BuildFullPrompt(g.Turns)
	}
	return s.generateImage(ctx, g.ID, prompt, sourceImage)
}

func generationErrorBody(err error) gin.H {
	body := gin.H{"error": err.Error()}
	var serviceErr *game.ExternalServiceError
	if errors.As(err, &serviceErr) {
		body["reason"] = string(serviceErr.Reason)
	}
	return body
}

func (s *Server) handleLeaveGame(c *gin.Context) {
	gameID := c.Param("id")
	var req sessionRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid leave request") {
		return
	}
	if !s.authorize(c, gameID, req.PlayerID, req.SessionID) {
		return
	}

	empty := false
	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		gone, err := g.RemovePlayer(req.PlayerID)
		empty = gone
		return err
	})
	if err != nil {
		writeGameError(c, err)
		return
	}

	s.sessions.RemovePlayer(gameID, req.PlayerID)
	if empty {
		s.store.DeleteGame(gameID)
		s.sessions.RemoveGame(gameID)
		if err := s.removeGame(gameID); err != nil {
			log.Printf("remove game game_id=%s error=%v", gameID, err)
		}
		log.Printf("game deleted game_id=%s (last player left)", gameID)
		c.JSON(http.StatusOK, gin.H{"deleted": true})
		return
	}

	if err := s.persistGame(g); err != nil {
		log.Printf("persist game game_id=%s error=%v", g.ID, err)
	} else if err := s.removePlayerRow(gameID, req.PlayerID); err != nil {
		log.Printf("remove player game_id=%s player=%s error=%v", gameID, req.PlayerID, err)
	}
	s.recordEvent(gameID, req.PlayerID, eventPlayerLeft, nil)
	s.broadcastGame(g)

	c.JSON(http.StatusOK, gin.H{"game": snapshot(g)})
}

func (s *Server) handleAddReaction(c *gin.Context) {
	s.handleReaction(c, true)
}

func (s *Server) handleRemoveReaction(c *gin.Context) {
	s.handleReaction(c, false)
}

func (s *Server) handleReaction(c *gin.Context, add bool) {
	gameID := c.Param("id")
	imageID := c.Param("imageID")
	var req reactionRequest
	if !bindJSON(c, &req, playerFieldMessages, "invalid reaction request") {
		return
	}
	if !s.authorize(c, gameID, req.PlayerID, req.SessionID) {
		return
	}

	changed := false
	var record *game.ImageRecord
	g, err := s.store.UpdateGame(gameID, func(g *game.Game) error {
		if !g.HasPlayer(req.PlayerID) {
			return &game.AuthorizationError{Message: "only players in the game can react"}
		}
		image, ok := g.ImageByID(imageID)
		if !ok {
			return &game.NotFoundError{Message: "image not found"}
		}
		record = image
		if add {
			changed = image.AddReaction(req.Emoji, req.PlayerID)
		} else {
			changed = image.RemoveReaction(req.Emoji, req.PlayerID)
		}
		return nil
	})
	if err != nil {
		writeGameError(c, err)
		return
	}

	if changed {
		if err := s.persistImage(g, record); err != nil {
			log.Printf("persist image game_id=%s image_id=%s error=%v", gameID, imageID, err)
		}
		if add {
			s.recordEvent(gameID, req.PlayerID, eventReactionAdded, map[string]any{
				"image_id": imageID,
				"emoji":    req.Emoji,
			})
			s.notifier.ReactionAdded(gameID, imageID, req.Emoji, req.PlayerID)
		}
		s.broadcastGame(g)
	}

	c.JSON(http.StatusOK, gin.H{
		"changed":          changed,
		"reactions":        record.ReactionCounts(),
		"player_reactions": record.PlayerReactions(req.PlayerID),
	})
}
