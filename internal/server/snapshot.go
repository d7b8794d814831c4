package server

import (
	"prompt-party/internal/game"
)

// snapshot is the full record pushed to every subscriber on each
// change. Clients recompute their local view (current player, image
// carousel, reaction badges) from it; nothing is delivered as a delta.
func snapshot(g *game.Game) map[string]any {
	players := make([]map[string]any, 0, len(g.Players))
	for i, id := range g.Players {
		entry := map[string]any{
			"id":         id,
			"turn_order": i,
		}
		if info, ok := g.PlayerInfo[id]; ok {
			entry["display_name"] = info.DisplayName
			entry["joined_at"] = info.JoinedAt
		}
		players = append(players, entry)
	}

	turns := make([]map[string]any, 0, len(g.Turns))
	for _, turn := range g.Turns {
		entry := map[string]any{
			"user_id":         turn.UserID,
			"kind":            string(turn.Kind),
			"text":            turn.Text,
			"character_count": turn.CharacterCount,
			"count_status":    string(g.Config.CountStatus(turn.CharacterCount)),
			"timestamp":       turn.Timestamp,
		}
		if turn.Seed != nil {
			entry["seed"] = map[string]any{
				"image_url": turn.Seed.ImageURL,
				"prompt":    turn.Seed.Prompt,
			}
		}
		turns = append(turns, entry)
	}

	images := make([]map[string]any, 0, len(g.ImageHistory))
	for i := range g.ImageHistory {
		record := &g.ImageHistory[i]
		images = append(images, map[string]any{
			"id":             record.ID,
			"image_url":      record.ImageURL,
			"prompt":         record.Prompt,
			"created_at":     record.CreatedAt,
			"reactions":      record.ReactionCounts(),
			"reaction_users": record.ReactionUsers,
		})
	}

	payload := map[string]any{
		"id":                   g.ID,
		"creator":              g.Creator,
		"status":               string(g.Status),
		"mode":                 string(g.Mode),
		"players":              players,
		"turns":                turns,
		"image_history":        images,
		"created_at":           g.CreatedAt,
		"current_player_index": g.CurrentPlayerIndex,
		"min_players":          g.MinPlayers,
		"max_players":          g.MaxPlayers,
		"turns_per_game":       g.Config.TurnsPerGame,
		"max_turn_length":      g.Config.MaxTurnLength,
		"max_total_length":     g.Config.MaxTotalLength,
		"warning_threshold":    g.Config.WarningThreshold,
		"prompt":               game.BuildFullPrompt(g.Turns),
		"prompt_length":        g.TotalPromptLength(),
		"is_generating":        g.IsGenerating(timeNowUTC()),
		"revision":             g.Revision,
	}
	if current, ok := g.CurrentPlayer(); ok {
		payload["current_player"] = current
	} else {
		payload["current_player"] = nil
	}
	if g.SeedImageURL != "" {
		payload["seed_image_url"] = g.SeedImageURL
	}
	return payload
}
