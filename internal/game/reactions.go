package game

// ReactionEmojis is the emoji set clients may react with.
var ReactionEmojis = []string{"❤️", "😂", "🔥", "✨", "🎨"}

func IsReactionEmoji(emoji string) bool {
	for _, e := range ReactionEmojis {
		if e == emoji {
			return true
		}
	}
	return false
}

// HasReacted reports whether the player already reacted with the emoji.
// Callers use this to decide between add and remove; the record itself
// only exposes the two idempotent primitives.
func (r *ImageRecord) HasReacted(emoji, playerID string) bool {
	for _, id := range r.ReactionUsers[emoji] {
		if id == playerID {
			return true
		}
	}
	return false
}

// AddReaction is a no-op when the player already reacted with the
// emoji. It reports whether the record changed.
func (r *ImageRecord) AddReaction(emoji, playerID string) bool {
	if r.HasReacted(emoji, playerID) {
		return false
	}
	if r.Reactions == nil {
		r.Reactions = make(map[string]int)
	}
	if r.ReactionUsers == nil {
		r.ReactionUsers = make(map[string][]string)
	}
	r.ReactionUsers[emoji] = append(r.ReactionUsers[emoji], playerID)
	r.Reactions[emoji]++
	return true
}

// RemoveReaction is the inverse primitive; counts never go below zero.
func (r *ImageRecord) RemoveReaction(emoji, playerID string) bool {
	if !r.HasReacted(emoji, playerID) {
		return false
	}
	users := r.ReactionUsers[emoji]
	kept := users[:0]
	for _, id := range users {
		if id != playerID {
			kept = append(kept, id)
		}
	}
	r.ReactionUsers[emoji] = kept
	if r.Reactions[emoji] > 0 {
		r.Reactions[emoji]--
	}
	return true
}

// ReactionCounts returns counts for every known emoji, zero-filled.
func (r *ImageRecord) ReactionCounts() map[string]int {
	counts := make(map[string]int, len(ReactionEmojis))
	for _, emoji := range ReactionEmojis {
		counts[emoji] = r.Reactions[emoji]
	}
	return counts
}

// PlayerReactions reports, per emoji, whether the player has reacted.
func (r *ImageRecord) PlayerReactions(playerID string) map[string]bool {
	state := make(map[string]bool, len(ReactionEmojis))
	for _, emoji := range ReactionEmojis {
		state[emoji] = r.HasReacted(emoji, playerID)
	}
	return state
}
