package game

import (
	"errors"
	"testing"
)

func startedGame(t *testing.T, players ...string) *Game {
	t.Helper()
	g := New(players[0], StandardConfig())
	for _, id := range players[1:] {
		if err := g.AddPlayer(id); err != nil {
			t.Fatalf("add player %s: %v", id, err)
		}
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return g
}

func TestNewGameStartsWaiting(t *testing.T) {
	g := New("alice", StandardConfig())
	if g.Status != StatusWaiting {
		t.Fatalf("expected waiting, got %s", g.Status)
	}
	if len(g.Players) != 1 || g.Players[0] != "alice" {
		t.Fatalf("expected creator as only player, got %v", g.Players)
	}
	if len(g.Turns) != 0 || g.CurrentPlayerIndex != 0 {
		t.Fatalf("expected empty turns and index 0")
	}
	if len(g.ImageHistory) != 0 {
		t.Fatalf("expected empty image history")
	}
}

func TestAddPlayerRules(t *testing.T) {
	g := New("alice", StandardConfig())
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	var verr *ValidationError
	if err := g.AddPlayer("bob"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for duplicate, got %v", err)
	}

	for _, id := range []string{"carol", "dave", "erin", "frank"} {
		if err := g.AddPlayer(id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	if err := g.AddPlayer("grace"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for full game, got %v", err)
	}

	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	var serr *StateError
	if err := g.AddPlayer("grace"); !errors.As(err, &serr) {
		t.Fatalf("expected state error after start, got %v", err)
	}
}

func TestStartNeedsMinPlayers(t *testing.T) {
	g := New("alice", StandardConfig())
	var verr *ValidationError
	if err := g.Start(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error below min players, got %v", err)
	}

	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.Status != StatusInProgress || g.CurrentPlayerIndex != 0 {
		t.Fatalf("expected in_progress at index 0, got %s/%d", g.Status, g.CurrentPlayerIndex)
	}

	var serr *StateError
	if err := g.Start(); !errors.As(err, &serr) {
		t.Fatalf("expected state error on double start, got %v", err)
	}
}

func TestAddTurnAdvancesAndWraps(t *testing.T) {
	g := startedGame(t, "alice", "bob")

	texts := []string{"a cat", "wearing a hat", "on a boat", "at sunset", "in winter", "smiling"}
	order := []string{"alice", "bob", "alice", "bob", "alice", "bob"}
	for i, text := range texts {
		current, ok := g.CurrentPlayer()
		if !ok || current != order[i] {
			t.Fatalf("turn %d: expected %s, got %s (%v)", i, order[i], current, ok)
		}
		if err := g.AddTurn(order[i], text); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
		if len(g.Turns) != i+1 {
			t.Fatalf("turn %d: expected %d turns, got %d", i, i+1, len(g.Turns))
		}
		if i < len(texts)-1 && g.CurrentPlayerIndex != (i+1)%2 {
			t.Fatalf("turn %d: expected index %d, got %d", i, (i+1)%2, g.CurrentPlayerIndex)
		}
	}

	if g.Status != StatusCompleted {
		t.Fatalf("expected completed after %d turns, got %s", len(texts), g.Status)
	}
	if _, ok := g.CurrentPlayer(); ok {
		t.Fatalf("expected no current player after completion")
	}
	if got := BuildFullPrompt(g.Turns); got != "a cat wearing a hat on a boat at sunset in winter smiling" {
		t.Fatalf("unexpected prompt %q", got)
	}
}

func TestCompletionByTurnCountNotWraparound(t *testing.T) {
	// 6 turns with 4 players: alice and bob get two turns each,
	// carol and dave only one. That imbalance is intentional.
	g := startedGame(t, "alice", "bob", "carol", "dave")
	order := []string{"alice", "bob", "carol", "dave", "alice", "bob"}
	for i, id := range order {
		if err := g.AddTurn(id, "word"); err != nil {
			t.Fatalf("turn %d (%s): %v", i, id, err)
		}
	}
	if g.Status != StatusCompleted {
		t.Fatalf("expected completed, got %s", g.Status)
	}
	if len(g.Turns) != 6 {
		t.Fatalf("expected 6 turns, got %d", len(g.Turns))
	}
	if g.CurrentPlayerIndex != 2 {
		t.Fatalf("expected cursor left at 2, got %d", g.CurrentPlayerIndex)
	}
}

func TestAddTurnRejectsOutOfTurnWithoutMutation(t *testing.T) {
	g := startedGame(t, "alice", "bob")

	var aerr *AuthorizationError
	if err := g.AddTurn("bob", "sneaky"); !errors.As(err, &aerr) {
		t.Fatalf("expected authorization error, got %v", err)
	}
	if len(g.Turns) != 0 || g.CurrentPlayerIndex != 0 {
		t.Fatalf("rejected turn must not mutate state: turns=%d index=%d", len(g.Turns), g.CurrentPlayerIndex)
	}

	var verr *ValidationError
	if err := g.AddTurn("mallory", "hi"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for outsider, got %v", err)
	}
}

func TestAddTurnTextLimits(t *testing.T) {
	g := startedGame(t, "alice", "bob")

	var verr *ValidationError
	if err := g.AddTurn("alice", "   "); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for empty text, got %v", err)
	}
	long := make([]byte, g.Config.MaxTurnLength+1)
	for i := range long {
		long[i] = 'x'
	}
	if err := g.AddTurn("alice", string(long)); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for over-length text, got %v", err)
	}
	if err := g.AddTurn("alice", "  trimmed  "); err != nil {
		t.Fatalf("trimmed text should pass: %v", err)
	}
	if g.Turns[0].Text != "trimmed" || g.Turns[0].CharacterCount != 7 {
		t.Fatalf("expected trimmed turn, got %+v", g.Turns[0])
	}
}

func TestAddTurnTotalLengthLimit(t *testing.T) {
	cfg := StandardConfig()
	cfg.MaxTotalLength = 30
	g := New("alice", cfg)
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.AddTurn("alice", "twelve chars!"); err != nil {
		t.Fatalf("first turn: %v", err)
	}
	var verr *ValidationError
	if err := g.AddTurn("bob", "way past the total cap"); !errors.As(err, &verr) {
		t.Fatalf("expected validation error for total length, got %v", err)
	}
}

func TestAddTurnRequiresInProgress(t *testing.T) {
	g := New("alice", StandardConfig())
	var serr *StateError
	if err := g.AddTurn("alice", "hello"); !errors.As(err, &serr) {
		t.Fatalf("expected state error while waiting, got %v", err)
	}
}

func TestRemovePlayer(t *testing.T) {
	g := New("alice", StandardConfig())
	for _, id := range []string{"bob", "carol"} {
		if err := g.AddPlayer(id); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	empty, err := g.RemovePlayer("bob")
	if err != nil || empty {
		t.Fatalf("remove bob: empty=%v err=%v", empty, err)
	}
	if g.Creator != "alice" || len(g.Players) != 2 {
		t.Fatalf("non-creator leave must not touch creator: %s %v", g.Creator, g.Players)
	}

	empty, err = g.RemovePlayer("alice")
	if err != nil || empty {
		t.Fatalf("remove alice: empty=%v err=%v", empty, err)
	}
	if g.Creator != "carol" {
		t.Fatalf("expected carol promoted to creator, got %s", g.Creator)
	}

	empty, err = g.RemovePlayer("carol")
	if err != nil {
		t.Fatalf("remove carol: %v", err)
	}
	if !empty {
		t.Fatalf("expected delete-the-game signal when last player leaves")
	}
}

func TestRemovePlayerOnlyWhileWaiting(t *testing.T) {
	g := startedGame(t, "alice", "bob")
	var serr *StateError
	if _, err := g.RemovePlayer("bob"); !errors.As(err, &serr) {
		t.Fatalf("expected state error, got %v", err)
	}
}

func TestEditModeStart(t *testing.T) {
	g := New("alice", StandardConfig())
	g.Mode = ModeEdit
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}

	var verr *ValidationError
	if err := g.Start(); !errors.As(err, &verr) {
		t.Fatalf("expected validation error without seed, got %v", err)
	}

	var aerr *AuthorizationError
	if err := g.ProvideSeed("bob", SeedImage{ImageURL: "https://img/seed.png"}); !errors.As(err, &aerr) {
		t.Fatalf("expected authorization error for non-creator seed, got %v", err)
	}
	if err := g.ProvideSeed("alice", SeedImage{ImageURL: "https://img/seed.png", Prompt: "a red fox"}); err != nil {
		t.Fatalf("provide seed: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if g.CurrentPlayerIndex != 1 {
		t.Fatalf("edit mode should start at the second player, got %d", g.CurrentPlayerIndex)
	}
	if len(g.Turns) != 1 || g.Turns[0].Kind != TurnSeed || g.Turns[0].Seed == nil {
		t.Fatalf("expected seed turn first, got %+v", g.Turns)
	}
	if err := g.Turns[0].Validate(); err != nil {
		t.Fatalf("seed turn should validate: %v", err)
	}
	if g.PendingSeed != nil {
		t.Fatalf("pending seed should be consumed on start")
	}
	if len(g.ImageHistory) != 1 || g.ImageHistory[0].ImageURL != "https://img/seed.png" {
		t.Fatalf("expected seed as first image record, got %+v", g.ImageHistory)
	}

	if err := g.AddTurn("bob", "add a top hat"); err != nil {
		t.Fatalf("bob's edit: %v", err)
	}
	if g.Turns[1].Kind != TurnEdit {
		t.Fatalf("expected edit turn in edit mode, got %s", g.Turns[1].Kind)
	}
}

func TestSeedImageJoinsHistory(t *testing.T) {
	g := New("alice", StandardConfig())
	g.Mode = ModeEdit
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if err := g.ProvideSeed("alice", SeedImage{ImageURL: "https://img/seed.png", Prompt: "a red fox"}); err != nil {
		t.Fatalf("provide seed: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	if len(g.ImageHistory) != 1 {
		t.Fatalf("expected 1 image record after start, got %d", len(g.ImageHistory))
	}
	record := &g.ImageHistory[0]
	if record.ID == "" || record.ImageURL != "https://img/seed.png" || record.Prompt != "a red fox" {
		t.Fatalf("unexpected seed record %+v", record)
	}
	if len(record.Reactions) != 0 || len(record.ReactionUsers) != 0 {
		t.Fatalf("seed record should start with empty reactions, got %+v", record)
	}
	if !record.AddReaction("🔥", "bob") {
		t.Fatalf("seed record should accept reactions")
	}
	if got, ok := g.ImageByID(record.ID); !ok || got.Reactions["🔥"] != 1 {
		t.Fatalf("expected reaction on seed record, got %+v ok=%v", got, ok)
	}
	if url, ok := g.ResolveSourceImage(); !ok || url != "https://img/seed.png" {
		t.Fatalf("first edit should build on the seed, got %q ok=%v", url, ok)
	}
}

func TestSeedTurnNotCountedTowardLimit(t *testing.T) {
	cfg := StandardConfig()
	cfg.TurnsPerGame = 2
	g := New("alice", cfg)
	g.Mode = ModeEdit
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if err := g.ProvideSeed("alice", SeedImage{ImageURL: "https://img/seed.png", Prompt: "a red fox"}); err != nil {
		t.Fatalf("provide seed: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := g.PlayedTurns(); got != 0 {
		t.Fatalf("seed must not count as a played turn, got %d", got)
	}

	if err := g.AddTurn("bob", "add a hat"); err != nil {
		t.Fatalf("first edit: %v", err)
	}
	if g.Status != StatusInProgress {
		t.Fatalf("game must not complete after one of two edits, got %s", g.Status)
	}
	if err := g.AddTurn("alice", "make it blue"); err != nil {
		t.Fatalf("second edit: %v", err)
	}
	if g.Status != StatusCompleted {
		t.Fatalf("expected completed after two edits, got %s", g.Status)
	}
	if len(g.Turns) != 3 || g.PlayedTurns() != 2 {
		t.Fatalf("expected seed plus two edits, got turns=%d played=%d", len(g.Turns), g.PlayedTurns())
	}
}

func TestMidGameJoinsFlag(t *testing.T) {
	cfg := ExperimentalConfig()
	g := New("alice", cfg)
	if err := g.AddPlayer("bob"); err != nil {
		t.Fatalf("add bob: %v", err)
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := g.AddPlayer("carol"); err != nil {
		t.Fatalf("experimental config allows mid-game joins: %v", err)
	}
}
