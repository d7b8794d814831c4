package game

import (
	"crypto/rand"
	"fmt"
	"time"
)

// ImageRecord is one entry in the append-only image version chain.
// Records are never deleted; only the reaction sub-maps mutate.
type ImageRecord struct {
	ID            string              `json:"id"`
	ImageURL      string              `json:"image_url"`
	Prompt        string              `json:"prompt"`
	CreatedAt     time.Time           `json:"created_at"`
	Reactions     map[string]int      `json:"reactions"`
	ReactionUsers map[string][]string `json:"reaction_users"`
}

// GenerationResult is what the image-generation collaborator returns.
type GenerationResult struct {
	ImageURL  string
	Prompt    string
	CreatedAt time.Time
}

// AppendImage assigns a fresh id, initializes empty reaction maps and
// appends the result to the image history.
func (g *Game) AppendImage(result GenerationResult) *ImageRecord {
	record := ImageRecord{
		ID:            newImageID(),
		ImageURL:      result.ImageURL,
		Prompt:        result.Prompt,
		CreatedAt:     result.CreatedAt,
		Reactions:     make(map[string]int),
		ReactionUsers: make(map[string][]string),
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	g.ImageHistory = append(g.ImageHistory, record)
	return &g.ImageHistory[len(g.ImageHistory)-1]
}

// ResolveSourceImage picks the base for the next edit: the most recent
// history entry once one exists, otherwise the seed reference.
func (g *Game) ResolveSourceImage() (string, bool) {
	if len(g.ImageHistory) > 0 {
		return g.ImageHistory[len(g.ImageHistory)-1].ImageURL, true
	}
	if g.SeedImageURL != "" {
		return g.SeedImageURL, true
	}
	return "", false
}

func (g *Game) ImageByID(imageID string) (*ImageRecord, bool) {
	for i := range g.ImageHistory {
		if g.ImageHistory[i].ID == imageID {
			return &g.ImageHistory[i], true
		}
	}
	return nil, false
}

func (g *Game) LatestImageURL() (string, bool) {
	if len(g.ImageHistory) == 0 {
		return "", false
	}
	return g.ImageHistory[len(g.ImageHistory)-1].ImageURL, true
}

func newImageID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("img-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("img-%x", buf)
}
