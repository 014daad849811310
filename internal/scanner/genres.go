package scanner

import (
	"sort"
	"strings"
	"sync"

	"github.com/fsbruva/airsonic-advanced/internal/database"
)

// Genres tallies song and album counts per genre label for one scan run.
// A single entry contributes to exactly one of the two counters.
type Genres struct {
	mu         sync.Mutex
	tallies    map[string]*database.Genre
	separators string
	split      bool
}

// NewGenres creates a genre tally. When split is false the whole genre
// string is treated as one label regardless of separators.
func NewGenres(separators string, split bool) *Genres {
	return &Genres{
		tallies:    make(map[string]*database.Genre),
		separators: separators,
		split:      split,
	}
}

// IncrementSongCount bumps the song tally for each label in the genre string.
func (g *Genres) IncrementSongCount(genre string) {
	for _, label := range g.labels(genre) {
		g.mu.Lock()
		g.tally(label).SongCount++
		g.mu.Unlock()
	}
}

// IncrementAlbumCount bumps the album tally for each label in the genre string.
func (g *Genres) IncrementAlbumCount(genre string) {
	for _, label := range g.labels(genre) {
		g.mu.Lock()
		g.tally(label).AlbumCount++
		g.mu.Unlock()
	}
}

// tally must be called with the mutex held.
func (g *Genres) tally(label string) *database.Genre {
	t, ok := g.tallies[label]
	if !ok {
		t = &database.Genre{Name: label}
		g.tallies[label] = t
	}
	return t
}

func (g *Genres) labels(genre string) []string {
	if !g.split || g.separators == "" {
		if genre == "" {
			return nil
		}
		return []string{genre}
	}
	fields := strings.FieldsFunc(genre, func(r rune) bool {
		return strings.ContainsRune(g.separators, r)
	})
	labels := fields[:0]
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			labels = append(labels, f)
		}
	}
	return labels
}

// All returns the accumulated tallies sorted by name.
func (g *Genres) All() []database.Genre {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]database.Genre, 0, len(g.tallies))
	for _, t := range g.tallies {
		out = append(out, *t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
