// package matcher resolves source tracks to destination-catalog tracks using
// a cascade of matching strategies.
//
// Strategies run in strict priority order, stopping at the first success:
// ISRC lookup, artist+track search, album+track search, then a weighted fuzzy
// fallback. Transport errors inside a strategy are swallowed and treated as
// "no candidate" so that a single failed search never aborts resolving a
// track.
package matcher

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"syncopate/internal/models"
	"syncopate/internal/services"
)

// Strategy thresholds. Confidence values are per-method and informational;
// gating happens only on the similarity thresholds below.
const (
	artistTrackThreshold = 0.9

	albumTrackNameThreshold   = 0.9
	albumTrackAlbumThreshold  = 0.8
	albumTrackArtistThreshold = 0.7

	fuzzyThreshold    = 0.7
	fuzzyNameWeight   = 0.7
	fuzzyArtistWeight = 0.3

	searchLimit      = 10
	fuzzySearchLimit = 20
)

// Matcher resolves tracks against one destination service's catalog.
type Matcher struct {
	destination services.Service
	logger      *log.Logger
}

// New creates a Matcher for the given destination service.
func New(destination services.Service, logger *log.Logger) *Matcher {
	if logger == nil {
		logger = log.Default()
	}
	return &Matcher{destination: destination, logger: logger}
}

// Match resolves one source track to at most one destination track.
// An unmatched track yields method [models.MatchNone], never an error.
func (m *Matcher) Match(ctx context.Context, source models.Track) models.MatchResult {
	if source.ISRC != "" {
		if dest := m.matchByISRC(ctx, source); dest != nil {
			return models.MatchResult{Source: source, Destination: dest, Method: models.MatchISRC, Confidence: 100}
		}
	}

	if dest := m.matchByArtistTrack(ctx, source); dest != nil {
		return models.MatchResult{Source: source, Destination: dest, Method: models.MatchArtistTrack, Confidence: 90}
	}

	if dest := m.matchByAlbumTrack(ctx, source); dest != nil {
		return models.MatchResult{Source: source, Destination: dest, Method: models.MatchAlbumTrack, Confidence: 80}
	}

	if dest := m.matchFuzzy(ctx, source); dest != nil {
		return models.MatchResult{Source: source, Destination: dest, Method: models.MatchFuzzy, Confidence: 70}
	}

	return models.MatchResult{Source: source, Method: models.MatchNone}
}

// matchByISRC queries the destination catalog directly by ISRC. An ISRC hit
// is authoritative: it identifies the same recording across catalogs, so no
// name comparison is applied.
func (m *Matcher) matchByISRC(ctx context.Context, source models.Track) *models.Track {
	dest, err := m.destination.SearchByISRC(ctx, source.ISRC)
	if err != nil {
		m.logger.Debug("isrc lookup failed, falling through", "isrc", source.ISRC, "err", err)
		return nil
	}
	return dest
}

// matchByArtistTrack searches "{name} {artist}" and accepts the first
// candidate whose name and artist similarities both clear 0.9.
func (m *Matcher) matchByArtistTrack(ctx context.Context, source models.Track) *models.Track {
	name := Normalize(source.Name)
	artist := Normalize(source.Artist)

	results, err := m.destination.SearchTracks(ctx, fmt.Sprintf("%s %s", name, artist), searchLimit)
	if err != nil {
		m.logger.Debug("artist+track search failed, falling through", "track", source.Name, "err", err)
		return nil
	}

	for _, candidate := range results {
		nameSim := Similarity(name, Normalize(candidate.Name))
		artistSim := Similarity(artist, Normalize(candidate.Artist))

		if nameSim > artistTrackThreshold && artistSim > artistTrackThreshold {
			found := candidate
			return &found
		}
	}

	return nil
}

// matchByAlbumTrack searches "{name} {album}" and accepts the first candidate
// clearing the name/album/artist threshold triple.
func (m *Matcher) matchByAlbumTrack(ctx context.Context, source models.Track) *models.Track {
	if source.Album == "" {
		return nil
	}

	name := Normalize(source.Name)
	album := Normalize(source.Album)
	artist := Normalize(source.Artist)

	results, err := m.destination.SearchTracks(ctx, fmt.Sprintf("%s %s", name, album), searchLimit)
	if err != nil {
		m.logger.Debug("album+track search failed, falling through", "track", source.Name, "err", err)
		return nil
	}

	for _, candidate := range results {
		nameSim := Similarity(name, Normalize(candidate.Name))
		albumSim := Similarity(album, Normalize(candidate.Album))
		artistSim := Similarity(artist, Normalize(candidate.Artist))

		if nameSim > albumTrackNameThreshold &&
			albumSim > albumTrackAlbumThreshold &&
			artistSim > albumTrackArtistThreshold {
			found := candidate
			return &found
		}
	}

	return nil
}

// matchFuzzy searches by track name alone and keeps the candidate with the
// highest weighted score 0.7*name + 0.3*artist, accepting it above 0.7.
func (m *Matcher) matchFuzzy(ctx context.Context, source models.Track) *models.Track {
	name := Normalize(source.Name)
	artist := Normalize(source.Artist)

	results, err := m.destination.SearchTracks(ctx, name, fuzzySearchLimit)
	if err != nil {
		m.logger.Debug("fuzzy search failed", "track", source.Name, "err", err)
		return nil
	}

	var best *models.Track
	bestScore := 0.0

	for _, candidate := range results {
		nameSim := Similarity(name, Normalize(candidate.Name))
		artistSim := Similarity(artist, Normalize(candidate.Artist))
		score := fuzzyNameWeight*nameSim + fuzzyArtistWeight*artistSim

		if score > bestScore {
			bestScore = score
			found := candidate
			best = &found
		}
	}

	if bestScore > fuzzyThreshold {
		return best
	}
	return nil
}
