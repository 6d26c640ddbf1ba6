// Package compatibility scores how similar two listening snapshots are.
//
// Each dimension (artists, tracks, genres) is compared with the Dice coefficient
// over sets of identifiers and the per-dimension scores are combined with fixed weights:
//
//	artists 0.4, tracks 0.4, genres 0.2
//
// A dimension in which neither snapshot has data carries no weight; the remaining weights
// are rescaled so that two identical snapshots always score 100. When all three dimensions
// are populated this is the plain weighted sum.
//
// [Compare] is pure: no I/O, no clock, no randomness, and Compare(a, b) and Compare(b, a)
// produce the same scores.
package compatibility

import (
	"math"
	"sort"

	"github.com/quirxsama/latte-sub000/internal/models"
)

const (
	ArtistWeight = 0.4
	TrackWeight  = 0.4
	GenreWeight  = 0.2
)

// Result is the outcome of comparing two snapshots.
type Result struct {
	Compatibility int           `json:"compatibility"`
	Details       Details       `json:"details"`
	SharedContent SharedContent `json:"sharedContent"`
}

// Details holds the per-dimension overlap counts and scores, scores as 0-100 percentages.
type Details struct {
	SharedArtists int `json:"sharedArtists"`
	SharedTracks  int `json:"sharedTracks"`
	SharedGenres  int `json:"sharedGenres"`
	ArtistScore   int `json:"artistScore"`
	TrackScore    int `json:"trackScore"`
	GenreScore    int `json:"genreScore"`
}

// SharedContent lists the shared identifiers in the first snapshot's order.
type SharedContent struct {
	Artists []string `json:"artists"`
	Tracks  []string `json:"tracks"`
	Genres  []string `json:"genres"`
}

// dimension is the overlap of one kind of identifier.
type dimension struct {
	shared []string
	score  float64
	// present is true when at least one side has data
	present bool
}

// Compare computes the compatibility between snapshots a and b.
func Compare(a, b models.MusicStats) Result {
	artists := overlap(artistIDs(a), artistIDs(b))
	tracks := overlap(trackIDs(a), trackIDs(b))
	genres := overlap(genreNames(a), genreNames(b))

	var total, weight float64
	for _, d := range []struct {
		dim    dimension
		weight float64
	}{
		{artists, ArtistWeight},
		{tracks, TrackWeight},
		{genres, GenreWeight},
	} {
		if !d.dim.present {
			continue
		}
		total += d.dim.score * d.weight
		weight += d.weight
	}

	score := 0.0
	if weight > 0 {
		score = total / weight
	}

	return Result{
		Compatibility: percent(score),
		Details: Details{
			SharedArtists: len(artists.shared),
			SharedTracks:  len(tracks.shared),
			SharedGenres:  len(genres.shared),
			ArtistScore:   percent(artists.score),
			TrackScore:    percent(tracks.score),
			GenreScore:    percent(genres.score),
		},
		SharedContent: SharedContent{
			Artists: artists.shared,
			Tracks:  tracks.shared,
			Genres:  genres.shared,
		},
	}
}

// Dice returns 2|A∩B| / (|A|+|B|), or 0 when either set is empty.
func Dice(shared, sizeA, sizeB int) float64 {
	if sizeA == 0 || sizeB == 0 {
		return 0
	}
	return 2 * float64(shared) / float64(sizeA+sizeB)
}

// overlap treats a and b as sets. Shared identifiers keep a's order.
func overlap(a, b []string) dimension {
	inB := make(map[string]bool, len(b))
	for _, id := range b {
		inB[id] = true
	}

	shared := []string{}
	for _, id := range a {
		if inB[id] {
			shared = append(shared, id)
		}
	}

	return dimension{
		shared:  shared,
		score:   Dice(len(shared), len(a), len(inB)),
		present: len(a) > 0 || len(b) > 0,
	}
}

func percent(x float64) int {
	p := int(math.Round(x * 100))
	return min(max(p, 0), 100)
}

// unique drops blanks and duplicates, keeping first occurrences.
func unique(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func artistIDs(s models.MusicStats) []string {
	ids := make([]string, 0, len(s.TopArtists))
	for _, a := range s.TopArtists {
		ids = append(ids, a.SpotifyID)
	}
	return unique(ids)
}

func trackIDs(s models.MusicStats) []string {
	ids := make([]string, 0, len(s.TopTracks))
	for _, t := range s.TopTracks {
		ids = append(ids, t.SpotifyID)
	}
	return unique(ids)
}

func genreNames(s models.MusicStats) []string {
	names := make([]string, 0, len(s.TopGenres))
	for _, g := range s.TopGenres {
		names = append(names, g.Name)
	}
	return unique(names)
}

// Candidate is a user to be ranked against the viewer.
type Candidate struct {
	User  models.UserSummary
	Stats models.MusicStats
}

// Match is a ranked candidate with its result.
type Match struct {
	User   models.UserSummary `json:"user"`
	Result Result             `json:"result"`
}

// Comparable returns a candidate for each user who allows comparison, in input order.
func Comparable(users []*models.User) []Candidate {
	candidates := make([]Candidate, 0, len(users))
	for _, u := range users {
		if u == nil || !u.PrivacySettings.AllowComparison {
			continue
		}
		candidates = append(candidates, Candidate{User: u.Summary(), Stats: u.MusicStats})
	}
	return candidates
}

// Rank compares self with every candidate and orders the matches by compatibility,
// highest first, ties broken by display name.
func Rank(self models.MusicStats, candidates []Candidate) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		matches = append(matches, Match{User: c.User, Result: Compare(self, c.Stats)})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Result.Compatibility != matches[j].Result.Compatibility {
			return matches[i].Result.Compatibility > matches[j].Result.Compatibility
		}
		return matches[i].User.DisplayName < matches[j].User.DisplayName
	})
	return matches
}
