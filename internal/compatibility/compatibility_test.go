package compatibility

import (
	"encoding/json"
	"fmt"
	"reflect"
	"testing"

	"github.com/quirxsama/latte-sub000/internal/models"
)

func stats(artists, tracks, genres []string) models.MusicStats {
	s := models.MusicStats{
		TopArtists: []models.TopArtist{},
		TopTracks:  []models.TopTrack{},
		TopGenres:  []models.TopGenre{},
	}
	for _, id := range artists {
		s.TopArtists = append(s.TopArtists, models.TopArtist{SpotifyID: id, Name: "artist " + id})
	}
	for _, id := range tracks {
		s.TopTracks = append(s.TopTracks, models.TopTrack{SpotifyID: id, Name: "track " + id})
	}
	for _, name := range genres {
		s.TopGenres = append(s.TopGenres, models.TopGenre{Name: name})
	}
	return s
}

func TestCompare(t *testing.T) {
	t.Run("weighted example", func(t *testing.T) {
		a := stats([]string{"a1", "a2"}, []string{"t1"}, []string{"rock"})
		b := stats([]string{"a2", "a3"}, []string{"t2"}, []string{"jazz"})

		got := Compare(a, b)

		if got.Compatibility != 20 {
			t.Errorf("expected compatibility 20, got %d", got.Compatibility)
		}
		want := Details{SharedArtists: 1, ArtistScore: 50}
		if got.Details != want {
			t.Errorf("expected details %+v, got %+v", want, got.Details)
		}
		if !reflect.DeepEqual(got.SharedContent.Artists, []string{"a2"}) {
			t.Errorf("expected shared artists [a2], got %v", got.SharedContent.Artists)
		}
	})

	t.Run("identical snapshots score 100", func(t *testing.T) {
		tc := []struct {
			name string
			s    models.MusicStats
		}{
			{name: "all dimensions", s: stats([]string{"a1", "a2"}, []string{"t1"}, []string{"pop", "rock"})},
			{name: "artists only", s: stats([]string{"a1"}, nil, nil)},
			{name: "tracks only", s: stats(nil, []string{"t1", "t2", "t3"}, nil)},
			{name: "artists and genres", s: stats([]string{"a1"}, nil, []string{"pop"})},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := Compare(tt.s, tt.s).Compatibility; got != 100 {
					t.Errorf("expected 100, got %d", got)
				}
			})
		}
	})

	t.Run("empty snapshots score 0", func(t *testing.T) {
		empty := stats(nil, nil, nil)
		full := stats([]string{"a1"}, []string{"t1"}, []string{"pop"})

		for name, pair := range map[string][2]models.MusicStats{
			"both empty":   {empty, empty},
			"left empty":   {empty, full},
			"right empty":  {full, empty},
			"zero values":  {{}, {}},
			"nil vs empty": {{}, full},
		} {
			t.Run(name, func(t *testing.T) {
				got := Compare(pair[0], pair[1])
				if got.Compatibility != 0 {
					t.Errorf("expected 0, got %d", got.Compatibility)
				}
				if got.SharedContent.Artists == nil || got.SharedContent.Tracks == nil || got.SharedContent.Genres == nil {
					t.Error("shared content lists must not be nil")
				}
			})
		}
	})

	t.Run("disjoint snapshots score 0", func(t *testing.T) {
		a := stats([]string{"a1"}, []string{"t1"}, []string{"pop"})
		b := stats([]string{"a2"}, []string{"t2"}, []string{"rock"})
		if got := Compare(a, b).Compatibility; got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]models.MusicStats{
			{stats([]string{"a1", "a2", "a3"}, []string{"t1", "t2"}, []string{"pop"}), stats([]string{"a3"}, []string{"t2", "t9"}, []string{"pop", "jazz", "rock"})},
			{stats([]string{"a1"}, nil, []string{"pop"}), stats([]string{"a1", "a2"}, []string{"t1"}, nil)},
			{stats(nil, []string{"t1"}, nil), stats([]string{"a1"}, []string{"t1", "t2", "t3", "t4"}, []string{"x"})},
		}

		for i, p := range pairs {
			t.Run(fmt.Sprintf("pair %d", i), func(t *testing.T) {
				ab, ba := Compare(p[0], p[1]), Compare(p[1], p[0])
				if ab.Compatibility != ba.Compatibility {
					t.Errorf("compare(a,b)=%d, compare(b,a)=%d", ab.Compatibility, ba.Compatibility)
				}
				if ab.Details != ba.Details {
					t.Errorf("details differ: %+v vs %+v", ab.Details, ba.Details)
				}
			})
		}
	})

	t.Run("duplicates and blanks are ignored", func(t *testing.T) {
		a := stats([]string{"a1", "a1", ""}, nil, nil)
		b := stats([]string{"a1", "a2"}, nil, nil)

		got := Compare(a, b)
		// {a1} vs {a1, a2}: 2*1/3
		if got.Details.ArtistScore != 67 {
			t.Errorf("expected artist score 67, got %d", got.Details.ArtistScore)
		}
		if !reflect.DeepEqual(got.SharedContent.Artists, []string{"a1"}) {
			t.Errorf("expected [a1], got %v", got.SharedContent.Artists)
		}
	})

	t.Run("shared content keeps first snapshot order", func(t *testing.T) {
		a := stats(nil, []string{"t3", "t1", "t2"}, nil)
		b := stats(nil, []string{"t1", "t2", "t3"}, nil)

		got := Compare(a, b).SharedContent.Tracks
		if !reflect.DeepEqual(got, []string{"t3", "t1", "t2"}) {
			t.Errorf("expected order [t3 t1 t2], got %v", got)
		}
	})

	t.Run("result stays within bounds", func(t *testing.T) {
		ids := make([]string, 0, 60)
		for i := range 60 {
			ids = append(ids, fmt.Sprintf("id%d", i))
		}
		for split := 0; split <= 60; split += 7 {
			got := Compare(stats(ids[:split], ids, ids[split:]), stats(ids, ids[split:], ids[:split])).Compatibility
			if got < 0 || got > 100 {
				t.Fatalf("compatibility %d out of range", got)
			}
		}
	})

	t.Run("json shape", func(t *testing.T) {
		data, err := json.Marshal(Compare(stats(nil, nil, nil), stats(nil, nil, nil)))
		if err != nil {
			t.Fatalf("failed to encode result: %v", err)
		}
		want := `{"compatibility":0,"details":{"sharedArtists":0,"sharedTracks":0,"sharedGenres":0,"artistScore":0,"trackScore":0,"genreScore":0},"sharedContent":{"artists":[],"tracks":[],"genres":[]}}`
		if string(data) != want {
			t.Errorf("unexpected json:\n got %s\nwant %s", data, want)
		}
	})
}

func TestDice(t *testing.T) {
	tc := []struct {
		shared, a, b int
		want         float64
	}{
		{0, 0, 0, 0},
		{0, 3, 0, 0},
		{1, 2, 2, 0.5},
		{2, 2, 2, 1},
		{1, 1, 3, 0.5},
	}

	for _, tt := range tc {
		if got := Dice(tt.shared, tt.a, tt.b); got != tt.want {
			t.Errorf("Dice(%d, %d, %d) = %v, want %v", tt.shared, tt.a, tt.b, got, tt.want)
		}
	}
}

func TestRank(t *testing.T) {
	self := stats([]string{"a1", "a2"}, []string{"t1"}, []string{"pop"})
	candidates := []Candidate{
		{User: models.UserSummary{UserID: "C", DisplayName: "Cleo"}, Stats: stats(nil, nil, []string{"rock"})},
		{User: models.UserSummary{UserID: "B", DisplayName: "Bea"}, Stats: self},
		{User: models.UserSummary{UserID: "A", DisplayName: "Abe"}, Stats: stats(nil, nil, []string{"jazz"})},
	}

	matches := Rank(self, candidates)

	var order []string
	for _, m := range matches {
		order = append(order, m.User.UserID)
	}
	if !reflect.DeepEqual(order, []string{"B", "A", "C"}) {
		t.Errorf("expected order [B A C], got %v", order)
	}
	if matches[0].Result.Compatibility != 100 {
		t.Errorf("expected best match 100, got %d", matches[0].Result.Compatibility)
	}
}

func TestComparable(t *testing.T) {
	open := &models.User{ID: 1, UserID: "OPEN", PrivacySettings: models.DefaultPrivacySettings()}
	closed := &models.User{ID: 2, UserID: "CLOSED"}

	candidates := Comparable([]*models.User{open, nil, closed})
	if len(candidates) != 1 || candidates[0].User.UserID != "OPEN" {
		t.Errorf("expected only users allowing comparison, got %+v", candidates)
	}
	if got := Comparable(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %#v", got)
	}
}
