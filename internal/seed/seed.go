// Package seed fills a database with demo listeners whose tastes overlap, so that
// comparisons and rankings have something to show without a Spotify account.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/charmbracelet/log"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/repositories"
	"github.com/quirxsama/latte-sub000/internal/shared"
	"github.com/quirxsama/latte-sub000/internal/tasks"
)

var genres = []string{
	"indie rock", "dream pop", "shoegaze", "techno", "house", "idm", "jazz", "neo soul",
	"hip hop", "trip hop", "ambient", "post-punk", "synthpop", "folk", "afrobeat", "metal",
}

// Options controls how much data [Seeder.Run] creates.
type Options struct {
	Users   int   // listeners to create
	Friends int   // friends per listener, linked in a ring
	Pending int   // pending requests per listener
	Artists int   // size of the shared artist pool
	Seed    int64 // zero picks a time-based seed
}

// DefaultOptions returns a small, well-connected demo graph.
func DefaultOptions() Options {
	return Options{Users: 12, Friends: 3, Pending: 1, Artists: 40}
}

// Result summarizes a seeding run.
type Result struct {
	Users       []*models.User
	Friendships int
	Requests    int
}

// Seeder creates fake listeners through the repositories.
type Seeder struct {
	users   *repositories.UserRepository
	friends *repositories.FriendRepository
	logger  *log.Logger
}

// NewSeeder creates a seeder. A nil logger discards output.
func NewSeeder(users *repositories.UserRepository, friends *repositories.FriendRepository, logger *log.Logger) *Seeder {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Seeder{users: users, friends: friends, logger: logger}
}

// pool is the catalogue listeners draw their favourites from.
type pool struct {
	artists []models.TopArtist
	tracks  []models.TopTrack
}

func newPool(f *gofakeit.Faker, size int, now time.Time) pool {
	p := pool{}
	for i := range size {
		artist := models.TopArtist{
			SpotifyID:   fmt.Sprintf("seed-artist-%03d", i),
			Name:        f.FirstName() + " " + f.LastName(),
			Genres:      pick(f, genres, f.Number(1, 3)),
			Image:       fmt.Sprintf("https://picsum.photos/seed/artist-%d/300/300", i),
			TimeRange:   models.TimeRangeMedium,
			LastUpdated: now,
		}
		p.artists = append(p.artists, artist)

		for j := range 2 {
			p.tracks = append(p.tracks, models.TopTrack{
				SpotifyID:   fmt.Sprintf("seed-track-%03d-%d", i, j),
				Name:        titleCase(f.Adjective() + " " + f.Noun()),
				Artists:     []string{artist.Name},
				TimeRange:   models.TimeRangeMedium,
				LastUpdated: now,
			})
		}
	}
	return p
}

// stats draws a listener's favourites. Listeners lean towards a window of the pool
// centred on their index, so neighbours in the ring share more.
func (p pool) stats(f *gofakeit.Faker, index, listeners int) models.MusicStats {
	n := len(p.artists)
	centre := index * n / max(listeners, 1)

	var artists []models.TopArtist
	var tracks []models.TopTrack
	for k := range f.Number(8, 15) {
		a := (centre + k + f.Number(0, 3)) % n
		artists = append(artists, p.artists[a])
		tracks = append(tracks, p.tracks[2*a+f.Number(0, 1)])
	}
	for range f.Number(2, 5) {
		artists = append(artists, p.artists[f.Number(0, n-1)])
	}

	for i := range tracks {
		tracks[i].PlayCount = f.Number(10, 100)
	}
	for i := range artists {
		artists[i].PlayCount = f.Number(10, 100)
	}
	return tasks.BuildMusicStats(tracks, artists)
}

// Run creates opts.Users listeners with stats, befriends each with the next
// opts.Friends listeners and leaves opts.Pending requests unanswered.
func (s *Seeder) Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Users < 1 {
		return nil, fmt.Errorf("%w: users must be at least 1", shared.ErrInvalidArgument)
	}
	if opts.Artists < 1 {
		opts.Artists = DefaultOptions().Artists
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	f := gofakeit.New(opts.Seed)
	now := time.Now().UTC()
	catalogue := newPool(f, opts.Artists, now)
	res := &Result{}

	for i := range opts.Users {
		profile := models.SpotifyProfile{
			SpotifyID:    "seed-" + strings.ToLower(f.LetterN(12)),
			DisplayName:  f.FirstName() + " " + f.LastName(),
			Email:        f.Email(),
			ProfileImage: fmt.Sprintf("https://i.pravatar.cc/150?u=%s", f.UUID()),
			Country:      f.CountryAbr(),
			Followers:    f.Number(0, 500),
		}

		user, err := s.users.UpsertFromSpotify(ctx, profile)
		if err != nil {
			return res, fmt.Errorf("failed to create listener %q: %w", profile.DisplayName, err)
		}
		if user, err = s.users.UpdateMusicStats(ctx, user.ID, catalogue.stats(f, i, opts.Users)); err != nil {
			return res, fmt.Errorf("failed to store stats for %q: %w", profile.DisplayName, err)
		}
		res.Users = append(res.Users, user)
		s.logger.Debug("created listener", "code", user.UserID, "name", user.DisplayName)
	}

	n := len(res.Users)
	for i, u := range res.Users {
		for k := 1; k <= opts.Friends && k < n; k++ {
			other := res.Users[(i+k)%n]
			ok, err := s.befriend(ctx, u, other)
			if err != nil {
				return res, err
			}
			if ok {
				res.Friendships++
			}
		}
	}

	for i, u := range res.Users {
		for k := 1; k <= opts.Pending; k++ {
			sender := res.Users[(i+opts.Friends+k)%n]
			if sender.ID == u.ID {
				continue
			}
			if friends, err := s.friends.CheckFriendship(ctx, sender.ID, u.ID); err != nil {
				return res, err
			} else if friends {
				continue
			}
			_, err := s.friends.SendFriendRequest(ctx, sender.ID, u.ID)
			if errors.Is(err, shared.ErrFriendRequestExists) {
				continue
			}
			if err != nil {
				return res, err
			}
			res.Requests++
		}
	}

	s.logger.Info("seeded listeners", "users", n, "friendships", res.Friendships, "pending", res.Requests)
	return res, nil
}

// befriend sends and accepts a request from a to b. It reports false when the pair was
// already linked.
func (s *Seeder) befriend(ctx context.Context, a, b *models.User) (bool, error) {
	if friends, err := s.friends.CheckFriendship(ctx, a.ID, b.ID); err != nil || friends {
		return false, err
	}

	req, err := s.friends.SendFriendRequest(ctx, a.ID, b.ID)
	if errors.Is(err, shared.ErrFriendRequestExists) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to link %s and %s: %w", a.UserID, b.UserID, err)
	}
	if _, err := s.friends.AcceptFriendRequest(ctx, req.ID, b.ID); err != nil {
		return false, fmt.Errorf("failed to link %s and %s: %w", a.UserID, b.UserID, err)
	}
	return true, nil
}

func pick(f *gofakeit.Faker, from []string, n int) []string {
	shuffled := append([]string(nil), from...)
	f.ShuffleStrings(shuffled)
	return shuffled[:min(n, len(shuffled))]
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
