package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// UsersList lists stored users.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	users, err := r.users.List(ctx, cmd.Int("limit"), cmd.Int("offset"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		summaries := make([]models.UserSummary, len(users))
		for i, u := range users {
			summaries[i] = u.Summary()
		}
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	r.writePlain("Found %d users:\n\n", len(users))
	for _, u := range users {
		r.writePlain("%s  %-24s %3d tracks %3d artists\n", u.UserID, u.DisplayName, len(u.MusicStats.TopTracks), len(u.MusicStats.TopArtists))
	}
	return nil
}

// UsersShow prints a user's profile, settings and top items.
func (r *Runner) UsersShow(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: user code", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.users.GetByUserID(ctx, code)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%s (%s)", user.DisplayName, user.UserID))
	r.writePlain("Spotify:   %s\n", user.SpotifyID)
	if user.Country != "" {
		r.writePlain("Country:   %s\n", user.Country)
	}
	if user.StatsUpdatedAt != nil {
		r.writePlain("Synced:    %s\n", user.StatsUpdatedAt.Format("2006-01-02 15:04"))
	}
	p := user.PrivacySettings
	r.writePlain("Privacy:   comparison=%t profile=%t tracks=%t artists=%t requests=%t\n",
		p.AllowComparison, p.ShowProfile, p.ShowTopTracks, p.ShowTopArtists, p.AllowFriendRequests)

	stats := user.MusicStats
	if stats.IsEmpty() {
		r.writePlainln("No listening stats yet. Run 'latte auth login' to sync.")
		return nil
	}

	r.writePlainln("Top artists:")
	for i, a := range stats.TopArtists[:min(10, len(stats.TopArtists))] {
		r.writePlain("  %2d. %s\n", i+1, a.Name)
	}
	r.writePlainln("Top tracks:")
	for i, t := range stats.TopTracks[:min(10, len(stats.TopTracks))] {
		r.writePlain("  %2d. %s - %s\n", i+1, strings.Join(t.Artists, ", "), t.Name)
	}
	r.writePlainln("Top genres:")
	for i, g := range stats.TopGenres {
		r.writePlain("  %2d. %s (%d%%)\n", i+1, g.Name, g.Percentage)
	}
	return nil
}

// UsersSearch finds users by display name or exact code.
func (r *Runner) UsersSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if strings.TrimSpace(query) == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	var viewerID int64
	if cmd.String("as") != "" {
		viewer, err := r.actingUser(ctx, cmd)
		if err != nil {
			return err
		}
		viewerID = viewer.ID
	}

	results, err := r.friends.Search(ctx, viewerID, query, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, cmd.Bool("pretty"))
	}

	if len(results) == 0 {
		return r.writePlain("No users match %q\n", query)
	}
	for _, res := range results {
		r.writePlain("%s  %-24s %s\n", res.UserID, res.DisplayName, res.Relationship)
	}
	return nil
}

// UsersSyncs lists a user's recent stats syncs.
func (r *Runner) UsersSyncs(ctx context.Context, cmd *cli.Command) error {
	code := cmd.StringArg("code")
	if code == "" {
		return fmt.Errorf("%w: user code", shared.ErrMissingArgument)
	}
	if err := r.open(); err != nil {
		return err
	}

	user, err := r.users.GetByUserID(ctx, code)
	if err != nil {
		return err
	}
	runs, err := r.runs.List(ctx, user.ID, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	if len(runs) == 0 {
		return r.writePlain("%s has never synced\n", user.DisplayName)
	}
	for _, run := range runs {
		r.writePlain("%s  %-9s %3d tracks %3d artists %2d genres  %s\n",
			run.StartedAt.Format("2006-01-02 15:04"), run.Status, run.Tracks, run.Artists, run.Genres, run.Duration().Round(time.Millisecond))
		if run.Error != "" {
			r.writePlain("    %s\n", run.Error)
		}
	}
	return nil
}
