package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/formatter"
	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
	"github.com/quirxsama/latte-sub000/internal/tasks"
)

// Compare prints a report against one friend, ranks every friend when no code is given,
// or writes a report per friend with --all.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if err := formatter.ValidateFormat(format); err != nil {
		return err
	}

	me, err := r.actingUser(ctx, cmd)
	if err != nil {
		return err
	}

	code := cmd.StringArg("code")
	switch {
	case cmd.Bool("all"):
		return r.exportAll(ctx, me, format, cmd.String("output"), cmd.Int("workers"))
	case code == "":
		return r.rank(ctx, me, format)
	}

	other, err := r.users.GetByUserID(ctx, code)
	if err != nil {
		return err
	}
	if other.ID == me.ID {
		return fmt.Errorf("%w: cannot compare with yourself", shared.ErrInvalidInput)
	}
	friends, err := r.friends.CheckFriendship(ctx, me.ID, other.ID)
	if err != nil {
		return err
	}
	if !friends {
		return fmt.Errorf("%w: %s", shared.ErrNotFriends, other.UserID)
	}
	if !other.PrivacySettings.AllowComparison {
		return fmt.Errorf("%w: %s", shared.ErrComparisonDisabled, other.UserID)
	}

	report := formatter.NewReport(me, other, time.Now().UTC())
	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteFile(report, format, path)
		if err != nil {
			return err
		}
		r.logger.Info("report written", "path", written, "compatibility", report.Result.Compatibility)
		return r.writePlain("✓ %d%% compatible with %s, report saved to %s\n", report.Result.Compatibility, other.DisplayName, written)
	}
	return formatter.Write(r.output, report, format)
}

// rank prints the acting user's comparable friends, best match first.
func (r *Runner) rank(ctx context.Context, me *models.User, format string) error {
	friends, err := r.users.ListFriends(ctx, me.ID)
	if err != nil {
		return err
	}

	data, err := formatter.Ranking(compatibility.Rank(me.MusicStats, compatibility.Comparable(friends)), format)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// exportAll writes a report for every comparable friend into dir.
func (r *Runner) exportAll(ctx context.Context, me *models.User, format, dir string, workers int) error {
	all, err := r.users.ListFriends(ctx, me.ID)
	if err != nil {
		return err
	}
	var friends []*models.User
	for _, f := range all {
		if f.PrivacySettings.AllowComparison {
			friends = append(friends, f)
		}
	}
	if len(friends) == 0 {
		return r.writePlain("%s has no friends to compare with\n", me.DisplayName)
	}

	r.writePlain("Writing %d reports...\n\n", len(friends))
	progress, stop := r.watchProgress(func(u tasks.ProgressUpdate) {
		r.writePlain("   %s\n", u.Message)
	})
	result, err := r.statsEngine().ExportReports(ctx, progress, me, friends, tasks.ReportOpts{
		Format:     format,
		OutputDir:  dir,
		NumWorkers: workers,
	})
	stop()
	if err != nil {
		return err
	}

	r.writePlain("\n")
	r.writePlainHeader("Export Complete!")
	r.writePlain("Reports:  %d/%d written\n", result.Successful, result.TotalReports)
	r.writePlain("Folder:   %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", filepath.Base(result.ManifestPath))
	if len(result.Results) > 0 {
		best := result.Results[0]
		r.writePlain("Best match: %s (%d%%)\n", best.DisplayName, best.Compatibility)
	}
	if result.Failed > 0 {
		r.writePlain("\nFailed:\n")
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %s\n", res.DisplayName, res.ErrorMessage)
			}
		}
	}
	return nil
}
