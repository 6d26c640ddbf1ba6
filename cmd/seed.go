package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/seed"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// Seed creates demo listeners with overlapping tastes and links them as friends.
func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	if err := r.open(); err != nil {
		return err
	}

	seeder := seed.NewSeeder(r.users, r.friends, shared.WithLogger(r.logger, "component", "seed"))
	res, err := seeder.Run(ctx, seed.Options{
		Users:   cmd.Int("users"),
		Friends: cmd.Int("friends"),
		Pending: cmd.Int("pending"),
		Artists: cmd.Int("artists"),
		Seed:    cmd.Int64("seed"),
	})
	if err != nil {
		return err
	}

	r.writePlainHeader("Seeded demo data")
	r.writePlain("Users:        %d\n", len(res.Users))
	r.writePlain("Friendships:  %d\n", res.Friendships)
	r.writePlain("Pending:      %d\n\n", res.Requests)
	for _, u := range res.Users {
		r.writePlain("%s  %s\n", u.UserID, u.DisplayName)
	}
	r.writePlainln("Try: latte compare --as %s", res.Users[0].UserID)
	return nil
}
