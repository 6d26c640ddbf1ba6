// submodule cmd contains command definitions
package main

import (
	"github.com/urfave/cli/v3"

	"github.com/quirxsama/latte-sub000/internal/formatter"
	"github.com/quirxsama/latte-sub000/internal/seed"
)

// asFlag selects the user a command acts for.
func asFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "as",
		Usage:   "Your public user code",
		Sources: cli.EnvVars("LATTE_USER"),
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
			Value: true,
		},
	}
}

func withFlags(flags ...[]cli.Flag) []cli.Flag {
	var all []cli.Flag
	for _, f := range flags {
		all = append(all, f...)
	}
	return all
}

// setupCommand handles setup operations for the database and configuration.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Action: r.SetupDatabase,
			},
			{
				Name:   "rollback",
				Usage:  "Roll back the most recent migration",
				Action: r.SetupRollback,
			},
			{
				Name:   "status",
				Usage:  "Show applied and pending migrations",
				Action: r.SetupStatus,
			},
			{
				Name:   "config",
				Usage:  "Write a config.toml template to the --config path",
				Action: r.SetupConfig,
			},
		},
	}
}

// serveCommand runs the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "port",
				Usage: "Override server.port",
			},
		},
		Action: r.Serve,
	}
}

// authCommand handles Spotify login and API tokens.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage authentication",
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Log in with Spotify in the browser and sync your listening stats",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "How long to wait for the browser callback",
						Value: defaultLoginTimeout,
					},
				},
				Action: r.AuthLogin,
			},
			{
				Name:      "token",
				Usage:     "Issue an API bearer token for a user code",
				ArgsUsage: "<user-code>",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "code"},
				},
				Action: r.AuthToken,
			},
		},
	}
}

// usersCommand inspects stored listeners.
func usersCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "users",
		Usage: "Inspect users",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List users, newest first",
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of users", Value: 50},
					&cli.IntFlag{Name: "offset", Usage: "Number of users to skip"},
				}),
				Action: r.UsersList,
			},
			{
				Name:      "show",
				Usage:     "Show a user's profile and top items",
				ArgsUsage: "<user-code>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Flags:     jsonFlags(),
				Action:    r.UsersShow,
			},
			{
				Name:      "search",
				Usage:     "Search users by name or code",
				ArgsUsage: "<query>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
				Flags: withFlags(jsonFlags(), []cli.Flag{
					asFlag(),
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of results", Value: 20},
				}),
				Action: r.UsersSearch,
			},
			{
				Name:      "syncs",
				Usage:     "Show a user's recent stats syncs",
				ArgsUsage: "<user-code>",
				Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of runs", Value: 10},
				}),
				Action: r.UsersSyncs,
			},
		},
	}
}

// friendsCommand manages the acting user's friends and requests.
func friendsCommand(r *Runner) *cli.Command {
	codeArg := []cli.Argument{&cli.StringArg{Name: "code"}}
	idArg := []cli.Argument{&cli.Int64Arg{Name: "id"}}

	return &cli.Command{
		Name:  "friends",
		Usage: "Manage friends and friend requests",
		Flags: []cli.Flag{asFlag()},
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "List your friends",
				Flags:  jsonFlags(),
				Action: r.FriendsList,
			},
			{
				Name:  "requests",
				Usage: "List pending friend requests",
				Flags: withFlags(jsonFlags(), []cli.Flag{
					&cli.BoolFlag{Name: "sent", Usage: "Show requests you sent instead"},
				}),
				Action: r.FriendsRequests,
			},
			{
				Name:      "send",
				Usage:     "Send a friend request",
				ArgsUsage: "<user-code>",
				Arguments: codeArg,
				Action:    r.FriendsSend,
			},
			{
				Name:      "accept",
				Usage:     "Accept a friend request",
				ArgsUsage: "<request-id>",
				Arguments: idArg,
				Action:    r.FriendsAccept,
			},
			{
				Name:      "decline",
				Usage:     "Decline a friend request",
				ArgsUsage: "<request-id>",
				Arguments: idArg,
				Action:    r.FriendsDecline,
			},
			{
				Name:      "remove",
				Usage:     "Remove a friend",
				ArgsUsage: "<user-code>",
				Arguments: codeArg,
				Action:    r.FriendsRemove,
			},
			{
				Name:      "status",
				Usage:     "Show your relationship with another user",
				ArgsUsage: "<user-code>",
				Arguments: codeArg,
				Flags:     jsonFlags(),
				Action:    r.FriendsStatus,
			},
		},
	}
}

// compareCommand compares the acting user with a friend, or ranks every friend.
func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "compare",
		Usage:     "Compare your music taste with a friend",
		ArgsUsage: "[user-code]",
		Arguments: []cli.Argument{&cli.StringArg{Name: "code"}},
		Flags: []cli.Flag{
			asFlag(),
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: text, markdown, csv, json",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the report to a file (a directory with --all)",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "Write a report for every friend",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Concurrent report writers with --all",
				Value: 4,
			},
		},
		Action: r.Compare,
	}
}

// seedCommand fills the database with demo listeners.
func seedCommand(r *Runner) *cli.Command {
	defaults := seed.DefaultOptions()
	return &cli.Command{
		Name:  "seed",
		Usage: "Create demo users with overlapping tastes",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "users", Usage: "Listeners to create", Value: defaults.Users},
			&cli.IntFlag{Name: "friends", Usage: "Friends per listener", Value: defaults.Friends},
			&cli.IntFlag{Name: "pending", Usage: "Pending requests per listener", Value: defaults.Pending},
			&cli.IntFlag{Name: "artists", Usage: "Size of the shared artist pool", Value: defaults.Artists},
			&cli.Int64Flag{Name: "seed", Usage: "Random seed, 0 for time based"},
		},
		Action: r.Seed,
	}
}

// tuiCommand returns the top-level TUI command for browsing friends.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Browse friends ranked by compatibility",
		Flags:   []cli.Flag{asFlag()},
		Action:  r.TUI,
	}
}
