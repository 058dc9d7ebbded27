package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/okian/kickoff/internal/rostercheck"
	"github.com/spf13/cobra"
)

const (
	defaultRosters     = 200
	defaultRosterSize  = 12
	defaultLockRate    = 0.15
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func newCheckCmd() *cobra.Command {
	cfg := rostercheck.Config{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify a running service against brute force",
		Long: `Generates random rosters, posts them to /balance concurrently and checks
every answer for completeness, lock respect and optimality.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), defaultTestTimeout)
			defer cancel()

			stats, err := rostercheck.Run(ctx, &cfg)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "verified %d/%d rosters in %s\n",
				stats.Verified, stats.Submitted, stats.Duration.Round(time.Millisecond))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&cfg.BaseURL, "url", "http://localhost:9080", "base URL of the service")
	f.IntVar(&cfg.Rosters, "rosters", defaultRosters, "number of rosters to check")
	f.IntVar(&cfg.Size, "size", defaultRosterSize, "players per roster (even)")
	f.Float64Var(&cfg.LockRate, "lock-rate", defaultLockRate, "chance that a player is locked")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU()*2, "number of concurrent workers")
	f.DurationVar(&cfg.Timeout, "timeout", defaultTimeout, "HTTP request timeout")
	f.Int64Var(&cfg.Seed, "seed", 0, "generator seed, 0 for random")
	f.BoolVar(&cfg.Verbose, "verbose", false, "log every verified roster")
	return cmd
}
