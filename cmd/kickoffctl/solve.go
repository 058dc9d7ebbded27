package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/okian/kickoff/internal/domain/balance"
	"github.com/okian/kickoff/internal/domain/model"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

// rosterFile is the on-disk roster format. JSON files parse as YAML too.
type rosterFile struct {
	TeamAName string            `yaml:"team_a_name"`
	TeamBName string            `yaml:"team_b_name"`
	Players   []rosterPlayer    `yaml:"players"`
	Locks     map[string]string `yaml:"locks"`
}

type rosterPlayer struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Score any    `yaml:"score"`
}

func loadRoster(r io.Reader) (balance.Request, error) {
	var f rosterFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return balance.Request{}, fmt.Errorf("parse roster: %w", err)
	}

	entries := make([]model.RosterEntry, len(f.Players))
	for i, p := range f.Players {
		entries[i] = model.RosterEntry{ID: p.ID, Name: p.Name, Score: p.Score}
	}
	locks := make(balance.LockMap, len(f.Locks))
	for key, raw := range f.Locks {
		side, ok := balance.ParseSide(raw)
		if !ok {
			return balance.Request{}, fmt.Errorf("lock for %q: side %q is not A or B", key, raw)
		}
		locks[key] = side
	}

	teamA, teamB := f.TeamAName, f.TeamBName
	if teamA == "" {
		teamA = "Team A"
	}
	if teamB == "" {
		teamB = "Team B"
	}
	return balance.Request{
		Players:   model.NormalizeRoster(entries),
		Locks:     locks,
		TeamAName: teamA,
		TeamBName: teamB,
	}, nil
}

func newSolveCmd() *cobra.Command {
	var (
		file   string
		random bool
		seed   int64
		output string
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Balance a roster file locally",
		Long: `Reads a YAML or JSON roster and prints the most even split.

Roster format:
  team_a_name: Reds
  players:
    - id: ana
      score: 8.5
    - name: Bo
      score: "6"
  locks:
    ana: A`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var in io.Reader = cmd.InOrStdin()
			if file != "-" {
				fh, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open roster: %w", err)
				}
				defer fh.Close()
				in = fh
			}

			req, err := loadRoster(in)
			if err != nil {
				return err
			}
			req.PreferRandomTies = random

			var opts []balance.Option
			if cmd.Flags().Changed("seed") {
				opts = append(opts, balance.WithSeed(seed))
			}
			res, err := balance.Balance(req, opts...)
			if err != nil {
				return err
			}
			return printResult(cmd.OutOrStdout(), res, output)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "roster file, - for stdin")
	cmd.Flags().BoolVar(&random, "random", false, "break ties randomly")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for reproducible tie-breaking")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	return cmd
}

func printResult(w io.Writer, res balance.PartitionResult, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(res)
	case "text":
		for _, team := range res.Teams {
			if _, err := fmt.Fprintf(w, "%s (%s) %.1f: %s\n",
				team.Name, team.ID, team.Score, strings.Join(team.Players, ", ")); err != nil {
				return err
			}
		}
		_, err := fmt.Fprintf(w, "diff %.1f\n", res.Diff)
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
