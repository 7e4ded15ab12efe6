// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Command stvcount counts an election from a JSON file without a server.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/danielhkuo/quickly-count/stv"
)

func main() {
	if err := getCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// electionFile is the input format of the run command
type electionFile struct {
	Candidates []string     `json:"candidates"`
	Seats      int          `json:"seats"`
	Ballots    []stv.Ballot `json:"ballots"`
}

func getCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "stvcount",
		Short:         "count single transferable vote elections",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCommand(), quotaCommand())
	return root
}

func runCommand() *cobra.Command {
	var asJSON, verbose bool

	c := &cobra.Command{
		Use:   "run FILE",
		Short: "count the ballots in FILE (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			in, err := readElection(c.InOrStdin(), args[0])
			if err != nil {
				return err
			}

			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			logger := slog.New(slog.NewTextHandler(c.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

			e, err := stv.New(in.Candidates, in.Seats, in.Ballots, stv.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("invalid election: %w", err)
			}

			out := c.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				for ev := range e.Events() {
					if err := enc.Encode(ev); err != nil {
						return err
					}
				}
				return e.Err()
			}

			p := &roundPrinter{w: out, candidates: in.Candidates, seats: in.Seats}
			for ev := range e.Events() {
				p.print(ev)
			}
			return e.Err()
		},
	}

	c.Flags().BoolVar(&asJSON, "json", false, "print events as NDJSON")
	c.Flags().BoolVarP(&verbose, "verbose", "v", false, "log counting steps to stderr")
	return c
}

func quotaCommand() *cobra.Command {
	var ballots, seats int

	c := &cobra.Command{
		Use:   "quota",
		Short: "print the Droop quota",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			if ballots < 0 {
				return fmt.Errorf("ballots must not be negative")
			}
			if seats < 1 {
				return fmt.Errorf("seats must be at least 1")
			}
			fmt.Fprintf(c.OutOrStdout(), "Droop quota for %s ballots and %s: %s\n",
				humanize.Comma(int64(ballots)), plural(seats, "seat"), humanize.Comma(int64(stv.Quota(ballots, seats))))
			return nil
		},
	}

	c.Flags().IntVar(&ballots, "ballots", 0, "number of valid ballots")
	c.Flags().IntVar(&seats, "seats", 1, "number of seats")
	c.MarkFlagRequired("ballots")
	return c
}

func readElection(stdin io.Reader, path string) (electionFile, error) {
	var in electionFile

	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return in, err
		}
		defer f.Close()
		r = f
	}

	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return in, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return in, nil
}

// roundPrinter renders the event stream as a readable round log
type roundPrinter struct {
	w          io.Writer
	candidates []string
	seats      int
	invalid    int
}

func (p *roundPrinter) print(ev stv.Event) {
	switch d := ev.Data.(type) {
	case stv.InvalidBallotData:
		p.invalid++
	case stv.TallyCompleteData:
		fmt.Fprintf(p.w, "First preferences (%s invalid):\n", humanize.Comma(int64(p.invalid)))
		p.tallies(d.Tallies)
	case stv.QuotaData:
		fmt.Fprintf(p.w, "Quota: %s\n", humanize.Comma(int64(d.Quota)))
	case stv.ElectedData:
		fmt.Fprintf(p.w, "  %s elected to the %s seat with %s",
			d.Candidate, humanize.Ordinal(len(d.SeatsFilled)), plural(d.Tally, "vote"))
		if d.Surplus > 0 {
			fmt.Fprintf(p.w, " (surplus %s)", humanize.Comma(int64(d.Surplus)))
		}
		fmt.Fprintln(p.w)
	case stv.EliminationData:
		fmt.Fprintf(p.w, "  %s eliminated\n", d.Candidate)
	case stv.DistributionData:
		var parts []string
		for _, c := range p.candidates {
			if n, ok := d.Changes[c]; ok {
				parts = append(parts, fmt.Sprintf("%s +%s", c, humanize.Comma(int64(n))))
			}
		}
		if len(parts) == 0 {
			parts = append(parts, "nothing to transfer")
		}
		fmt.Fprintf(p.w, "    %s transfer: %s\n", d.Source, strings.Join(parts, ", "))
	case stv.CountCompleteData:
		fmt.Fprintf(p.w, "Round %d:\n", d.Number)
		p.tallies(d.Count.Tallies)
	case stv.CompleteData:
		fmt.Fprintf(p.w, "Elected: %s\n", strings.Join(d.Seats, ", "))
		if len(d.Seats) < p.seats {
			fmt.Fprintf(p.w, "%s left unfilled\n", plural(p.seats-len(d.Seats), "seat"))
		}
	}
}

func (p *roundPrinter) tallies(t map[string]int) {
	for _, c := range p.candidates {
		fmt.Fprintf(p.w, "  %-20s %8s\n", c, humanize.Comma(int64(t[c])))
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return humanize.Comma(int64(n)) + " " + unit + "s"
}
