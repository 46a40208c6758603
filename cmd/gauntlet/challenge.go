// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/gauntlet/internal/challenge"
)

const defaultHistoryLimit = 10

func newChallengeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Assign and inspect player challenges",
		Long: `Assign, clear and inspect the challenge tier and restriction flags
of a player. Changes are written to the database and take effect the
next time the player's session reads its state.`,
	}

	cmd.AddCommand(newChallengeSetCmd(a))
	cmd.AddCommand(newChallengeClearCmd(a))
	cmd.AddCommand(newChallengeStatusCmd(a))
	cmd.AddCommand(newChallengeHistoryCmd(a))
	cmd.AddCommand(newChallengeRestrictionsCmd())
	return cmd
}

func newChallengeSetCmd(a *app) *cobra.Command {
	var tier int
	var flagSpec string

	cmd := &cobra.Command{
		Use:   "set PLAYER",
		Short: "Assign a tier and restriction flags",
		Long: `Assign a challenge tier (1-3) and restriction flags to PLAYER.
FLAGS is a numeric mask ("65", "0x41") or a comma-separated list of
restriction ids or names ("NO_TRADE,Permadeath"). Tier 0 clears.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			var flags challenge.Flags
			if tier != 0 {
				if flags, err = challenge.ParseFlags(flagSpec); err != nil {
					return err
				}
			}
			return a.withService(cmd, func(svc *challenge.Service, _ *Stores) error {
				if err := svc.SetActiveTierFlags(cmd.Context(), playerID, tier, flags); err != nil {
					return err
				}
				st := svc.ActiveState(cmd.Context(), playerID)
				if !st.Active() {
					cmd.Printf("Cleared challenge for %s\n", playerID)
					return nil
				}
				cmd.Printf("Assigned tier %d to %s: %s\n", st.Tier, playerID, challenge.DescribeFlags(st.Flags))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&tier, "tier", 0, "challenge tier (0-3)")
	cmd.Flags().StringVar(&flagSpec, "flags", "", "restriction flags")
	_ = cmd.MarkFlagRequired("tier")
	return cmd
}

func newChallengeClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear PLAYER",
		Short: "End a player's challenge",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *challenge.Service, _ *Stores) error {
				if err := svc.ClearActiveTierFlags(cmd.Context(), playerID); err != nil {
					return err
				}
				cmd.Printf("Cleared challenge for %s\n", playerID)
				return nil
			})
		},
	}
}

func newChallengeStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status PLAYER",
		Short: "Show a player's challenge and permadeath state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			return a.withService(cmd, func(svc *challenge.Service, st *Stores) error {
				state := svc.ActiveState(cmd.Context(), playerID)
				cmd.Printf("Player:     %s\n", playerID)
				cmd.Printf("Tier:       %d\n", state.Tier)
				cmd.Printf("Flags:      0x%05x (%s)\n", uint32(state.Flags), challenge.DescribeFlags(state.Flags))

				rec, err := st.Permadeath.GetPermadeath(cmd.Context(), playerID)
				if err != nil {
					return err
				}
				if rec == nil || !rec.Dead {
					cmd.Println("Permadeath: NO")
					return nil
				}
				loc := rec.Location
				cmd.Printf("Permadeath: YES (%s at %s, map %d %.1f %.1f %.1f)\n",
					rec.Cause, rec.DiedAt.UTC().Format(time.RFC3339), loc.MapID, loc.X, loc.Y, loc.Z)
				return nil
			})
		},
	}
}

func newChallengeHistoryCmd(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history PLAYER",
		Short: "List a player's challenge runs, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			playerID, err := parsePlayerID(args[0])
			if err != nil {
				return err
			}
			if limit < 1 {
				return oops.Code("INVALID_LIMIT").Errorf("limit must be at least 1, got %d", limit)
			}
			st, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.History.ListRuns(cmd.Context(), playerID, limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Printf("No challenge runs for %s\n", playerID)
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tENDED\tTIER\tSTATE\tPICKED\tFAILED")
			for _, run := range runs {
				ended := "-"
				if run.EndedAt != nil {
					ended = run.EndedAt.UTC().Format(time.RFC3339)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n",
					run.StartedAt.UTC().Format(time.RFC3339), ended, run.Tier, run.State,
					challenge.DescribeFlags(run.PickedFlags), challenge.DescribeFlags(run.FailedFlags))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultHistoryLimit, "maximum runs to show")
	return cmd
}

func newChallengeRestrictionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restrictions",
		Short: "List the known restrictions and their flag bits",
		Args:  cobra.NoArgs,
		// Static table; skip config and logging setup.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "BIT\tMASK\tID\tNAME")
			for i, def := range challenge.Restrictions() {
				fmt.Fprintf(w, "%d\t0x%05x\t%s\t%s\n", i, uint32(def.Flag), def.ID, def.Name)
			}
			return w.Flush()
		},
	}
}

// withService opens the stores, builds a host-less Service and releases
// both when fn returns.
func (a *app) withService(cmd *cobra.Command, fn func(*challenge.Service, *Stores) error) error {
	st, err := a.openStores(cmd.Context())
	if err != nil {
		return err
	}
	defer st.Close()

	svc, err := a.newService(st)
	if err != nil {
		return err
	}
	defer svc.Close()
	return fn(svc, st)
}

func parsePlayerID(s string) (ulid.ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ulid.ULID{}, oops.Code("INVALID_PLAYER_ID").With("player_id", s).
			Errorf("player id must be a ULID: %w", err)
	}
	return id, nil
}
