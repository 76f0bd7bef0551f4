package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"fellowmatch/api/rpc"
	"fellowmatch/domain/matching"
)

var (
	remoteAddr string
	asJSON     bool
	fellowship string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the matcher once and replace the stored matches",
	Args:  cobra.NoArgs,
	RunE:  runMatching,
}

var matchesCmd = &cobra.Command{
	Use:   "matches",
	Short: "Print the stored matches",
	Args:  cobra.NoArgs,
	RunE:  showMatches,
}

func init() {
	for _, c := range []*cobra.Command{runCmd, matchesCmd} {
		c.Flags().StringVar(&remoteAddr, "remote", "", "engine gRPC address; local data directory when empty")
		c.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	}
	matchesCmd.Flags().StringVar(&fellowship, "fellowship", "", "only this fellowship")
}

func dialRemote(addr string) (*rpc.Client, func(), error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, nil, errors.Wrapf(err, "dial %s", addr)
	}
	return rpc.NewClient(conn), func() { _ = conn.Close() }, nil
}

func runMatching(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var reply rpc.RunReply
	if remoteAddr != "" {
		client, done, err := dialRemote(remoteAddr)
		if err != nil {
			return err
		}
		defer done()
		if reply, err = client.RunMatching(ctx); err != nil {
			return err
		}
	} else {
		a, err := openApp(cfg, logger)
		if err != nil {
			return err
		}
		defer a.Close()

		run, err := a.svc.RunMatching(ctx)
		if err != nil {
			return err
		}
		reply = rpc.RunReply{
			RunID:     run.ID.String(),
			Seq:       run.Seq,
			Matched:   run.Result.Matched(),
			Proposals: run.Result.Stats.Proposals,
			Evictions: run.Result.Stats.Evictions,
			Matches:   run.Result.Pairs(),
		}
	}

	out := cmd.OutOrStdout()
	if asJSON {
		return writeJSON(out, map[string]any{
			"run_id":  reply.RunID,
			"seq":     reply.Seq,
			"matched": reply.Matched,
			"matches": reply.Matches,
		})
	}
	fmt.Fprintf(out, "run %s (seq %d): %d matched, %d proposals, %d evictions\n",
		reply.RunID, reply.Seq, reply.Matched, reply.Proposals, reply.Evictions)
	return printPairs(out, reply.Matches)
}

func showMatches(cmd *cobra.Command, args []string) error {
	pairs, err := loadPairs(cmd.Context(), matching.FellowshipID(fellowship))
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(cmd.OutOrStdout(), pairs)
	}
	return printPairs(cmd.OutOrStdout(), pairs)
}

func loadPairs(ctx context.Context, fid matching.FellowshipID) ([]matching.Pair, error) {
	if remoteAddr != "" {
		client, done, err := dialRemote(remoteAddr)
		if err != nil {
			return nil, err
		}
		defer done()
		return client.Matches(ctx, fid)
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer a.Close()

	rosters, err := a.svc.Matches(ctx)
	if err != nil {
		return nil, err
	}
	if fid != "" {
		rosters = map[matching.FellowshipID][]matching.StudentID{fid: rosters[fid]}
	}
	return matching.Result{Rosters: rosters}.Pairs(), nil
}

func printPairs(w io.Writer, pairs []matching.Pair) error {
	if len(pairs) == 0 {
		_, err := fmt.Fprintln(w, "no matches")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FELLOWSHIP\tSTUDENT")
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s\t%s\n", p.Fellowship, p.Student)
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
