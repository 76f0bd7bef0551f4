package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-run the last matching input and compare with the stored matches",
	Args:  cobra.NoArgs,
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.svc.Verify(cmd.Context(), cfg.Snapshots.Dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if v.OK() {
		_, err := fmt.Fprintf(out, "run %s (seq %d) verified: %d matches\n", v.RunID, v.Seq, len(v.Expected))
		return err
	}

	fmt.Fprintf(out, "run %s (seq %d) does not match the store\n", v.RunID, v.Seq)
	for _, p := range v.Missing {
		fmt.Fprintf(out, "  missing     %s <- %s\n", p.Fellowship, p.Student)
	}
	for _, p := range v.Unexpected {
		fmt.Fprintf(out, "  unexpected  %s <- %s\n", p.Fellowship, p.Student)
	}
	return errors.Newf("%d missing, %d unexpected", len(v.Missing), len(v.Unexpected))
}
