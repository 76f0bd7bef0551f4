package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fellowmatch/domain/matching"
)

var capacity int

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Submit rankings",
}

var prefsStudentCmd = &cobra.Command{
	Use:   "student [student-id] [fellowship-id...]",
	Short: "Replace a student's fellowship ranking, best first",
	Long: `Replace a student's fellowship ranking, best first.

Only the first two entries can lead to a match.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(a *app) error {
			return a.svc.SubmitStudentPreferences(cmd.Context(), matching.StudentID(args[0]), ids[matching.FellowshipID](args[1:]))
		})
	},
}

var prefsFacultyCmd = &cobra.Command{
	Use:   "faculty [fellowship-id] [student-id...]",
	Short: "Replace a fellowship's candidate ranking, best first",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(a *app) error {
			return a.svc.SubmitFacultyPreferences(cmd.Context(), matching.FellowshipID(args[0]), ids[matching.StudentID](args[1:]))
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register [fellowship-id]",
	Short: "Add or update a fellowship",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(a *app) error {
			return a.svc.RegisterFellowship(cmd.Context(), matching.Fellowship{
				ID:       matching.FellowshipID(args[0]),
				Capacity: capacity,
			})
		})
	},
}

var unregisterCmd = &cobra.Command{
	Use:   "unregister [fellowship-id]",
	Short: "Remove a fellowship from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(a *app) error {
			return a.svc.DeleteFellowship(cmd.Context(), matching.FellowshipID(args[0]))
		})
	},
}

var applyCmd = &cobra.Command{
	Use:   "apply [student-id] [fellowship-id]",
	Short: "Record a student's application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(a *app) error {
			return a.svc.SubmitApplication(cmd.Context(), matching.StudentID(args[0]), matching.FellowshipID(args[1]))
		})
	},
}

var withdrawCmd = &cobra.Command{
	Use:   "withdraw [student-id] [fellowship-id]",
	Short: "Withdraw a student's application",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withService(cmd, func(a *app) error {
			return a.svc.WithdrawApplication(cmd.Context(), matching.StudentID(args[0]), matching.FellowshipID(args[1]))
		})
	},
}

func init() {
	prefsCmd.AddCommand(prefsStudentCmd, prefsFacultyCmd)
	registerCmd.Flags().IntVar(&capacity, "capacity", 0, "seats; 0 means the default of 1")
}

func withService(cmd *cobra.Command, fn func(*app) error) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := fn(a); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), "ok")
	return err
}

func ids[T ~string](args []string) []T {
	out := make([]T, len(args))
	for i, a := range args {
		out[i] = T(a)
	}
	return out
}
