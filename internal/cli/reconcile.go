package cli

import (
	"fmt"
	"io"

	"greenpulse-backend/internal/application/reconcile"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newReconcileCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile [project-id]",
		Short: "Compare running totals with the donation ledger",
		Long: `Compare each project's current funding with the sum of its donations
plus recorded administrator corrections.

Exits non-zero when any project drifts.

Examples:
  ledgerctl reconcile
  ledgerctl reconcile 6f1c...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, closeDB, err := flags.open()
			if err != nil {
				return err
			}
			defer closeDB()

			svc := &reconcile.Service{DB: db}
			var reports []reconcile.Report
			if len(args) == 1 {
				id, err := uuid.Parse(args[0])
				if err != nil {
					return fmt.Errorf("invalid project id: %s", args[0])
				}
				r, err := svc.Check(cmd.Context(), id)
				if err != nil {
					return err
				}
				reports = append(reports, *r)
			} else {
				reports, err = svc.CheckAll(cmd.Context())
				if err != nil {
					return err
				}
			}

			drifting := printReports(cmd.OutOrStdout(), reports)
			if drifting > 0 {
				return fmt.Errorf("%w: %d of %d projects", ErrDriftFound, drifting, len(reports))
			}
			return nil
		},
	}
}

func printReports(w io.Writer, reports []reconcile.Report) int {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No projects")
		return 0
	}
	drifting := 0
	for _, r := range reports {
		mark := "ok"
		if !r.Consistent {
			mark = "DRIFT"
			drifting++
		}
		fmt.Fprintf(w, "%-5s %s %-11s funding=%.2f donations=%.2f (%d) corrections=%.2f drift=%.2f\n",
			mark, r.ProjectID, r.Status, r.CurrentFunding, r.DonationTotal, r.DonationCount, r.CorrectionTotal, r.Drift)
	}
	return drifting
}
