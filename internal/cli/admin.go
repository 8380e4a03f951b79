package cli

import (
	"fmt"
	"strconv"

	"greenpulse-backend/internal/application/auth"
	"greenpulse-backend/internal/application/projects"
	"greenpulse-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func adminFlag(cmd *cobra.Command, dst *string) {
	cmd.Flags().StringVar(dst, "admin", "", "user id of the acting administrator (required)")
	_ = cmd.MarkFlagRequired("admin")
}

func parseIDs(projectArg, adminArg string) (uuid.UUID, uuid.UUID, error) {
	projectID, err := uuid.Parse(projectArg)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid project id: %s", projectArg)
	}
	adminID, err := uuid.Parse(adminArg)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("invalid admin id: %s", adminArg)
	}
	return projectID, adminID, nil
}

func newSetStatusCmd(flags *rootFlags) *cobra.Command {
	var admin string
	cmd := &cobra.Command{
		Use:   "set-status <project-id> <status>",
		Short: "Move a project to any status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, adminID, err := parseIDs(args[0], admin)
			if err != nil {
				return err
			}
			status, err := domain.ParseProjectStatus(args[1])
			if err != nil {
				return err
			}
			db, closeDB, err := flags.open()
			if err != nil {
				return err
			}
			defer closeDB()

			svc := &projects.Service{DB: db, Admins: &auth.GormAdminChecker{DB: db}}
			if err := svc.SetStatus(cmd.Context(), projectID, status, adminID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s is now %s\n", projectID, status)
			return nil
		},
	}
	adminFlag(cmd, &admin)
	return cmd
}

func newSetGoalCmd(flags *rootFlags) *cobra.Command {
	var admin string
	cmd := &cobra.Command{
		Use:   "set-goal <project-id> <goal>",
		Short: "Change a project's funding goal",
		Long: `Change a project's funding goal.

The status is left as it is, even when the new goal is already met.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, adminID, err := parseIDs(args[0], admin)
			if err != nil {
				return err
			}
			goal, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return domain.ErrInvalidGoal
			}
			db, closeDB, err := flags.open()
			if err != nil {
				return err
			}
			defer closeDB()

			svc := &projects.Service{DB: db, Admins: &auth.GormAdminChecker{DB: db}}
			if err := svc.SetFundingGoal(cmd.Context(), projectID, goal, adminID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Project %s goal set to %.2f\n", projectID, goal)
			return nil
		},
	}
	adminFlag(cmd, &admin)
	return cmd
}
