package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/restaurant-console/internal/app"
	"github.com/jrsteele09/restaurant-console/restaurant"
)

func newEmployeesCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "employees",
		Short: "List and add staff accounts",
	}
	cmd.AddCommand(newEmployeesListCmd(rt), newEmployeesCreateCmd(rt))
	return cmd
}

func newEmployeesListCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List employees",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				list, err := a.Restaurant.Employees(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tUSERNAME\tNAME\tEMAIL")
				for _, e := range list {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Username, e.Name, e.Email)
				}
				return tw.Flush()
			})
		},
	}
}

func newEmployeesCreateCmd(rt *runtime) *cobra.Command {
	var req restaurant.EmployeeRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a staff account (ADMIN or MANAGER only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				created, err := a.Restaurant.CreateEmployee(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created employee %s (%s)\n", created.Username, created.ID)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Username, "username", "", "login name")
	f.StringVar(&req.Name, "name", "", "full name")
	f.StringVar(&req.Email, "email", "", "email address")
	f.StringVar(&req.Password, "password", "", "initial password")
	return cmd
}
