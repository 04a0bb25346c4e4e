package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jrsteele09/restaurant-console/internal/app"
	"github.com/jrsteele09/restaurant-console/internal/utils"
	"github.com/jrsteele09/restaurant-console/restaurant"
)

func newReservationsCmd(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reservations",
		Aliases: []string{"res", "orders"},
		Short:   "List and manage reservations",
	}
	cmd.AddCommand(
		newReservationsListCmd(rt),
		newReservationsCreateCmd(rt),
		newReservationsSetStatusCmd(rt),
		newReservationsDeleteCmd(rt),
	)
	return cmd
}

func newReservationsListCmd(rt *runtime) *cobra.Command {
	var q restaurant.Query
	var sortKey string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reservations",
		Long: `List reservations, optionally narrowed and sorted. Newest first
unless --asc is given.

Examples:
  console reservations list --status confirmed
  console reservations list --search ada --sort customerName --asc`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q.SortKey = restaurant.SortKey(sortKey)
			if q.Status != "" && !strings.EqualFold(q.Status, restaurant.AllStatuses) {
				if _, err := restaurant.ParseStatus(q.Status); err != nil {
					return err
				}
			}
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				list, err := a.Restaurant.Reservations(ctx)
				if err != nil {
					return err
				}
				writeReservations(cmd.OutOrStdout(), q.Apply(list))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.Search, "search", "", "match customer name, email or phone")
	cmd.Flags().StringVar(&q.Status, "status", restaurant.AllStatuses, "PENDING, CONFIRMED, CANCELLED, SEATED, NO_SHOW or ALL")
	cmd.Flags().StringVar(&sortKey, "sort", string(restaurant.SortByDate), "reservationDate, reservationTime, customerName, tableNumber or status")
	cmd.Flags().BoolVar(&q.Ascending, "asc", false, "sort ascending instead of newest first")
	return cmd
}

func writeReservations(out io.Writer, list []restaurant.Reservation) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No reservations")
		return
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tTABLE\tGUESTS\tCUSTOMER\tPHONE\tSTATUS\tREQUESTS")
	for _, r := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\t%s\n",
			r.ID, r.ReservationDate, r.ReservationTime, r.TableNumber, r.GuestCount,
			r.CustomerName, r.CustomerPhone, r.Status.Label(), utils.Value(r.SpecialRequests))
	}
	_ = tw.Flush()
}

func newReservationsCreateCmd(rt *runtime) *cobra.Command {
	var req restaurant.CreateReservationRequest
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Book a table; new reservations start as PENDING",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				created, err := a.Restaurant.CreateReservation(ctx, req)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created reservation %s (%s)\n", created.ID, created.Status.Label())
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.ReservationDate, "date", "", "reservation date, YYYY-MM-DD")
	f.StringVar(&req.ReservationTime, "time", "", "reservation time, HH:mm:ss")
	f.IntVar(&req.GuestCount, "guests", 1, "number of guests")
	f.IntVar(&req.TableNumber, "table", 0, "table number")
	f.StringVar(&req.CustomerName, "name", "", "customer name")
	f.StringVar(&req.CustomerPhone, "phone", "", "customer phone")
	f.StringVar(&req.CustomerEmail, "email", "", "customer email")
	f.StringVar(&req.SpecialRequests, "requests", "", "special requests")
	return cmd
}

func newReservationsSetStatusCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "set-status <id> <status>",
		Short: "Move a reservation to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := restaurant.ParseStatus(args[1])
			if err != nil {
				return err
			}
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				updated, err := a.Restaurant.UpdateReservationStatus(ctx, args[0], status)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reservation %s is now %s\n", updated.ID, updated.Status.Label())
				return nil
			})
		},
	}
}

func newReservationsDeleteCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reservation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.withApp(cmd, func(ctx context.Context, a *app.App) error {
				if err := requireSession(ctx, cmd, a); err != nil {
					return err
				}
				if err := a.Restaurant.DeleteReservation(ctx, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted reservation %s\n", args[0])
				return nil
			})
		},
	}
}
