package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
)

func (c *cli) adminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "User administration",
	}

	var page int
	users := &cobra.Command{
		Use:   "users",
		Short: "List users page by page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := c.sf.Admin.Load(ctx)
			if err == nil && page > 1 {
				st, err = c.sf.Admin.GoTo(ctx, page-1)
			}
			if err != nil {
				return err
			}
			return c.printAdmin(st)
		},
	}
	users.Flags().IntVar(&page, "page", 1, "page number")

	pts := &cobra.Command{
		Use:   "points <userId=points>...",
		Short: "Set points for users on the given page",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := c.sf.Admin.Load(ctx)
			if err == nil && page > 1 {
				st, err = c.sf.Admin.GoTo(ctx, page-1)
			}
			if err != nil {
				return err
			}
			for _, a := range args {
				userID, raw, ok := strings.Cut(a, "=")
				if !ok {
					return fmt.Errorf("%q: want userId=points: %w", a, errs.ErrInvalidInput)
				}
				point, err := strconv.ParseInt(raw, 10, 64)
				if err != nil || point < 0 {
					return fmt.Errorf("%q: %w", a, errs.ErrInvalidInput)
				}
				if err := c.sf.Admin.ToggleSelect(userID); err != nil {
					return fmt.Errorf("user %s: %w", userID, err)
				}
				if err := c.sf.Admin.SetPoint(userID, point); err != nil {
					return fmt.Errorf("user %s: %w", userID, err)
				}
			}
			if st, err = c.sf.Admin.SavePoints(ctx); err != nil {
				return err
			}
			return c.printAdmin(st)
		},
	}
	pts.Flags().IntVar(&page, "page", 1, "page the users are on")

	var use, del string
	status := &cobra.Command{
		Use:   "status <userId>",
		Short: "Change a user's use or delete flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			upd := model.StatusUpdate{UseYn: strings.ToUpper(use), DelYn: strings.ToUpper(del)}
			if upd.UseYn == "" && upd.DelYn == "" {
				return fmt.Errorf("--use or --del is required: %w", errs.ErrInvalidInput)
			}
			for _, v := range []string{upd.UseYn, upd.DelYn} {
				if v != "" && v != "Y" && v != "N" {
					return fmt.Errorf("flag value %q must be Y or N: %w", v, errs.ErrInvalidInput)
				}
			}
			ctx := cmd.Context()
			if _, err := c.sf.Admin.Load(ctx); err != nil {
				return err
			}
			st, err := c.sf.Admin.SetStatus(ctx, args[0], upd)
			if err != nil {
				return err
			}
			return c.printAdmin(st)
		},
	}
	status.Flags().StringVar(&use, "use", "", "use flag (Y or N)")
	status.Flags().StringVar(&del, "del", "", "delete flag (Y or N)")

	cmd.AddCommand(users, pts, status)
	return cmd
}
