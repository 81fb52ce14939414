package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/errs"
)

func (c *cli) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Manage the shopping cart",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.sf.Cart.Load(cmd.Context())
			if err != nil {
				return err
			}
			return c.printCart(st)
		},
	}

	var qty int64
	add := &cobra.Command{
		Use:   "add <bookId>",
		Short: "Add a book to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if qty < 1 {
				return errs.ErrInvalidQuantity
			}
			if err := c.sf.Hooks.Cart.Add(cmd.Context(), id, qty); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "added book %d x%d\n", id, qty)
			return nil
		},
	}
	add.Flags().Int64VarP(&qty, "qty", "q", 1, "quantity")

	setQty := &cobra.Command{
		Use:   "qty <itemId> <quantity>",
		Short: "Set the quantity of a cart item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			n, err := parseID(args[1])
			if err != nil {
				return errs.ErrInvalidQuantity
			}
			ctx := cmd.Context()
			if _, err := c.sf.Cart.Load(ctx); err != nil {
				return err
			}
			st, err := c.sf.Cart.SetQuantity(ctx, id, n)
			if err != nil {
				return err
			}
			return c.printCart(st)
		},
	}

	rm := &cobra.Command{
		Use:   "rm <itemId>...",
		Short: "Remove items from the cart",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.sf.Cart.Load(ctx); err != nil {
				return err
			}
			if err := c.selectItems(args); err != nil {
				return err
			}
			st, err := c.sf.Cart.RemoveSelected(ctx)
			if perr := c.printCart(st); perr != nil && err == nil {
				err = perr
			}
			return err
		},
	}

	var all bool
	checkout := &cobra.Command{
		Use:   "checkout [itemId...]",
		Short: "Pay for selected cart items with points",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if _, err := c.sf.Cart.Load(ctx); err != nil {
				return err
			}
			switch {
			case all:
				c.sf.Cart.ToggleSelectAll()
			case len(args) == 0:
				return errs.ErrNoSelection
			default:
				if err := c.selectItems(args); err != nil {
					return err
				}
			}
			order, err := c.sf.Cart.Checkout(ctx)
			if err != nil {
				return err
			}
			return c.printOrder(order)
		},
	}
	checkout.Flags().BoolVar(&all, "all", false, "check out every item")

	cmd.AddCommand(list, add, setQty, rm, checkout)
	return cmd
}

func (c *cli) selectItems(args []string) error {
	for _, a := range args {
		id, err := parseID(a)
		if err != nil {
			return err
		}
		st := c.sf.Cart.ToggleSelect(id)
		found := false
		for _, row := range st.Items {
			if row.ItemID == id {
				found = row.Selected
				break
			}
		}
		if !found {
			return fmt.Errorf("item %d: %w", id, errs.ErrNotFound)
		}
	}
	return nil
}
