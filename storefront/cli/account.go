package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

// readPassword masks input on a terminal and reads a plain line otherwise.
func (c *cli) readPassword(prompt string) (string, error) {
	fmt.Fprint(c.out, prompt)
	if f, ok := c.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(c.out)
		if err != nil {
			return "", errors.Wrap(err, "read password")
		}
		return strings.TrimSpace(string(raw)), nil
	}
	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.Wrap(err, "read password")
	}
	return strings.TrimSpace(line), nil
}

func (c *cli) loginCmd() *cobra.Command {
	var userID, passwd string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and remember the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if userID == "" {
				return errors.New("--user is required")
			}
			if passwd == "" {
				var err error
				if passwd, err = c.readPassword("Password: "); err != nil {
					return err
				}
			}
			sess, err := c.sf.Hooks.Auth.Login(cmd.Context(), model.LoginRequest{UserID: userID, Passwd: passwd})
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "logged in as %s (%s)\n", sess.UserID, sess.UserRole)
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "user id")
	cmd.Flags().StringVarP(&passwd, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.sf.Hooks.Auth.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(c.out, "logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the stored session",
		RunE: func(*cobra.Command, []string) error {
			s := c.sf.Session
			if !s.IsAuthenticated() {
				fmt.Fprintln(c.out, "not logged in")
				return nil
			}
			snap := s.Snapshot()
			if c.flags.json {
				return c.printJSON(map[string]any{"userId": snap.UserID, "userName": snap.UserName, "userRole": snap.UserRole})
			}
			fmt.Fprintf(c.out, "%s (%s) %s\n", snap.UserID, snap.UserName, snap.UserRole)
			if exp := s.ExpiresAt(); !exp.IsZero() {
				fmt.Fprintf(c.out, "expires %s\n", exp.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func (c *cli) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "List my orders, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			orders, err := c.sf.Hooks.Orders.Mine(cmd.Context())
			if err != nil {
				return err
			}
			return c.printOrders(view.SortOrders(orders))
		},
	}
}

func (c *cli) meCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "me",
		Short: "My profile",
	}
	show := &cobra.Command{
		Use:   "show",
		Short: "Show my profile and orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := c.sf.MyPage.Load(cmd.Context())
			if err != nil {
				return err
			}
			if c.flags.json {
				return c.printJSON(st)
			}
			if err := c.printUser(st.User); err != nil {
				return err
			}
			if len(st.Orders) == 0 {
				return nil
			}
			fmt.Fprintln(c.out)
			return c.printOrders(st.Orders)
		},
	}

	var name, email, phone, addr, addrDetail string
	update := &cobra.Command{
		Use:   "update",
		Short: "Change profile fields",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			u, err := c.sf.Hooks.Users.Me(ctx)
			if err != nil {
				return err
			}
			fl := cmd.Flags()
			for _, f := range []struct {
				name string
				src  string
				dst  *string
			}{
				{"name", name, &u.UserName},
				{"email", email, &u.Email},
				{"phone", phone, &u.Phone},
				{"addr", addr, &u.Addr},
				{"addr-detail", addrDetail, &u.AddrDetail},
			} {
				if fl.Changed(f.name) {
					*f.dst = f.src
				}
			}
			out, err := c.sf.MyPage.Save(ctx, u)
			if err != nil {
				return err
			}
			return c.printUser(out)
		},
	}
	update.Flags().StringVar(&name, "name", "", "display name")
	update.Flags().StringVar(&email, "email", "", "email")
	update.Flags().StringVar(&phone, "phone", "", "phone")
	update.Flags().StringVar(&addr, "addr", "", "address")
	update.Flags().StringVar(&addrDetail, "addr-detail", "", "address detail")

	cmd.AddCommand(show, update)
	return cmd
}
