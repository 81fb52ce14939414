package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

func (c *cli) booksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Browse and manage books",
	}
	cmd.AddCommand(
		c.booksListCmd(),
		&cobra.Command{
			Use:   "best",
			Short: "Top best sellers",
			RunE: func(cmd *cobra.Command, _ []string) error {
				books, err := view.BestSellers(cmd.Context(), c.sf.Hooks.Books)
				if err != nil {
					return err
				}
				return c.printBooks(books)
			},
		},
		&cobra.Command{
			Use:   "search <keyword>",
			Short: "Search by title or author",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				books, err := view.Search(cmd.Context(), c.sf.Hooks.Books, strings.Join(args, " "))
				if err != nil {
					return err
				}
				return c.printBooks(books)
			},
		},
		&cobra.Command{
			Use:   "show <bookId>",
			Short: "Show one book",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				book, err := c.sf.Hooks.Books.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return c.printBook(book)
			},
		},
		c.booksWatchCmd(),
		c.bookFormCmd("create", "Create a book (admin)"),
		c.bookFormCmd("update <bookId>", "Update a book (admin)"),
		&cobra.Command{
			Use:   "delete <bookId>",
			Short: "Delete a book (admin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				msg, err := c.sf.Hooks.Books.Delete(cmd.Context(), id)
				if err != nil {
					return err
				}
				if msg == "" {
					msg = "deleted"
				}
				fmt.Fprintf(c.out, "book %d: %s\n", id, msg)
				return nil
			},
		},
	)
	return cmd
}

func (c *cli) booksListCmd() *cobra.Command {
	var more int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List books page by page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			st, err := c.sf.Feed.LoadMore(ctx)
			for i := 0; err == nil && i < more && st.HasMore; i++ {
				st, err = c.sf.Feed.LoadMore(ctx)
			}
			if err != nil {
				return err
			}
			if c.flags.json {
				return c.printJSON(st)
			}
			if err := c.printBooks(st.Books); err != nil {
				return err
			}
			if st.EndMessage != "" {
				fmt.Fprintln(c.out, st.EndMessage)
			} else if st.HasMore {
				fmt.Fprintf(c.out, "showing %d, use --more to load further pages\n", st.Offset)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&more, "more", 0, "extra pages to load after the first")
	return cmd
}

func (c *cli) booksWatchCmd() *cobra.Command {
	var (
		interval time.Duration
		count    int
	)
	cmd := &cobra.Command{
		Use:   "watch <bookId>",
		Short: "Poll a book until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			seen := 0
			d := view.NewBookDetail(id, c.sf.Hooks.Books, c.sf.Hooks.Cart, c.sf.Checkout)
			d.Run(ctx, interval, func(st view.DetailState) {
				if st.Error != "" {
					fmt.Fprintf(c.out, "error: %s\n", st.Error)
				} else {
					fmt.Fprintf(c.out, "%s  #%d %s stock %d\n", time.Now().Format("15:04:05"), st.Book.BookID, st.Book.Title, st.Book.Stock)
				}
				if seen++; count > 0 && seen >= count {
					cancel()
				}
			})
			return nil
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", view.DetailPollInterval, "poll interval")
	cmd.Flags().IntVar(&count, "count", 0, "stop after this many updates (0 runs until interrupted)")
	return cmd
}

func (c *cli) bookFormCmd(use, short string) *cobra.Command {
	var (
		form  model.BookForm
		files []string
	)
	update := strings.HasPrefix(use, "update")
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range files {
				content, err := os.ReadFile(filepath.Clean(path))
				if err != nil {
					return errors.Wrap(err, "read cover")
				}
				form.Files = append(form.Files, model.File{Name: filepath.Base(path), Content: content})
			}
			var (
				book model.Book
				err  error
			)
			if update {
				id, perr := parseID(args[0])
				if perr != nil {
					return perr
				}
				book, err = c.sf.Hooks.Books.Update(cmd.Context(), id, form)
			} else {
				book, err = c.sf.Hooks.Books.Create(cmd.Context(), form)
			}
			if err != nil {
				return err
			}
			return c.printBook(book)
		},
	}
	if update {
		cmd.Args = cobra.ExactArgs(1)
	} else {
		cmd.Args = cobra.NoArgs
	}
	f := cmd.Flags()
	f.StringVar(&form.Title, "title", "", "title")
	f.StringVar(&form.AuthorName, "author", "", "author name")
	f.Int64Var(&form.Price, "price", 0, "price in points")
	f.Int64Var(&form.Stock, "stock", 0, "stock")
	f.StringSliceVar(&files, "file", nil, "cover image to upload (repeatable)")
	_ = cmd.MarkFlagRequired("title")
	_ = cmd.MarkFlagRequired("author")
	return cmd
}

func (c *cli) buyCmd() *cobra.Command {
	var qty int64
	cmd := &cobra.Command{
		Use:   "buy <bookId>",
		Short: "Buy a book now with points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			d := view.NewBookDetail(id, c.sf.Hooks.Books, c.sf.Hooks.Cart, c.sf.Checkout)
			if _, err := d.Load(ctx); err != nil {
				return err
			}
			d.SetQuantity(qty)
			order, err := d.BuyNow(ctx)
			if err != nil {
				return err
			}
			return c.printOrder(order)
		},
	}
	cmd.Flags().Int64VarP(&qty, "qty", "q", 1, "quantity")
	return cmd
}
