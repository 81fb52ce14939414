package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/Astemirdum/bookstore-storefront/storefront/internal/model"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

func points(n int64) string {
	return humanize.Comma(n)
}

func (c *cli) printJSON(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) table(header string, rows func(w *tabwriter.Writer)) error {
	w := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	return w.Flush()
}

func (c *cli) printBooks(books []model.Book) error {
	if c.flags.json {
		return c.printJSON(books)
	}
	return c.table("ID\tTITLE\tAUTHOR\tPRICE\tSTOCK", func(w *tabwriter.Writer) {
		for _, b := range books {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\n", b.BookID, b.Title, b.AuthorName, points(b.Price), b.Stock)
		}
	})
}

func (c *cli) printBook(b model.Book) error {
	if c.flags.json {
		return c.printJSON(b)
	}
	fmt.Fprintf(c.out, "#%d %s\nauthor: %s\nprice:  %s\nstock:  %d\n", b.BookID, b.Title, b.AuthorName, points(b.Price), b.Stock)
	if b.Stock <= 0 {
		fmt.Fprintln(c.out, "sold out")
	}
	return nil
}

func (c *cli) printCart(st view.CartState) error {
	if c.flags.json {
		return c.printJSON(st)
	}
	err := c.table("ITEM\tBOOK\tTITLE\tPRICE\tQTY\tSUBTOTAL", func(w *tabwriter.Writer) {
		for _, it := range st.Items {
			fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%d\t%s\n", it.ItemID, it.BookID, it.Title, points(it.Price), it.Quantity, points(it.Subtotal()))
		}
	})
	if err != nil {
		return err
	}
	var total int64
	for _, it := range st.Items {
		total += it.Subtotal()
	}
	fmt.Fprintf(c.out, "total: %s\n", points(total))
	return nil
}

func (c *cli) printOrder(o model.Order) error {
	if c.flags.json {
		return c.printJSON(o)
	}
	fmt.Fprintf(c.out, "order #%d placed: %s points used, %s left\n", o.OrderID, points(o.UsedPoint), points(o.RemainPoint))
	for _, it := range o.Items {
		fmt.Fprintf(c.out, "  %s x%d\n", it.Title, it.Quantity)
	}
	return nil
}

func (c *cli) printOrders(orders []model.Order) error {
	if c.flags.json {
		return c.printJSON(orders)
	}
	return c.table("ORDER\tDATE\tITEMS\tTOTAL", func(w *tabwriter.Writer) {
		for _, o := range orders {
			titles := make([]string, 0, len(o.Items))
			for _, it := range o.Items {
				titles = append(titles, it.Title)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", o.OrderID, o.OrderDate.Format("2006-01-02 15:04"), strings.Join(titles, ", "), points(o.TotalPrice))
		}
	})
}

func (c *cli) printUser(u model.User) error {
	if c.flags.json {
		return c.printJSON(u)
	}
	fmt.Fprintf(c.out, "%s (%s)\nrole:   %s\npoints: %s\nemail:  %s\nphone:  %s\naddr:   %s %s\n",
		u.UserName, u.UserID, u.UserRole, points(u.Point), u.Email, u.Phone, u.Addr, u.AddrDetail)
	return nil
}

func (c *cli) printAdmin(st view.AdminState) error {
	if c.flags.json {
		return c.printJSON(st)
	}
	err := c.table("USER\tNAME\tROLE\tPOINTS\tUSE\tDEL", func(w *tabwriter.Writer) {
		for _, u := range st.Users {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", u.UserID, u.UserName, u.UserRole, points(u.Point), u.UseYn, u.DelYn)
		}
	})
	if err != nil {
		return err
	}
	pages := make([]string, 0, len(st.Pages))
	for _, p := range st.Pages {
		label := strconv.Itoa(p + 1)
		if p == st.Page {
			label = "[" + label + "]"
		}
		pages = append(pages, label)
	}
	fmt.Fprintf(c.out, "page %s of %d\n", strings.Join(pages, " "), st.TotalPages)
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
