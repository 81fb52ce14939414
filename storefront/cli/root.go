// Package cli is the bookstore command line client.
package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Astemirdum/bookstore-storefront/pkg/logger"
	"github.com/Astemirdum/bookstore-storefront/storefront/app"
	"github.com/Astemirdum/bookstore-storefront/storefront/config"
	"github.com/Astemirdum/bookstore-storefront/storefront/internal/view"
)

type flags struct {
	api     string
	session string
	verbose bool
	yes     bool
	json    bool
}

type cli struct {
	flags flags
	opts  []app.Option
	sf    *app.Storefront
	done  func()
	out   io.Writer
	in    io.Reader
}

// NewRootCmd builds the bookstore command tree. opts are passed to every
// storefront the commands create.
func NewRootCmd(opts ...app.Option) *cobra.Command {
	c := &cli{opts: opts}
	root := &cobra.Command{
		Use:           "bookstore",
		Short:         "Bookstore storefront client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.flags.api, "api", "", "backend API base URL (default from API_BASE_URL)")
	pf.StringVar(&c.flags.session, "session", "", "session file (default from SESSION_PATH)")
	pf.BoolVarP(&c.flags.verbose, "verbose", "v", false, "log debug output to stderr")
	pf.BoolVarP(&c.flags.yes, "yes", "y", false, "confirm checkouts without asking")
	pf.BoolVar(&c.flags.json, "json", false, "print JSON instead of tables")

	root.AddCommand(
		c.loginCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.booksCmd(),
		c.cartCmd(),
		c.buyCmd(),
		c.ordersCmd(),
		c.meCmd(),
		c.adminCmd(),
	)
	c.closeAfter(root)
	return root
}

// closeAfter makes every runnable command release the storefront, also
// when it fails; cobra skips post-run hooks on error.
func (c *cli) closeAfter(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := c.close(); err == nil {
					err = cerr
				}
			}()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		c.closeAfter(sub)
	}
}

// Execute runs the CLI with os.Args and stops on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}

func (c *cli) open(cmd *cobra.Command) error {
	ops := []config.Option{config.Quiet()}
	if c.flags.api != "" {
		ops = append(ops, config.WithAPIBaseURL(c.flags.api))
	}
	if c.flags.session != "" {
		ops = append(ops, config.WithSessionPath(c.flags.session))
	}
	cfg, err := config.Load(ops...)
	if err != nil {
		return err
	}
	if !c.flags.verbose {
		cfg.Log.LogLevel = zapcore.WarnLevel
	} else {
		cfg.Log.LogLevel = zapcore.DebugLevel
	}
	log, closeLog, err := logger.NewLogger(cfg.Log, "bookstore")
	if err != nil {
		return err
	}

	c.out, c.in = cmd.OutOrStdout(), cmd.InOrStdin()
	var confirm view.Confirmer = view.PromptConfirmer{In: c.in, Out: c.out}
	if c.flags.yes {
		confirm = view.AutoConfirm
	}
	opts := append([]app.Option{app.WithConfirmer(confirm)}, c.opts...)
	c.sf, err = app.New(cmd.Context(), log, cfg, opts...)
	if err != nil {
		closeLog()
		return err
	}
	c.done = closeLog
	c.sf.Log.Debug("storefront ready", zap.String("api", cfg.API.BaseURL))
	return nil
}

func (c *cli) close() error {
	if c.sf == nil {
		return nil
	}
	err := c.sf.Close()
	_ = c.sf.Log.Sync()
	c.done()
	c.sf, c.done = nil, nil
	return err
}
