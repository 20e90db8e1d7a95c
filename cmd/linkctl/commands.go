package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"shortlink-client/internal/analytics"
	"shortlink-client/internal/app"
	"shortlink-client/internal/clipboard"
	"shortlink-client/internal/config"
	"shortlink-client/internal/domain"
)

// errShown marks a failure whose message is already part of the printed view.
var errShown = errors.New("failure already reported")

type deps struct {
	stdout    io.Writer
	stderr    io.Writer
	clipboard clipboard.Writer
}

type cli struct {
	deps
	baseURL  string
	logLevel string
	app      *app.App
	logger   *slog.Logger
}

func newRootCmd(d deps) *cobra.Command {
	c := &cli{deps: d}

	root := &cobra.Command{
		Use:           "linkctl",
		Short:         "Create short links and inspect their analytics",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return c.setup()
		},
	}
	root.SetOut(d.stdout)
	root.SetErr(d.stderr)

	root.PersistentFlags().StringVar(&c.baseURL, "base-url", "", "backend base URL (overrides LINKCTL_BASE_URL)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "debug, info, warn or error (overrides LINKCTL_LOG_LEVEL)")

	root.AddCommand(c.shortenCmd(), c.linksCmd(), c.lookupCmd())
	return root
}

// closing wraps a RunE so the session is torn down however it ends.
func (c *cli) closing(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer c.app.Close()
		return run(cmd, args)
	}
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if c.baseURL != "" {
		cfg.BaseURL = c.baseURL
	}
	if c.logLevel != "" {
		cfg.LogLevel = c.logLevel
	}
	level, err := cfg.Level()
	if err != nil {
		return err
	}

	c.logger = slog.New(slog.NewTextHandler(c.stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(c.logger)

	a, err := app.New(cfg, c.logger, app.WithClipboardWriter(c.clipboard))
	if err != nil {
		return err
	}
	c.app = a
	return nil
}

func (c *cli) shortenCmd() *cobra.Command {
	var (
		alias     string
		expires   string
		copyURL   bool
		showLinks bool
	)

	cmd := &cobra.Command{
		Use:   "shorten URL",
		Short: "Create a short link",
		Args:  cobra.ExactArgs(1),
		RunE: c.closing(func(cmd *cobra.Command, args []string) error {
			date, err := domain.ParseCalendarDate(expires)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if showLinks {
				c.app.Analytics.Mount()
				c.app.Analytics.Wait()
			}

			submitErr := c.app.Submission.Submit(ctx, args[0], alias, date)

			view := c.app.Submission.View()
			if copyURL && view.Result != nil {
				if err := c.app.Clipboard.Copy(clipboard.TargetResultShortURL, view.Result.ShortURL); err != nil {
					c.logger.Warn("could not copy short link", "error", err)
				}
			}
			if err := c.app.Renderer.Result(c.stdout, view); err != nil {
				return err
			}

			if showLinks && submitErr == nil {
				c.app.Analytics.Wait()
				fmt.Fprintln(c.stdout)
				if err := c.printList(); err != nil {
					return err
				}
			}

			if submitErr != nil {
				return errShown
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&alias, "alias", "", "custom alias instead of a generated code")
	cmd.Flags().StringVar(&expires, "expires", "", "expiry date as YYYY-MM-DD, local midnight (default: backend default)")
	cmd.Flags().BoolVar(&copyURL, "copy", false, "copy the short link to the clipboard")
	cmd.Flags().BoolVar(&showLinks, "show-links", false, "print the refreshed link list afterwards")
	return cmd
}

func (c *cli) linksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "links",
		Short: "List all links with click totals",
		Args:  cobra.NoArgs,
		RunE: c.closing(func(cmd *cobra.Command, _ []string) error {
			err := c.app.Analytics.Refresh(cmd.Context())
			if printErr := c.printList(); printErr != nil {
				return printErr
			}
			if err != nil {
				return errShown
			}
			return nil
		}),
	}
}

func (c *cli) lookupCmd() *cobra.Command {
	var copyShort, copyOriginal bool

	cmd := &cobra.Command{
		Use:   "lookup CODE",
		Short: "Show analytics for one short code",
		Args:  cobra.ExactArgs(1),
		RunE: c.closing(func(cmd *cobra.Command, args []string) error {
			panel := c.app.Analytics
			panel.SelectTab(analytics.TabLookup)
			panel.SetQuery(args[0])

			err := panel.Lookup(cmd.Context())
			if errors.Is(err, domain.ErrEmptyQuery) {
				return nil
			}

			if result := panel.LookupView().Result; result != nil {
				c.copy(copyShort, clipboard.TargetLookupShortURL, result.ShortURL)
				c.copy(copyOriginal, clipboard.TargetLookupOriginalURL, result.OriginalURL)
			}

			if printErr := c.app.Renderer.Tabs(c.stdout, panel.Tab()); printErr != nil {
				return printErr
			}
			if printErr := c.app.Renderer.Lookup(c.stdout, panel.LookupView()); printErr != nil {
				return printErr
			}
			if err != nil {
				return errShown
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&copyShort, "copy-short", false, "copy the short link to the clipboard")
	cmd.Flags().BoolVar(&copyOriginal, "copy-original", false, "copy the original URL to the clipboard")
	return cmd
}

func (c *cli) copy(enabled bool, target clipboard.Target, text string) {
	if !enabled {
		return
	}
	if err := c.app.Clipboard.Copy(target, text); err != nil {
		c.logger.Warn("could not copy", "target", string(target), "error", err)
	}
}

func (c *cli) printList() error {
	panel := c.app.Analytics
	panel.SelectTab(analytics.TabList)
	if err := c.app.Renderer.Tabs(c.stdout, panel.Tab()); err != nil {
		return err
	}
	return c.app.Renderer.List(c.stdout, panel.List())
}
