package cmd

import (
	"context"
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/tradejournal/config"
	"github.com/rustyeddy/tradejournal/internal/logging"
	"github.com/rustyeddy/tradejournal/journal"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app carries state shared by every command of one invocation.
type app struct {
	cfgFile string
	scope   string

	cfg *config.Config
	log *logrus.Entry
}

// NewRootCmd builds the command tree. Each call returns a fresh tree so
// flag values never leak between invocations.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "tradejournal",
		Short: "Position sizing calculator and FX trade journal",
		Long: `Tradejournal sizes FX positions from a risk budget and keeps a
journal of the trades taken with them.

It provides tools for:
  - Computing lot size and expected profit from entry, stop and target
  - Recording trades with observations and chart attachments
  - Closing trades out with a result and reviewing them later
  - Exporting the journal to CSV or Org-mode
  - Serving all of the above over HTTP

Configuration is read from --config, then TJ_* environment variables
(a .env file in the working directory is loaded first).`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file (YAML or JSON); defaults apply when empty")
	root.PersistentFlags().StringVar(&a.scope, "scope", "", "journal scope, e.g. a user name")

	root.AddCommand(
		newCalcCmd(a),
		newJournalCmd(a),
		newServeCmd(a),
		newConfigCmd(),
		newVersionCmd(),
	)
	return root
}

// Execute loads .env and runs the command tree.
func Execute() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return NewRootCmd().Execute()
}

// setup resolves configuration and logging. Commands that touch the
// journal or the sizer call it first.
func (a *app) setup() error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = log
	return nil
}

func (a *app) openStore() (journal.Store, error) {
	return journal.Open(a.cfg.Backend(), journal.Options{Log: a.log})
}

// withStore runs fn against an open store and closes it afterwards.
func (a *app) withStore(ctx context.Context, fn func(ctx context.Context, s journal.Store) error) error {
	if err := a.setup(); err != nil {
		return err
	}
	s, err := a.openStore()
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(ctx, s)
}

func (a *app) journalScope() journal.Scope {
	return journal.Scope(a.scope)
}
