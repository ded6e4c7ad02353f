// Package cli implements the pictoboard command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/pictoboard/internal/paths"
	"github.com/mesh-intelligence/pictoboard/pkg/board"
	"github.com/mesh-intelligence/pictoboard/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	verbose   bool
	trace     bool
	actor     string
}

// app is the state of one invocation. Commands open the board lazily so
// init, version and help never touch the store.
type app struct {
	flags  rootFlags
	config *viper.Viper
	log    *zap.Logger
	board  *board.Board
}

// rootCmd creates the top-level "pictoboard" command with global flags and
// all subcommands registered.
func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "pictoboard",
		Short:         "A local-first store for pictogram communication boards",
		Long:          "Pictoboard manages binders, categories, pictograms and users with their\ntranslations, keeping every relationship consistent on local storage.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.flags.actor != "" {
				cmd.SetContext(board.WithActor(cmd.Context(), a.flags.actor))
			}
			return a.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return a.teardown()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output as JSON")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log to stderr in development format")
	pf.BoolVar(&a.flags.trace, "trace", false, "log every SQL statement (implies --verbose)")
	pf.StringVar(&a.flags.actor, "actor", "", "name recorded in history for this command's writes (default: system)")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.binderCmd(),
		a.categoryCmd(),
		a.pictogramCmd(),
		a.userCmd(),
		a.settingCmd(),
		a.translateCmd(),
		a.historyCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.seedCmd(),
		a.watchCmd(),
	)
	return root
}

// setup loads config.yaml and builds the logger.
func (a *app) setup() error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	cfg, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	a.config = cfg

	log, err := newLogger(a.flags.verbose, a.flags.trace, a.config.GetString(cfgKeyLogLevel))
	if err != nil {
		return err
	}
	a.log = log
	return nil
}

func (a *app) teardown() error {
	defer a.log.Sync()
	if a.board == nil {
		return nil
	}
	err := a.board.Close()
	a.board = nil
	return err
}

// storeConfig resolves the store configuration from flags and config.yaml.
func (a *app) storeConfig() (types.Config, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return types.Config{}, fmt.Errorf("resolve data dir: %w", err)
	}
	return types.Config{
		DataDir:           dataDir,
		LogLevel:          a.config.GetString(cfgKeyLogLevel),
		BusyTimeoutMillis: a.config.GetInt(cfgKeyBusyTimeout),
	}, nil
}

// open attaches the board on first use.
func (a *app) open(ctx context.Context) (*board.Board, error) {
	if a.board != nil {
		return a.board, nil
	}
	cfg, err := a.storeConfig()
	if err != nil {
		return nil, err
	}
	opts := []board.Option{board.WithLogger(a.log)}
	if a.flags.trace {
		sqlLog := a.log.Named("sql")
		opts = append(opts, board.WithStatementHook(func(_ context.Context, query string) error {
			sqlLog.Debug("statement", zap.String("query", query))
			return nil
		}))
	}
	bd, err := board.Open(ctx, cfg, opts...)
	if err != nil {
		return nil, err
	}
	a.board = bd
	return bd, nil
}

// language is the display language for resolved output.
func (a *app) language(flag string) string {
	if flag != "" {
		return flag
	}
	return a.config.GetString(cfgKeyLanguage)
}

// exitCode maps an error to the process exit code. Storage and environment
// failures exit 2; everything else is something the user can fix by
// changing the input and exits 1.
func exitCode(err error) int {
	var pathErr *fs.PathError
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrTransientStorage),
		errors.Is(err, types.ErrSchemaVersion),
		errors.Is(err, types.ErrDetached),
		errors.As(err, &pathErr):
		return exitSysError
	default:
		return exitUserError
	}
}

// Run executes the CLI with args and returns the exit code.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{log: zap.NewNop()}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err != nil {
		// PostRun does not run when RunE fails.
		if cerr := a.teardown(); cerr != nil {
			a.log.Warn("closing board", zap.Error(cerr))
		}
		fmt.Fprintln(stderr, "pictoboard:", err)
	}
	return exitCode(err)
}

// Execute runs the root command against the process arguments and exits.
func Execute() {
	os.Exit(Run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}
