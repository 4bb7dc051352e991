package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/julianstephens/habitguard/internal/cli"
	"github.com/julianstephens/habitguard/internal/cli/backups"
	"github.com/julianstephens/habitguard/internal/cli/items"
	"github.com/julianstephens/habitguard/internal/cli/rewards"
	"github.com/julianstephens/habitguard/internal/cli/settings"
	"github.com/julianstephens/habitguard/internal/cli/system"
	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/keyring"
	"github.com/julianstephens/habitguard/internal/logger"
	"github.com/julianstephens/habitguard/internal/storage"
	"github.com/julianstephens/habitguard/internal/storage/postgres"
	"github.com/julianstephens/habitguard/internal/storage/sqlite"
	"github.com/julianstephens/habitguard/internal/tracker"
	"github.com/julianstephens/habitguard/internal/utils"
)

var CLI struct {
	Version kong.VersionFlag
	Config  string `help:"SQLite file path, PostgreSQL connection string, or 'keyring' to read the connection string from the OS keyring. PostgreSQL strings must NOT embed a password." type:"string" default:"${default_config}"`
	Debug   bool   `help:"Log debug output to stderr."`

	Init    system.InitCmd    `cmd:"" help:"Initialize habitguard storage."`
	Migrate system.MigrateCmd `cmd:"" help:"Run database migrations."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Tui     system.TuiCmd     `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Item    items.ItemCmd     `cmd:"" help:"Manage habits and tasks."`
	Log     items.LogCmd      `cmd:"" help:"Log a success or a slip for an item."`
	Cancel  items.CancelCmd   `cmd:"" help:"Cancel a day's log and the rewards it earned."`
	Reopen  items.ReopenCmd   `cmd:"" help:"Reopen a completed task."`
	Reward  rewards.RewardCmd `cmd:"" help:"Manage reward rules."`
	Grant   rewards.GrantCmd  `cmd:"" help:"List and redeem earned rewards."`
	Export  backups.ExportCmd `cmd:"" help:"Export all data as JSON or YAML."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`
	Keyring  system.KeyringCmd    `cmd:"" help:"Manage the PostgreSQL connection string in the OS keyring."`
}

// commands that manage storage state themselves
var skipLoad = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Habit and task tracker that rewards you for keeping streaks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":        constants.Version,
			"default_config": constants.DefaultConfigPath,
		},
	)
	command := strings.Fields(ctx.Command())[0]

	config, err := keyring.ResolveConfig(CLI.Config)
	if err != nil {
		if command != "keyring" {
			apperrors.Fatal(err)
		}
		config = constants.DefaultConfigPath
	}

	var store storage.Provider
	var configDir string
	if cli.IsPostgres(config) {
		// Strings typed on the command line end up in shell history
		if config == CLI.Config {
			if _, err := postgres.ValidateConnString(config); errors.Is(err, postgres.ErrEmbeddedCredentials) {
				fmt.Fprintln(os.Stderr, "❌ PostgreSQL connection strings with embedded passwords are not allowed on the command line.")
				fmt.Fprintln(os.Stderr, "   Store it with 'habitguard keyring set' and pass --config=keyring, or use .pgpass.")
				os.Exit(1)
			}
		}
		store = postgres.New(config)
		configDir = filepath.Dir(utils.ExpandPath(constants.DefaultConfigPath))
	} else {
		path := utils.ExpandPath(config)
		store = sqlite.NewStore(path)
		configDir = filepath.Dir(path)
	}

	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}
	logger.Debug("Starting", "command", ctx.Command(), "config", store.GetConfigPath())

	if !skipLoad[command] {
		if err := store.Load(); err != nil {
			apperrors.Fatal(err)
		}
	}
	defer store.Close()

	appCtx := &cli.Context{
		Store:   store,
		Tracker: tracker.New(store),
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		apperrors.Fatal(err)
	}
}
