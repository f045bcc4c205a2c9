package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"songs-history/internal/app"
	"songs-history/internal/changelog"
	"songs-history/internal/config"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads .env, resolves the default paths and loads the config
// file on top of the defaults. It also returns the path the config came from.
func loadConfig() (*config.Config, string, error) {
	if err := app.LoadDotEnv(".env"); err != nil {
		return nil, "", err
	}

	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, "", fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.Load(defaults["config_path"], defaults["base_dir"])
	if err != nil {
		return nil, "", fmt.Errorf("reading config: %w", err)
	}
	return cfg, defaults["config_path"], nil
}

// newApp reads the config and creates a SongsApp. The caller must defer app.Close().
// repoPath is empty for commands that only read the ledger or the archive.
func newApp(repoPath string) (*app.SongsApp, *config.Config, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	a, err := app.NewSongsApp(cfg, repoPath)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, cfg, nil
}

func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(pass), nil
}

// closeApp closes a and reports its error through err, unless the command
// already failed.
func closeApp(a *app.SongsApp, err *error) {
	if cerr := a.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

var rootCmd = &cobra.Command{
	Use:          "songs-history REPO",
	Short:        "Build a changelog of songs added to and removed from a backup repository",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		force, _ := cmd.Flags().GetBool("force")

		a, cfg, err := newApp(args[0])
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		output := cfg.OutputPath
		if cmd.Flags().Changed("output") {
			output, _ = cmd.Flags().GetString("output")
		}

		if _, err := a.Generate(output, force); err != nil {
			return err
		}

		fmt.Printf("Wrote to %s\n", output)
		return nil
	},
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.LoadDotEnv(".env"); err != nil {
			return err
		}
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:      %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:       %s\n", cfg.LogDir)
		fmt.Printf("Tracked Dir:   %s\n", cfg.TrackedDir)
		fmt.Printf("Summary Path:  %s\n", cfg.SummaryPath)
		fmt.Printf("Output Path:   %s\n", cfg.OutputPath)
		fmt.Printf("Title:         %s\n", cfg.Title)
		fmt.Printf("Link Template: %s\n", cfg.LinkTemplate)
		fmt.Printf("Ledger:        %s\n", cfg.Database.Type)
		fmt.Printf("Archive:       %s\n", cfg.Archive.Type)
		fmt.Printf("Encryption:    %s\n", cfg.Encryption.Type)
		return nil
	},
}

// history command
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View recorded runs",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		limit, _ := cmd.Flags().GetInt("limit")

		a, _, err := newApp("")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		runs, err := a.GetRuns(limit)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}

		for _, r := range runs {
			d := r.FinishedAt.Sub(r.StartedAt).Truncate(time.Millisecond)
			fmt.Printf("%s  %s  %-7s  %3d sections  %4d events  %-8s  %s  %s\n",
				r.ID,
				r.StartedAt.Local().Format("2006-01-02 15:04:05"),
				r.Status,
				r.SectionCount,
				r.EventCount,
				d,
				shortHash(r.HeadCommit),
				r.RepoPath,
			)
			if r.Error != "" {
				fmt.Printf("    %s\n", r.Error)
			}
		}
		return nil
	},
}

// log command
var logCmd = &cobra.Command{
	Use:   "log VIDEO_ID",
	Short: "View the recorded events of one video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		runID, _ := cmd.Flags().GetString("run")

		a, _, err := newApp("")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		run, events, err := a.GetVideoLog(args[0], runID)
		if err != nil {
			return err
		}

		if len(events) == 0 {
			fmt.Printf("No events for %s in run %s.\n", args[0], run.ID)
			return nil
		}

		for _, e := range events {
			fmt.Printf("%s  %-7s  %s\n", changelog.FormatCommitTime(e.Time), e.Action, shortHash(e.CommitID))
		}
		return nil
	},
}

// archive command
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Access archived reports",
}

var archiveShowCmd = &cobra.Command{
	Use:   "show RUN_ID",
	Short: "Print an archived report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, _, err := newApp("")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		var passphrase string
		if a.NeedsPassphrase() {
			passphrase, err = readPassphrase("Passphrase: ")
			if err != nil {
				return err
			}
		}

		if err := a.ShowReport(args[0], passphrase, os.Stdout); err != nil {
			if errors.Is(err, changelog.ErrRunNotFound) {
				return fmt.Errorf("no archived report for run %s", args[0])
			}
			return err
		}
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the key pair for archived reports",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		a, cfg, err := newApp("")
		if err != nil {
			return err
		}
		defer closeApp(a, &err)

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Confirm passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return fmt.Errorf("passphrases do not match")
		}

		if err := a.InitKeys(pass); err != nil {
			return err
		}

		fmt.Printf("Public key:  %s\n", cfg.Encryption.PublicKeyPath)
		fmt.Printf("Private key: %s\n", cfg.Encryption.PrivateKeyPath)
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolP("force", "f", false, "Overwrite the output file if it exists")
	rootCmd.Flags().StringP("output", "o", "", "Output file (default: output_path from config)")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// archive subcommands
	archiveCmd.AddCommand(archiveShowCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 10, "Maximum number of runs to show")
	rootCmd.AddCommand(logCmd)
	logCmd.Flags().String("run", "", "Run ID (default: latest successful run)")
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(keysCmd)
}
