package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/kyanite-sh/kyanite/internal/log"
	"github.com/kyanite-sh/kyanite/internal/model"
	"gopkg.in/yaml.v3"

	"github.com/spf13/cobra"
)

var (
	userConfigPath string // /default/config/path/kyanite on given OS
	configPath     string // actual config file used (if loaded)
	config         model.Config

	flagConfigFilePath string
	flagWorkers        int
	flagKeepOrder      bool
	flagDryRun         bool
	flagVerbose        bool
	flagMaxJobs        int
	flagPlaceholder    string
	flagFieldSeparator string
	flagShell          string
)

func init() {
	d, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	userConfigPath = filepath.Join(d, "kyanite")
}

func main() {
	// root flags
	rootCmd.PersistentFlags().StringVar(&flagConfigFilePath, "config", "", "Config file to load - default is kyanite.yaml in current directory or in "+userConfigPath)
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "verbose logging and [job N] output tags")
	rootCmd.Flags().IntVarP(&flagWorkers, "jobs", "j", runtime.NumCPU(), "number of parallel workers")
	rootCmd.Flags().BoolVarP(&flagKeepOrder, "keep-order", "k", false, "emit results in input order instead of completion order")
	rootCmd.Flags().BoolVarP(&flagDryRun, "dry-run", "n", false, "print expanded commands without executing them")
	rootCmd.Flags().IntVar(&flagMaxJobs, "max-jobs", 0, "stop after this many jobs, 0 means unlimited")
	rootCmd.Flags().StringVarP(&flagPlaceholder, "input", "I", "{}", "placeholder string marking expansion sites")
	rootCmd.Flags().StringVar(&flagFieldSeparator, "field-separator", " ", "separator splitting input lines into fields")
	rootCmd.Flags().StringVar(&flagShell, "shell", "", "shell binary running expanded commands")

	// never print messages
	rootCmd.SilenceErrors = true

	// load the config, setup logging
	rootCmd.PersistentPreRunE = initKyanite

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("kyanite failed", "err", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "kyanite [flags] command",
	Short:        "execute commands in parallel for each input line",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE:         doRun,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config prints the effective configuration as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(os.Stdout)
		defer func() {
			_ = enc.Close()
		}()
		return enc.Encode(config)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "version provides version of a kyanite",
	Run: func(cmd *cobra.Command, args []string) {
		info, ok := debug.ReadBuildInfo()
		if !ok {
			fmt.Println("kyanite: version info not available")
			return
		}

		if configPath != "" {
			fmt.Printf("config:  %s\n", configPath)
		}
		fmt.Printf("kyanite: %s\n", info.Main.Version)
		fmt.Printf("go:      %s\n", info.GoVersion)
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				fmt.Printf("commit:  %s\n", s.Value)
			case "vcs.time":
				fmt.Printf("date:    %s\n", s.Value)
			case "vcs.modified":
				fmt.Printf("dirty:   %s\n", s.Value)
			}
		}
		fmt.Println()
	},
}

func initKyanite(cmd *cobra.Command, _ []string) error {
	if envConfig, ok := os.LookupEnv("KYANITECONFIG"); ok {
		configPath = envConfig
	} else if flagConfigFilePath != "" {
		configPath = flagConfigFilePath
	} else {
		for _, d := range []string{".", userConfigPath} {
			path := filepath.Join(d, "kyanite.yaml")
			if exists(path) {
				configPath = path
				break
			}
		}
	}

	if configPath == "" {
		config = model.DefaultConfig()
	} else {
		f, err := os.Open(configPath)
		if err != nil {
			return fmt.Errorf("opening config file: %w", err)
		}
		defer func() {
			_ = f.Close()
		}()
		config, err = model.LoadConfig(f)
		if err != nil {
			for _, d := range model.CueErrDetails(err) {
				slog.Error(d)
			}
			return fmt.Errorf("parsing config %s: %w", configPath, err)
		}
	}

	// flags changed on the command line have precedence over the config file
	flags := rootCmd.Flags()
	if flags.Changed("jobs") {
		config.Jobs.Workers = flagWorkers
	}
	if flagKeepOrder {
		config.Jobs.KeepOrder = true
	}
	if flagDryRun {
		config.Jobs.DryRun = true
	}
	if flagVerbose {
		config.Jobs.Verbose = true
	}
	if flags.Changed("max-jobs") {
		config.Jobs.MaxJobs = flagMaxJobs
	}
	if flags.Changed("input") {
		config.Template.Placeholder = flagPlaceholder
	}
	if flags.Changed("field-separator") {
		config.Template.FieldSeparator = flagFieldSeparator
	}
	if flags.Changed("shell") {
		config.Shell = flagShell
	}

	// flag values bypass LoadConfig, so re-check the schema constraints
	if err := config.Validate(); err != nil {
		for _, d := range model.CueErrDetails(err) {
			slog.Error(d)
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// initialize logging
	slog.SetDefault(log.New(os.Stderr, config.Jobs.Verbose))
	slog.Debug("kyanite run", "configPath", configPath, "config", config)
	return nil
}

func exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
