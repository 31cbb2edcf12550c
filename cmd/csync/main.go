package main

import (
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dustin/go-humanize"

	"github.com/fatih/color"

	"github.com/Dav1dK/csync/pkg/configuration"
	"github.com/Dav1dK/csync/pkg/csync"
	"github.com/Dav1dK/csync/pkg/exclude"
	"github.com/Dav1dK/csync/pkg/logging"
	"github.com/Dav1dK/csync/pkg/statedb"
	"github.com/Dav1dK/csync/pkg/update"
)

// fatal prints an error to standard error and terminates the process.
func fatal(err error) {
	fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
	os.Exit(1)
}

// printSummary prints the detection summary for one replica.
func printSummary(side update.Side, statistics update.Statistics) {
	fmt.Printf("%s replica: %d directories, %d files (%s), %d symlinks\n",
		side,
		statistics.Directories,
		statistics.Files,
		humanize.Bytes(statistics.TotalFileSize),
		statistics.SymbolicLinks,
	)
}

// printChanges prints the entries of a replica tree that require action.
func printChanges(side update.Side, replica *update.Replica) {
	replica.Tree.Walk(func(entry *update.Entry) bool {
		if entry.Instruction != update.InstructionNone {
			fmt.Printf("%s: %s %s\n", side, entry.Instruction, entry.Path)
		}
		return true
	})
}

func rootMain(command *cobra.Command, arguments []string) {
	// Print version information, if requested.
	if rootConfiguration.version {
		fmt.Println(csync.Version)
		return
	}

	// Validate arguments.
	if len(arguments) != 2 {
		fatal(errors.New("source and destination must be specified"))
	}
	source := arguments[0]
	destination := arguments[1]

	// Raise the log level, if requested.
	if rootConfiguration.debug {
		logging.SetLevel(logging.LevelDebug)
	}
	logger := logging.RootLogger

	// Load the configuration.
	configurationPath := rootConfiguration.configurationFile
	if configurationPath == "" {
		var err error
		configurationPath, err = configuration.Path()
		if err != nil {
			fatal(errors.Wrap(err, "unable to determine configuration path"))
		}
	}
	tunables, err := configuration.Load(configurationPath, logger.Sublogger("config"))
	if err != nil {
		fatal(errors.Wrap(err, "unable to load configuration"))
	}

	// Build the exclusion filter.
	patterns := append([]string(nil), exclude.DefaultPatterns...)
	patterns = append(patterns, rootConfiguration.excludes...)
	filter, err := exclude.NewFilter(patterns, logger.Sublogger("exclude"))
	if err != nil {
		fatal(errors.Wrap(err, "unable to build exclusion filter"))
	}

	// Open the state database.
	databasePath := rootConfiguration.stateDatabase
	if databasePath == "" {
		databasePath, err = statedb.Path()
		if err != nil {
			fatal(errors.Wrap(err, "unable to determine state database path"))
		}
	}
	database, err := statedb.Open(databasePath, logger.Sublogger("statedb"))
	if err != nil {
		fatal(errors.Wrap(err, "unable to open state database"))
	}

	// Create the synchronization context and run update detection.
	context, err := csync.New(source, destination, &csync.Options{
		Database:          database,
		Excludes:          filter,
		Configuration:     tunables,
		SyncSymbolicLinks: rootConfiguration.syncSymbolicLinks,
		Logger:            logger,
	})
	if err != nil {
		fatal(errors.Wrap(err, "unable to create synchronization context"))
	}
	if err := context.Update(); err != nil {
		fatal(errors.Wrap(err, "update detection failed"))
	}

	// Report results. Reconciliation and propagation are driven by library
	// consumers; the command line stops after update detection.
	printSummary(update.SideLocal, context.LocalStatistics())
	printSummary(update.SideRemote, context.RemoteStatistics())
	printChanges(update.SideLocal, context.Local())
	printChanges(update.SideRemote, context.Remote())
}

var rootCommand = &cobra.Command{
	Use:   "csync <source> <destination>",
	Short: "csync detects changes between two directory replicas.",
	Run:   rootMain,
}

var rootConfiguration struct {
	// help indicates the presence of the -h/--help flag.
	help bool
	// version indicates the presence of the -V/--version flag.
	version bool
	// debug indicates the presence of the --debug flag.
	debug bool
	// syncSymbolicLinks indicates the presence of the --links flag.
	syncSymbolicLinks bool
	// excludes are the patterns specified by --exclude flags.
	excludes []string
	// configurationFile is the value of the --config flag.
	configurationFile string
	// stateDatabase is the value of the --state-database flag.
	stateDatabase string
}

// configureFlags binds the root command's flags to its configuration.
func configureFlags(flags *pflag.FlagSet) {
	// We manually add help to override the default message, but Cobra still
	// implements it automatically.
	flags.BoolVarP(&rootConfiguration.help, "help", "h", false, "Show help information")
	flags.BoolVarP(&rootConfiguration.version, "version", "V", false, "Show version information")
	flags.BoolVar(&rootConfiguration.debug, "debug", false, "Enable debug logging")
	flags.BoolVar(&rootConfiguration.syncSymbolicLinks, "links", false, "Synchronize in-root symbolic links")
	flags.StringSliceVar(&rootConfiguration.excludes, "exclude", nil, "Exclude paths matching a pattern")
	flags.StringVar(&rootConfiguration.configurationFile, "config", "", "Use an alternate configuration file")
	flags.StringVar(&rootConfiguration.stateDatabase, "state-database", "", "Use an alternate state database")
}

func init() {
	configureFlags(rootCommand.Flags())
}

func main() {
	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
