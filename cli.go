package ifexists

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Use `-ldflags="-X 'github.com/AdRoll/ifexists.BuildVersion=someversion'"` when building ifexists to set this value
var BuildVersion = "-- unknown --"

// flagAliases maps alternative flag names to their canonical name.
var flagAliases = map[string]string{
	"left-keys":  "input-keys",
	"right-keys": "filter-keys",
}

// cliFlags holds the values of the command-line flags. Flags only override
// the configuration (default, or read from --config) when explicitly set.
type cliFlags struct {
	configPath     string
	filterOn       string
	inputKeys      []string
	filterKeys     []string
	fieldSeparator string
	errorLimit     int
	outputFile     string
	invert         bool
	reportEvery    time.Duration
	chanSize       int

	verbose        bool
	veryVerbose    bool
	quiet          bool
	pretty         bool
	errorsToStdout bool
	errorsToStderr bool

	input, filter readerFlags
}

// readerFlags holds the namespaced reader flags of one file role.
type readerFlags struct {
	mode            string
	errorLimit      int
	shortLineAction string
	longLineAction  string
	columnSeparator string
}

func (rf *readerFlags) register(fs *pflag.FlagSet, role Role) {
	p, r := string(role)+"-", string(role)
	fs.StringVar(&rf.mode, p+"mode", ModeAuto, "how the "+r+" file kind is determined: auto, edge, node or none")
	fs.IntVar(&rf.errorLimit, p+"error-limit", DefaultErrorLimit, "maximum number of malformed rows in the "+r+" file (0 for no limit)")
	fs.StringVar(&rf.shortLineAction, p+"short-line-action", ActionComplain, "action on "+r+" lines with too few fields: complain, pad or exclude")
	fs.StringVar(&rf.longLineAction, p+"long-line-action", ActionComplain, "action on "+r+" lines with too many fields: complain, truncate or exclude")
	fs.StringVar(&rf.columnSeparator, p+"column-separator", `\t`, "column separator of the "+r+" file")
}

// apply copies the reader flags explicitly set on the command line into o.
func (rf *readerFlags) apply(fs *pflag.FlagSet, role Role, o *ReaderOptions) error {
	p := string(role) + "-"
	if fs.Changed(p + "mode") {
		o.Mode = rf.mode
	}
	if fs.Changed(p + "error-limit") {
		o.ErrorLimit = orNegative(rf.errorLimit)
	}
	if fs.Changed(p + "short-line-action") {
		o.ShortLineAction = rf.shortLineAction
	}
	if fs.Changed(p + "long-line-action") {
		o.LongLineAction = rf.longLineAction
	}
	if fs.Changed(p + "column-separator") {
		sep, err := unescape(rf.columnSeparator)
		if err != nil {
			return fmt.Errorf("--%scolumn-separator: %v", p, err)
		}
		o.ColumnSeparator = sep
	}
	return nil
}

// apply overrides cfg with the flags explicitly set on the command line.
func (f *cliFlags) apply(fs *pflag.FlagSet, args []string, cfg *Config) error {
	if len(args) == 1 {
		cfg.Input.Path = args[0]
	}
	if fs.Changed("filter-on") {
		cfg.Filter.Path = f.filterOn
	}
	if fs.Changed("input-keys") {
		cfg.Input.Keys = f.inputKeys
	}
	if fs.Changed("filter-keys") {
		cfg.Filter.Keys = f.filterKeys
	}
	if fs.Changed("field-separator") {
		sep, err := unescape(f.fieldSeparator)
		if err != nil {
			return fmt.Errorf("--field-separator: %v", err)
		}
		cfg.General.FieldSeparator = sep
	}
	if fs.Changed("error-limit") {
		cfg.Input.Reader.ErrorLimit = orNegative(f.errorLimit)
		cfg.Filter.Reader.ErrorLimit = orNegative(f.errorLimit)
	}
	if fs.Changed("output-file") {
		cfg.Output.Path = f.outputFile
	}
	if fs.Changed("invert") {
		cfg.General.Invert = f.invert
	}
	if fs.Changed("report-every") {
		cfg.General.ReportEvery = Duration(orNegative(int(f.reportEvery)))
	}
	if fs.Changed("chan-size") {
		cfg.General.ChanSize = f.chanSize
	}
	switch {
	case f.errorsToStdout:
		cfg.General.ErrorsTo = "stdout"
	case f.errorsToStderr:
		cfg.General.ErrorsTo = "stderr"
	}

	if err := f.input.apply(fs, RoleInput, &cfg.Input.Reader); err != nil {
		return err
	}
	return f.filter.apply(fs, RoleFilter, &cfg.Filter.Reader)
}

// orNegative maps 0, meaning "none" on the command line, to the negative
// value having the same meaning in Config.
func orNegative(n int) int {
	if n == 0 {
		return -1
	}
	return n
}

// unescape interprets Go escape sequences, so that a tab can be given as \t.
func unescape(s string) (string, error) {
	if !strings.Contains(s, `\`) {
		return s, nil
	}
	return strconv.Unquote(`"` + strings.ReplaceAll(s, `"`, `\"`) + `"`)
}

// NewRootCommand creates the ifexists command, using components to open,
// create and monitor the files.
func NewRootCommand(components Components) *cobra.Command {
	return newRootCommand(components, func(cfg *Config) error {
		return Main(cfg, components)
	})
}

// newRootCommand creates the ifexists command, which calls run with the
// configuration built from the configuration file and the flags.
func newRootCommand(components Components, run func(*Config) error) *cobra.Command {
	var flags cliFlags

	cmd := &cobra.Command{
		Use:   "ifexists [flags] [INPUT]",
		Short: "Filter a KGTK file by the presence of its keys in another file",
		Long: `ifexists reads the INPUT file (standard input if omitted or "-") and
writes the rows whose key is present in the file given with --filter-on.

Keys are made of one or more columns, given by name or by 0-based position.
Multi-column key values are joined with --field-separator. When no key
columns are given, the KGTK conventions apply: node files are keyed by id,
edge files by node1 when filtered by a node file, otherwise by id if present
or by (node1, label, node2).`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(cmd, &flags)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := NewConfig()
			if flags.configPath != "" {
				f, err := os.Open(flags.configPath)
				if err != nil {
					return fmt.Errorf("error opening config: %v", err)
				}
				cfg, err = NewConfigFromToml(f, components)
				f.Close()
				if err != nil {
					return err
				}
			}
			if err := flags.apply(cmd.Flags(), args, cfg); err != nil {
				return err
			}

			if cfg.General.ErrorsTo == "stdout" {
				cmd.Root().SetErr(cmd.OutOrStdout())
				log.SetOutput(cmd.ErrOrStderr())
			}
			return run(cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&flags.filterOn, "filter-on", "", "file whose keys select the input rows (required)")
	fs.StringSliceVar(&flags.inputKeys, "input-keys", nil, "key columns of the input file, by name or 0-based position (alias --left-keys)")
	fs.StringSliceVar(&flags.filterKeys, "filter-keys", nil, "key columns of the filter file, by name or 0-based position (alias --right-keys)")
	fs.StringVar(&flags.fieldSeparator, "field-separator", DefaultFieldSeparator, "separator of the values of multi-column keys")
	fs.IntVar(&flags.errorLimit, "error-limit", DefaultErrorLimit, "maximum number of malformed rows in each file (0 for no limit)")
	fs.StringVarP(&flags.outputFile, "output-file", "o", "-", `output file, "-" for standard output`)
	fs.BoolVar(&flags.invert, "invert", false, "write the rows whose key is NOT in the filter file")
	fs.DurationVar(&flags.reportEvery, "report-every", time.Duration(DefaultReportEvery), "period of the progress reports (0 to disable)")
	fs.IntVar(&flags.chanSize, "chan-size", 1024, "number of input rows read ahead")
	fs.StringVar(&flags.configPath, "config", "", "TOML configuration file, overridden by the flags explicitly set")
	flags.input.register(fs, RoleInput)
	flags.filter.register(fs, RoleFilter)

	pf := cmd.PersistentFlags()
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging (debug level)")
	pf.BoolVar(&flags.veryVerbose, "very-verbose", false, "very verbose logging (trace level, logs every decision)")
	pf.BoolVarP(&flags.quiet, "quiet", "q", false, "quiet logging (warn level)")
	pf.BoolVar(&flags.pretty, "pretty", false, "human-readable logging (unstructured logging)")
	pf.BoolVar(&flags.errorsToStdout, "errors-to-stdout", false, "write logs and errors to standard output")
	pf.BoolVar(&flags.errorsToStderr, "errors-to-stderr", false, "write logs and errors to standard error (default)")

	normalize := func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		if canon, ok := flagAliases[name]; ok {
			name = canon
		}
		return pflag.NormalizedName(name)
	}
	fs.SetNormalizeFunc(normalize)

	cmd.AddCommand(newVersionCommand(), newDescribeCommand(components))
	return cmd
}

// setupLogging configures the standard logger according to the logging flags.
func setupLogging(cmd *cobra.Command, flags *cliFlags) error {
	log.SetOutput(cmd.ErrOrStderr())
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(log.InfoLevel)

	if flags.errorsToStdout && flags.errorsToStderr {
		return fmt.Errorf("errors can't be written both to stdout and stderr")
	}
	if (flags.verbose || flags.veryVerbose) && flags.quiet {
		return fmt.Errorf("logging can't both be verbose and quiet!")
	}
	switch {
	case flags.veryVerbose:
		log.SetLevel(log.TraceLevel)
	case flags.verbose:
		log.SetLevel(log.DebugLevel)
	case flags.quiet:
		log.SetLevel(log.WarnLevel)
	}
	if flags.pretty {
		log.SetFormatter(&log.TextFormatter{})
	}
	return nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the build version",
		Args:  cobra.NoArgs,
		// No logging setup needed.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ifexists version: %s\n", BuildVersion)
			return err
		},
	}
}

func newDescribeCommand(components Components) *cobra.Command {
	var markdown, raw bool

	cmd := &cobra.Command{
		Use:   "describe [TOPIC]",
		Short: "Describe the configuration file or a metrics client",
		Long: `Describe prints the keys available in the configuration file (TOPIC
"config"), or in the [metrics.config] table of a metrics client (TOPIC is
its name). Without TOPIC, or with '*', everything is described.`,
		Args:              cobra.MaximumNArgs(1),
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			topic := "*"
			if len(args) == 1 {
				topic = args[0]
			}
			switch {
			case raw:
				return PrintHelp(cmd.OutOrStdout(), topic, components, HelpFormatMarkdown)
			case markdown:
				return RenderHelpMarkdown(cmd.OutOrStdout(), topic, components)
			}
			return PrintHelp(cmd.OutOrStdout(), topic, components, HelpFormatText)
		},
	}
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render markdown help on the terminal")
	cmd.Flags().BoolVar(&raw, "raw-markdown", false, "print markdown help, without rendering it")
	return cmd
}

// MainCLI provides a handy way to run ifexists as a command-line program,
// with the given components. args are the command-line arguments, without
// the program name.
//
// Fatal errors are printed once, on the selected error stream (standard
// error unless errors are sent to stdout), and returned so that the caller
// can exit with a non-zero status.
func MainCLI(components Components, args []string) error {
	cmd := NewRootCommand(components)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "ifexists: %v\n", err)
	}
	return err
}
