package ifexists

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/rasky/toml"

	"github.com/AdRoll/ifexists/pkg/awsutils"
)

// The configuration of a run can be read from a TOML file. The [input] and
// [filter] tables describe the two tabular files, each one with its own
// [input.reader] / [filter.reader] options, [output] describes the output
// file and [general] holds the options shared by the whole run.
//
// The [metrics] table names the metrics backend; its [metrics.config]
// sub-table is specific to the chosen backend and maps to the Config
// structure of its MetricsDesc. Since the backend isn't known before the
// file is parsed, [metrics.config] is captured as a toml.Primitive and
// decoded in a second step.

// Reader modes, telling how the kind of a file is determined.
const (
	ModeAuto = "auto" // infer the file kind from the header
	ModeEdge = "edge" // force edge file
	ModeNode = "node" // force node file
	ModeNone = "none" // neither edge nor node: key columns must be given
)

// Actions taken by readers on lines having too few or too many fields.
const (
	ActionComplain = "complain" // let the line through, the engine reports it as malformed
	ActionExclude  = "exclude"  // silently skip the line
	ActionPad      = "pad"      // short lines only: add empty fields
	ActionTruncate = "truncate" // long lines only: drop the extra fields
)

// DefaultErrorLimit is the default number of malformed rows after which
// reading a file fails.
const DefaultErrorLimit = 1000

// ReaderOptions holds the options of the reader of one file. The input and
// the filter files are configured independently.
type ReaderOptions struct {
	Mode            string `toml:"mode" help:"How the file kind is determined: auto (from the header), edge, node or none" default:"auto"`
	ErrorLimit      int    `toml:"error_limit" help:"Number of malformed rows after which reading fails, negative for no limit" default:"1000"`
	ShortLineAction string `toml:"short_line_action" help:"Action on lines with too few fields: complain, pad or exclude" default:"complain"`
	LongLineAction  string `toml:"long_line_action" help:"Action on lines with too many fields: complain, truncate or exclude" default:"complain"`
	ColumnSeparator string `toml:"column_separator" help:"1-byte column separator" default:"\\t"`
	Region          string `toml:"region" help:"AWS region, for s3:// paths" default:"us-west-2"`
}

// Separator returns the column separator as a byte.
func (o ReaderOptions) Separator() byte {
	if o.ColumnSeparator == "" {
		return '\t'
	}
	return o.ColumnSeparator[0]
}

// EffectiveErrorLimit returns the error budget to give to the engine, where
// 0 means unlimited.
func (o ReaderOptions) EffectiveErrorLimit() int {
	switch {
	case o.ErrorLimit < 0:
		return 0
	case o.ErrorLimit == 0:
		return DefaultErrorLimit
	}
	return o.ErrorLimit
}

func (o *ReaderOptions) fillDefaults() {
	if o.Mode == "" {
		o.Mode = ModeAuto
	}
	if o.ShortLineAction == "" {
		o.ShortLineAction = ActionComplain
	}
	if o.LongLineAction == "" {
		o.LongLineAction = ActionComplain
	}
	if o.ColumnSeparator == "" {
		o.ColumnSeparator = "\t"
	}
	if o.Region == "" {
		o.Region = "us-west-2"
	}
}

func (o *ReaderOptions) validate() error {
	switch o.Mode {
	case ModeAuto, ModeEdge, ModeNode, ModeNone:
	default:
		return fmt.Errorf("invalid mode %q: must be one of auto, edge, node, none", o.Mode)
	}
	switch o.ShortLineAction {
	case ActionComplain, ActionPad, ActionExclude:
	default:
		return fmt.Errorf("invalid short line action %q: must be one of complain, pad, exclude", o.ShortLineAction)
	}
	switch o.LongLineAction {
	case ActionComplain, ActionTruncate, ActionExclude:
	default:
		return fmt.Errorf("invalid long line action %q: must be one of complain, truncate, exclude", o.LongLineAction)
	}
	if err := checkSeparator(o.ColumnSeparator); err != nil {
		return fmt.Errorf("column separator: %v", err)
	}
	if !awsutils.IsValidRegion(o.Region) {
		return fmt.Errorf("invalid region %q", o.Region)
	}
	return nil
}

func checkSeparator(s string) error {
	sep := []rune(s)
	if len(sep) != 1 || sep[0] > unicode.MaxASCII || sep[0] == '\n' {
		return fmt.Errorf("separator must be a 1-byte string or hex char")
	}
	return nil
}

// ConfigFile specifies a tabular file to read, either the input or the filter.
type ConfigFile struct {
	Path   string        `toml:"path" help:"Local path, s3:// or http(s):// URL, \"-\" for the standard input"`
	Keys   []string      `toml:"keys" help:"Key column names or 0-based positions, conventional key columns if empty"`
	Reader ReaderOptions `toml:"reader"`
}

// ConfigOutput specifies the output file.
type ConfigOutput struct {
	Path                 string `toml:"path" help:"Local path or s3:// URL, compressed according to its extension (.gz, .zst or .lz4)" default:"-"`
	ZstdCompressionLevel int    `toml:"zstd_level" help:"zstd compression level, for .zst paths" default:"3"`
	Region               string `toml:"region" help:"AWS region, for s3:// paths" default:"us-west-2"`
}

func (c *ConfigOutput) fillDefaults() {
	if c.ZstdCompressionLevel == 0 {
		c.ZstdCompressionLevel = 3
	}
	if c.Region == "" {
		c.Region = "us-west-2"
	}
}

// ConfigGeneral holds the options shared by the whole run.
//
// A negative ReportEvery disables the periodic progress report, the final one
// is always logged.
type ConfigGeneral struct {
	FieldSeparator string   `toml:"field_separator" help:"Separator of the values of multi-column keys" default:"|"`
	Invert         bool     `toml:"invert" help:"Pass the input rows whose key is absent from the filter file" default:"false"`
	ChanSize       int      `toml:"chan_size" help:"Number of input rows read ahead of the decision loop" default:"1024"`
	ErrorsTo       string   `toml:"errors_to" help:"Where logs and errors are written: stderr or stdout" default:"stderr"`
	ReportEvery    Duration `toml:"report_every" help:"Period of the progress reports, negative to disable them" default:"10s"`
}

// Duration is a time.Duration read from TOML as a string such as "10s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// DefaultReportEvery is the default period of the progress reports.
const DefaultReportEvery = Duration(10 * time.Second)

func (c *ConfigGeneral) fillDefaults() {
	if c.FieldSeparator == "" {
		c.FieldSeparator = DefaultFieldSeparator
	}
	if c.ChanSize == 0 {
		c.ChanSize = 1024
	}
	if c.ErrorsTo == "" {
		c.ErrorsTo = "stderr"
	}
	if c.ReportEvery == 0 {
		c.ReportEvery = DefaultReportEvery
	}
}

// ConfigMetrics holds metrics configuration.
type ConfigMetrics struct {
	Name          string
	DecodedConfig interface{}

	Config *toml.Primitive
	desc   *MetricsDesc
}

// A Config specifies the configuration of a run.
type Config struct {
	Input   ConfigFile
	Filter  ConfigFile
	Output  ConfigOutput
	General ConfigGeneral
	Metrics ConfigMetrics
}

// String returns a string representation of the exported fields of c.
func (c *Config) String() string {
	s := fmt.Sprintf("Input:{Path:%s, Keys:[%s], Mode:%s} ", c.Input.Path, strings.Join(c.Input.Keys, ","), c.Input.Reader.Mode)
	s += fmt.Sprintf("Filter:{Path:%s, Keys:[%s], Mode:%s} ", c.Filter.Path, strings.Join(c.Filter.Keys, ","), c.Filter.Reader.Mode)
	s += fmt.Sprintf("Output:{Path:%s} ", c.Output.Path)
	s += fmt.Sprintf("General:{FieldSeparator:%q, Invert:%t, ChanSize:%d} ", c.General.FieldSeparator, c.General.Invert, c.General.ChanSize)
	s += fmt.Sprintf("Metrics:{Name:%s}", c.Metrics.Name)
	return s
}

// NewConfig returns a Config with all default values filled in.
func NewConfig() *Config {
	cfg := &Config{}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	c.Input.Reader.fillDefaults()
	c.Filter.Reader.fillDefaults()
	c.Output.fillDefaults()
	c.General.fillDefaults()
}

// Validate checks that c describes a valid run.
func (c *Config) Validate() error {
	c.fillDefaults()

	if c.Filter.Path == "" {
		return fmt.Errorf("filter: %w", ErrorRequiredField{"path"})
	}
	if (c.Input.Path == "" || c.Input.Path == "-") && c.Filter.Path == "-" {
		return fmt.Errorf("input and filter files can't both be read from stdin")
	}
	if err := c.Input.Reader.validate(); err != nil {
		return fmt.Errorf("input: %v", err)
	}
	if err := c.Filter.Reader.validate(); err != nil {
		return fmt.Errorf("filter: %v", err)
	}
	if !awsutils.IsValidRegion(c.Output.Region) {
		return fmt.Errorf("output: invalid region %q", c.Output.Region)
	}
	switch c.General.ErrorsTo {
	case "stderr", "stdout":
	default:
		return fmt.Errorf("invalid errors_to %q: must be stderr or stdout", c.General.ErrorsTo)
	}
	if c.General.ChanSize < 0 {
		return fmt.Errorf("chan_size: invalid number: %d", c.General.ChanSize)
	}
	return nil
}

// EngineConfig returns the engine configuration corresponding to c.
func (c *Config) EngineConfig() EngineConfig {
	return EngineConfig{
		InputKeys:        append([]string(nil), c.Input.Keys...),
		FilterKeys:       append([]string(nil), c.Filter.Keys...),
		FieldSeparator:   c.General.FieldSeparator,
		Invert:           c.General.Invert,
		InputErrorLimit:  c.Input.Reader.EffectiveErrorLimit(),
		FilterErrorLimit: c.Filter.Reader.EffectiveErrorLimit(),
		ChanSize:         c.General.ChanSize,
	}
}

// replaceEnvVars replaces any string in the format ${VALUE} or $VALUE with the corresponding
// $VALUE environment variable
func replaceEnvVars(f io.Reader, mapper func(string) string) (io.Reader, error) {
	buf := new(bytes.Buffer)
	_, err := buf.ReadFrom(f)
	if err != nil {
		return nil, fmt.Errorf("Error reading input: %v", err)
	}

	return strings.NewReader(os.Expand(buf.String(), mapper)), nil
}

// NewConfigFromToml creates a Config from a reader reading from a TOML
// configuration. comp describes the available metrics backends.
func NewConfigFromToml(f io.Reader, comp Components) (*Config, error) {
	f, err := replaceEnvVars(f, os.Getenv)
	if err != nil {
		return nil, fmt.Errorf("Can't replace config with env vars: %v", err)
	}

	cfg := Config{}
	md, err := toml.DecodeReader(f, &cfg)
	if err != nil {
		return nil, fmt.Errorf("error parsing configuration: %v", err)
	}

	if cfg.Metrics.Name != "" {
		for _, mtr := range comp.Metrics {
			if strings.EqualFold(mtr.Name, cfg.Metrics.Name) {
				mtr := mtr
				cfg.Metrics.desc = &mtr
				break
			}
		}
		if cfg.Metrics.desc == nil {
			return nil, fmt.Errorf("metrics does not exist: %q", cfg.Metrics.Name)
		}

		cfg.Metrics.DecodedConfig = cfg.Metrics.desc.Config
		if cfg.Metrics.Config != nil {
			if err := md.PrimitiveDecode(*cfg.Metrics.Config, cfg.Metrics.DecodedConfig); err != nil {
				return nil, fmt.Errorf("metrics %q: error parsing config: %v", cfg.Metrics.Name, err)
			}
		}
		if req := CheckRequiredFields(cfg.Metrics.DecodedConfig); req != "" {
			return nil, fmt.Errorf("metrics %q: %w", cfg.Metrics.Name, ErrorRequiredField{req})
		}
	}

	// Abort if there's any unknown key in the configuration file
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("invalid keys in configuration file: %v", keys)
	}

	cfg.fillDefaults()
	return &cfg, nil
}

// newMetricsClient creates the metrics client described by c, or a NopMetrics
// if none is configured.
func (c *ConfigMetrics) newMetricsClient() (MetricsClient, error) {
	if c.desc == nil {
		return NopMetrics{}, nil
	}
	m, err := c.desc.New(c.DecodedConfig)
	if err != nil {
		return nil, fmt.Errorf("error creating metrics interface: %q: %v", c.Name, err)
	}
	return m, nil
}

// RequiredFields returns the names of the underlying configuration structure
// fields which are tagged as required. To tag a field as being required, a
// "required" struct struct tag must be present and set to true.
//
// RequiredFields doesn't support struct embedding other structs.
func RequiredFields(cfg interface{}) []string {
	var fields []string

	tf := reflect.TypeOf(cfg).Elem()
	for i := 0; i < tf.NumField(); i++ {
		field := tf.Field(i)

		req := field.Tag.Get("required")
		if req != "true" {
			continue
		}

		fields = append(fields, field.Name)
	}

	return fields
}

// CheckRequiredFields checks that all fields that are tagged as required in
// cfg's type have actually been set to a value other than the field type zero
// value. If not CheckRequiredFields returns the name of the first required
// field that is not set, or, it returns an empty string if all required fields
// are set of the struct doesn't have any required fields (or any fields at all).
func CheckRequiredFields(cfg interface{}) string {
	fields := RequiredFields(cfg)

	for _, name := range fields {
		rv := reflect.ValueOf(cfg).Elem()
		fv := rv.FieldByName(name)
		if fv.IsZero() {
			return name
		}
	}

	return ""
}

// ErrorRequiredField describes the absence of a required field
// in a configuration.
type ErrorRequiredField struct {
	Field string // Field is the name of the missing field
}

func (e ErrorRequiredField) Error() string {
	return fmt.Sprintf("%q is a required field", e.Field)
}
