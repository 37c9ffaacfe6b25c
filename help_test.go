package ifexists

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
	"time"
)

type dummyConfig struct {
	IntField            int           `help:"int field" required:"true" default:"0"`
	Int64Field          int64         `help:"int64 field" required:"false" default:"1"`
	DurationField       time.Duration `help:"duration field" required:"true" default:"2s"`
	StringField         string        `toml:"string_field" help:"string field" required:"true" default:"4"`
	BoolField           bool          `help:"bool field" required:"true" default:"true"`
	SliceOfStringsField []string      `help:"strings field" required:"true" default:"[\"a\", \"b\", \"c\"]"`
	SliceOfIntsField    []int         `help:"ints field" required:"true" default:"[0, 1, 2, 3]"`
	Ignored             string        `toml:"-"`
	Nested              ReaderOptions
	unexported          int
}

func TestConfigKeysFromStruct(t *testing.T) {
	keys, err := configKeysFromStruct(&dummyConfig{})
	if err != nil {
		t.Fatal(err)
	}

	want := []helpConfigKey{
		{name: "IntField", typ: "int", def: "0", required: true, desc: "int field"},
		{name: "Int64Field", typ: "int", def: "1", desc: "int64 field"},
		{name: "DurationField", typ: "duration", def: `"2s"`, required: true, desc: "duration field"},
		{name: "string_field", typ: "string", def: `"4"`, required: true, desc: "string field"},
		{name: "BoolField", typ: "bool", def: "true", required: true, desc: "bool field"},
		{name: "SliceOfStringsField", typ: "array of strings", def: `["a", "b", "c"]`, required: true, desc: "strings field"},
		{name: "SliceOfIntsField", typ: "array of ints", def: "[0, 1, 2, 3]", required: true, desc: "ints field"},
	}
	if !reflect.DeepEqual(keys, want) {
		t.Errorf("configKeysFromStruct() =\n%+v\nwant\n%+v", keys, want)
	}

	if _, err := configKeysFromStruct(&struct{ F float64 }{}); err == nil {
		t.Errorf("configKeysFromStruct() should fail on unsupported types")
	}
}

func TestConfigDocs(t *testing.T) {
	docs, err := configDocs()
	if err != nil {
		t.Fatal(err)
	}

	var tables []string
	for _, doc := range docs {
		tables = append(tables, doc.table)
		for _, k := range doc.keys {
			if k.desc == "" {
				t.Errorf("[%s] %s has no help", doc.table, k.name)
			}
		}
	}
	want := []string{"input", "input.reader", "filter", "filter.reader", "output", "general"}
	if !reflect.DeepEqual(tables, want) {
		t.Errorf("tables = %q, want %q", tables, want)
	}
}

var helpComponents = Components{
	Metrics: []MetricsDesc{{
		Name:   "Dummy",
		Config: &struct{ Host string `toml:"host" help:"statsd host, for example 127.0.0.1:8125" required:"true"` }{},
	}},
}

func TestPrintHelp(t *testing.T) {
	tests := []struct {
		topic   string
		format  HelpFormat
		want    []string
		notWant []string
		wantErr bool
	}{
		{
			topic:   "config",
			want:    []string{"Keys available in the [filter.reader] section:", "short_line_action", `"complain"`},
			notWant: []string{"metrics.config"},
		},
		{
			topic:   "dummy",
			want:    []string{"Metrics: Dummy", "[metrics.config]", "host", "127.0.0.1:8125"},
			notWant: []string{"[general]"},
		},
		{
			topic:  "*",
			format: HelpFormatMarkdown,
			want:   []string{"## General", "`[metrics.config]`", "| field_separator| string| \"|\"| false|"},
		},
		{topic: "graphite", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			var buf bytes.Buffer
			err := PrintHelp(&buf, tt.topic, helpComponents, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PrintHelp() error = %v, wantErr %t", err, tt.wantErr)
			}
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("help doesn't contain %q:\n%s", s, buf.String())
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(buf.String(), s) {
					t.Errorf("help contains %q:\n%s", s, buf.String())
				}
			}
		})
	}
}

func TestRenderHelpMarkdown(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHelpMarkdown(&buf, "dummy", helpComponents); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Dummy") {
		t.Errorf("rendered help doesn't contain the metrics client name:\n%s", buf.String())
	}
}

func TestDescribeCommand(t *testing.T) {
	cmd := NewRootCommand(helpComponents)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"describe", "--raw-markdown", "config"})

	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "## Input file\n") {
		t.Errorf("describe output = %q", out.String())
	}
}
