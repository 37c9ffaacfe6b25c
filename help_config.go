package ifexists

import (
	"fmt"
	"reflect"
	"strings"
)

// sectionDoc documents a table of the TOML configuration.
type sectionDoc struct {
	title string          // human readable title
	table string          // TOML table name
	help  string          // general help string
	keys  []helpConfigKey // configuration keys
}

type helpConfigKey struct {
	name     string // config key name
	typ      string // config key type
	def      string // default value
	required bool
	desc     string
}

// configDocs returns the documentation of the tables of the configuration
// file, in the order they're usually written.
func configDocs() ([]sectionDoc, error) {
	tables := []struct {
		title, table, help string
		cfg                interface{}
	}{
		{"Input file", "input", "The file to filter. It can also be given as the command argument.", &ConfigFile{}},
		{"Input reader", "input.reader", "Options of the input file reader.", &ReaderOptions{}},
		{"Filter file", "filter", "The file whose keys select the input rows.", &ConfigFile{}},
		{"Filter reader", "filter.reader", "Options of the filter file reader.", &ReaderOptions{}},
		{"Output file", "output", "Where the rows that pass the filter are written, with the header of the input file.", &ConfigOutput{}},
		{"General", "general", "Options shared by the whole run.", &ConfigGeneral{}},
	}

	docs := make([]sectionDoc, 0, len(tables))
	for _, t := range tables {
		keys, err := configKeysFromStruct(t.cfg)
		if err != nil {
			return nil, fmt.Errorf("[%s]: %v", t.table, err)
		}
		docs = append(docs, sectionDoc{title: t.title, table: t.table, help: t.help, keys: keys})
	}
	return docs, nil
}

func newMetricsDoc(desc MetricsDesc) (sectionDoc, error) {
	doc := sectionDoc{
		title: "Metrics: " + desc.Name,
		table: "metrics.config",
		help:  fmt.Sprintf("Set name = %q in the [metrics] table to select this metrics client.", desc.Name),
	}

	var err error

	doc.keys, err = configKeysFromStruct(desc.Config)
	if err != nil {
		return doc, fmt.Errorf("metrics %q: %v", desc.Name, err)
	}

	return doc, nil
}

func configKeysFromStruct(cfg interface{}) ([]helpConfigKey, error) {
	var keys []helpConfigKey

	tf := reflect.TypeOf(cfg).Elem()
	for i := 0; i < tf.NumField(); i++ {
		f := tf.Field(i)

		// skip unexported fields
		if f.PkgPath != "" && !f.Anonymous {
			continue
		}
		// nested tables are documented on their own
		if f.Type.Kind() == reflect.Struct {
			continue
		}

		key, err := newHelpConfigKeyFromField(f)
		if err != nil {
			return nil, fmt.Errorf("error at exported key %d: %v", i, err)
		}
		if key.name == "-" {
			continue
		}
		keys = append(keys, key)
	}

	return keys, nil
}

func newHelpConfigKeyFromField(f reflect.StructField) (helpConfigKey, error) {
	h := helpConfigKey{
		name:     f.Name,
		desc:     f.Tag.Get("help"),
		def:      f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}
	if name := strings.Split(f.Tag.Get("toml"), ",")[0]; name != "" {
		h.name = name
	}

	switch f.Type.Kind() {
	case reflect.Int:
		h.typ = "int"
	case reflect.String:
		h.typ = "string"
		if h.def != "" {
			h.def = `"` + h.def + `"`
		}
	case reflect.Slice:
		switch f.Type.Elem().Kind() {
		case reflect.String:
			h.typ = "array of strings"
		case reflect.Int:
			h.typ = "array of ints"
		default:
			return h, fmt.Errorf("config key %q: unsupported type array of %s", f.Name, f.Type.Elem())
		}
	case reflect.Int64:
		if f.Type.Name() == "Duration" {
			h.typ = "duration"
			if h.def != "" {
				h.def = `"` + h.def + `"`
			}
		} else {
			h.typ = "int"
		}
	case reflect.Bool:
		h.typ = "bool"
	default:
		return h, fmt.Errorf("config key %q: unsupported type %s", f.Name, f.Type)
	}

	return h, nil
}
