package ifexists_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/AdRoll/ifexists"
	"github.com/AdRoll/ifexists/testutil"
)

func TestRequiredFields(t *testing.T) {
	type (
		test1 struct {
			Name  string
			Value string `help:"field value" required:"false"`
		}

		test2 struct {
			Name  string
			Value string `help:"field value" required:"true"`
		}

		test3 struct {
			Name  string `required:"true"`
			Value string `help:"field value" required:"true"`
		}
	)

	tests := []struct {
		name string
		cfg  interface{}
		want []string
	}{
		{
			name: "no required fields",
			cfg:  &test1{},
			want: nil,
		},
		{
			name: "one required field",
			cfg:  &test2{},
			want: []string{"Value"},
		},
		{
			name: "all required fields",
			cfg:  &test3{},
			want: []string{"Name", "Value"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ifexists.RequiredFields(tt.cfg); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("RequiredFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckRequiredFields(t *testing.T) {
	type (
		test1 struct {
			Name  string
			Value string `help:"field value" required:"false"`
		}

		test2 struct {
			Name  string
			Value string `help:"field value" required:"true"`
		}

		test3 struct {
			Name  string `required:"true"`
			Value string `help:"field value" required:"true"`
		}
	)

	tests := []struct {
		name string
		val  interface{}
		want string
	}{
		{
			name: "no required fields",
			val:  &test1{},
			want: "",
		},
		{
			name: "one missing required field ",
			val:  &test2{Name: "name", Value: ""},
			want: "Value",
		},
		{
			name: "one present required field ",
			val:  &test2{Name: "name", Value: "value"},
			want: "",
		},
		{
			name: "all required fields and all are missing",
			val:  &test3{},
			want: "Name",
		},
		{
			name: "all required fields but the first missing",
			val:  &test3{Value: "value"},
			want: "Name",
		},
		{
			name: "all required fields and all are present",
			val:  &test3{Name: "name", Value: "value"},
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ifexists.CheckRequiredFields(tt.val); got != tt.want {
				t.Errorf("CheckRequiredFields() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testNewConfigFromTOMLRequiredFields(t *testing.T, name, toml string) {
	t.Run(name, func(t *testing.T) {
		type dummyConfig struct {
			Param1 string
			Param2 string `required:"true"`
		}
		var dummyDesc = ifexists.MetricsDesc{
			Name:   "Dummy",
			New:    func(interface{}) (ifexists.MetricsClient, error) { return ifexists.NopMetrics{}, nil },
			Config: &dummyConfig{},
		}

		components := ifexists.Components{
			Metrics: []ifexists.MetricsDesc{testutil.MockMetricsDesc, dummyDesc},
		}

		_, err := ifexists.NewConfigFromToml(strings.NewReader(toml), components)
		if err == nil {
			t.Fatal("expected an error")
		}

		var errReq ifexists.ErrorRequiredField
		if !errors.As(err, &errReq) {
			t.Fatalf("got %q, want a ErrorRequiredField", err)
		}

		if errReq.Field != "Param2" {
			t.Errorf("got field=%q, want field=%q", errReq.Field, "Param2")
		}
	})
}

func TestNewConfigFromTOMLRequiredField(t *testing.T) {
	toml := `
[filter]
path = "qids.tsv"

[metrics]
name = "Dummy"
    [metrics.config]
    param1="this parameter is set"
    #param2="this parameter is not set"
`
	testNewConfigFromTOMLRequiredFields(t, "missing field", toml)

	toml = `
[filter]
path = "qids.tsv"

[metrics]
name = "Dummy"
`
	testNewConfigFromTOMLRequiredFields(t, "nil config", toml)

	toml = `
	[filter]
	path = "qids.tsv"

	[metrics]
	name = "dummy"
		[metrics.config]
		PaRam1="this parameter is set"
		#param2="this parameter is not set"
	`
	testNewConfigFromTOMLRequiredFields(t, "case insensitive", toml)
}

func TestNewConfigFromTOMLMetrics(t *testing.T) {
	toml := `
[filter]
path = "qids.tsv"

[metrics]
name = "MockMetrics"
`
	components := ifexists.Components{Metrics: []ifexists.MetricsDesc{testutil.MockMetricsDesc}}
	cfg, err := ifexists.NewConfigFromToml(strings.NewReader(toml), components)
	if err != nil {
		t.Fatalf("NewConfigFromToml() error = %v", err)
	}
	if cfg.Metrics.Name != "MockMetrics" || cfg.Metrics.DecodedConfig == nil {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}
