package ifexists_test

import (
	"reflect"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/AdRoll/ifexists"
	"github.com/AdRoll/ifexists/testutil"
)

func newStatsEngine(t *testing.T) (*ifexists.Engine, *testutil.MemWriter) {
	t.Helper()

	input := testutil.NewMemReader([]string{"id", "name"},
		ifexists.Row{"Q1", "Earth"},
		ifexists.Row{"Q2"},
		ifexists.Row{"Q2", "Mars"},
		ifexists.Row{"Q3", "Venus"},
	)
	filter := testutil.NewMemReader([]string{"qid"},
		ifexists.Row{"Q1"},
		ifexists.Row{"Q3"},
		ifexists.Row{"Q3"},
	)
	out := &testutil.MemWriter{}
	e, err := ifexists.NewEngine(ifexists.EngineParams{
		Config: ifexists.EngineConfig{InputKeys: []string{"id"}, FilterKeys: []string{"qid"}},
		Input:  input,
		Filter: filter,
		Output: out,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e, out
}

func TestStatsDumper(t *testing.T) {
	defer testutil.DisableLogging()()

	e, _ := newStatsEngine(t)
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	logger, hook := test.NewNullLogger()
	m := &testutil.MockMetrics{}
	sd := ifexists.NewStatsDumper(e, m, 0, log.NewEntry(logger))
	stop := sd.Run()
	stop()

	want := []string{
		"gauge|name=filter.keys|value=2",
		"rawcount|name=decisions|value=1|tag=decision:reject",
		"rawcount|name=decisions|value=2|tag=decision:pass",
		"rawcount|name=filter.errors|value=0",
		"rawcount|name=filter.rows|value=3",
		"rawcount|name=input.errors|value=1",
		"rawcount|name=input.rows|value=3",
	}
	if got := m.PublishedMetrics(""); !reflect.DeepEqual(got, want) {
		t.Errorf("published metrics:\ngot  %q\nwant %q", got, want)
	}

	if len(hook.AllEntries()) != 1 {
		t.Fatalf("got %d log entries, want 1", len(hook.AllEntries()))
	}
	ent := hook.LastEntry()
	if ent.Message != "run summary" {
		t.Errorf("message = %q, want %q", ent.Message, "run summary")
	}
	for k, v := range map[string]interface{}{
		"state":        "DONE",
		"filter_rows":  "3",
		"filter_keys":  "2",
		"input_rows":   "3",
		"passed":       "2",
		"rejected":     "1",
		"input_errors": int64(1),
	} {
		if ent.Data[k] != v {
			t.Errorf("field %s = %v (%T), want %v (%T)", k, ent.Data[k], ent.Data[k], v, v)
		}
	}
	if _, ok := ent.Data["elapsed"]; !ok {
		t.Errorf("run summary has no elapsed field")
	}
}

func TestStatsDumperPeriodic(t *testing.T) {
	defer testutil.DisableLogging()()

	e, _ := newStatsEngine(t)

	logger, hook := test.NewNullLogger()
	sd := ifexists.NewStatsDumper(e, nil, 10*time.Millisecond, log.NewEntry(logger))
	stop := sd.Run()
	time.Sleep(55 * time.Millisecond)
	stop()

	entries := hook.AllEntries()
	if len(entries) < 2 {
		t.Fatalf("got %d log entries, want at least 2", len(entries))
	}
	for _, ent := range entries[:len(entries)-1] {
		if ent.Message != "progress" || ent.Data["state"] != "INIT" {
			t.Errorf("got %q with state %v, want progress reports of an engine not run yet", ent.Message, ent.Data["state"])
		}
	}
	if last := entries[len(entries)-1]; last.Message != "run summary" {
		t.Errorf("last entry = %q, want %q", last.Message, "run summary")
	}
}

func TestEngineMetricNames(t *testing.T) {
	defer testutil.DisableLogging()()

	m := &testutil.MockMetrics{}
	e, err := ifexists.NewEngine(ifexists.EngineParams{
		Input:   testutil.NewMemReader([]string{"id"}, ifexists.Row{"Q1"}, ifexists.Row{"Q2"}),
		Filter:  testutil.NewMemReader([]string{"id"}, ifexists.Row{"Q1"}),
		Output:  &testutil.MemWriter{},
		Metrics: m,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Run(); err != nil {
		t.Fatal(err)
	}

	// The engine only times its phases, the counters and the filter set
	// size are published by the StatsDumper.
	var names []string
	for _, s := range m.PublishedMetrics("") {
		names = append(names, strings.Split(s, "|value=")[0])
	}
	want := []string{
		"duration|name=filter.build_time",
		"duration|name=input.stream_time",
	}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("published metrics = %q, want %q", names, want)
	}

	ifexists.NewStatsDumper(e, m, 0, nil).Run()()
	if got := m.PublishedMetrics("gauge|name=filter.keys"); len(got) != 1 {
		t.Errorf("filter.keys published %d times, want 1: %q", len(got), got)
	}
}
