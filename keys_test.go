package ifexists

import (
	"errors"
	"reflect"
	"testing"
)

func TestKeyColumnsKey(t *testing.T) {
	row := Row{"Q1", "P31", "Q5", ""}
	tests := []struct {
		name string
		keys KeyColumns
		sep  string
		want string
	}{
		{name: "single", keys: KeyColumns{0}, sep: "|", want: "Q1"},
		{name: "declared order", keys: KeyColumns{2, 0}, sep: "|", want: "Q5|Q1"},
		{name: "three fields", keys: KeyColumns{0, 1, 2}, sep: "\u0001", want: "Q1\u0001P31\u0001Q5"},
		{name: "empty value", keys: KeyColumns{3, 0}, sep: "|", want: "|Q1"},
		{name: "multi-byte separator", keys: KeyColumns{0, 1}, sep: "::", want: "Q1::P31"},
		{name: "no keys", keys: KeyColumns{}, sep: "|", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.keys.Key(row, tt.sep); got != tt.want {
				t.Errorf("Key() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveKeys(t *testing.T) {
	nodes := MustHeader("id", "name", "label")
	edges := MustHeader("node1", "label", "node2")
	edgesWithID := MustHeader("node1", "label", "node2", "id")
	aliased := MustHeader("subject", "predicate", "object")
	quasi := MustHeader("qid", "3", "x")

	tests := []struct {
		name     string
		h        Header
		ids      []string
		other    Header
		want     KeyColumns
		wantKind ErrorKind
	}{
		// explicit keys
		{name: "by name", h: nodes, ids: []string{"name"}, other: quasi, want: KeyColumns{1}},
		{name: "by position", h: nodes, ids: []string{"2"}, other: quasi, want: KeyColumns{2}},
		{name: "declared order", h: edges, ids: []string{"node2", "node1"}, other: edges, want: KeyColumns{2, 0}},
		{name: "mixed", h: edges, ids: []string{"label", "0"}, other: edges, want: KeyColumns{1, 0}},
		{name: "name takes precedence over position", h: quasi, ids: []string{"3"}, other: nodes, want: KeyColumns{1}},
		{name: "case sensitive", h: nodes, ids: []string{"ID"}, other: nodes, wantKind: UnknownColumn},
		{name: "unknown name", h: nodes, ids: []string{"qid"}, other: nodes, wantKind: UnknownColumn},
		{name: "position out of range", h: nodes, ids: []string{"3"}, other: nodes, wantKind: UnknownColumn},
		{name: "negative position", h: nodes, ids: []string{"-1"}, other: nodes, wantKind: UnknownColumn},
		{name: "duplicate name", h: nodes, ids: []string{"id", "id"}, other: nodes, wantKind: DuplicateKeyColumn},
		{name: "duplicate via position", h: nodes, ids: []string{"id", "0"}, other: nodes, wantKind: DuplicateKeyColumn},

		// conventions
		{name: "node file", h: nodes, other: edges, want: KeyColumns{0}},
		{name: "edge file vs node file", h: edges, other: nodes, want: KeyColumns{0}},
		{name: "edge file vs edge file", h: edges, other: edges, want: KeyColumns{0, 1, 2}},
		{name: "edge file with id vs edge file", h: edgesWithID, other: edges, want: KeyColumns{3}},
		{name: "edge file with id vs node file", h: edgesWithID, other: nodes, want: KeyColumns{0}},
		{name: "aliases", h: aliased, other: aliased, want: KeyColumns{0, 1, 2}},
		{name: "edge file vs quasi file", h: edges, other: quasi, want: KeyColumns{0, 1, 2}},
		{name: "quasi file", h: quasi, other: nodes, wantKind: MissingKeyConfiguration},
		{name: "forced quasi file", h: nodes.WithKind(QuasiFile), other: nodes, wantKind: MissingKeyConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKeys(tt.h, tt.ids, RoleInput, tt.other)
			if tt.wantKind != UnknownKind {
				if KindOf(err) != tt.wantKind {
					t.Fatalf("ResolveKeys() error = %v, want kind %s", err, tt.wantKind)
				}
				var e *Error
				if errors.As(err, &e) && e.Role != RoleInput {
					t.Errorf("error role = %q, want %q", e.Role, RoleInput)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveKeys() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ResolveKeys() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveKeysIsPure(t *testing.T) {
	h := MustHeader("id", "name")
	ids := []string{"name", "id"}

	a, err := ResolveKeys(h, ids, RoleFilter, h)
	if err != nil {
		t.Fatal(err)
	}
	b, err := ResolveKeys(h, ids, RoleFilter, h)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("got %v then %v", a, b)
	}
	if !reflect.DeepEqual(ids, []string{"name", "id"}) {
		t.Errorf("ids modified: %v", ids)
	}
	if names := a.Names(h); !reflect.DeepEqual(names, []string{"name", "id"}) {
		t.Errorf("Names() = %v", names)
	}
}

func TestResolveKeyPair(t *testing.T) {
	in := MustHeader("id", "name")
	filter := MustHeader("qid")

	cfg := EngineConfig{InputKeys: []string{"id", "name"}, FilterKeys: []string{"qid"}}
	if _, _, err := ResolveKeyPair(cfg, in, filter); KindOf(err) != KeyCountMismatch {
		t.Errorf("ResolveKeyPair() error = %v, want %s", err, KeyCountMismatch)
	}

	cfg = EngineConfig{InputKeys: []string{"id"}, FilterKeys: []string{"qid"}}
	ik, fk, err := ResolveKeyPair(cfg, in, filter)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ik, KeyColumns{0}) || !reflect.DeepEqual(fk, KeyColumns{0}) {
		t.Errorf("ResolveKeyPair() = %v, %v", ik, fk)
	}

	cfg = EngineConfig{FilterKeys: []string{"nope"}}
	if _, _, err := ResolveKeyPair(cfg, in, filter); !errors.Is(err, ErrUnknownColumn) {
		t.Errorf("ResolveKeyPair() error = %v, want %s", err, UnknownColumn)
	}
}

func TestNewHeader(t *testing.T) {
	tests := []struct {
		names   []string
		kind    FileKind
		wantErr bool
	}{
		{names: []string{"id", "name"}, kind: NodeFile},
		{names: []string{"node1", "label", "node2", "id"}, kind: EdgeFile},
		{names: []string{"from", "to"}, kind: EdgeFile},
		{names: []string{"a", "b"}, kind: QuasiFile},
		{names: []string{"a", "a"}, wantErr: true},
		{names: []string{"a", " "}, wantErr: true},
	}
	for _, tt := range tests {
		h, err := NewHeader(tt.names)
		if (err != nil) != tt.wantErr {
			t.Fatalf("NewHeader(%q) error = %v, wantErr %t", tt.names, err, tt.wantErr)
		}
		if err == nil && h.Kind() != tt.kind {
			t.Errorf("NewHeader(%q).Kind() = %s, want %s", tt.names, h.Kind(), tt.kind)
		}
	}
}
