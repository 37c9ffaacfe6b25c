package ifexists

import (
	"fmt"
	"strings"
)

// FieldIndex is the 0-based position of a field in a Row.
type FieldIndex int

// Row is the basic object being processed by the engine: the ordered string
// fields of one line of a tabular file. Rows are never modified once read.
type Row []string

// Role tells which of the two tabular sources a reader, an option set or an
// error belongs to.
type Role string

const (
	RoleInput  Role = "input"
	RoleFilter Role = "filter"
)

// FileKind is the kind of a tabular file, as inferred from its header.
type FileKind int

const (
	// QuasiFile is a file which is neither an edge file nor a node file. No key
	// column convention exists for it.
	QuasiFile FileKind = iota
	// EdgeFile has a node1 column (or one of its aliases).
	EdgeFile
	// NodeFile has an id column and no node1 column.
	NodeFile
)

func (k FileKind) String() string {
	switch k {
	case EdgeFile:
		return "edge"
	case NodeFile:
		return "node"
	}
	return "quasi"
}

// Conventional column names, and the aliases accepted for each of them.
const (
	ColumnID    = "id"
	ColumnNode1 = "node1"
	ColumnLabel = "label"
	ColumnNode2 = "node2"
)

var columnAliases = map[string][]string{
	ColumnNode1: {ColumnNode1, "from", "subject"},
	ColumnLabel: {ColumnLabel, "predicate", "relation", "relationship"},
	ColumnNode2: {ColumnNode2, "to", "object"},
	ColumnID:    {ColumnID},
}

// Header holds the ordered, unique column names of a file and the
// name→index mapping derived from them.
type Header struct {
	names []string
	index map[string]FieldIndex
	kind  FileKind
}

// NewHeader builds a Header from the column names found on the first line of
// a file. The kind of the file is inferred from the column names. Empty or
// duplicated column names are rejected.
func NewHeader(names []string) (Header, error) {
	h := Header{
		names: make([]string, len(names)),
		index: make(map[string]FieldIndex, len(names)),
	}
	copy(h.names, names)

	for i, name := range h.names {
		if strings.TrimSpace(name) == "" {
			return Header{}, fmt.Errorf("column %d has an empty name", i)
		}
		if prev, ok := h.index[name]; ok {
			return Header{}, fmt.Errorf("column %q appears twice (positions %d and %d)", name, prev, i)
		}
		h.index[name] = FieldIndex(i)
	}

	h.kind = QuasiFile
	if _, ok := h.Conventional(ColumnNode1); ok {
		h.kind = EdgeFile
	} else if _, ok := h.Conventional(ColumnID); ok {
		h.kind = NodeFile
	}
	return h, nil
}

// MustHeader is like NewHeader but panics on error. It's meant to be used in
// tests and for static headers.
func MustHeader(names ...string) Header {
	h, err := NewHeader(names)
	if err != nil {
		panic(err)
	}
	return h
}

// WithKind returns a copy of h with its kind forced to k.
func (h Header) WithKind(k FileKind) Header {
	h.kind = k
	return h
}

// Kind returns the kind of file h belongs to.
func (h Header) Kind() FileKind { return h.kind }

// Len returns the number of columns.
func (h Header) Len() int { return len(h.names) }

// Names returns a copy of the column names, in order.
func (h Header) Names() []string {
	names := make([]string, len(h.names))
	copy(names, h.names)
	return names
}

// Name returns the name of the column at index idx.
func (h Header) Name(idx FieldIndex) string { return h.names[idx] }

// FieldByName returns the index of the column named name. The lookup is case
// sensitive.
func (h Header) FieldByName(name string) (FieldIndex, bool) {
	idx, ok := h.index[name]
	return idx, ok
}

// Conventional returns the index of the conventional column col (one of
// ColumnID, ColumnNode1, ColumnLabel or ColumnNode2), looking for the column
// itself and then for its aliases.
func (h Header) Conventional(col string) (FieldIndex, bool) {
	for _, name := range columnAliases[col] {
		if idx, ok := h.index[name]; ok {
			return idx, true
		}
	}
	return -1, false
}
