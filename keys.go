package ifexists

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFieldSeparator separates the field values of multi-column keys.
const DefaultFieldSeparator = "|"

// KeyColumns is the ordered list of fields forming the composite key of a
// file.
type KeyColumns []FieldIndex

// Key builds the composite key of row, by joining the values of the key
// fields, in order, with sep.
//
// Key expects a well-formed row, that is one having at least as many fields
// as the header the key columns were resolved against.
func (k KeyColumns) Key(row Row, sep string) string {
	switch len(k) {
	case 0:
		return ""
	case 1:
		return row[k[0]]
	}

	n := len(sep) * (len(k) - 1)
	for _, idx := range k {
		n += len(row[idx])
	}

	var sb strings.Builder
	sb.Grow(n)
	for i, idx := range k {
		if i > 0 {
			sb.WriteString(sep)
		}
		sb.WriteString(row[idx])
	}
	return sb.String()
}

// Names returns the names of the key columns, as found in h.
func (k KeyColumns) Names(h Header) []string {
	names := make([]string, len(k))
	for i, idx := range k {
		names[i] = h.Name(idx)
	}
	return names
}

// ResolveKeys resolves the key columns of the file with header h and the
// given role.
//
// ids are column names or 0-based column positions. A name is looked up
// first, so a column named "3" is selected by "3" even if it isn't at
// position 3.
//
// When ids is empty, the conventional key columns are used; they depend on
// the kinds of both h and other, the header of the other file:
//   - node file: id
//   - edge file, other is a node file: node1
//   - edge file, other is an edge file: id if present, else node1, label, node2
//
// Any other case is a MissingKeyConfiguration error.
func ResolveKeys(h Header, ids []string, role Role, other Header) (KeyColumns, error) {
	if len(ids) == 0 {
		return DefaultKeys(h, role, other)
	}

	keys := make(KeyColumns, 0, len(ids))
	seen := make(map[FieldIndex]string, len(ids))
	for _, id := range ids {
		idx, err := resolveColumn(h, id)
		if err != nil {
			return nil, &Error{Kind: UnknownColumn, Role: role, Msg: err.Error()}
		}
		if prev, ok := seen[idx]; ok {
			return nil, &Error{
				Kind: DuplicateKeyColumn,
				Role: role,
				Msg:  fmt.Sprintf("key columns %q and %q both select column %q", prev, id, h.Name(idx)),
			}
		}
		seen[idx] = id
		keys = append(keys, idx)
	}
	return keys, nil
}

func resolveColumn(h Header, id string) (FieldIndex, error) {
	if idx, ok := h.FieldByName(id); ok {
		return idx, nil
	}
	if !isDigits(id) {
		return -1, fmt.Errorf("no such column %q", id)
	}
	pos, err := strconv.Atoi(id)
	if err != nil || pos >= h.Len() {
		return -1, fmt.Errorf("column position %s out of range (file has %d columns)", id, h.Len())
	}
	return FieldIndex(pos), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// DefaultKeys returns the conventional key columns of the file with header h,
// given the header of the other file. See ResolveKeys.
func DefaultKeys(h Header, role Role, other Header) (KeyColumns, error) {
	missing := func(format string, args ...interface{}) error {
		return &Error{Kind: MissingKeyConfiguration, Role: role, Msg: fmt.Sprintf(format, args...)}
	}

	switch h.Kind() {
	case NodeFile:
		idx, ok := h.Conventional(ColumnID)
		if !ok {
			return nil, missing("the id column is missing from the node file")
		}
		return KeyColumns{idx}, nil

	case EdgeFile:
		if other.Kind() == NodeFile {
			idx, ok := h.Conventional(ColumnNode1)
			if !ok {
				return nil, missing("the node1 column is missing from the edge file")
			}
			return KeyColumns{idx}, nil
		}
		if idx, ok := h.Conventional(ColumnID); ok {
			return KeyColumns{idx}, nil
		}
		keys := make(KeyColumns, 0, 3)
		for _, col := range []string{ColumnNode1, ColumnLabel, ColumnNode2} {
			idx, ok := h.Conventional(col)
			if !ok {
				return nil, missing("the %s column is missing from the edge file", col)
			}
			keys = append(keys, idx)
		}
		return keys, nil
	}

	return nil, missing("the file is neither an edge nor a node file, please supply its key columns")
}
