package testutil

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"testing"
)

var UpdateGolden = flag.Bool("update", false, "update golden files")

// DiffWithGolden compares src, the content of a KGTK file, with the golden
// file at path golden. Golden files may have been checked out with CRLF line
// endings, which are ignored. With -update, the golden file is overwritten
// with src instead.
func DiffWithGolden(t *testing.T, src []byte, golden string) {
	t.Helper()

	if *UpdateGolden {
		if err := os.WriteFile(golden, src, 0644); err != nil {
			t.Errorf("can't update golden file %s: %v", golden, err)
		}
		return
	}

	goldbuf, err := os.ReadFile(golden)
	if err != nil {
		t.Errorf("can't read golden file %s: %v", golden, err)
		return
	}

	DiffBytes(t, golden, "actual", bytes.ReplaceAll(goldbuf, []byte("\r\n"), []byte("\n")), src)
}

// DiffBytes fails the test if the KGTK contents a and b differ, showing the
// first differing line of each.
func DiffBytes(t *testing.T, aname, bname string, a, b []byte) {
	t.Helper()

	if msg := diffKGTK(aname, bname, a, b); msg != "" {
		t.Error(msg)
	}
}

// diffKGTK describes the first difference between a and b, line by line. The
// first line is the header. Tabs are shown as → so that misplaced separators
// stand out. It returns "" if a and b are equal.
func diffKGTK(aname, bname string, a, b []byte) string {
	if bytes.Equal(a, b) {
		return ""
	}

	alines, blines := splitLines(a), splitLines(b)

	var buf bytes.Buffer
	if len(alines) != len(blines) {
		fmt.Fprintf(&buf, "\n%s has %d rows, %s has %d rows", aname, rowCount(alines), bname, rowCount(blines))
	}

	for i := 0; i < len(alines) || i < len(blines); i++ {
		al, bl := lineAt(alines, i), lineAt(blines, i)
		if bytes.Equal(al, bl) {
			continue
		}
		what := fmt.Sprintf("row %d", i)
		if i == 0 {
			what = "header"
		}
		fmt.Fprintf(&buf, "\n%s differs:\n%s:%d: %s\n%s:%d: %s\n", what, aname, i+1, showTabs(al), bname, i+1, showTabs(bl))
		break
	}
	if buf.Len() == 0 {
		// Same lines, the difference is in the trailing line break.
		fmt.Fprintf(&buf, "\n%s and %s differ in their final line break", aname, bname)
	}
	return buf.String()
}

func splitLines(text []byte) [][]byte {
	if len(text) == 0 {
		return nil
	}
	return bytes.Split(bytes.TrimSuffix(text, []byte("\n")), []byte("\n"))
}

func rowCount(lines [][]byte) int {
	if len(lines) == 0 {
		return 0
	}
	return len(lines) - 1
}

func lineAt(lines [][]byte, i int) []byte {
	if i >= len(lines) {
		return []byte("<missing>")
	}
	return lines[i]
}

func showTabs(line []byte) []byte {
	return bytes.ReplaceAll(line, []byte("\t"), []byte("→"))
}
