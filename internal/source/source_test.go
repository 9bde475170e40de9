package source

import (
	"bytes"
	"compress/gzip"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestReadLines(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"empty", "", nil},
		{"single without newline", "END.", []string{"END."}},
		{"trailing newline", "a\nb\n", []string{"a", "b"}},
		{"crlf", "#  SIGSEGV (0xb)\r\nEND.\r\n", []string{"#  SIGSEGV (0xb)", "END."}},
		{"blank lines kept", "a\n\nb\n", []string{"a", "", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadLines(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("ReadLines() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ReadLines() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestReadLinesGzip(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte("# Problematic frame:\n# C  [libfoo.so+0x10]  bar\nEND.\n")); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadLines(&buf)
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	want := []string{"# Problematic frame:", "# C  [libfoo.so+0x10]  bar", "END."}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadLines() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadLinesCorruptGzip(t *testing.T) {
	_, err := ReadLines(bytes.NewReader([]byte{0x1f, 0x8b, 0x00, 0x01}))
	if err == nil {
		t.Error("expected error for a corrupt gzip stream")
	}
}

func TestReadLinesTruncatesLongLines(t *testing.T) {
	in := "uname:Linux\n" + strings.Repeat("x", maxLine+100) + "\r\nEND.\n"
	got, err := ReadLines(strings.NewReader(in))
	if err != nil {
		t.Fatalf("ReadLines() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadLines() = %d lines, want 3", len(got))
	}
	if len(got[1]) != maxLine || strings.Trim(got[1], "x") != "" {
		t.Errorf("long line = %d bytes, want %d", len(got[1]), maxLine)
	}
	if got[0] != "uname:Linux" || got[2] != "END." {
		t.Errorf("neighbours = %q, %q", got[0], got[2])
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hs_err_pid1.log")
	if err := os.WriteFile(path, []byte("uname:Linux\nEND.\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if len(got) != 2 || got[1] != "END." {
		t.Errorf("ReadFile() = %q", got)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "nope.log"))
	if err == nil {
		t.Fatal("expected error for a missing file")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error = %v, want a not-exist error", err)
	}
}
