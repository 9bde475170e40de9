// Package source reads fatal error logs from files, gzip archives and stdin.
package source

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// maxLine bounds a single log line. Dynamic library rows and long
// command lines can be large; anything past the bound is dropped.
const maxLine = 1024 * 1024

var gzipMagic = []byte{0x1f, 0x8b}

// ReadFile reads the log at path, or stdin when path is "-".
func ReadFile(path string) ([]string, error) {
	if path == Stdin {
		return ReadLines(os.Stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}
	defer f.Close()

	lines, err := ReadLines(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return lines, nil
}

// ReadLines splits r into lines without terminators. Gzip input is
// detected by its magic bytes and decompressed transparently.
func ReadLines(r io.Reader) ([]string, error) {
	br := bufio.NewReader(r)
	if magic, _ := br.Peek(len(gzipMagic)); bytes.Equal(magic, gzipMagic) {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		defer zr.Close()
		slog.Debug("reading gzip-compressed log")
		return scan(zr)
	}
	return scan(br)
}

// scan splits r into lines. A line longer than maxLine keeps its first
// maxLine bytes; the rest is dropped.
func scan(r io.Reader) ([]string, error) {
	br := bufio.NewReaderSize(r, 64*1024)

	var (
		lines     []string
		cur       []byte
		dropping  bool
		truncated int
	)
	for {
		frag, more, err := br.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("scanning lines: %w", err)
		}
		if !dropping {
			if room := maxLine - len(cur); len(frag) > room {
				frag = frag[:room]
				dropping = true
				truncated++
			}
			cur = append(cur, frag...)
		}
		if more {
			continue
		}
		lines = append(lines, strings.TrimSuffix(string(cur), "\r"))
		cur = cur[:0]
		dropping = false
	}
	if truncated > 0 {
		slog.Warn("long lines truncated", "lines", truncated, "max_bytes", maxLine)
	}
	slog.Debug("log read", "lines", len(lines))
	return lines, nil
}
