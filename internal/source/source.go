// Package source reads product spreadsheets into core rows.
//
// Uploaded and downloaded files are held in memory (their size is capped
// upstream), parsed once, and exposed as core.RowSource values that also
// report their file name and content checksum.
package source

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/cespare/xxhash/v2"
)

// ErrUnsupportedFile is returned by Open for content that is neither xlsx nor csv.
var ErrUnsupportedFile = errors.New("unsupported file type")

// zipMagic starts every xlsx (an OOXML zip container).
var zipMagic = []byte("PK\x03\x04")

// Open picks a parser by file extension, falling back to content sniffing.
// name is the source name used in run history.
func Open(name, fileName string, data []byte) (core.RowSource, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty file: %s", fileName)
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return NewXLSX(name, fileName, data), nil
	case ".csv", ".txt":
		return NewCSV(name, fileName, data), nil
	}

	if bytes.HasPrefix(data, zipMagic) {
		return NewXLSX(name, fileName, data), nil
	}
	if looksLikeText(data) {
		return NewCSV(name, fileName, data), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, fileName)
}

// Checksum returns the hex xxhash64 of data.
func Checksum(data []byte) string {
	digest := xxhash.New()
	_, _ = digest.Write(data)
	return hex.EncodeToString(digest.Sum(nil))
}

// file holds what every in-memory source shares.
type file struct {
	name     string
	fileName string
	data     []byte
	checksum string
}

func newFile(name, fileName string, data []byte) file {
	return file{name: name, fileName: fileName, data: data, checksum: Checksum(data)}
}

func (f file) Name() string     { return f.name }
func (f file) FileName() string { return f.fileName }
func (f file) Checksum() string { return f.checksum }

// buildRows turns a header row and data rows into core rows. Positions are
// sheet line numbers: the header is line 1. Fully blank lines are dropped.
func buildRows(header []string, lines [][]string) []core.Row {
	idx := core.MakeHeaderIndex(header)
	rows := make([]core.Row, 0, len(lines))
	for i, cells := range lines {
		if blank(cells) {
			continue
		}
		rows = append(rows, idx.Row(i+2, cells))
	}
	return rows
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// looksLikeText reports whether the first KB has no NUL bytes.
func looksLikeText(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return !bytes.ContainsRune(head, 0)
}
