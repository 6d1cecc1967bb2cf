// Package archive decodes extraction archives downloaded from the provider.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
)

// MaxMemberSize caps the uncompressed size of a single archive member.
const MaxMemberSize = 256 << 20

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Member is one decoded text file from an archive.
type Member struct {
	Name string
	Text string
}

// Open unzips data in memory and returns its .csv/.txt members in archive
// order, decoded to UTF-8. Directories and other entries are skipped.
func Open(data []byte) ([]Member, error) {
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, eris.Wrap(err, "archive: open zip")
	}

	var members []Member
	for _, f := range r.File {
		if f.FileInfo().IsDir() || !isTextMember(f.Name) {
			continue
		}
		if illegalName(f.Name) {
			return nil, eris.Errorf("archive: illegal member name %q", f.Name)
		}
		if f.UncompressedSize64 > MaxMemberSize {
			return nil, eris.Errorf("archive: member %q too large (%d bytes)", f.Name, f.UncompressedSize64)
		}

		raw, err := readMember(f)
		if err != nil {
			return nil, err
		}
		text, err := decode(raw)
		if err != nil {
			return nil, eris.Wrapf(err, "archive: decode %s", f.Name)
		}
		members = append(members, Member{Name: f.Name, Text: text})
	}
	return members, nil
}

// illegalName reports absolute names and names with a ".." path segment.
func illegalName(name string) bool {
	name = strings.ReplaceAll(name, `\`, "/")
	return path.IsAbs(name) || slices.Contains(strings.Split(name, "/"), "..")
}

func isTextMember(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".csv", ".txt":
		return true
	}
	return false
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "archive: open member %s", f.Name)
	}
	defer rc.Close() //nolint:errcheck

	// The header size can lie; enforce the cap on what is actually read.
	raw, err := io.ReadAll(io.LimitReader(rc, MaxMemberSize+1))
	if err != nil {
		return nil, eris.Wrapf(err, "archive: read member %s", f.Name)
	}
	if len(raw) > MaxMemberSize {
		return nil, eris.Errorf("archive: member %q too large", f.Name)
	}
	return raw, nil
}

// decode strips a UTF-8 BOM and falls back to Windows-1252, which is what
// the provider emits for legacy exports.
func decode(raw []byte) (string, error) {
	raw = bytes.TrimPrefix(raw, utf8BOM)
	if utf8.Valid(raw) {
		return string(raw), nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
