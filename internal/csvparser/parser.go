// =============================================================================
// Proposal Reconciler - Tabular Decoder
// =============================================================================
//
// This module turns an extract into a header row and data rows. The Sales and
// Items extracts come out of a legacy reporting tool as semicolon separated
// text, usually in a Windows code page.
//
// FEATURES:
//   - Decoding of the source encoding to UTF-8 (utf-8, iso-8859-1, windows-1252)
//   - Mixed line endings (CRLF, lone CR, LF)
//   - Trailing whitespace and blank lines are ignored
//   - Rows keep their own length; short rows are not padded
//
// LIMITATIONS:
//   There is no quoting or escaping. A delimiter inside a field splits the
//   field and shifts every following column of that row. The extracts never
//   quote, so this is accepted rather than guessed around.
//
// =============================================================================

package csvparser

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// Fatal input errors.
var (
	// ErrUnsupportedEncoding is returned for an unknown encoding label.
	ErrUnsupportedEncoding = errors.New("unsupported encoding")

	// ErrInvalidText is returned when bytes are not valid in the declared encoding.
	ErrInvalidText = errors.New("input is not valid text in the declared encoding")
)

// DefaultDelimiter is the field separator used by both extracts.
const DefaultDelimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// =============================================================================
// TABLE STRUCTURE
// =============================================================================

// Table is a decoded extract.
type Table struct {
	// Header holds the trimmed labels of the first non-empty line.
	Header []string

	// Rows holds every following non-empty line split on the delimiter.
	// A row may be shorter or longer than Header.
	Rows [][]string
}

// =============================================================================
// DECODER FUNCTIONS
// =============================================================================

// Decode splits decoded text into a header and data rows.
//
// PARSING PROCESS:
//  1. Normalize CRLF and lone CR to LF
//  2. Trim trailing whitespace from every line and drop empty lines
//  3. Split the first line into the header (labels trimmed)
//  4. Split every other line into a row (cells kept as is)
//
// Empty input yields an empty header and no rows.
func Decode(text string, delimiter rune) *Table {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := make([]string, 0, strings.Count(text, "\n")+1)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	table := &Table{Header: []string{}, Rows: [][]string{}}
	if len(lines) == 0 {
		return table
	}

	sep := string(delimiter)

	header := strings.Split(lines[0], sep)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	table.Header = header

	for _, line := range lines[1:] {
		table.Rows = append(table.Rows, strings.Split(line, sep))
	}

	return table
}

// DecodeBytes converts raw extract bytes to UTF-8 text.
//
// PARAMETERS:
//   - raw: The file content.
//   - encodingName: The caller-selected encoding label. Empty means UTF-8.
//
// RETURNS:
//   - The decoded text, without a leading UTF-8 byte order mark.
//   - ErrUnsupportedEncoding or ErrInvalidText (wrapped) on failure.
func DecodeBytes(raw []byte, encodingName string) (string, error) {
	enc, err := lookupEncoding(encodingName)
	if err != nil {
		return "", err
	}

	if enc == nil {
		raw = bytes.TrimPrefix(raw, utf8BOM)
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%w: %s", ErrInvalidText, encodingName)
		}
		return string(raw), nil
	}

	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidText, err)
	}
	return string(bytes.TrimPrefix(out, utf8BOM)), nil
}

// ReadFile reads and decodes an extract from disk.
func ReadFile(filePath, encodingName string) (string, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	text, err := DecodeBytes(raw, encodingName)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", filePath, err)
	}
	return text, nil
}

// lookupEncoding maps an encoding label to a decoder. A nil encoding means
// the input is already UTF-8.
//
// CUSTOMIZATION: Add labels here when a new export tool shows up.
func lookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "iso-8859-1", "iso8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1, nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
}
