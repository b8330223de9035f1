// Package oemvars emits the text document format a firmware flashing
// tool parses to apply authenticated variables. The format is line
// oriented and byte exact; callers must write documents in binary mode.
package oemvars

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Section is one authenticated variable entry. Data is the signed blob
// exactly as the signer produced it, never parsed here.
type Section struct {
	Name string
	Data []byte
}

// Document is a single oemvars file: a header comment, a GUID line and
// an ordered list of [ad] sections.
type Document struct {
	GUID     string
	Sections []Section
	// Clear marks a document that wipes the variables it names. It
	// changes the header verb and adds a warning line.
	Clear bool
}

// Human readable names used in the header comment.
var displayNames = map[string]string{
	"OAK": "OAK certificate",
	"BPM": "Bootloader Policy",
}

func displayName(name string) string {
	if s, ok := displayNames[name]; ok {
		return s
	}
	return name
}

// Escape percent-encodes every byte of b as two lowercase hex digits.
// Unlike URL escaping no byte is exempt; the flashing tool expects the
// entire blob encoded.
func Escape(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for _, c := range b {
		fmt.Fprintf(&sb, "%%%02x", c)
	}
	return sb.String()
}

// Unescape is the exact inverse of Escape.
func Unescape(s string) ([]byte, error) {
	if len(s)%3 != 0 {
		return nil, fmt.Errorf("truncated escape sequence in %q", s)
	}
	b := make([]byte, 0, len(s)/3)
	for i := 0; i < len(s); i += 3 {
		if s[i] != '%' {
			return nil, fmt.Errorf("expected '%%' at offset %d of %q", i, s)
		}
		c, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
		if err != nil {
			return nil, fmt.Errorf("bad escape at offset %d of %q: %w", i, s, err)
		}
		b = append(b, byte(c))
	}
	return b, nil
}

// Serialize writes the document to w. Layout: one comment line naming
// the operation and the affected variables, the warning line for clear
// documents, the GUID line, then every section framed by blank lines.
func (d *Document) Serialize(w io.Writer) error {
	names := make([]string, 0, len(d.Sections))
	for _, s := range d.Sections {
		names = append(names, displayName(s.Name))
	}
	verb := "Set"
	if d.Clear {
		verb = "Clear"
	}
	if _, err := fmt.Fprintf(w, "# %s the %s\n", verb, strings.Join(names, " and ")); err != nil {
		return err
	}
	if d.Clear {
		if _, err := io.WriteString(w, "# WARNING: the secured variables will be cleared when this file is applied\n"); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "GUID = %s\n", d.GUID); err != nil {
		return err
	}
	for _, s := range d.Sections {
		if _, err := fmt.Fprintf(w, "\n[ad] %s %s\n\n", s.Name, Escape(s.Data)); err != nil {
			return err
		}
	}
	return nil
}

// Bytes serializes the document into memory.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	d.Serialize(&buf)
	return buf.Bytes()
}
