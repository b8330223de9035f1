package oemvars

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscape(t *testing.T) {
	for _, tt := range []struct {
		in  []byte
		out string
	}{
		{[]byte{}, ""},
		{[]byte{0x00}, "%00"},
		{[]byte{0x00, 0xab, 0xff}, "%00%ab%ff"},
		{[]byte("AB"), "%41%42"},
	} {
		assert.Equal(t, tt.out, Escape(tt.in))
	}
}

func TestEscapeRoundTrip(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	for _, in := range [][]byte{
		{0x01},
		{0xde, 0xad, 0xbe, 0xef},
		[]byte("every byte of a signed blob gets encoded"),
		all,
	} {
		got, err := Unescape(Escape(in))
		require.NoError(t, err)
		assert.Equal(t, in, got)
	}
}

func TestUnescapeRejectsMalformedInput(t *testing.T) {
	for _, in := range []string{
		"%0",    // truncated
		"ab%cd", // does not start with %
		"%zz",   // not hex
		"%41x42",
	} {
		_, err := Unescape(in)
		assert.Error(t, err, "input %q", in)
	}
}

const testGUID = "1ac80a82-4f0c-456b-9a99-debeb431fcc1"

func TestSerializeOAKOnly(t *testing.T) {
	doc := Document{
		GUID:     testGUID,
		Sections: []Section{{Name: "OAK", Data: []byte{0x01, 0x02}}},
	}
	want := "# Set the OAK certificate\n" +
		"GUID = " + testGUID + "\n" +
		"\n[ad] OAK %01%02\n\n"
	assert.Equal(t, want, string(doc.Bytes()))
}

func TestSerializeBPMOnly(t *testing.T) {
	doc := Document{
		GUID:     testGUID,
		Sections: []Section{{Name: "BPM", Data: []byte{0xff}}},
	}
	want := "# Set the Bootloader Policy\n" +
		"GUID = " + testGUID + "\n" +
		"\n[ad] BPM %ff\n\n"
	assert.Equal(t, want, string(doc.Bytes()))
}

func TestSerializeBothVariables(t *testing.T) {
	doc := Document{
		GUID: testGUID,
		Sections: []Section{
			{Name: "OAK", Data: []byte{0x0a}},
			{Name: "BPM", Data: []byte{0x0b}},
		},
	}
	want := "# Set the OAK certificate and Bootloader Policy\n" +
		"GUID = " + testGUID + "\n" +
		"\n[ad] OAK %0a\n\n" +
		"\n[ad] BPM %0b\n\n"
	assert.Equal(t, want, string(doc.Bytes()))
}

func TestSerializeClearDocument(t *testing.T) {
	doc := Document{
		GUID:  testGUID,
		Clear: true,
		Sections: []Section{
			{Name: "OAK", Data: []byte{0x0a}},
			{Name: "BPM", Data: []byte{0x0b}},
		},
	}
	want := "# Clear the OAK certificate and Bootloader Policy\n" +
		"# WARNING: the secured variables will be cleared when this file is applied\n" +
		"GUID = " + testGUID + "\n" +
		"\n[ad] OAK %0a\n\n" +
		"\n[ad] BPM %0b\n\n"
	assert.Equal(t, want, string(doc.Bytes()))
}

func TestSerializeWriterMatchesBytes(t *testing.T) {
	doc := Document{
		GUID:     testGUID,
		Sections: []Section{{Name: "OAK", Data: []byte{0xde, 0xad}}},
	}
	var buf bytes.Buffer
	require.NoError(t, doc.Serialize(&buf))
	assert.Equal(t, doc.Bytes(), buf.Bytes())
}
