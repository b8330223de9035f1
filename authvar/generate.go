package authvar

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/odmtools/blpolicy/oemvars"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// TimestampFormat is the calendar form the external signer expects:
// a 12-hour clock with no AM/PM marker.
const TimestampFormat = "2006-01-02 03:04:05"

// FormatTimestamp renders a unix timestamp for the signer. The
// conversion goes through local calendar time on purpose; devices were
// provisioned against local-time stamps and a switch to UTC would move
// stamps across DST boundaries.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).Format(TimestampFormat)
}

// Generator drives the signing pipeline. The filesystem and the three
// external tools are injectable so tests can substitute deterministic
// fakes for openssl and the signer.
type Generator struct {
	Fs    afero.Fs
	Certs CertConverter
	Keys  KeyConverter
	Sign  Signer
}

// NewGenerator returns a Generator backed by the host filesystem and
// the real external tools.
func NewGenerator(verbose bool, timeout time.Duration) *Generator {
	r := Runner{Verbose: verbose, Timeout: timeout}
	return &Generator{
		Fs:    afero.NewOsFs(),
		Certs: &OpenSSL{r},
		Keys:  &OpenSSL{r},
		Sign:  &SignTool{r},
	}
}

// Run executes the full pipeline: an enable document at output and,
// when the request asks for one, a companion disable document. If the
// disable document fails the already written enable document stays on
// disk.
func (g *Generator) Run(r *Request, output string) error {
	if err := r.Validate(); err != nil {
		return err
	}

	var vars []VariablePayload
	if r.OAKCertPath != "" {
		der, err := g.normalizeCert(r.OAKCertPath)
		if err != nil {
			return errors.Wrap(err, "converting OAK certificate")
		}
		vars = append(vars, VariablePayload{Name: VarOAK, Data: OAKPayload(der)})
	}
	if r.BPMValue != 0 {
		vars = append(vars, VariablePayload{Name: VarBPM, Data: BPMPayload(r.BPMValue)})
	}

	if err := g.writeDocument(r, output, r.Timestamp, vars, false); err != nil {
		return err
	}
	if r.DisablePath != "" {
		cleared := make([]VariablePayload, 0, len(vars))
		for _, v := range vars {
			cleared = append(cleared, VariablePayload{Name: v.Name})
		}
		// The firmware only accepts updates with a newer timestamp, so
		// the disable document signs at T+1.
		if err := g.writeDocument(r, r.DisablePath, r.Timestamp+1, cleared, true); err != nil {
			return errors.Wrap(err, "writing disable document")
		}
	}
	return nil
}

func (g *Generator) writeDocument(r *Request, path string, ts int64, vars []VariablePayload, clear bool) error {
	doc := oemvars.Document{GUID: GUID, Clear: clear}
	for _, v := range vars {
		blob, err := g.signVariable(ts, r, v.Name, v.Data)
		if err != nil {
			return errors.Wrapf(err, "signing %s", v.Name)
		}
		doc.Sections = append(doc.Sections, oemvars.Section{Name: v.Name, Data: blob})
	}
	return afero.WriteFile(g.Fs, path, doc.Bytes(), 0644)
}

// normalizeCert converts the PEM certificate to DER and returns the raw
// DER bytes. The intermediate file is removed on every path.
func (g *Generator) normalizeCert(certPath string) ([]byte, error) {
	der, err := g.tempFile("blpolicy-der-")
	if err != nil {
		return nil, err
	}
	defer g.Fs.Remove(der)
	if err := g.Certs.DERFromPEM(certPath, der); err != nil {
		return nil, err
	}
	return afero.ReadFile(g.Fs, der)
}

// normalizeKey produces a PEM private key the signer can load. A
// pre-converted <prefix>.pem sibling is used as-is; that is the escape
// hatch for keys openssl cannot parse, such as references to
// hardware-backed keys. The returned cleanup removes the key only when
// it was converted here.
func (g *Generator) normalizeKey(pk8Path, password string) (string, func(), error) {
	sibling := strings.TrimSuffix(pk8Path, filepath.Ext(pk8Path)) + ".pem"
	if ok, _ := afero.Exists(g.Fs, sibling); ok {
		return sibling, func() {}, nil
	}
	pem, err := g.tempFile("blpolicy-key-")
	if err != nil {
		return "", nil, err
	}
	if err := g.Keys.PEMFromPKCS8(pk8Path, pem, password); err != nil {
		g.Fs.Remove(pem)
		return "", nil, err
	}
	return pem, func() { g.Fs.Remove(pem) }, nil
}

// signVariable runs one signing operation and returns the signed blob.
// The payload file, the converted key and the signer output are all
// removed before returning, on success and failure alike.
func (g *Generator) signVariable(ts int64, r *Request, name string, payload []byte) ([]byte, error) {
	keyPath, keyCleanup, err := g.normalizeKey(r.pk8Path(), r.Password)
	if err != nil {
		return nil, err
	}
	defer keyCleanup()

	// A disable document signs an empty payload; the signer still wants
	// a file to read it from.
	payloadPath, err := g.tempFile("blpolicy-payload-")
	if err != nil {
		return nil, err
	}
	defer g.Fs.Remove(payloadPath)
	if err := afero.WriteFile(g.Fs, payloadPath, payload, 0600); err != nil {
		return nil, err
	}

	outPath, err := g.tempFile("blpolicy-auth-")
	if err != nil {
		return nil, err
	}
	defer g.Fs.Remove(outPath)

	err = g.Sign.Sign(SignParams{
		Timestamp:   FormatTimestamp(ts),
		CertPath:    r.certPath(),
		GUID:        GUID,
		KeyPath:     keyPath,
		Name:        name,
		PayloadPath: payloadPath,
		OutputPath:  outPath,
	})
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(g.Fs, outPath)
}

// tempFile reserves a uniquely named file and hands back its path; the
// external tools want paths, not handles.
func (g *Generator) tempFile(prefix string) (string, error) {
	f, err := afero.TempFile(g.Fs, "", prefix)
	if err != nil {
		return "", err
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		g.Fs.Remove(name)
		return "", err
	}
	return name, nil
}
