package authvar

import (
	"bytes"
	"context"
	"log"
	"os/exec"
	"strings"
	"time"
)

// CertConverter turns a PEM certificate into DER form.
type CertConverter interface {
	DERFromPEM(certPath, derPath string) error
}

// KeyConverter turns a PKCS8 DER private key into an unencrypted PEM
// key the signer can load.
type KeyConverter interface {
	PEMFromPKCS8(pk8Path, pemPath, password string) error
}

// SignParams is the input tuple for one authenticated-variable signing
// operation. The signer writes the signed blob to OutputPath.
type SignParams struct {
	Timestamp   string
	CertPath    string
	GUID        string
	KeyPath     string
	Name        string
	PayloadPath string
	OutputPath  string
}

// Signer produces a signed authenticated-variable blob.
type Signer interface {
	Sign(p SignParams) error
}

// Runner shells out to the external tools. Verbose echoes each command
// line before it runs. Timeout bounds each call; zero waits forever.
type Runner struct {
	Verbose bool
	Timeout time.Duration
}

func (r *Runner) run(stdin string, name string, args ...string) error {
	ctx := context.Background()
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if r.Verbose {
		log.Printf("exec: %s %s", name, strings.Join(args, " "))
	}
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: name, Stderr: stderr.String(), Err: err}
	}
	return nil
}

// OpenSSL implements both format conversions by shelling out to
// openssl.
type OpenSSL struct {
	Runner
}

func (o *OpenSSL) DERFromPEM(certPath, derPath string) error {
	return o.run("", "openssl", "x509",
		"-in", certPath, "-inform", "PEM",
		"-out", derPath, "-outform", "DER")
}

// PEMFromPKCS8 converts the key. A password travels over stdin so it
// never shows up in the process list.
func (o *OpenSSL) PEMFromPKCS8(pk8Path, pemPath, password string) error {
	args := []string{"pkcs8", "-inform", "DER", "-in", pk8Path, "-out", pemPath}
	var stdin string
	if password == "" {
		args = append(args, "-nocrypt")
	} else {
		args = append(args, "-passin", "stdin")
		stdin = password + "\n"
	}
	return o.run(stdin, "openssl", args...)
}

// SignTool invokes the external authenticated-variable signer.
type SignTool struct {
	Runner
}

func (s *SignTool) Sign(p SignParams) error {
	return s.run("", "sign-efi-sig-list",
		"-t", p.Timestamp,
		"-c", p.CertPath,
		"-g", p.GUID,
		"-k", p.KeyPath,
		p.Name, p.PayloadPath, p.OutputPath)
}
