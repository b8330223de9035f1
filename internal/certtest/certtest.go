// Package certtest provides throwaway certificates and keys for
// pipeline tests.
package certtest

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// MkCert creates a self-signed certificate and its key.
func MkCert(t *testing.T) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()

	serialNumber, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		t.Fatalf("Failed to generate serial number: %v", err)
	}

	template := x509.Certificate{
		SerialNumber:       serialNumber,
		PublicKeyAlgorithm: x509.RSA,
		SignatureAlgorithm: x509.SHA256WithRSA,
		Subject: pkix.Name{
			Organization: []string{"Test ODM"},
		},
		NotBefore: time.Now().Add(-time.Hour),
		NotAfter:  time.Now().Add(time.Hour),
	}

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("Failed to generate key: %v", err)
	}

	certDER, err := x509.CreateCertificate(rand.Reader, &template, &template, &key.PublicKey, key)
	if err != nil {
		t.Fatalf("Failed to create certificate: %v", err)
	}

	cert, err := x509.ParseCertificate(certDER)
	if err != nil {
		t.Fatalf("Failed to parse certificate: %v", err)
	}

	return cert, key
}

// WriteCertPEM writes cert in PEM form at path and returns the DER
// bytes for digest assertions.
func WriteCertPEM(t *testing.T, fs afero.Fs, path string, cert *x509.Certificate) []byte {
	t.Helper()

	b := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	if err := afero.WriteFile(fs, path, b, 0644); err != nil {
		t.Fatalf("Failed to write certificate: %v", err)
	}
	return cert.Raw
}

// WriteKeyPairFiles lays out <prefix>.pk8 and <prefix>.x509.pem the way
// the tool expects an ODM key pair on disk.
func WriteKeyPairFiles(t *testing.T, fs afero.Fs, prefix string) (*x509.Certificate, *rsa.PrivateKey) {
	t.Helper()

	cert, key := MkCert(t)
	WriteCertPEM(t, fs, prefix+".x509.pem", cert)

	pk8, err := x509.MarshalPKCS8PrivateKey(key)
	if err != nil {
		t.Fatalf("Failed to marshal PKCS8 key: %v", err)
	}
	if err := afero.WriteFile(fs, prefix+".pk8", pk8, 0600); err != nil {
		t.Fatalf("Failed to write PKCS8 key: %v", err)
	}

	return cert, key
}
