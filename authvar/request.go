package authvar

import "strconv"

// GUID scopes every variable this tool signs, in both the enable and
// the disable document.
const GUID = "1ac80a82-4f0c-456b-9a99-debeb431fcc1"

// Variable names consumed by the firmware.
const (
	VarOAK = "OAK"
	VarBPM = "BPM"
)

// Request holds the resolved inputs for one run. It is built once from
// the command line and only read afterwards.
type Request struct {
	// KeyPairPrefix names <prefix>.pk8 and <prefix>.x509.pem.
	KeyPairPrefix string
	// OAKCertPath is the PEM certificate whose DER digest becomes the
	// OAK variable. Empty means no OAK variable.
	OAKCertPath string
	// BPMValue is the bootloader policy bitmask. Zero means no BPM
	// variable.
	BPMValue uint64
	// Password decrypts the PKCS8 key. Empty means the key is assumed
	// unencrypted.
	Password string
	// Timestamp is the signing time in unix seconds.
	Timestamp int64
	// DisablePath, when set, requests a companion document that clears
	// the same variables at Timestamp+1.
	DisablePath string
}

// ParseBitmask parses a bitmask literal, accepting 0x-prefixed hex or
// plain decimal.
func ParseBitmask(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, configErrorf("invalid bitmask value %q", s)
	}
	return v, nil
}

// Validate checks the option combination. It runs before any external
// tool is invoked.
func (r *Request) Validate() error {
	if r.KeyPairPrefix == "" {
		return configErrorf("no ODM key pair specified")
	}
	if r.OAKCertPath == "" && r.BPMValue == 0 {
		return configErrorf("need an OAK certificate or a non-zero bitmask value")
	}
	return nil
}

func (r *Request) certPath() string { return r.KeyPairPrefix + ".x509.pem" }
func (r *Request) pk8Path() string  { return r.KeyPairPrefix + ".pk8" }
