package domain

import (
	"fmt"
	"strings"
)

// ChecksumAlgorithm names a fixity algorithm in its canonical lower-case form,
// the same spelling BagIt uses in manifest file names.
type ChecksumAlgorithm string

const (
	AlgMD5    ChecksumAlgorithm = "md5"
	AlgSHA1   ChecksumAlgorithm = "sha1"
	AlgSHA256 ChecksumAlgorithm = "sha256"
	AlgSHA512 ChecksumAlgorithm = "sha512"
)

// SupportedAlgorithms lists algorithms in order of preference (strongest first).
var SupportedAlgorithms = []ChecksumAlgorithm{AlgSHA512, AlgSHA256, AlgSHA1, AlgMD5}

// ParseAlgorithm accepts the usual spellings ("SHA-256", "sha256", "SHA256").
func ParseAlgorithm(s string) (ChecksumAlgorithm, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "")
	norm = strings.ReplaceAll(norm, "_", "")
	switch ChecksumAlgorithm(norm) {
	case AlgMD5, AlgSHA1, AlgSHA256, AlgSHA512:
		return ChecksumAlgorithm(norm), nil
	default:
		return "", invalidArg("checksum.parse_algorithm", "", "unsupported algorithm %q", s)
	}
}

// Checksum is a single fixity value computed with Algorithm.
type Checksum struct {
	Algorithm ChecksumAlgorithm `json:"algorithm" xml:"algorithm,attr"`
	Value     string            `json:"value" xml:",chardata"`
}

// Equal compares algorithm and value; hex values are compared case-insensitively.
func (c Checksum) Equal(o Checksum) bool {
	return c.Algorithm == o.Algorithm && strings.EqualFold(c.Value, o.Value)
}

func (c Checksum) String() string {
	return fmt.Sprintf("%s:%s", c.Algorithm, strings.ToLower(c.Value))
}
