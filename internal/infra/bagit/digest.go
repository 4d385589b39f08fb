package bagit

import (
	"crypto/md5"
	"crypto/sha1"
	_ "crypto/sha256"
	_ "crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"

	"github.com/opencontainers/go-digest"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// newHash returns a hash for alg. SHA-2 families come from go-digest; md5 and
// sha1 are legacy BagIt algorithms go-digest does not register.
func newHash(alg domain.ChecksumAlgorithm) (hash.Hash, error) {
	switch alg {
	case domain.AlgSHA256:
		return digest.SHA256.Hash(), nil
	case domain.AlgSHA512:
		return digest.SHA512.Hash(), nil
	case domain.AlgSHA1:
		return sha1.New(), nil
	case domain.AlgMD5:
		return md5.New(), nil
	default:
		return nil, fmt.Errorf("unsupported algorithm %q", alg)
	}
}

// Compute reads r once and returns a checksum per algorithm.
func Compute(r io.Reader, algs ...domain.ChecksumAlgorithm) (map[domain.ChecksumAlgorithm]domain.Checksum, int64, error) {
	hashes := make(map[domain.ChecksumAlgorithm]hash.Hash, len(algs))
	writers := make([]io.Writer, 0, len(algs))
	for _, alg := range algs {
		if _, dup := hashes[alg]; dup {
			continue
		}
		h, err := newHash(alg)
		if err != nil {
			return nil, 0, err
		}
		hashes[alg] = h
		writers = append(writers, h)
	}

	n, err := io.Copy(io.MultiWriter(writers...), r)
	if err != nil {
		return nil, n, err
	}

	out := make(map[domain.ChecksumAlgorithm]domain.Checksum, len(hashes))
	for alg, h := range hashes {
		out[alg] = domain.Checksum{Algorithm: alg, Value: hex.EncodeToString(h.Sum(nil))}
	}
	return out, n, nil
}

// ComputeFile hashes the file at path.
func ComputeFile(path string, algs ...domain.ChecksumAlgorithm) (map[domain.ChecksumAlgorithm]domain.Checksum, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return Compute(f, algs...)
}
