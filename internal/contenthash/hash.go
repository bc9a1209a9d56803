// Package contenthash computes content addresses for stored asset bytes.
//
// An address is a digest over the git blob framing "blob <len>\x00<bytes>", so the
// default sha1 address of a file equals its git object id.
package contenthash

import (
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// Algorithm names a digest used for content addresses.
type Algorithm string

const (
	SHA1    Algorithm = "sha1"
	SHA256  Algorithm = "sha256"
	BLAKE2b Algorithm = "blake2b"

	Default = SHA1
)

var digestLengths = map[Algorithm]int{
	SHA1:    sha1.Size * 2,
	SHA256:  sha256.Size * 2,
	BLAKE2b: blake2b.Size256 * 2,
}

// Hasher produces content addresses with one algorithm.
type Hasher struct {
	alg Algorithm
}

// Parse validates an algorithm name. Empty selects the default.
func Parse(raw string) (Algorithm, error) {
	value := Algorithm(strings.ToLower(strings.TrimSpace(raw)))
	if value == "" {
		return Default, nil
	}
	if _, ok := digestLengths[value]; !ok {
		return "", fmt.Errorf("unsupported hash algorithm: %s", raw)
	}
	return value, nil
}

// New returns a Hasher for alg.
func New(alg Algorithm) (*Hasher, error) {
	parsed, err := Parse(string(alg))
	if err != nil {
		return nil, err
	}
	return &Hasher{alg: parsed}, nil
}

// ForAddress returns the Hasher that produced address.
func ForAddress(address string) (*Hasher, error) {
	alg, err := AlgorithmOf(address)
	if err != nil {
		return nil, err
	}
	return &Hasher{alg: alg}, nil
}

// Algorithm reports the configured digest.
func (h *Hasher) Algorithm() Algorithm {
	if h == nil || h.alg == "" {
		return Default
	}
	return h.alg
}

// Address returns the content address of data. Empty input is valid.
func (h *Hasher) Address(data []byte) string {
	alg := h.Algorithm()
	d := newDigest(alg)
	d.Write([]byte("blob " + strconv.Itoa(len(data)) + "\x00"))
	d.Write(data)
	sum := hex.EncodeToString(d.Sum(nil))
	if alg == SHA1 {
		return sum
	}
	return string(alg) + ":" + sum
}

// Matches reports whether data hashes to address under the address's own algorithm.
func Matches(address string, data []byte) (bool, error) {
	h, err := ForAddress(address)
	if err != nil {
		return false, err
	}
	return h.Address(data) == address, nil
}

// AlgorithmOf recovers the algorithm from an address string.
func AlgorithmOf(address string) (Algorithm, error) {
	address = strings.TrimSpace(address)
	alg, sum := SHA1, address
	if prefix, rest, ok := strings.Cut(address, ":"); ok {
		alg, sum = Algorithm(prefix), rest
		if alg == SHA1 {
			return "", fmt.Errorf("invalid content address: %q", address)
		}
	}
	want, ok := digestLengths[alg]
	if !ok {
		return "", fmt.Errorf("unsupported hash algorithm in address: %q", address)
	}
	if len(sum) != want {
		return "", fmt.Errorf("invalid content address length: %q", address)
	}
	if _, err := hex.DecodeString(sum); err != nil {
		return "", fmt.Errorf("invalid content address: %q", address)
	}
	return alg, nil
}

func newDigest(alg Algorithm) hash.Hash {
	switch alg {
	case SHA256:
		return sha256.New()
	case BLAKE2b:
		// Only fails for keys longer than 64 bytes.
		d, _ := blake2b.New256(nil)
		return d
	default:
		return sha1.New()
	}
}
