// Package hashalgo wires the digest primitives a table can be built or
// cracked against (spec.md §2) and lanes multiple digests across
// goroutines to stand in for the reference tool's per-CPU SIMD lanes.
package hashalgo

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha512"
	"fmt"
	"unicode/utf16"

	"github.com/klauspost/cpuid/v2"
	sha256simd "github.com/minio/sha256-simd"
	"golang.org/x/crypto/md4"
)

// Algorithm names the supported digest functions.
type Algorithm uint8

const (
	MD4 Algorithm = iota
	MD5
	NTLM
	SHA1
	SHA256
	SHA384
	SHA512
)

func (a Algorithm) String() string {
	switch a {
	case MD4:
		return "md4"
	case MD5:
		return "md5"
	case NTLM:
		return "ntlm"
	case SHA1:
		return "sha1"
	case SHA256:
		return "sha256"
	case SHA384:
		return "sha384"
	case SHA512:
		return "sha512"
	default:
		return "unknown"
	}
}

// ErrUnknownAlgorithm is returned by Parse for an unrecognized name.
var ErrUnknownAlgorithm = fmt.Errorf("hashalgo: unknown algorithm")

func Parse(name string) (Algorithm, error) {
	switch name {
	case "md4":
		return MD4, nil
	case "md5":
		return MD5, nil
	case "ntlm":
		return NTLM, nil
	case "sha1":
		return SHA1, nil
	case "sha256":
		return SHA256, nil
	case "sha384":
		return SHA384, nil
	case "sha512":
		return SHA512, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, name)
	}
}

// Size returns the digest length in bytes for the given algorithm.
func (a Algorithm) Size() int {
	switch a {
	case MD4, MD5, NTLM:
		return 16
	case SHA1:
		return 20
	case SHA256:
		return 32
	case SHA384:
		return 48
	case SHA512:
		return 64
	default:
		return 0
	}
}

// Single computes one digest of msg under alg. NTLM hashes the UTF-16LE
// encoding of msg interpreted as text, matching the Windows LM/NTLM
// password hash convention rather than hashing the raw bytes.
func Single(alg Algorithm, msg []byte) []byte {
	switch alg {
	case MD4:
		h := md4.New()
		h.Write(msg)
		return h.Sum(nil)
	case MD5:
		sum := md5.Sum(msg)
		return sum[:]
	case NTLM:
		h := md4.New()
		h.Write(utf16LEBytes(msg))
		return h.Sum(nil)
	case SHA1:
		sum := sha1.Sum(msg)
		return sum[:]
	case SHA256:
		sum := sha256simd.Sum256(msg)
		return sum[:]
	case SHA384:
		sum := sha512.Sum384(msg)
		return sum[:]
	case SHA512:
		sum := sha512.Sum512(msg)
		return sum[:]
	default:
		panic(fmt.Sprintf("hashalgo: unhandled algorithm %d", alg))
	}
}

// utf16LEBytes re-encodes msg (treated as UTF-8 text) into the UTF-16LE
// byte sequence NTLM hashes.
func utf16LEBytes(msg []byte) []byte {
	units := utf16.Encode([]rune(string(msg)))
	out := make([]byte, 2*len(units))
	for i, u := range units {
		out[2*i] = byte(u)
		out[2*i+1] = byte(u >> 8)
	}
	return out
}

// LaneCount reports how many digests LaneDriver.Batch computes concurrently
// per call, chosen from the host's widest available vector unit the way
// the reference tool selects its SIMD width at runtime. Table format and
// output are unaffected either way; this only shapes throughput.
func LaneCount() int {
	switch {
	case cpuid.CPU.Supports(cpuid.AVX512F):
		return 16
	case cpuid.CPU.Supports(cpuid.AVX2):
		return 8
	default:
		return 4
	}
}
