package contenthash

import (
	"bytes"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestAddressMatchesGitBlobIDs(t *testing.T) {
	h, err := New(SHA1)
	if err != nil {
		t.Fatalf("new hasher: %v", err)
	}
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "empty", data: nil, want: "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391"},
		{name: "hello newline", data: []byte("hello\n"), want: "ce013625030ba8dba906f756967f9e9ca394464a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Address(tt.data); got != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestAddressPrefixes(t *testing.T) {
	for _, alg := range []Algorithm{SHA256, BLAKE2b} {
		h, err := New(alg)
		if err != nil {
			t.Fatalf("new %s: %v", alg, err)
		}
		addr := h.Address([]byte("pixels"))
		if !strings.HasPrefix(addr, string(alg)+":") {
			t.Fatalf("expected %s prefix, got %q", alg, addr)
		}
		got, err := AlgorithmOf(addr)
		if err != nil {
			t.Fatalf("algorithm of %q: %v", addr, err)
		}
		if got != alg {
			t.Fatalf("expected %s, got %s", alg, got)
		}
		ok, err := Matches(addr, []byte("pixels"))
		if err != nil || !ok {
			t.Fatalf("expected match, got ok=%v err=%v", ok, err)
		}
	}
}

func TestParse(t *testing.T) {
	if alg, err := Parse(""); err != nil || alg != Default {
		t.Fatalf("expected default, got %q err=%v", alg, err)
	}
	if alg, err := Parse(" SHA256 "); err != nil || alg != SHA256 {
		t.Fatalf("expected sha256, got %q err=%v", alg, err)
	}
	if _, err := Parse("md5"); err == nil {
		t.Fatal("expected error for md5")
	}
}

func TestAlgorithmOfRejectsMalformed(t *testing.T) {
	for _, addr := range []string{"", "abc", "sha1:e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", "sha256:zz", "md5:00"} {
		if _, err := AlgorithmOf(addr); err == nil {
			t.Fatalf("expected error for %q", addr)
		}
	}
}

func TestAddressProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	for _, alg := range []Algorithm{SHA1, SHA256, BLAKE2b} {
		h, err := New(alg)
		if err != nil {
			t.Fatalf("new %s: %v", alg, err)
		}

		properties.Property(string(alg)+" address is deterministic", prop.ForAll(
			func(data []byte) bool {
				return h.Address(data) == h.Address(append([]byte(nil), data...))
			},
			gen.SliceOf(gen.UInt8()),
		))

		properties.Property(string(alg)+" distinct content yields distinct address", prop.ForAll(
			func(a, b []byte) bool {
				if bytes.Equal(a, b) {
					return h.Address(a) == h.Address(b)
				}
				return h.Address(a) != h.Address(b)
			},
			gen.SliceOf(gen.UInt8()),
			gen.SliceOf(gen.UInt8()),
		))

		properties.Property(string(alg)+" address round-trips through AlgorithmOf", prop.ForAll(
			func(data []byte) bool {
				got, err := AlgorithmOf(h.Address(data))
				return err == nil && got == alg
			},
			gen.SliceOf(gen.UInt8()),
		))
	}

	properties.TestingRun(t)
}
