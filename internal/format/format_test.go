package format

import (
	"bytes"
	"strings"
	"testing"
)

type sample struct {
	ID      string   `json:"id"`
	Credits int64    `json:"credits"`
	Palette []string `json:"palette,omitempty"`
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (JSONFormatter{}).Write(&buf, sample{ID: "alice", Credits: 3}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if got := buf.String(); got != "{\"id\":\"alice\",\"credits\":3}\n" {
		t.Fatalf("unexpected json: %q", got)
	}
}

func TestYAMLFormatterUsesJSONNames(t *testing.T) {
	var buf bytes.Buffer
	payload := sample{ID: "alice", Credits: 10000, Palette: []string{"#ffffff"}}
	if err := (YAMLFormatter{}).Write(&buf, payload); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"id: alice", "credits: 10000", "palette:", "#ffffff"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestForName(t *testing.T) {
	if f, err := ForName("YAML"); err != nil {
		t.Fatalf("yaml: %v", err)
	} else if _, ok := f.(YAMLFormatter); !ok {
		t.Fatalf("expected YAMLFormatter, got %T", f)
	}
	if f, err := ForName(""); err != nil {
		t.Fatalf("default: %v", err)
	} else if _, ok := f.(JSONFormatter); !ok {
		t.Fatalf("expected JSONFormatter, got %T", f)
	}
	if _, err := ForName("xml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}
