package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/wippyai/jbridge/errors"
)

func TestDefault(t *testing.T) {
	c := Default()
	if c.SyncSuffix != "Sync" || c.AsyncSuffix != "" || c.PumpHostWhileProxyActive {
		t.Fatalf("Default() = %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !c.IsDefault() {
		t.Fatal("IsDefault false for Default()")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Class
		wantErr bool
	}{
		{"default", Default(), false},
		{"async suffix", Class{SyncSuffix: "", AsyncSuffix: "Async"}, false},
		{"equal", Class{SyncSuffix: "X", AsyncSuffix: "X"}, true},
		{"both empty", Class{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.HasKind(err, errors.KindInvalidInput) {
				t.Fatalf("unexpected error kind: %v", err)
			}
		})
	}
}

func TestKey(t *testing.T) {
	a := Default()
	b := Default()
	b.PumpHostWhileProxyActive = true
	if a.Key() == b.Key() {
		t.Fatal("keys must differ")
	}
	if a.Key() != Default().Key() {
		t.Fatal("keys must be stable")
	}
}

func TestDecode(t *testing.T) {
	f, err := Decode(`
[default]
async_suffix = "Async"
sync_suffix = ""

[classes."demo.Worker"]
pump_host_while_proxy_active = true
`)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := f.For("demo.Box"); got.AsyncSuffix != "Async" || got.SyncSuffix != "" || got.PumpHostWhileProxyActive {
		t.Fatalf("For(demo.Box) = %+v", got)
	}
	w := f.For("demo.Worker")
	if !w.PumpHostWhileProxyActive || w.AsyncSuffix != "Async" {
		t.Fatalf("For(demo.Worker) = %+v", w)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"syntax", "[default"},
		{"unknown key", "[default]\nbogus = 1"},
		{"equal suffixes", "[classes.\"a.B\"]\nsync_suffix = \"\"\nasync_suffix = \"\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.in); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bridge.toml")
	if err := os.WriteFile(path, []byte("[default]\npump_host_while_proxy_active = true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !f.For("any.Class").PumpHostWhileProxyActive {
		t.Fatal("default not applied")
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing file")
	}

	var nilFile *File
	if !nilFile.For("x").IsDefault() {
		t.Fatal("nil file must yield defaults")
	}
}
