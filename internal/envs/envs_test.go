package envs

import (
	"os"
	"path/filepath"
	"testing"
)

func writeEnv(t *testing.T, dir, name, contents string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadNoActive(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Active != "" {
		t.Errorf("Active = %q", cfg.Active)
	}
	if len(cfg.Defaults) != 0 {
		t.Errorf("Defaults = %v", cfg.Defaults)
	}
}

func TestActivateAndLoad(t *testing.T) {
	dir := t.TempDir()
	writeEnv(t, dir, "prod.env", "export TARGET=cluster-a\n# comment\n; also comment\nREGION='us-east'\nEMPTY=\n")

	if err := SetActive(dir, "prod.env"); err != nil {
		t.Fatalf("SetActive failed: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Active != "prod.env" {
		t.Errorf("Active = %q", cfg.Active)
	}
	if cfg.Defaults["target"] != "cluster-a" {
		t.Errorf("target = %q", cfg.Defaults["target"])
	}
	if cfg.Defaults["region"] != "us-east" {
		t.Errorf("region = %q", cfg.Defaults["region"])
	}
	if _, ok := cfg.Defaults["empty"]; ok {
		t.Error("empty values should not become defaults")
	}
	// Keys are lowercased for lookup.
	if _, ok := cfg.Defaults["TARGET"]; ok {
		t.Error("defaults must be keyed by lowercased name")
	}
}

func TestSetActiveMissingFile(t *testing.T) {
	if err := SetActive(t.TempDir(), "nope.env"); err == nil {
		t.Error("expected error for missing environment file")
	}
}

func TestDeactivate(t *testing.T) {
	dir := t.TempDir()
	writeEnv(t, dir, "dev.env", "A=1\n")
	if err := SetActive(dir, "dev.env"); err != nil {
		t.Fatal(err)
	}
	if err := SetActive(dir, ""); err != nil {
		t.Fatalf("deactivate failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "active")); !os.IsNotExist(err) {
		t.Error("active pointer should be removed")
	}
	// Deactivating again is a no-op.
	if err := SetActive(dir, ""); err != nil {
		t.Errorf("second deactivate failed: %v", err)
	}
}

func TestLoadDanglingActive(t *testing.T) {
	dir := t.TempDir()
	writeEnv(t, dir, "active", "gone.env\n")
	if _, err := Load(dir); err == nil {
		t.Error("expected error for dangling active pointer")
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	writeEnv(t, dir, "staging.env", "")
	writeEnv(t, dir, "dev.env", "")
	writeEnv(t, dir, "active", "dev.env\n")

	names, err := List(dir)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(names) != 2 || names[0] != "dev.env" || names[1] != "staging.env" {
		t.Errorf("names = %v", names)
	}
}

func TestListMissingDir(t *testing.T) {
	names, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("names = %v", names)
	}
}

func TestPreviewMasksSensitiveKeys(t *testing.T) {
	dir := t.TempDir()
	writeEnv(t, dir, "prod.env",
		"API_TOKEN=abc123\nDb_Password=\"hunter2\"\nREGION=us-east\nSECRET_EMPTY=\nPrivateThing=x\n")

	pairs, err := Preview(filepath.Join(dir, "prod.env"))
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}

	got := map[string]string{}
	for _, p := range pairs {
		got[p.Key] = p.Value
	}
	if got["API_TOKEN"] != "***" {
		t.Errorf("API_TOKEN = %q", got["API_TOKEN"])
	}
	if got["Db_Password"] != "***" {
		t.Errorf("Db_Password = %q", got["Db_Password"])
	}
	if got["PrivateThing"] != "***" {
		t.Errorf("PrivateThing = %q", got["PrivateThing"])
	}
	if got["REGION"] != "us-east" {
		t.Errorf("REGION = %q", got["REGION"])
	}
	// Empty sensitive values stay empty, not masked.
	if got["SECRET_EMPTY"] != "" {
		t.Errorf("SECRET_EMPTY = %q", got["SECRET_EMPTY"])
	}
	// Original casing preserved.
	if _, ok := got["db_password"]; ok {
		t.Error("preview must preserve key casing")
	}
}
