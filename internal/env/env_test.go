package env

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetters(t *testing.T) {
	t.Setenv("CERT_TEST_STRING", "hello")
	t.Setenv("CERT_TEST_INT", " 42 ")
	t.Setenv("CERT_TEST_BAD_INT", "forty")
	t.Setenv("CERT_TEST_BOOL", "false")
	t.Setenv("CERT_TEST_DURATION", "90s")

	if got := GetString("CERT_TEST_STRING", "x"); got != "hello" {
		t.Errorf("GetString = %q", got)
	}
	if got := GetString("CERT_TEST_UNSET", "x"); got != "x" {
		t.Errorf("GetString fallback = %q", got)
	}
	if got := GetInt("CERT_TEST_INT", 0); got != 42 {
		t.Errorf("GetInt = %d", got)
	}
	if got := GetInt("CERT_TEST_BAD_INT", 7); got != 7 {
		t.Errorf("GetInt fallback on bad value = %d", got)
	}
	if got := GetBool("CERT_TEST_BOOL", true); got {
		t.Errorf("GetBool = %v", got)
	}
	if got := GetDuration("CERT_TEST_DURATION", time.Second); got != 90*time.Second {
		t.Errorf("GetDuration = %v", got)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CERT_TEST_FROM_FILE=loaded\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("CERT_TEST_FROM_FILE") })

	LoadEnv(path, filepath.Join(t.TempDir(), "missing.env"))

	if got := GetString("CERT_TEST_FROM_FILE", ""); got != "loaded" {
		t.Fatalf("GetString after LoadEnv = %q", got)
	}
}
