package config

import (
	"errors"
	"testing"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("GK_STR", "value")
	t.Setenv("GK_INT", "42")
	t.Setenv("GK_INT_BAD", "not-a-number")
	t.Setenv("GK_BOOL", "true")

	if got := Env("GK_STR", "fallback"); got != "value" {
		t.Errorf("Env = %q, want value", got)
	}
	if got := Env("GK_UNSET", "fallback"); got != "fallback" {
		t.Errorf("Env = %q, want fallback", got)
	}
	if got := EnvInt("GK_INT", 7); got != 42 {
		t.Errorf("EnvInt = %d, want 42", got)
	}
	if got := EnvInt("GK_INT_BAD", 7); got != 7 {
		t.Errorf("EnvInt = %d, want fallback 7 for unparseable value", got)
	}
	if !EnvBool("GK_BOOL", false) {
		t.Error("EnvBool should be true for \"true\"")
	}
	if EnvBool("GK_UNSET", false) {
		t.Error("EnvBool should fall back to false when unset")
	}
}

func TestRoboflowAPIKey(t *testing.T) {
	t.Setenv("ROBOFLOW_API_KEY", "")
	if _, err := RoboflowAPIKey(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}

	t.Setenv("ROBOFLOW_API_KEY", "rf_key")
	key, err := RoboflowAPIKey()
	if err != nil {
		t.Fatalf("RoboflowAPIKey: %v", err)
	}
	if key != "rf_key" {
		t.Errorf("key = %q, want rf_key", key)
	}
}

func TestRoboflowEndpoint(t *testing.T) {
	got := RoboflowEndpoint(DefaultRoboflowURL, DefaultWorkspace, DefaultWorkflowID)
	want := "https://serverless.roboflow.com/cdtm-x-mona/workflows/find-laptops"
	if got != want {
		t.Errorf("RoboflowEndpoint = %q, want %q", got, want)
	}
}
