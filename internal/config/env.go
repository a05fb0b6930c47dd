// Package config provides configuration helpers for gatekeeper commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
)

// ErrMissingAPIKey is returned when ROBOFLOW_API_KEY is not set.
var ErrMissingAPIKey = errors.New("config: ROBOFLOW_API_KEY environment variable not set")

// Roboflow serverless defaults. The workflow returns object detections for
// the class we treat as the robot body.
const (
	DefaultRoboflowURL    = "https://serverless.roboflow.com"
	DefaultWorkspace      = "cdtm-x-mona"
	DefaultWorkflowID     = "find-laptops"
	DefaultTargetClass    = "laptop"
	DefaultMarkerPayload  = "ROBOT_R1"
	DefaultSerialPort     = "/dev/ttyUSB0"
	DefaultSerialBaudrate = 256000
)

// Env returns the environment variable value or the fallback if unset.
func Env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// EnvInt returns the environment variable parsed as int, or the fallback
// if unset or unparseable.
func EnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// EnvBool returns true when the environment variable is a truthy string.
func EnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	switch v {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	}
	return false
}

// RoboflowAPIKey returns the API key from ROBOFLOW_API_KEY, or
// ErrMissingAPIKey when unset. Callers decide whether a missing key is
// fatal: the classifier channel can run disabled without one.
func RoboflowAPIKey() (string, error) {
	key := os.Getenv("ROBOFLOW_API_KEY")
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}

// RoboflowEndpoint builds the workflow endpoint URL.
func RoboflowEndpoint(baseURL, workspace, workflowID string) string {
	return fmt.Sprintf("%s/%s/workflows/%s", baseURL, workspace, workflowID)
}
