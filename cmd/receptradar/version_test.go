package main

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestVersion_Human_ShowsVersionInfo(t *testing.T) {
	testEnv(t)

	output := mustRunCLI(t, "version")
	if !strings.HasPrefix(output, "receptradar ") {
		t.Errorf("output should start with 'receptradar ', got %q", output)
	}
	for _, field := range []string{"commit:", "built:", "schema: v6", "go:", "os:"} {
		if !strings.Contains(output, field) {
			t.Errorf("output should contain %q", field)
		}
	}
}

func TestVersion_JSON_ReturnsValidJSON(t *testing.T) {
	testEnv(t)

	output := mustRunCLI(t, "version", "--json")

	var result map[string]interface{}
	if err := json.Unmarshal([]byte(output), &result); err != nil {
		t.Fatalf("output should be valid JSON: %v", err)
	}
	for _, field := range []string{"version", "commit", "date", "schema_version", "go", "os", "arch"} {
		if _, ok := result[field]; !ok {
			t.Errorf("JSON output missing field %q", field)
		}
	}
	if result["version"] != "dev" {
		t.Errorf("version = %v, want dev for an unstamped build", result["version"])
	}
}

func TestVersion_LdflagsOverride(t *testing.T) {
	testEnv(t)
	origVersion, origCommit := version, commit
	version, commit = "1.2.3", "abc1234"
	defer func() { version, commit = origVersion, origCommit }()

	output := mustRunCLI(t, "version")
	if !strings.Contains(output, "receptradar 1.2.3") || !strings.Contains(output, "abc1234") {
		t.Errorf("output should reflect ldflags values, got %q", output)
	}
}
