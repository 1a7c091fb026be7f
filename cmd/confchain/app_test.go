package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	conf "github.com/goliatone/go-conf"
	"github.com/urfave/cli/v2"
)

func runApp(t *testing.T, environ []string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp(&stdout, &stderr, func() []string { return environ })
	err := app.Run(append([]string{"confchain"}, args...))
	return stdout.String(), err
}

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestGetResolvesAcrossLayers(t *testing.T) {
	defaults := writeConfig(t, "defaults.yaml", "server:\n  host: localhost\n  port: 80\nmode: dev\n")
	file := writeConfig(t, "app.json", `{"server": {"port": 8080}}`)
	environ := []string{"APP_MODE=staging"}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "defaults", args: []string{"get", "server.host"}, want: "server.host = localhost"},
		{name: "file over defaults", args: []string{"get", "server.port"}, want: "server.port = 8080"},
		{name: "env over file", args: []string{"get", "mode"}, want: "mode = staging"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--defaults", defaults, "--file", file, "--env-prefix", "APP_"}, tt.args...)
			out, err := runApp(t, environ, args...)
			if err != nil {
				t.Fatalf("run: %v", err)
			}
			if !strings.HasPrefix(out, tt.want) {
				t.Fatalf("expected output starting with %q, got %q", tt.want, out)
			}
		})
	}
}

func TestGetSetOverridesEverything(t *testing.T) {
	out, err := runApp(t, []string{"APP_MODE=staging"}, "--env-prefix", "APP_", "--set", "mode=prod,eu", "get", "mode")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.HasPrefix(out, "mode = prod,eu\t# Command Line: Argv[argv]") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestGetMissingKeyExitsWithError(t *testing.T) {
	_, err := runApp(t, nil, "--set", "a=1", "get", "b")
	var exitErr cli.ExitCoder
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 1 {
		t.Fatalf("expected exit code 1, got %v", err)
	}

	_, err = runApp(t, nil, "get")
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
		t.Fatalf("expected usage exit code 2, got %v", err)
	}
}

func TestTraceJSON(t *testing.T) {
	first := writeConfig(t, "first.yaml", "port: 1\n")
	second := writeConfig(t, "second.yaml", "port: 2\n")

	out, err := runApp(t, []string{"CONFCHAIN_OUTPUT=json"}, "--file", first, "--file", second, "trace", "port")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	trace, err := conf.TraceFromJSON([]byte(out))
	if err != nil {
		t.Fatalf("decode trace: %v", err)
	}
	if !trace.Found || len(trace.Layers) != 2 {
		t.Fatalf("unexpected trace %+v", trace)
	}
	winner, _ := trace.Winner()
	if winner.Meta.Source != first {
		t.Fatalf("expected first file to win, got %s", winner.Meta.Source)
	}
	if trace.Layers[1].Value != float64(2) {
		t.Fatalf("expected shadowed value 2, got %v", trace.Layers[1].Value)
	}
}

func TestTraceTextShowsScopeLabels(t *testing.T) {
	out, err := runApp(t, []string{"APP_PORT=9090"}, "--env-prefix", "APP_", "--set", "port=1", "trace", "port")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		"* 0 Command Line: Argv[argv](--port=1) = 1",
		"  1 Environment: Env[env](APP_) = 9090",
	}
	if len(lines) != len(want) {
		t.Fatalf("unexpected trace output %q", out)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: expected %q, got %q", i, want[i], lines[i])
		}
	}
}

func TestListText(t *testing.T) {
	out, err := runApp(t, nil, "--set", "b=2", "--set", "a.x=1", "list")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "a.x = 1") || !strings.HasPrefix(lines[1], "b = 2") {
		t.Fatalf("unexpected list output %q", out)
	}
	if !strings.Contains(lines[0], "\t# Command Line: Argv[argv]") {
		t.Fatalf("expected scope label in list output, got %q", lines[0])
	}
}

func TestListJSONEmptyChain(t *testing.T) {
	out, err := runApp(t, []string{"CONFCHAIN_OUTPUT=json"}, "list")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	var entries []conf.Provenance
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no entries, got %v", entries)
	}
}

func TestInvalidSettings(t *testing.T) {
	cases := [][]string{
		{"CONFCHAIN_OUTPUT=xml"},
		{"CONFCHAIN_LOG_LEVEL=loud"},
		{"CONFCHAIN_LOG_FORMAT=xml"},
	}
	for _, environ := range cases {
		_, err := runApp(t, environ, "list")
		var exitErr cli.ExitCoder
		if !errors.As(err, &exitErr) || exitErr.ExitCode() != 2 {
			t.Fatalf("%v: expected exit code 2, got %v", environ, err)
		}
	}

	_, err := runApp(t, nil, "--set", "novalue", "list")
	if err == nil {
		t.Fatalf("expected error for malformed --set")
	}
}
