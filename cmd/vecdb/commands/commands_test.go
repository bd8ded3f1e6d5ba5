package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// setupTestEnv points HOME and --config at a temp dir and returns it.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("OPENAI_API_KEY", "")
	return home
}

func runCmd(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	rootCmd.SetOut(&outBuf)
	rootCmd.SetErr(&errBuf)
	globalConfig = nil

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()

	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		exitCode = 1
		stderr += err.Error()
	}

	resetFlags(rootCmd)
	return
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		f.Changed = false
		f.Value.Set(f.DefValue)
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	stdout, stderr, code := runCmd(t, args...)
	if code != 0 {
		t.Fatalf("vecdb %s: exit %d: %s", strings.Join(args, " "), code, stderr)
	}
	return stdout
}

type jsonResult struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
	Vector   []float32      `json:"vector"`
}

func decodeResults(t *testing.T, out string) []jsonResult {
	t.Helper()
	var res []jsonResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	return res
}

func TestVersion(t *testing.T) {
	setupTestEnv(t)

	stdout := mustRun(t, "version")
	if !strings.Contains(stdout, "vecdb") {
		t.Fatalf("expected 'vecdb', got: %s", stdout)
	}

	stdout = mustRun(t, "version", "--format", "json")
	if !strings.Contains(stdout, `"version"`) {
		t.Fatalf("expected JSON, got: %s", stdout)
	}
}

func TestInvalidFormat(t *testing.T) {
	setupTestEnv(t)

	_, stderr, code := runCmd(t, "count", "--format", "xml")
	if code == 0 {
		t.Fatal("expected failure for --format xml")
	}
	if !strings.Contains(stderr, "unsupported output format") {
		t.Errorf("stderr = %s", stderr)
	}
}

func TestAddSearchCount(t *testing.T) {
	setupTestEnv(t)

	mustRun(t, "add", "the quick brown fox", "stock market report", "a quick brown dog", "--meta", `{"lang":"en"}`)

	if got := strings.TrimSpace(mustRun(t, "count")); got != "3" {
		t.Fatalf("count = %q, want 3", got)
	}

	res := decodeResults(t, mustRun(t, "search", "quick brown fox", "-k", "2", "--format", "json"))
	if len(res) != 2 {
		t.Fatalf("len(results) = %d, want 2", len(res))
	}
	if res[0].Content != "the quick brown fox" {
		t.Errorf("top result = %q", res[0].Content)
	}
	if res[0].Score < res[1].Score {
		t.Errorf("results not ordered: %v", res)
	}
	if res[0].Metadata["lang"] != "en" {
		t.Errorf("metadata = %v", res[0].Metadata)
	}

	table := mustRun(t, "search", "quick brown fox", "-k", "1")
	if !strings.Contains(table, "SCORE") || !strings.Contains(table, "the quick brown fox") {
		t.Errorf("table output:\n%s", table)
	}
}

func TestAddPersistsSnapshot(t *testing.T) {
	home := setupTestEnv(t)

	mustRun(t, "add", "persisted note")

	snapshot := filepath.Join(home, ".vecdb", "data", "default", "file", "vectors.json")
	data, err := os.ReadFile(snapshot)
	if err != nil {
		t.Fatalf("snapshot not written: %v", err)
	}
	if !strings.HasPrefix(string(data), `[["persisted note",[`) {
		t.Errorf("snapshot = %s", data)
	}

	res := decodeResults(t, mustRun(t, "list", "--format", "json"))
	if len(res) != 1 || res[0].Content != "persisted note" {
		t.Errorf("list = %+v", res)
	}
}

func TestAddFromFileAndFilter(t *testing.T) {
	setupTestEnv(t)

	docs := filepath.Join(t.TempDir(), "docs.yaml")
	err := os.WriteFile(docs, []byte(`- content: go channels
  metadata: {lang: en, stars: 5}
- content: go kanäle
  metadata: {lang: de, stars: 4}
- content: go channels basics
  metadata: {lang: en, stars: 2}
`), 0644)
	if err != nil {
		t.Fatal(err)
	}
	mustRun(t, "add", "--file", docs)

	out := mustRun(t, "search", "go channels", "--filter", `.metadata.lang == "en" and .metadata.stars >= 4`, "--format", "json")
	res := decodeResults(t, out)
	if len(res) != 1 || res[0].Content != "go channels" {
		t.Fatalf("filtered results = %+v", res)
	}

	if _, _, code := runCmd(t, "search", "x", "--filter", ".metadata["); code == 0 {
		t.Error("expected failure for invalid jq expression")
	}
}

func TestAddErrors(t *testing.T) {
	setupTestEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"nothing", []string{"add"}},
		{"bad meta", []string{"add", "x", "--meta", "not json"}},
		{"meta array", []string{"add", "x", "--meta", "[1,2]"}},
		{"empty content", []string{"add", ""}},
		{"missing file", []string{"add", "--file", filepath.Join(t.TempDir(), "none.yaml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, code := runCmd(t, tt.args...); code == 0 {
				t.Errorf("vecdb %v succeeded", tt.args)
			}
		})
	}
	if got := strings.TrimSpace(mustRun(t, "count")); got != "0" {
		t.Errorf("count = %q after failed adds", got)
	}
}

func TestGet(t *testing.T) {
	setupTestEnv(t)
	mustRun(t, "add", "vector me")

	var doc jsonResult
	out := mustRun(t, "get", "vector me", "--format", "json")
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if doc.Content != "vector me" || len(doc.Vector) != 256 {
		t.Errorf("doc = %q with %d dims", doc.Content, len(doc.Vector))
	}

	if _, stderr, code := runCmd(t, "get", "missing"); code == 0 || !strings.Contains(stderr, "not found") {
		t.Errorf("get missing: code %d, stderr %s", code, stderr)
	}
}

func TestRemoveAndClear(t *testing.T) {
	setupTestEnv(t)
	mustRun(t, "add", "a", "b", "c")

	stdout, stderr, code := runCmd(t, "remove", "a", "zzz")
	if code != 0 {
		t.Fatalf("remove: %s", stderr)
	}
	if !strings.Contains(stdout, "Removed 1 document(s)") {
		t.Errorf("stdout = %s", stdout)
	}
	if !strings.Contains(stderr, `"zzz" not found`) {
		t.Errorf("stderr = %s", stderr)
	}

	res := decodeResults(t, mustRun(t, "list", "--format", "json"))
	if len(res) != 2 || res[0].Content != "b" || res[1].Content != "c" {
		t.Errorf("list after remove = %+v", res)
	}

	if _, _, code := runCmd(t, "clear"); code == 0 {
		t.Error("clear without --yes succeeded")
	}
	if !strings.Contains(mustRun(t, "clear", "--yes"), "Cleared 2 document(s)") {
		t.Error("clear output missing count")
	}
	if got := strings.TrimSpace(mustRun(t, "count")); got != "0" {
		t.Errorf("count after clear = %q", got)
	}
}

func TestConfigContexts(t *testing.T) {
	home := setupTestEnv(t)
	cfgPath := filepath.Join(home, "cfg.yaml")

	mustRun(t, "--config", cfgPath, "config", "add-context", "local", "--path", "local.json")
	mustRun(t, "--config", cfgPath, "config", "add-context", "kv", "--backend", "badger", "--provider", "hashing", "--dimension", "32")

	if _, _, code := runCmd(t, "--config", cfgPath, "config", "add-context", "local"); code == 0 {
		t.Error("duplicate context accepted")
	}
	if _, _, code := runCmd(t, "--config", cfgPath, "config", "add-context", "bucket", "--backend", "s3"); code == 0 {
		t.Error("s3 context without bucket accepted")
	}

	if got := strings.TrimSpace(mustRun(t, "--config", cfgPath, "config", "get-context")); got != "local" {
		t.Errorf("current context = %q, want local", got)
	}

	list := mustRun(t, "--config", cfgPath, "config", "list-contexts")
	for _, want := range []string{"local", "kv", "badger", "*"} {
		if !strings.Contains(list, want) {
			t.Errorf("list-contexts missing %q:\n%s", want, list)
		}
	}

	mustRun(t, "--config", cfgPath, "config", "use-context", "kv")
	mustRun(t, "--config", cfgPath, "add", "stored in badger")

	info := mustRun(t, "--config", cfgPath, "info", "--format", "json")
	var got struct {
		Backend   string `json:"backend"`
		Dimension int    `json:"dimension"`
		Documents int    `json:"documents"`
		MaxSize   string `json:"max_size"`
	}
	if err := json.Unmarshal([]byte(info), &got); err != nil {
		t.Fatalf("info JSON: %v\n%s", err, info)
	}
	if got.Backend != "badger" || got.Dimension != 32 || got.Documents != 1 || got.MaxSize != "3.00 MB" {
		t.Errorf("info = %+v", got)
	}

	// The local context is untouched.
	if n := strings.TrimSpace(mustRun(t, "--config", cfgPath, "-c", "local", "count")); n != "0" {
		t.Errorf("local count = %q", n)
	}
	if _, _, code := runCmd(t, "--config", cfgPath, "-c", "nope", "count"); code == 0 {
		t.Error("unknown context accepted")
	}

	mustRun(t, "--config", cfgPath, "config", "delete-context", "kv")
	if got := strings.TrimSpace(mustRun(t, "--config", cfgPath, "config", "get-context")); got != "No current context set" {
		t.Errorf("get-context after delete = %q", got)
	}
}

func TestConfigViewMasksSecrets(t *testing.T) {
	home := setupTestEnv(t)
	cfgPath := filepath.Join(home, "cfg.yaml")

	mustRun(t, "--config", cfgPath, "config", "add-context", "remote", "--provider", "openai", "--api-key", "sk-1234567890abcdef")

	out := mustRun(t, "--config", cfgPath, "config", "view")
	if strings.Contains(out, "sk-1234567890abcdef") {
		t.Errorf("API key not masked:\n%s", out)
	}
	if !strings.Contains(out, "provider: openai") {
		t.Errorf("view output:\n%s", out)
	}

	raw, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "sk-1234567890abcdef") {
		t.Error("config file should keep the real key")
	}
}

func TestAddMetadataSchema(t *testing.T) {
	home := setupTestEnv(t)
	cfgPath := filepath.Join(home, "cfg.yaml")

	schema := `{"type":"object","required":["lang"],"properties":{"lang":{"enum":["en","de"]}}}`
	mustRun(t, "--config", cfgPath, "config", "add-context", "strict", "--metadata-schema", schema)

	mustRun(t, "--config", cfgPath, "add", "guten tag", "--meta", `{"lang":"de"}`)

	for _, meta := range []string{`{"lang":"fr"}`, `{"stars":1}`} {
		_, stderr, code := runCmd(t, "--config", cfgPath, "add", "rejected", "--meta", meta)
		if code == 0 || !strings.Contains(stderr, "invalid metadata") {
			t.Errorf("--meta %s: code %d, stderr %s", meta, code, stderr)
		}
	}
	if got := strings.TrimSpace(mustRun(t, "--config", cfgPath, "count")); got != "1" {
		t.Errorf("count = %q, want 1", got)
	}

	if _, _, code := runCmd(t, "--config", cfgPath, "config", "add-context", "broken", "--metadata-schema", `{"type":5}`); code == 0 {
		t.Error("invalid schema accepted")
	}
}
