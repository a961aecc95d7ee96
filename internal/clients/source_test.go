package clients

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDefinition(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAllReadsBuiltinDir(t *testing.T) {
	builtin := t.TempDir()
	writeDefinition(t, builtin, "echoer.json", `{"name": "echoer", "command": "echo"}`)
	writeDefinition(t, builtin, "other.json", `{"name": "other", "command": "cat"}`)

	src := NewSource(builtin, "", "")
	docs, issues := src.LoadAll()

	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(docs))
	}
	if docs["echoer"].Def.Command != "echo" {
		t.Errorf("unexpected command: %s", docs["echoer"].Def.Command)
	}
}

func TestUserDefinitionReplacesBuiltin(t *testing.T) {
	builtin := t.TempDir()
	user := t.TempDir()
	writeDefinition(t, builtin, "x.json",
		`{"name": "X", "command": "a", "internal_args": ["--flag"]}`)
	writeDefinition(t, user, "x.json", `{"name": "X", "command": "b"}`)

	src := NewSource(builtin, "", user)
	docs, _ := src.LoadAll()

	doc, ok := docs["x"]
	if !ok {
		t.Fatal("expected client X to be present")
	}
	if doc.Def.Command != "b" {
		t.Errorf("user definition should win, got command %q", doc.Def.Command)
	}
	// Replacement, not merge: builtin internal_args must not leak through.
	if len(doc.Def.InternalArgs) != 0 {
		t.Errorf("expected full replacement, got internal_args %v", doc.Def.InternalArgs)
	}
}

func TestExtraPathBetweenBuiltinAndUser(t *testing.T) {
	builtin := t.TempDir()
	extra := t.TempDir()
	user := t.TempDir()
	writeDefinition(t, builtin, "a.json", `{"name": "a", "command": "builtin"}`)
	writeDefinition(t, extra, "a.json", `{"name": "a", "command": "extra"}`)
	writeDefinition(t, extra, "b.json", `{"name": "b", "command": "extra"}`)
	writeDefinition(t, user, "b.json", `{"name": "b", "command": "user"}`)

	src := NewSource(builtin, extra, user)
	docs, _ := src.LoadAll()

	if docs["a"].Def.Command != "extra" {
		t.Errorf("extra path should override builtin, got %q", docs["a"].Def.Command)
	}
	if docs["b"].Def.Command != "user" {
		t.Errorf("user dir should override extra path, got %q", docs["b"].Def.Command)
	}
}

func TestExtraPathAsSingleFile(t *testing.T) {
	extra := t.TempDir()
	path := writeDefinition(t, extra, "single.json", `{"name": "single", "command": "x"}`)

	src := NewSource("", path, "")
	docs, _ := src.LoadAll()

	if _, ok := docs["single"]; !ok {
		t.Error("a single-file extra path should be loaded")
	}
}

func TestMalformedFileIsSkippedNotFatal(t *testing.T) {
	builtin := t.TempDir()
	writeDefinition(t, builtin, "bad.json", `{not valid json`)
	writeDefinition(t, builtin, "good.json", `{"name": "good", "command": "echo"}`)
	writeDefinition(t, builtin, "noname.json", `{"command": "echo"}`)
	writeDefinition(t, builtin, "nocommand.json", `{"name": "nc"}`)

	src := NewSource(builtin, "", "")
	docs, issues := src.LoadAll()

	if len(docs) != 1 {
		t.Fatalf("expected only the good definition, got %d", len(docs))
	}
	if _, ok := docs["good"]; !ok {
		t.Error("good definition should survive bad siblings")
	}
	if len(issues) != 3 {
		t.Fatalf("expected 3 issues, got %v", issues)
	}
	for _, issue := range issues {
		if issue.Path == "" || issue.Reason == "" {
			t.Errorf("issue must name the offending file and reason: %+v", issue)
		}
	}
}

func TestMissingDirsAreIgnored(t *testing.T) {
	src := NewSource("/nonexistent/builtin", "", "/nonexistent/user")
	docs, issues := src.LoadAll()

	if len(docs) != 0 || len(issues) != 0 {
		t.Errorf("missing dirs should load nothing quietly, got %d docs, %v", len(docs), issues)
	}
}

func TestNonJSONFilesIgnored(t *testing.T) {
	builtin := t.TempDir()
	writeDefinition(t, builtin, "readme.txt", "not a definition")
	writeDefinition(t, builtin, "ok.json", `{"name": "ok", "command": "echo"}`)

	src := NewSource(builtin, "", "")
	docs, issues := src.LoadAll()

	if len(docs) != 1 || len(issues) != 0 {
		t.Errorf("non-JSON files should be ignored, got %d docs, %v", len(docs), issues)
	}
}

func TestDefinitionFieldsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeDefinition(t, dir, "full.json", `{
		"name": "full",
		"command": "my-agent --wrapped",
		"parser": "builtin:json",
		"runner": "builtin:default",
		"internal_args": ["--format", "json"],
		"additional_args": ["--yolo"],
		"timeout_seconds": 42,
		"env": {"API_KEY": "k"},
		"working_dir": "/tmp",
		"roles": {
			"reviewer": {"prompt_path": "prompts/review.md", "args": ["--strict"], "description": "code review"}
		}
	}`)

	src := NewSource(dir, "", "")
	docs, issues := src.LoadAll()
	if len(issues) != 0 {
		t.Fatalf("unexpected issues: %v", issues)
	}

	def := docs["full"].Def
	if def.Command != "my-agent --wrapped" {
		t.Errorf("command: %q", def.Command)
	}
	if def.Parser != "builtin:json" || def.TimeoutSeconds != 42 {
		t.Errorf("parser/timeout: %q %d", def.Parser, def.TimeoutSeconds)
	}
	if !strings.Contains(strings.Join(def.InternalArgs, " "), "--format json") {
		t.Errorf("internal_args: %v", def.InternalArgs)
	}
	if def.Env["API_KEY"] != "k" {
		t.Errorf("env: %v", def.Env)
	}
	role, ok := def.Roles["reviewer"]
	if !ok || role.PromptPath != "prompts/review.md" || len(role.Args) != 1 {
		t.Errorf("roles: %+v", def.Roles)
	}
}
