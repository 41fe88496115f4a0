package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSubcommandsRegistered(t *testing.T) {
	want := map[string]bool{"build": false, "serve": false, "import": false, "version": false}
	for _, c := range rootCmd.Commands() {
		name := strings.Fields(c.Use)[0]
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %s not registered", name)
		}
	}
}

func TestBuildFlagsDeclared(t *testing.T) {
	for _, name := range []string{"out", "snippets-dir", "element", "attr", "strict", "concurrency", "deps"} {
		if buildCmd.Flags().Lookup(name) == nil {
			t.Errorf("build flag --%s missing", name)
		}
	}
}

func TestServeFlagsDeclared(t *testing.T) {
	for _, name := range []string{"addr", "docs-dir", "snippets-dir"} {
		if serveCmd.Flags().Lookup(name) == nil {
			t.Errorf("serve flag --%s missing", name)
		}
	}
}

func TestBuildCommandEndToEnd(t *testing.T) {
	docs := t.TempDir()
	out := t.TempDir()
	snips := filepath.Join(docs, "_snippets")
	if err := os.MkdirAll(snips, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(snips, "s.md"), []byte("shared"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(docs, "page.md"), []byte("<Snippet file=\"s.md\" />\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rootCmd.SetArgs([]string{"build", docs, "--out", out, "--snippets-dir", snips})
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		buildFlags.out, buildFlags.snippetsDir = "", ""
	})

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(out, "page.md"))
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if !strings.Contains(string(data), "shared") {
		t.Errorf("not expanded:\n%s", data)
	}
}
