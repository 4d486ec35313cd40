package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/enthyp/tc/internal/config"
)

func TestDefaultEnablesOptimization(t *testing.T) {
	cfg := config.Default()
	if !cfg.OptimizeEnabled() {
		t.Fatalf("expected optimization enabled by default")
	}
	if cfg.Prompt != "calc> " || cfg.ContinuationPrompt != "... " {
		t.Fatalf("unexpected default prompts: %+v", cfg)
	}
}

func TestParseOverridesOnlyGivenFields(t *testing.T) {
	cfg, err := config.Parse([]byte("prompt: \"tc> \"\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Prompt != "tc> " {
		t.Fatalf("expected overridden prompt, got %q", cfg.Prompt)
	}
	if cfg.ContinuationPrompt != "... " {
		t.Fatalf("expected default continuation prompt to survive, got %q", cfg.ContinuationPrompt)
	}
	if !cfg.OptimizeEnabled() {
		t.Fatalf("expected optimize to default true when omitted")
	}
}

func TestParseCanDisableOptimization(t *testing.T) {
	cfg, err := config.Parse([]byte("optimize: false\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OptimizeEnabled() {
		t.Fatalf("expected optimize: false to disable the pipeline")
	}
}

func TestResolveFallsBackToDefaultWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := config.Resolve(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cfg.OptimizeEnabled() {
		t.Fatalf("expected default config when no .tcrc.yaml present")
	}
}

func TestResolveFindsConfigInParentDirectory(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, config.FileName), []byte("optimize: false\n"), 0o644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := config.Resolve(nested)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OptimizeEnabled() {
		t.Fatalf("expected nested lookup to find the parent .tcrc.yaml")
	}
}
