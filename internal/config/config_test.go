package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPragmaSetEnableRejectsUnknownName(t *testing.T) {
	set := NewPragmaSet()
	if _, err := set.Enable("not_a_real_pragma"); err == nil {
		t.Fatal("expected an error for an unknown pragma name")
	}
}

func TestPragmaSetEnableWarnsOnDeprecated(t *testing.T) {
	set := NewPragmaSet()
	warning, err := set.Enable(PragmaRemoveUnusedFunctions.Name)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if warning == "" {
		t.Error("expected a deprecation warning")
	}
	if !set.Has(PragmaRemoveUnusedFunctions) {
		t.Error("expected the pragma to be recorded as enabled despite the warning")
	}
}

func TestPragmaSetNamesSortedAndFiltersDisabled(t *testing.T) {
	set := NewPragmaSet()
	if _, err := set.Enable(PragmaComputeAsmLTR.Name); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := set.Enable(PragmaAllowPostModification.Name); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names := set.Names()
	want := []string{PragmaAllowPostModification.Name, PragmaComputeAsmLTR.Name}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i, name := range want {
		if names[i] != name {
			t.Errorf("expected sorted names %v, got %v", want, names)
			break
		}
	}
}

func TestPragmaSetNamesOnNilReceiverIsEmpty(t *testing.T) {
	var set *PragmaSet
	if names := set.Names(); names != nil {
		t.Errorf("expected nil Names() on a nil PragmaSet, got %v", names)
	}
	if set.Has(PragmaComputeAsmLTR) {
		t.Error("expected Has() on a nil PragmaSet to report false")
	}
}

func TestLoadProjectConfigMissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadProjectConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OptLevel != nil || cfg.OutDir != "" || len(cfg.Pragmas) != 0 {
		t.Errorf("expected a zero-value config, got %+v", cfg)
	}
}

func TestLoadProjectConfigParsesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tolk.yaml")
	yaml := "optLevel: 2\npragmas:\n  - allow_post_modification\noutDir: build\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.OptLevel == nil || *cfg.OptLevel != 2 {
		t.Errorf("expected OptLevel 2, got %v", cfg.OptLevel)
	}
	if cfg.OutDir != "build" {
		t.Errorf("expected OutDir %q, got %q", "build", cfg.OutDir)
	}
	if len(cfg.Pragmas) != 1 || cfg.Pragmas[0] != "allow_post_modification" {
		t.Errorf("expected one pragma, got %v", cfg.Pragmas)
	}
}

func TestProjectConfigApplyReturnsDeprecationWarnings(t *testing.T) {
	cfg := &ProjectConfig{Pragmas: []string{PragmaRemoveUnusedFunctions.Name, PragmaComputeAsmLTR.Name}}
	set := NewPragmaSet()

	warnings := cfg.Apply(set)
	if len(warnings) != 1 {
		t.Fatalf("expected exactly one deprecation warning, got %v", warnings)
	}
	if !set.Has(PragmaComputeAsmLTR) || !set.Has(PragmaRemoveUnusedFunctions) {
		t.Error("expected both pragmas to be enabled regardless of deprecation")
	}
}

func TestProjectConfigApplyIgnoresUnknownPragmaSilently(t *testing.T) {
	cfg := &ProjectConfig{Pragmas: []string{"not_a_real_pragma"}}
	set := NewPragmaSet()

	warnings := cfg.Apply(set)
	if len(warnings) != 0 {
		t.Errorf("expected no warnings for an unknown pragma, got %v", warnings)
	}
}
