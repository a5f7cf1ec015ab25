// Package tests drives the seed suite of end-to-end compilation
// scenarios as txtar golden fixtures: each fixture embeds a units_json
// input and a list of substrings the emitted assembly must contain, in
// order, the same run-the-real-pipeline-and-compare-text shape the
// teacher's own functional tests used, but against the pipeline's
// FuncDef forest directly rather than shelling out to a built binary.
package tests

import (
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/tools/txtar"

	"github.com/tolklang/tolk/internal/compileserver"
	"github.com/tolklang/tolk/internal/pipeline"
)

func TestGoldenFixtures(t *testing.T) {
	matches, err := filepath.Glob("fixtures/*.txtar")
	if err != nil {
		t.Fatalf("globbing fixtures: %v", err)
	}
	if len(matches) == 0 {
		t.Fatal("no fixtures found")
	}

	for _, path := range matches {
		path := path
		t.Run(filepath.Base(path), func(t *testing.T) {
			ar, err := txtar.ParseFile(path)
			if err != nil {
				t.Fatalf("parsing %s: %v", path, err)
			}

			input := fixtureFile(ar, "input.json")
			if input == nil {
				t.Fatalf("%s: missing input.json section", path)
			}

			defs, convErrs := compileserver.DecodeUnits(input)
			for _, err := range convErrs {
				t.Fatalf("decoding units: %v", err)
			}

			ctx := pipeline.NewPipelineContext(defs)
			final := pipeline.Standard().Run(ctx)
			for _, e := range final.Errors {
				t.Fatalf("pipeline error: %s", e.Error())
			}

			var text strings.Builder
			for _, r := range final.Results {
				text.WriteString(r.Text)
			}
			got := text.String()

			if want := fixtureFile(ar, "want.txt"); want != nil {
				pos := 0
				for _, line := range nonEmptyLines(want) {
					idx := strings.Index(got[pos:], line)
					if idx < 0 {
						t.Fatalf("expected %q (in order) in emitted code, got:\n%s", line, got)
					}
					pos += idx + len(line)
				}
			}

			if forbid := fixtureFile(ar, "forbid.txt"); forbid != nil {
				for _, line := range nonEmptyLines(forbid) {
					if strings.Contains(got, line) {
						t.Fatalf("did not expect %q in emitted code, got:\n%s", line, got)
					}
				}
			}
		})
	}
}

func fixtureFile(ar *txtar.Archive, name string) []byte {
	for _, f := range ar.Files {
		if f.Name == name {
			return f.Data
		}
	}
	return nil
}

func nonEmptyLines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
