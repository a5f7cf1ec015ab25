// Package cli implements the tolkc command-line entry point: flag
// parsing, file I/O, optional sqlite build caching, and colorized
// diagnostic rendering - the same responsibilities the teacher's own
// pkg/cli carries for its funxy binary (os.Args-driven subcommands,
// os.Exit exit codes, go-isatty-gated color), generalized here to a
// single-purpose compiler front end instead of an interpreter/bundler.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/tolklang/tolk/internal/buildcache"
	"github.com/tolklang/tolk/internal/builtins"
	"github.com/tolklang/tolk/internal/compileserver"
	"github.com/tolklang/tolk/internal/config"
	"github.com/tolklang/tolk/internal/diagnostics"
	"github.com/tolklang/tolk/internal/pipeline"
)

// Options holds tolkc's parsed flags.
type Options struct {
	InputPath    string
	OutputPath   string
	OptLevel     int
	OptLevelSet  bool
	Pragmas      []string
	CacheDir     string
	Color        *bool // nil means "auto-detect from the output stream"
	ListBuiltins bool
}

// ParseArgs parses tolkc's flags out of args (os.Args[1:]).
//
//	tolkc <input.json> [-o out.fif] [-O0|-O1|-O2] [-pragma name] [-cache dir] [-color|-no-color]
//	tolkc -list-builtins
func ParseArgs(args []string) (Options, error) {
	opts := Options{OptLevel: config.OptLevel}
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "-list-builtins":
			opts.ListBuiltins = true
		case arg == "-o":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("tolkc: -o requires an argument")
			}
			i++
			opts.OutputPath = args[i]
		case arg == "-cache":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("tolkc: -cache requires a directory argument")
			}
			i++
			opts.CacheDir = args[i]
		case arg == "-pragma":
			if i+1 >= len(args) {
				return opts, fmt.Errorf("tolkc: -pragma requires a name argument")
			}
			i++
			opts.Pragmas = append(opts.Pragmas, args[i])
		case strings.HasPrefix(arg, "-O") && len(arg) == 3:
			lvl, err := strconv.Atoi(arg[2:])
			if err != nil {
				return opts, fmt.Errorf("tolkc: invalid optimization level %q", arg)
			}
			opts.OptLevel = lvl
			opts.OptLevelSet = true
		case arg == "-color":
			on := true
			opts.Color = &on
		case arg == "-no-color":
			off := false
			opts.Color = &off
		case strings.HasPrefix(arg, "-"):
			return opts, fmt.Errorf("tolkc: unrecognized flag %q", arg)
		default:
			if opts.InputPath != "" {
				return opts, fmt.Errorf("tolkc: unexpected extra argument %q", arg)
			}
			opts.InputPath = arg
		}
	}
	if !opts.ListBuiltins && opts.InputPath == "" {
		return opts, fmt.Errorf("tolkc: no input file given\nusage: tolkc <units.json> [-o out.fif] [-O0|-O1|-O2] [-pragma name] [-cache dir]")
	}
	return opts, nil
}

// Run executes tolkc end to end and returns the process exit code,
// mirroring the teacher's handleX() family that each terminate the
// process directly - here collected into one return value so Run stays
// testable without actually calling os.Exit.
func Run(args []string, stdout, stderr io.Writer) int {
	opts, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if opts.ListBuiltins {
		return runListBuiltins(stdout, stderr)
	}

	return runCompile(opts, stdout, stderr)
}

func runListBuiltins(stdout, stderr io.Writer) int {
	names := builtins.Std().Names()
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(stdout, name)
	}
	return 0
}

func runCompile(opts Options, stdout, stderr io.Writer) int {
	source, err := os.ReadFile(opts.InputPath)
	if err != nil {
		fmt.Fprintf(stderr, "tolkc: %s\n", err)
		return 1
	}

	projectCfg, err := config.LoadProjectConfig("tolk.yaml")
	if err != nil {
		fmt.Fprintf(stderr, "tolkc: %s\n", err)
		return 1
	}
	if !opts.OptLevelSet && projectCfg.OptLevel != nil {
		opts.OptLevel = *projectCfg.OptLevel
	}
	if opts.OutputPath == "" && projectCfg.OutDir != "" {
		opts.OutputPath = projectCfg.OutDir + "/" + strings.TrimSuffix(filepath.Base(opts.InputPath), filepath.Ext(opts.InputPath)) + ".fif"
	}
	config.OptLevel = opts.OptLevel

	pragmas := config.NewPragmaSet()
	for _, warning := range projectCfg.Apply(pragmas) {
		fmt.Fprintf(stderr, "tolkc: warning: %s\n", warning)
	}
	var convErrs []error
	for _, name := range opts.Pragmas {
		if warning, err := pragmas.Enable(name); err != nil {
			convErrs = append(convErrs, err)
		} else if warning != "" {
			fmt.Fprintf(stderr, "tolkc: warning: %s\n", warning)
		}
	}

	var cache *buildcache.Cache
	var cacheKey string
	if opts.CacheDir != "" {
		if err := os.MkdirAll(opts.CacheDir, 0o755); err != nil {
			fmt.Fprintf(stderr, "tolkc: creating cache dir: %s\n", err)
			return 1
		}
		cache, err = buildcache.Open(opts.CacheDir + "/tolkc-cache.sqlite")
		if err != nil {
			fmt.Fprintf(stderr, "tolkc: %s\n", err)
			return 1
		}
		defer cache.Close()

		cacheKey = buildcache.Key(source, opts.OptLevel, pragmas.Names())
		if asm, ok, err := cache.Lookup(cacheKey); err == nil && ok {
			writeOutput(stdout, opts.OutputPath, asm)
			return 0
		}
	}

	defs, decodeErrs := compileserver.DecodeUnits(source)
	convErrs = append(convErrs, decodeErrs...)
	ctx := pipeline.NewPipelineContext(defs)
	ctx.Pragmas = pragmas

	final := pipeline.Standard().Run(ctx)

	color := shouldColor(opts.Color, stderr)
	exitCode := 0
	for _, convErr := range convErrs {
		fmt.Fprintf(stderr, "tolkc: %s\n", convErr)
		exitCode = 1
	}
	for _, e := range final.Errors {
		fmt.Fprint(stderr, diagnostics.Render(e, string(source), color))
		if !e.Warning {
			exitCode = 1
		}
	}
	if exitCode != 0 {
		return exitCode
	}

	var out strings.Builder
	for _, r := range final.Results {
		if r.Failed {
			continue
		}
		out.WriteString(r.Text)
	}
	asm := out.String()

	if cache != nil {
		if err := cache.Store(cacheKey, asm, source); err != nil {
			fmt.Fprintf(stderr, "tolkc: warning: failed to cache build: %s\n", err)
		}
	}

	writeOutput(stdout, opts.OutputPath, asm)
	return 0
}

func writeOutput(stdout io.Writer, outputPath, asm string) {
	if outputPath == "" {
		fmt.Fprint(stdout, asm)
		return
	}
	if err := os.WriteFile(outputPath, []byte(asm), 0o644); err != nil {
		fmt.Fprintf(stdout, "tolkc: writing %s: %s\n", outputPath, err)
	}
}

// shouldColor decides whether to colorize diagnostics: an explicit
// -color/-no-color flag wins, otherwise color follows whether stderr is
// a real terminal, the same check the teacher's builtins_term.go uses
// before emitting ANSI codes.
func shouldColor(explicit *bool, stderr io.Writer) bool {
	if explicit != nil {
		return *explicit
	}
	f, ok := stderr.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
