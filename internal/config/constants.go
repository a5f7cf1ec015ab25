// Package config holds process-wide, read-only compiler state: verbosity,
// optimization level, pragma flags, and the version banner. It is
// initialized once at startup and never mutated during a compilation unit.
package config

// Version is the compiler's version banner, exported for CLI use.
const Version = "0.4.5"

// SourceFileExt is the canonical Tolk source extension.
const SourceFileExt = ".tolk"

// SourceFileExtensions are all recognized source file extensions.
var SourceFileExtensions = []string{".tolk"}

// IsTestMode indicates the compiler is running under the test harness.
// No package in this module sets or reads it; diagnostic output is the
// same either way.
var IsTestMode = false

// Verbosity is the requested amount of progress/debug output. No package
// in this module sets or reads it, and the pipeline writes no progress
// output.
var Verbosity = 0

// OptLevel controls how aggressively the peephole optimizer (component E)
// rewrites emitted code. 0 disables peephole optimization entirely.
var OptLevel = 2

// StackLayoutComments is the stack-layout-comment switch. The stack
// codegen (component D) does not read it and emits no stack-layout
// comments whatever its value.
var StackLayoutComments = false

// GeneratedFrom is the banner string ("generated from ..."). No package
// in this module reads it; emitted assembly carries no banner.
var GeneratedFrom = ""

// OptimizeDepth is the fixed peephole window size the optimizer slides
// over emitted code, largest window first.
const OptimizeDepth = 20

// MaxStackDepth is the hard ceiling enforced by the stack codegen;
// exceeding it is always a fatal compiler error.
const MaxStackDepth = 255

// InfiniteWidth denotes "no upper bound" for a hole's width range.
const InfiniteWidth = 1023
