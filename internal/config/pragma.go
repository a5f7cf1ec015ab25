package config

import (
	"fmt"
	"sort"
)

// Pragma is a named boolean compiler switch, scoped to a single
// compilation unit. A pragma may be marked deprecated as of a given
// compiler version; enabling a deprecated pragma is a warning, not
// an error.
type Pragma struct {
	Name            string
	DeprecatedSince string // empty if not deprecated
}

// Recognized pragmas.
var (
	PragmaAllowPostModification = Pragma{Name: "allow_post_modification"}
	PragmaComputeAsmLTR         = Pragma{Name: "compute_asm_ltr"}
	PragmaRemoveUnusedFunctions = Pragma{Name: "remove_unused_functions", DeprecatedSince: "0.4.0"}
)

var knownPragmas = map[string]Pragma{
	PragmaAllowPostModification.Name: PragmaAllowPostModification,
	PragmaComputeAsmLTR.Name:         PragmaComputeAsmLTR,
	PragmaRemoveUnusedFunctions.Name: PragmaRemoveUnusedFunctions,
}

// PragmaSet tracks which pragmas are enabled for one compilation unit.
type PragmaSet struct {
	enabled map[string]bool
}

func NewPragmaSet() *PragmaSet {
	return &PragmaSet{enabled: make(map[string]bool)}
}

// Enable turns a pragma on by name, returning a deprecation warning
// message if the pragma is deprecated, or an error if the name is unknown.
func (p *PragmaSet) Enable(name string) (warning string, err error) {
	pragma, ok := knownPragmas[name]
	if !ok {
		return "", fmt.Errorf("unknown pragma %q", name)
	}
	p.enabled[name] = true
	if pragma.DeprecatedSince != "" {
		return fmt.Sprintf("pragma %q is deprecated since version %s", name, pragma.DeprecatedSince), nil
	}
	return "", nil
}

func (p *PragmaSet) Has(pragma Pragma) bool {
	if p == nil {
		return false
	}
	return p.enabled[pragma.Name]
}

// Names lists every enabled pragma in sorted order, for internal/buildcache's
// cache-key fingerprint (a pragma set is part of what a cached build result
// depends on).
func (p *PragmaSet) Names() []string {
	if p == nil {
		return nil
	}
	names := make([]string, 0, len(p.enabled))
	for name, on := range p.enabled {
		if on {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
