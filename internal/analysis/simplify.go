// Package analysis implements component C: the ordered passes that run
// over a constructed CodeBlob before codegen — simplifying var types,
// splitting wide variables into scalars, pruning unreachable code,
// backward liveness, forward value-descriptor propagation, and
// no-return marking.
package analysis

import (
	"github.com/tolklang/tolk/internal/ir"
	"github.com/tolklang/tolk/internal/types"
)

// SimplifyVarTypes resolves every TmpVar's type through the arena's
// union-find, so later passes never have to chase a hole themselves.
// This is the direct analogue of remove_indirect applied to every
// variable's type.
func SimplifyVarTypes(a *types.Arena, code *ir.CodeBlob) {
	for _, v := range code.Vars {
		v.Type = a.Find(v.Type)
	}
}
