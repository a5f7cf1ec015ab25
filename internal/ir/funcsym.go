package ir

import "github.com/tolklang/tolk/internal/types"

// FuncFlags mirrors the bit meanings of builtins.FuncFlag but applies to
// user-defined functions, whose body this package lowers rather than
// compiling through a table entry.
type FuncFlags int

const (
	FlagInline FuncFlags = 1 << iota
	FlagInlineRef
	FlagWrapsAnotherF
	FlagUsedAsNonCall
	FlagMarkedAsPure
	FlagGetMethod
)

func (f FuncFlags) Has(bit FuncFlags) bool { return f&bit != 0 }

// FuncSymbol is one entry of the global function table: a user-defined
// function's signature, flags, and (once lowering has run) its body.
// arg_order/ret_order let a function be declared with a calling
// convention that does not pass/return values in declaration order,
// letting codegen place them directly instead of spending XCHGs to
// reach the default order first.
type FuncSymbol struct {
	Name       string
	Flags      FuncFlags
	ParamTypes []types.Type
	ResultType types.Type

	// MethodID is the get-method dictionary key, valid only when Flags
	// has FlagGetMethod set.
	MethodID uint32

	// ArgOrder/RetOrder are permutations of [0,n) from declaration index
	// to calling-convention index. Nil means the identity permutation.
	ArgOrder []int
	RetOrder []int

	Body *CodeBlob
}

func (f *FuncSymbol) IsPure() bool      { return f.Flags.Has(FlagMarkedAsPure) }
func (f *FuncSymbol) IsGetMethod() bool { return f.Flags.Has(FlagGetMethod) }

// SymbolTable holds every user-defined function in a compilation unit,
// keyed by name, and implements CalleeResolver so DeduceType can bind
// calls to other units' functions the same way it binds built-ins.
type SymbolTable struct {
	funcs map[string]*FuncSymbol
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{funcs: make(map[string]*FuncSymbol)}
}

func (t *SymbolTable) Declare(f *FuncSymbol) { t.funcs[f.Name] = f }

func (t *SymbolTable) Func(name string) (*FuncSymbol, bool) {
	f, ok := t.funcs[name]
	return f, ok
}

func (t *SymbolTable) Lookup(name string) (FuncSignature, bool) {
	f, ok := t.funcs[name]
	if !ok {
		return FuncSignature{}, false
	}
	return FuncSignature{
		Name:       f.Name,
		ParamTypes: f.ParamTypes,
		ResultType: f.ResultType,
		Pure:       f.IsPure(),
	}, true
}

// ChainResolver tries each resolver in order, letting a compilation
// unit's own symbol table shadow neither before nor after the built-in
// table; both are consulted, first match wins.
type ChainResolver []CalleeResolver

func (c ChainResolver) Lookup(name string) (FuncSignature, bool) {
	for _, r := range c {
		if sig, ok := r.Lookup(name); ok {
			return sig, true
		}
	}
	return FuncSignature{}, false
}
