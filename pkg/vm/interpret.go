package vm

import (
	"errors"

	"github.com/teascript/tea/pkg/compiler"
	"github.com/teascript/tea/pkg/value"
)

// compileModule builds a fresh *value.Module for name and compiles source
// into it against the VM's shared globals table, so host-registered
// builtins resolve through DEFINE_GLOBAL/GET_GLOBAL while the module's own
// top-level declarations resolve through the DEFINE_MODULE family.
func (v *VM) compileModule(source, name string, repl bool) (*value.Function, *value.Module, error) {
	mod := value.NewModule(value.Intern(name), name)
	var fn *value.Function
	var errs []error
	if repl {
		fn, errs = compiler.CompileREPL(source, mod, v.globals)
	} else {
		fn, errs = compiler.Compile(source, mod, v.globals)
	}
	if len(errs) > 0 {
		return nil, nil, errors.Join(errs...)
	}
	return fn, mod, nil
}

// Compile is compileModule's exported form, for cmd/tea's build/disasm
// subcommands that need the compiled *value.Function without running it.
// Compiling (rather than only interpreting) still goes through the VM so
// host-registered globals (pkg/corelib, pkg/module natives) resolve the
// same way they would at run time.
func (v *VM) Compile(source, name string) (*value.Function, error) {
	fn, _, err := v.compileModule(source, name, false)
	return fn, err
}
