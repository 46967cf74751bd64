package vm

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/config"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// fakeLoader resolves native modules from an in-memory map and source
// imports from an in-memory filesystem, for exercising import wiring
// without touching the real filesystem or module registry.
type fakeLoader struct {
	natives map[string]*value.Module
	sources map[string]string
}

func (f *fakeLoader) ResolveNative(name string) (*value.Module, bool) {
	m, ok := f.natives[name]
	return m, ok
}

func (f *fakeLoader) ResolveSource(path string) (string, string, error) {
	src, ok := f.sources[path]
	if !ok {
		return "", "", fmt.Errorf("no such module %q", path)
	}
	return src, path, nil
}

func newLoaderVM(loader *fakeLoader) *VM {
	cfg := config.Default()
	v := New(cfg, diag.New(cfg))
	v.SetModuleLoader(loader)
	return v
}

func TestImportNativeModule(t *testing.T) {
	mathMod := value.NewModule(value.Intern("math"), "math")
	mathMod.Values.SetStr("PI", value.NumberVal(3.25))
	loader := &fakeLoader{natives: map[string]*value.Module{"math": mathMod}}
	v := newLoaderVM(loader)

	result, err := v.Interpret(`
		import math;
		math.PI;
	`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 3.25, result.AsNumber())
}

func TestImportFromNativeModule(t *testing.T) {
	mathMod := value.NewModule(value.Intern("math"), "math")
	mathMod.Values.SetStr("PI", value.NumberVal(3.25))
	loader := &fakeLoader{natives: map[string]*value.Module{"math": mathMod}}
	v := newLoaderVM(loader)

	result, err := v.Interpret(`
		from math import PI;
		PI;
	`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 3.25, result.AsNumber())
}

func TestImportSourcePath(t *testing.T) {
	loader := &fakeLoader{sources: map[string]string{
		"util.tea": `var magic = 42;`,
	}}
	v := newLoaderVM(loader)

	result, err := v.Interpret(`
		import "util.tea" as util;
		util.magic;
	`, "<test>")
	require.NoError(t, err)
	require.Equal(t, 42.0, result.AsNumber())
}

func TestImportUnknownModuleErrors(t *testing.T) {
	v := newLoaderVM(&fakeLoader{})
	_, err := v.Interpret(`import nosuch;`, "<test>")
	require.Error(t, err)
}

func TestImportsDisabledByDefault(t *testing.T) {
	cfg := config.Default()
	v := New(cfg, diag.New(cfg))
	_, err := v.Interpret(`import math;`, "<test>")
	require.Error(t, err)
}
