// Package module implements vm.ModuleLoader: resolving `import` statements
// either against a registry of native modules (registered, not bodied — see
// NativeModule) or against the filesystem via cfg.ImportPaths, caching the
// resolved native module object by name with a swiss-backed registry
// (dolthub/swiss, SPEC_FULL.md's domain-stack placement for this cache).
package module

import (
	"os"
	"path/filepath"

	"github.com/dolthub/swiss"
	"github.com/pkg/errors"

	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// NativeModule registers a built-in module by name. Build is called at most
// once per Loader, lazily, the first time the module is imported; its
// result is cached by Registry. Per SPEC_FULL.md's scope, this package
// supplies the registration mechanism only — no stdlib module (math, time,
// os, path, random, json, http, ...) is registered by default. An embedder
// wires its own modules with Registry.Register before handing the Loader
// to vm.VM.SetModuleLoader.
type NativeModule struct {
	Name  string
	Build func() *value.Module
}

// Registry holds the set of native modules a Loader can resolve, plus the
// once-built cache of their *value.Module results.
type Registry struct {
	natives *swiss.Map[string, NativeModule]
	built   *swiss.Map[string, *value.Module]
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		natives: swiss.NewMap[string, NativeModule](8),
		built:   swiss.NewMap[string, *value.Module](8),
	}
}

// Register adds nm, replacing any existing registration under the same name.
func (r *Registry) Register(nm NativeModule) {
	r.natives.Put(nm.Name, nm)
}

// Loader implements vm.ModuleLoader against a Registry (for `import name`)
// and a filesystem search path (for `import "path"`).
type Loader struct {
	registry    *Registry
	importPaths []string
}

// NewLoader builds a Loader. importPaths is searched in order for a
// string-literal import that isn't found relative to the current
// directory; typically cfg.ImportPaths.
func NewLoader(registry *Registry, importPaths []string) *Loader {
	return &Loader{registry: registry, importPaths: importPaths}
}

// ResolveNative implements vm.ModuleLoader.
func (l *Loader) ResolveNative(name string) (*value.Module, bool) {
	if mod, ok := l.registry.built.Get(name); ok {
		return mod, true
	}
	nm, ok := l.registry.natives.Get(name)
	if !ok {
		return nil, false
	}
	mod := nm.Build()
	l.registry.built.Put(name, mod)
	return mod, true
}

// ResolveSource implements vm.ModuleLoader: search the current directory,
// then each of importPaths, joined with the requested path (an existing
// absolute path is used as-is); the canonical path (used to
// key the VM's compiled-module cache, guarding against import cycles and
// giving repeated imports identity-equal modules) is the resolved file's
// absolute, symlink-resolved path.
func (l *Loader) ResolveSource(path string) (string, string, error) {
	full, err := l.find(path)
	if err != nil {
		return "", "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", "", diag.WrapHostError(err, "reading module %q", path)
	}
	canonical, err := filepath.EvalSymlinks(full)
	if err != nil {
		canonical = full
	}
	if abs, err := filepath.Abs(canonical); err == nil {
		canonical = abs
	}
	return string(data), canonical, nil
}

func (l *Loader) find(path string) (string, error) {
	if filepath.IsAbs(path) {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	candidates := append([]string{"."}, l.importPaths...)
	for _, dir := range candidates {
		full := filepath.Join(dir, path)
		if _, err := os.Stat(full); err == nil {
			return full, nil
		}
	}
	return "", errors.Errorf("module %q not found in import paths", path)
}
