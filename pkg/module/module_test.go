package module_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/module"
	"github.com/teascript/tea/pkg/value"
)

func TestResolveNativeBuildsLazilyAndCaches(t *testing.T) {
	calls := 0
	reg := module.NewRegistry()
	reg.Register(module.NativeModule{
		Name: "math",
		Build: func() *value.Module {
			calls++
			return value.NewModule(value.Intern("math"), "math")
		},
	})
	loader := module.NewLoader(reg, nil)

	mod1, ok := loader.ResolveNative("math")
	require.True(t, ok)
	require.NotNil(t, mod1)

	mod2, ok := loader.ResolveNative("math")
	require.True(t, ok)
	require.Same(t, mod1, mod2)
	require.Equal(t, 1, calls)
}

func TestResolveNativeUnknownName(t *testing.T) {
	reg := module.NewRegistry()
	loader := module.NewLoader(reg, nil)
	_, ok := loader.ResolveNative("nosuch")
	require.False(t, ok)
}

func TestResolveSourceSearchesImportPaths(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "libs")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	target := filepath.Join(sub, "helpers.tea")
	require.NoError(t, os.WriteFile(target, []byte("var x = 1;"), 0o644))

	reg := module.NewRegistry()
	loader := module.NewLoader(reg, []string{sub})

	source, canonical, err := loader.ResolveSource("helpers.tea")
	require.NoError(t, err)
	require.Equal(t, "var x = 1;", source)
	require.NotEmpty(t, canonical)
	require.True(t, filepath.IsAbs(canonical))
}

func TestResolveSourceNotFound(t *testing.T) {
	reg := module.NewRegistry()
	loader := module.NewLoader(reg, []string{t.TempDir()})
	_, _, err := loader.ResolveSource("missing.tea")
	require.Error(t, err)
}
