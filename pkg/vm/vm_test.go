package vm

import (
	"bytes"
	"testing"

	"github.com/teascript/tea/pkg/config"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/value"
)

// newTestVM builds a VM with a buffered Stdout so tests can assert on
// print output.
func newTestVM() (*VM, *bytes.Buffer) {
	cfg := config.Default()
	log := diag.New(cfg)
	v := New(cfg, log)
	var out bytes.Buffer
	v.Stdout = &out
	return v, &out
}

// run compiles and runs source as a throwaway module, failing the test on
// any compile or runtime error.
func run(t *testing.T, v *VM, source string) value.Value {
	t.Helper()
	result, err := v.Interpret(source, "<test>")
	if err != nil {
		t.Fatalf("interpret error: %v", err)
	}
	return result
}
