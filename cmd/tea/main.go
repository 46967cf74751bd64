// Command tea is the teascript CLI: run/build/disasm/repl/version
// subcommands over pkg/vm, generalized from the teacher's cmd/smog
// os.Args-switch main into cobra subcommands (grounded on
// saferwall-pe's cmd/pedumper.go for the rootCmd/AddCommand/flag shape).
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teascript/tea/pkg/chunk"
	"github.com/teascript/tea/pkg/config"
	"github.com/teascript/tea/pkg/corelib"
	"github.com/teascript/tea/pkg/diag"
	"github.com/teascript/tea/pkg/module"
	"github.com/teascript/tea/pkg/value"
	"github.com/teascript/tea/pkg/vm"
)

const version = "0.1.0"

var (
	flagDebug       bool
	flagNoColor     bool
	flagImportPaths []string
	flagOut         string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "tea",
		Short: "The teascript interpreter",
		Long:  "tea compiles and runs teascript (.tea) source files and their compiled bytecode form.",
	}
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "d", false, "enable GC/compile trace output")
	rootCmd.PersistentFlags().BoolVarP(&flagNoColor, "no-color", "", false, "disable colored diagnostics")
	rootCmd.PersistentFlags().StringSliceVarP(&flagImportPaths, "import-path", "I", nil, "additional module search directory (repeatable)")

	runCmd := &cobra.Command{
		Use:   "run <file>",
		Short: "Run a .tea source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFile(args[0])
		},
	}

	buildCmd := &cobra.Command{
		Use:   "build <file.tea>",
		Short: "Compile a .tea file to bytecode",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return buildFile(args[0], flagOut)
		},
	}
	buildCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output file (defaults to <file> with .teac extension)")

	disasmCmd := &cobra.Command{
		Use:   "disasm <file>",
		Short: "Disassemble a .tea source or .teac bytecode file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return disasmFile(args[0])
		},
	}

	replCmd := &cobra.Command{
		Use:   "repl",
		Short: "Start the interactive REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL()
		},
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the tea version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tea version %s\n", version)
		},
	}

	rootCmd.AddCommand(runCmd, buildCmd, disasmCmd, replCmd, versionCmd)
	// No arguments at all: behave like the teacher's CLI and fall into the REPL.
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "repl")
	}

	if err := rootCmd.Execute(); err != nil {
		diag.Fatalf("%v", err)
	}
}

// newConfig builds a Config from the persistent flags, honoring TEA_GC_LOG
// the same way pkg/diag's GCLogEnabled does for the Debug trace line.
func newConfig() *config.Config {
	cfg := config.Default()
	cfg.Debug = flagDebug || diag.GCLogEnabled()
	if flagNoColor {
		off := false
		cfg.Color = &off
	}
	cfg.ImportPaths = append(cfg.ImportPaths, flagImportPaths...)
	return cfg
}

// newVM builds a VM with the core method tables and a filesystem-backed
// module loader wired in, the shared setup every subcommand that executes
// or compiles teascript needs.
func newVM(cfg *config.Config, log *diag.Logger) *vm.VM {
	v := vm.New(cfg, log)
	corelib.Install(v)
	registry := module.NewRegistry()
	v.SetModuleLoader(module.NewLoader(registry, cfg.ImportPaths))
	return v
}

func runFile(path string) error {
	cfg := newConfig()
	log := diag.New(cfg)
	v := newVM(cfg, log)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	_, err = v.Interpret(string(data), path)
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	return nil
}

func buildFile(path, out string) error {
	cfg := newConfig()
	log := diag.New(cfg)
	v := newVM(cfg, log)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	fn, err := v.Compile(string(data), path)
	if err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}
	if out == "" {
		out = trimExt(path) + ".teac"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()
	return chunk.Dump(fn, f)
}

func disasmFile(path string) error {
	cfg := newConfig()
	log := diag.New(cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var fn *value.Function
	if filepath.Ext(path) == ".teac" {
		fn, err = chunk.Undump(bytes.NewReader(data))
		if err != nil {
			return err
		}
	} else {
		v := newVM(cfg, log)
		fn, err = v.Compile(string(data), path)
		if err != nil {
			log.Error("%v", err)
			os.Exit(1)
		}
	}
	printDisassembly(fn, filepath.Base(path))
	return nil
}

// printDisassembly walks fn's constant pool, recursively printing each
// nested function/method prototype's own chunk after the outer one —
// matching how the teacher's disassembler handles nested blocks.
func printDisassembly(fn *value.Function, name string) {
	c, ok := fn.Chunk.(*chunk.Chunk)
	if !ok {
		return
	}
	fmt.Print(chunk.Disassemble(c, name))
	for _, constant := range c.Constants {
		if !constant.IsObject() {
			continue
		}
		if nested, ok := constant.AsObject().(*value.Function); ok {
			nestedName := name
			if nested.Name != nil {
				nestedName = string(nested.Name.Chars)
			}
			printDisassembly(nested, nestedName)
		}
	}
}

func trimExt(path string) string {
	ext := filepath.Ext(path)
	return path[:len(path)-len(ext)]
}
