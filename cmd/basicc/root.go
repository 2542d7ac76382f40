package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"basicc/compile"
	"basicc/compiler/config"
)

var (
	flagOutput         string
	flagVerbose        bool
	flagDumpCFG        bool
	flagDumpIL         bool
	flagNoBoundsCheck  bool
	flagConfigPath     string
)

var rootCmd = &cobra.Command{
	Use:   "basicc <input>",
	Short: "basicc compiles a lowered BASIC program to QBE intermediate language",
	Long: `basicc reads a pre-built AST and symbol table (the output of an
upstream lexer/parser/semantic analyzer) and emits QBE intermediate
language text: one function per FUNCTION/SUB/DEF FN plus $main.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompile,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&flagOutput, "output", "o", "", "output file path (default: stdout)")
	flags.BoolVar(&flagVerbose, "verbose", false, "print progress for each pipeline stage")
	flags.BoolVar(&flagDumpCFG, "dump-cfg", false, "print each function's control flow graph")
	flags.BoolVar(&flagDumpIL, "dump-ir", false, "print the generated QBE IL")
	flags.BoolVar(&flagNoBoundsCheck, "no-bounds-check", false, "disable array bounds checking")
	flags.StringVar(&flagConfigPath, "config", "basicc.yaml", "path to an optional project config file")
}

// runCompile drives the pipeline for one input file, returning a non-nil
// error on failure so Execute's exit-code mapping in main.go applies.
func runCompile(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	program, symTable, err := loadInput(inputPath)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("reading %s: %w", inputPath, err)}
	}

	cfg, err := config.Load(flagConfigPath)
	if err != nil {
		return &exitError{code: 1, err: fmt.Errorf("reading config %s: %w", flagConfigPath, err)}
	}

	opts := compile.DefaultPipelineOptions()
	opts.Program = program
	opts.SymTable = symTable
	opts.Verbose = flagVerbose
	opts.DumpCFG = flagDumpCFG
	opts.DumpIL = flagDumpIL
	opts.BoundsCheck = cfg.BoundsCheck
	if flagNoBoundsCheck {
		opts.BoundsCheck = false
	}

	result, err := compile.Pipeline(opts)
	if err != nil {
		return err
	}

	for _, e := range result.BuildErrors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e.Error())
	}
	for _, e := range result.GenErrors {
		fmt.Fprintf(os.Stderr, "warning: %s\n", e.Error())
	}

	if flagOutput == "" {
		fmt.Print(result.IL)
		return nil
	}

	return os.WriteFile(flagOutput, []byte(result.IL), 0o644)
}

func Execute() error {
	return rootCmd.Execute()
}
