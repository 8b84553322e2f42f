package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hobbyos/asmc/internal/asmc"
	"github.com/hobbyos/asmc/internal/inspect"
)

var (
	formatFlag  string
	outputFlag  string
	verboseFlag bool
	logFileFlag string
	noColorFlag bool
)

// rootCmd carries the "2.2.1" version exposed via --version; the original
// "ASMC v2.2.1" banner and usage line are printed by runAssemble when no
// output path is given.
var rootCmd = &cobra.Command{
	Use:     "asmc <input> <output>",
	Short:   "A two-pass x86 assembler for hobby-OS development",
	Version: "2.2.1",
	Args:    cobra.RangeArgs(1, 2),
	Run:     runAssemble,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <object-file>",
	Short: "Browse an assembled ELF32 object or flat binary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return inspect.Run(args[0])
	},
}

func init() {
	rootCmd.Flags().StringVar(&formatFlag, "format", "", "output format: elf or binary (overrides the in-source default)")
	rootCmd.Flags().StringVarP(&outputFlag, "output", "o", "", "output file path (alternative to the second positional argument)")
	rootCmd.Flags().BoolVar(&verboseFlag, "verbose", false, "log pass-by-pass progress to stderr")
	rootCmd.Flags().StringVar(&logFileFlag, "log-file", "", "additionally fan verbose logs out to this file")
	rootCmd.Flags().BoolVar(&noColorFlag, "no-color", false, "disable colorized diagnostics")

	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAssemble(cmd *cobra.Command, args []string) {
	cfg, err := asmc.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "asmc: loading config:", err)
	}

	if noColorFlag || !cfg.Color {
		color.NoColor = true
	}

	inputPath := args[0]
	outputPath := outputFlag
	if outputPath == "" {
		if len(args) < 2 {
			fmt.Println("ASMC v2.2.1")
			fmt.Println("Usage: asmc in.asm out.o")
			os.Exit(1)
		}
		outputPath = args[1]
	}

	logger, closeLog, err := asmc.NewLogger(verboseFlag, logFileFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "asmc: opening log file:", err)
		os.Exit(1)
	}
	defer closeLog()

	src, err := os.ReadFile(inputPath)
	if err != nil {
		printDiagnostic(&asmc.AsmError{Kind: asmc.ErrFileIO, Line: 0, Message: err.Error()})
		os.Exit(1)
	}

	a, err := asmc.NewAssembler()
	if err != nil {
		fmt.Fprintln(os.Stderr, "asmc: building instruction catalogue:", err)
		os.Exit(1)
	}

	format := formatFlag
	if format == "" {
		format = cfg.DefaultFormat
	}
	if format == "binary" {
		a.SetDefaultFormat(asmc.FormatBinary)
	}
	if cfg.Use16 {
		a.SetUse16(true)
	}

	logger.Info("starting pass 1", "input", inputPath)
	result, err := a.Assemble(string(src))
	if err != nil {
		if asmErr, ok := err.(*asmc.AsmError); ok {
			printDiagnostic(asmErr)
			os.Exit(1)
		}
		fmt.Fprintln(os.Stderr, "asmc:", err)
		os.Exit(1)
	}
	logger.Info("assembly complete", "text_bytes", result.TextBytes, "data_bytes", result.DataBytes)

	if err := os.WriteFile(outputPath, result.Output, 0o644); err != nil {
		printDiagnostic(&asmc.AsmError{Kind: asmc.ErrFileIO, Line: 0, Message: err.Error()})
		os.Exit(1)
	}

	fmt.Printf("Success: %s (%d bytes code, %d bytes data)\n", outputPath, result.TextBytes, result.DataBytes)
}

// printDiagnostic prints the single-line [ASMC ERROR] diagnostic in red to
// standard output, matching asmc_core.c's panic() (a plain printf, not a
// stderr write) before it exits.
func printDiagnostic(e *asmc.AsmError) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Printf("%s\n", red(fmt.Sprintf("[ASMC ERROR] Line %d: %s", e.Line, e.Message)))
}
