package commands

import (
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/glueforge/xsgen/config"
	"github.com/glueforge/xsgen/logger"
	"github.com/glueforge/xsgen/xs/diag"
	"github.com/glueforge/xsgen/xs/driver"
	"github.com/glueforge/xsgen/xs/sig"
	"github.com/glueforge/xsgen/xs/typemap"
)

// GenerateCmd compiles XS sources into generated C files
var GenerateCmd = &cobra.Command{
	Use:     "generate <file.xs> [more.xs...]",
	Aliases: []string{"gen"},
	Short:   "Compile XS files into glue code",
	Long: `Compile one or more XS binding files into C glue code.

Typemap files named in the configuration (and with --typemap) layer over
the builtin typemap table, later files shadowing earlier ones. Output goes
next to each input unless the configuration names an output directory.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGenerate,
}

func init() {
	GenerateCmd.Flags().StringSliceP("typemap", "t", nil,
		"Extra typemap file(s) layered over the configured ones")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	extra, _ := cmd.Flags().GetStringSlice("typemap")
	dict, err := buildDictionary(cfg, extra)
	if err != nil {
		return err
	}

	runID := uuid.New().String()
	rep := diag.NewReporter(diag.ContextTerminal)
	d := driver.New(driver.Options{
		Flags: featuresFrom(cfg),
		Dict:  dict,
		RunID: runID,
	}, rep)

	logger.Infow("starting generation",
		"run_id", runID,
		"inputs", len(args),
	)

	for _, in := range args {
		if err := d.CompileFile(in, outputPathFor(cfg, in)); err != nil {
			return err
		}
	}

	for _, msg := range rep.Format() {
		fmt.Fprintln(cmd.ErrOrStderr(), msg)
	}
	if rep.Failed() {
		return fmt.Errorf("generation failed with %d error(s)", len(rep.Errors()))
	}
	return nil
}

// buildDictionary layers the configured typemap files over the builtin table
func buildDictionary(cfg *config.Config, extra []string) (*typemap.Map, error) {
	dict := typemap.Builtin()
	for _, path := range append(append([]string{}, cfg.Typemap.Paths...), extra...) {
		if err := typemap.LoadFile(dict, path); err != nil {
			return nil, err
		}
		logger.Debugw("loaded typemap layer", "path", path)
	}
	return dict, nil
}

func featuresFrom(cfg *config.Config) sig.Features {
	return sig.Features{
		AllowArgTypes: cfg.Features.ArgTypes,
		AllowInOut:    cfg.Features.InOut,
		HierType:      cfg.Features.HierType,
	}
}

func outputPathFor(cfg *config.Config, in string) string {
	out := driver.OutputPath(in)
	if cfg.Output.Extension != "" && cfg.Output.Extension != ".c" {
		ext := filepath.Ext(in)
		out = in[:len(in)-len(ext)] + cfg.Output.Extension
	}
	if cfg.Output.Dir != "" {
		out = filepath.Join(cfg.Output.Dir, filepath.Base(out))
	}
	return out
}
