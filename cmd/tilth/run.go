package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/aretw0/tilth"
	"github.com/aretw0/tilth/pkg/adapters/fs"
	"github.com/aretw0/tilth/pkg/core"
	"github.com/aretw0/tilth/pkg/modules"
)

var (
	runInput         string
	runOutput        string
	runPattern       string
	runDelimiter     string
	runDelimiterChar string
	runFormat        string
	runMarkdown      bool
	runExt           string
	runConfig        string
	runJSON          bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the front matter pipeline over a directory",
	Long: `Reads every file matching --pattern under --input, moves its front matter
into metadata, optionally renders Markdown and writes the result under --output.

Settings are read from tilth.yaml (searched upwards from the working
directory, or given with --config). Flags override the file.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			fatal("Error loading configuration", err)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		var out io.Writer
		if runJSON {
			out = cmd.OutOrStdout()
		}
		if err := runSite(ctx, cfg, slog.Default(), out); err != nil {
			fatal("Error running pipeline", err)
		}
	},
}

func init() {
	runCmd.Flags().StringVar(&runInput, "input", "", "Directory to read documents from")
	runCmd.Flags().StringVar(&runOutput, "output", "", "Directory to write documents to")
	runCmd.Flags().StringVar(&runPattern, "pattern", "", "Glob of files to read (doublestar syntax)")
	runCmd.Flags().StringVar(&runDelimiter, "delimiter", "", "Front matter delimiter line (exact match)")
	runCmd.Flags().StringVar(&runDelimiterChar, "delimiter-char", "", "Front matter delimiter character (line of repeats)")
	runCmd.Flags().StringVar(&runFormat, "format", "", "Front matter format: yaml, toml or json")
	runCmd.Flags().BoolVar(&runMarkdown, "markdown", false, "Render Markdown content to HTML")
	runCmd.Flags().StringVar(&runExt, "ext", "", "Replace the extension of written files (e.g. .html)")
	runCmd.Flags().StringVar(&runConfig, "config", "", "Path to a tilth.yaml file")
	runCmd.Flags().BoolVar(&runJSON, "json", false, "Print the resulting documents as JSON instead of writing files")
	runCmd.MarkFlagsMutuallyExclusive("delimiter", "delimiter-char")
	rootCmd.AddCommand(runCmd)
}

// resolveConfig loads the configuration file, if any, and applies the flags
// the user set on top of it. Relative directories in a file are resolved
// against the file's directory.
func resolveConfig(cmd *cobra.Command) (tilth.Config, error) {
	path := runConfig
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return tilth.Config{}, err
		}
		if found, err := tilth.FindConfig(wd); err == nil {
			path = found
		}
	}

	cfg := tilth.DefaultConfig()
	if path != "" {
		loaded, err := tilth.LoadConfig(path)
		if err != nil {
			return cfg, err
		}
		base := filepath.Dir(path)
		if !filepath.IsAbs(loaded.Input) {
			loaded.Input = filepath.Join(base, loaded.Input)
		}
		if !filepath.IsAbs(loaded.Output) {
			loaded.Output = filepath.Join(base, loaded.Output)
		}
		cfg = loaded
		slog.Debug("configuration loaded", "path", path)
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.Input = runInput
	}
	if flags.Changed("output") {
		cfg.Output = runOutput
	}
	if flags.Changed("pattern") {
		cfg.Pattern = runPattern
	}
	if flags.Changed("delimiter") {
		cfg.Delimiter, cfg.DelimiterChar = runDelimiter, ""
	}
	if flags.Changed("delimiter-char") {
		cfg.Delimiter, cfg.DelimiterChar = "", runDelimiterChar
	}
	if flags.Changed("format") {
		cfg.Format = runFormat
	}
	if flags.Changed("markdown") {
		cfg.Markdown = runMarkdown
	}
	if flags.Changed("ext") {
		cfg.Ext = runExt
	}
	return cfg, nil
}

// buildModules assembles ReadFiles -> FrontMatter(parser) -> [Markdown] ->
// [WriteFiles]. WriteFiles is left out when write is false.
func buildModules(cfg tilth.Config, write bool) ([]core.Module, error) {
	var parser core.Module
	switch strings.ToLower(cfg.Format) {
	case "", "yaml", "yml":
		parser = modules.YAML()
	case "toml":
		parser = modules.TOML()
	case "json":
		parser = modules.JSON()
	default:
		return nil, fmt.Errorf("unknown front matter format %q", cfg.Format)
	}

	var fm *modules.FrontMatterModule
	switch {
	case cfg.Delimiter != "":
		fm = modules.FrontMatterString(cfg.Delimiter, parser)
	case cfg.DelimiterChar != "":
		r, size := utf8.DecodeRuneInString(cfg.DelimiterChar)
		if size != len(cfg.DelimiterChar) {
			return nil, fmt.Errorf("delimiter character must be a single character, got %q", cfg.DelimiterChar)
		}
		fm = modules.FrontMatterChar(r, parser)
	default:
		fm = modules.FrontMatter(parser)
	}

	chain := []core.Module{
		fs.ReadFiles(cfg.Pattern),
		fm.SkipLeadingDelimiter(),
	}
	if cfg.Markdown {
		chain = append(chain, modules.Markdown())
	}
	if write {
		chain = append(chain, fs.WriteFiles(fs.WithExtension(cfg.Ext)))
	}
	return chain, nil
}

// runSite runs the default pipeline. When jsonOut is not nil the documents
// are printed there instead of written to disk.
func runSite(ctx context.Context, cfg tilth.Config, logger *slog.Logger, jsonOut io.Writer) error {
	chain, err := buildModules(cfg, jsonOut == nil)
	if err != nil {
		return err
	}

	opts := append(cfg.Options(), tilth.WithLogger(logger))
	engine := tilth.New(opts...)
	if _, err := engine.AddPipeline("site", chain...); err != nil {
		return err
	}
	if err := engine.Run(ctx); err != nil {
		return err
	}

	docs, err := engine.Outputs("site")
	if err != nil {
		return err
	}
	if jsonOut == nil {
		logger.Info("site built", "documents", len(docs), "output", cfg.Output)
		return nil
	}

	enc := json.NewEncoder(jsonOut)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}
