package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veritrack/internal/model"
	"veritrack/internal/pipeline"
	"veritrack/internal/worker"
)

var (
	analyzeCategory string
	analyzeName     string
	urlsFile        string
	runVerify       bool
	checkLinks      bool
	outJSON         string
	analyzeTimeout  time.Duration
	noCache         bool
	cacheDir        string
	oracleProvider  string
	oracleModel     string
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|url> [<file|url>...]",
	Short: "Run one or more ingestion rounds and generate a credibility report",
	Long: `Analyze ingests each input in order: the first becomes the initial
claim set, and every later input is merged against it, letting newer
sources contradict or reinforce earlier claims.

Inputs may be local text files or http(s) URLs. URLs are fetched
politely (robots.txt, per-host rate limits) and reduced to visible
text before extraction.

Example:
  veritrack analyze q3-report.txt
  veritrack analyze q3-report.txt correction.txt --category financial-report --verify
  veritrack analyze https://example.com/press-release --report report.json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeCategory, "category", string(model.CategoryUserInput), "source category (financial-report, press-release, news-article, academic-paper, user-input, supplemental-update)")
	analyzeCmd.Flags().StringVar(&analyzeName, "name", "", "source name for file inputs (default: file basename)")
	analyzeCmd.Flags().StringVar(&urlsFile, "urls-file", "", "file with additional URLs to ingest, one per line")
	analyzeCmd.Flags().BoolVar(&runVerify, "verify", false, "verify every claim after ingestion")
	analyzeCmd.Flags().BoolVar(&checkLinks, "check-links", false, "probe verification source links for the report")
	analyzeCmd.Flags().StringVar(&outJSON, "report", "", "write the JSON report to this path (default: stdout)")
	analyzeCmd.Flags().DurationVar(&analyzeTimeout, "timeout", 5*time.Minute, "overall analysis timeout")
	analyzeCmd.Flags().BoolVar(&noCache, "no-cache", false, "disable oracle response caching")
	analyzeCmd.Flags().StringVar(&cacheDir, "cache-dir", "", "directory for the disk cache layer (memory-only when empty)")
	analyzeCmd.Flags().StringVar(&oracleProvider, "oracle-provider", "openai", "analysis provider (openai, anthropic, ollama)")
	analyzeCmd.Flags().StringVar(&oracleModel, "oracle-model", "", "analysis model name (provider default when empty)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), analyzeTimeout)
	defer cancel()

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	logger := newLogger()
	defer func() { _ = logger.Sync() }()

	p, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	inputs := append([]string{}, args...)
	if urlsFile != "" {
		urls, err := worker.ReadURLsFromFile(urlsFile)
		if err != nil {
			return err
		}
		inputs = append(inputs, urls...)
	}

	category := model.SourceCategory(analyzeCategory)
	if !model.ValidCategory(category) {
		return fmt.Errorf("unknown category: %s", analyzeCategory)
	}

	for i, input := range inputs {
		var res *pipeline.IngestResult
		if isURL(input) {
			res, err = p.IngestURL(ctx, input, category)
		} else {
			res, err = ingestFile(ctx, p, input, category)
		}
		if err != nil {
			return fmt.Errorf("round %d (%s): %w", i+1, input, err)
		}

		if verbose {
			fmt.Fprintf(os.Stderr, "Round %d: %s -> %d candidates, %d claims total (merged: %v)\n",
				i+1, res.Source.Name, res.Extracted, res.Claims, res.Merged)
		}
	}

	if runVerify {
		results := p.VerifyAll(ctx)
		failed := 0
		for _, r := range results {
			if r.GetError() != nil {
				failed++
				if verbose {
					fmt.Fprintf(os.Stderr, "Verification failed for %s: %v\n", r.ClaimID, r.GetError())
				}
			}
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "Verified %d claims (%d failed)\n", len(results)-failed, failed)
		}
	}

	report := p.Report(ctx, checkLinks)
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	if outJSON == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outJSON, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if verbose {
		fmt.Fprintf(os.Stderr, "Wrote report: %s\n", outJSON)
	}
	return nil
}

// buildConfig assembles runtime configuration from defaults, flags, and
// provider API keys in the environment.
func buildConfig() (*model.Config, error) {
	cfg := model.DefaultConfig()
	cfg.Oracle.Provider = oracleProvider
	cfg.Oracle.Model = oracleModel
	cfg.Cache.Enabled = !noCache
	cfg.Cache.Dir = cacheDir
	cfg.Output.Verbose = verbose

	switch oracleProvider {
	case "openai":
		cfg.Oracle.APIKey = os.Getenv("OPENAI_API_KEY")
		if cfg.Oracle.APIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
	case "anthropic", "claude":
		cfg.Oracle.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		if cfg.Oracle.APIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
	case "ollama":
		// Ollama doesn't need an API key
		if baseURL := os.Getenv("OLLAMA_BASE_URL"); baseURL != "" {
			cfg.Oracle.BaseURL = baseURL
		}
	}

	return cfg, nil
}

func ingestFile(ctx context.Context, p *pipeline.Pipeline, path string, category model.SourceCategory) (*pipeline.IngestResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	name := analyzeName
	if name == "" {
		name = filepath.Base(path)
	}

	return p.Ingest(ctx, name, category, string(content))
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// newLogger returns a development logger when verbose, otherwise a
// silent one; CLI output itself goes through stdout/stderr prints.
func newLogger() *zap.Logger {
	if verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			return logger
		}
	}
	return zap.NewNop()
}
