// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/mediarec/internal/config"
	"github.com/tomtom215/mediarec/internal/logging"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/encoder"
)

var (
	buildMedia      []string
	buildMethods    []string
	buildDataDir    string
	buildOutDir     string
	buildK          int
	buildWorkers    int
	buildNoProgress bool
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the artifacts of one or more media",
	Long: `Build reads <data-dir>/<medium>/ and writes <out>/<medium>/*.art plus
<out>/<medium>/manifest.yaml and <out>/index.json.

Movies need movies.csv and ratings.csv (tags.csv and links.csv are optional).
Books need books.csv and ratings.csv.

Examples:
  mediarec-build build                                # Configured media and methods
  mediarec-build build --medium movies --method tfidf # Only the movies TF-IDF variant
  mediarec-build build --k 50 --out ./artifacts       # Smaller graphs, custom root`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringSliceVar(&buildMedia, "medium", nil, "media to build (default: recommend.media)")
	buildCmd.Flags().StringSliceVarP(&buildMethods, "method", "m", nil, "methods to build (default: recommend.methods)")
	buildCmd.Flags().StringVar(&buildDataDir, "data-dir", "", "raw table root (default: build.data_dir)")
	buildCmd.Flags().StringVarP(&buildOutDir, "out", "o", "", "artifact root (default: artifacts.dir)")
	buildCmd.Flags().IntVar(&buildK, "k", 0, "neighbors kept per item (default: build.k)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", -1, "concurrent graph workers, 0 for all CPUs (default: build.workers)")
	buildCmd.Flags().BoolVar(&buildNoProgress, "no-progress", false, "disable progress bars")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	media, methods, err := resolveTargets(cfg, buildMedia, buildMethods)
	if err != nil {
		return err
	}

	opts := pipelineOptionsFrom(cfg)
	if buildDataDir != "" {
		opts.DataDir = buildDataDir
	}
	if buildOutDir != "" {
		opts.OutDir = buildOutDir
	}
	if buildK > 0 {
		opts.K = buildK
	}
	if buildWorkers >= 0 {
		opts.Workers = buildWorkers
	}
	if !buildNoProgress {
		opts.Progress = cmd.ErrOrStderr()
	}
	opts.Logger = logging.WithComponent("build")

	p, err := newPipeline(opts)
	if err != nil {
		return err
	}

	start := time.Now()
	var reports []*mediumReport
	for _, medium := range media {
		report, err := p.buildMedium(cmd.Context(), medium, methods)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\nBuild complete in %s\n", formatDuration(time.Since(start)))
	for _, r := range reports {
		fmt.Fprintf(out, "  %-7s items=%d users=%d ratings=%d dropped=%d artifacts=%d (%s)\n",
			r.Medium, r.Items, r.Users, r.Ratings, r.Dropped, r.Entries, formatDuration(r.Duration))
	}
	fmt.Fprintf(out, "  Output: %s\n", opts.OutDir)
	return nil
}

// pipelineOptionsFrom maps the builder and encoder configuration to
// pipeline options.
func pipelineOptionsFrom(cfg *config.Config) pipelineOptions {
	return pipelineOptions{
		DataDir:      cfg.Build.DataDir,
		OutDir:       cfg.Artifacts.Dir,
		K:            cfg.Build.K,
		BatchSize:    cfg.Build.BatchSize,
		Workers:      cfg.Build.Workers,
		UniqueTitles: cfg.Build.UniqueTitles,
		TFIDF: encoder.TFIDFOptions{
			MaxFeatures: cfg.Build.TFIDFFeatures,
			Components:  cfg.Build.TFIDFComponents,
		},
		EncoderURL:     cfg.Encoder.URL,
		EncoderAPIKey:  cfg.Encoder.APIKey,
		EncoderTimeout: cfg.Encoder.Timeout,
		SBERTModel:     cfg.Build.SBERTModel,
		EncodeBatch:    cfg.Build.EncodeBatch,
	}
}

// resolveTargets parses the requested media and methods, falling back to
// the configured ones when a flag is empty.
func resolveTargets(cfg *config.Config, media, methods []string) ([]recommend.Medium, []recommend.Method, error) {
	if len(media) == 0 {
		media = cfg.Recommend.Media
	}
	if len(methods) == 0 {
		methods = cfg.Recommend.Methods
	}

	outMedia := make([]recommend.Medium, 0, len(media))
	for _, m := range media {
		parsed, err := recommend.ParseMedium(m)
		if err != nil {
			return nil, nil, err
		}
		outMedia = append(outMedia, parsed)
	}
	outMethods := make([]recommend.Method, 0, len(methods))
	for _, m := range methods {
		parsed, err := recommend.ParseMethod(m)
		if err != nil {
			return nil, nil, err
		}
		outMethods = append(outMethods, parsed)
	}
	if len(outMedia) == 0 || len(outMethods) == 0 {
		return nil, nil, recommend.Invalidf("at least one medium and one method are required")
	}
	return outMedia, outMethods, nil
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
