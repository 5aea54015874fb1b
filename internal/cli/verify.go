// Mediarec - Media Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/mediarec

package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tomtom215/mediarec/internal/logging"
	"github.com/tomtom215/mediarec/internal/recommend"
	"github.com/tomtom215/mediarec/internal/recommend/artifacts"
	"github.com/tomtom215/mediarec/internal/recommend/models"
)

var (
	verifyMedia  []string
	verifyOutDir string
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Load written artifacts and assemble their models",
	Long: `Verify reads <out>/<medium>/manifest.yaml, loads every listed artifact
and assembles the models of each method it finds, the same way the server
does at warmup. Checksums, shapes and cross-artifact cardinalities are
checked on the way.

Examples:
  mediarec-build verify                  # Configured media below artifacts.dir
  mediarec-build verify --medium books   # One medium`,
	Args: cobra.NoArgs,
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringSliceVar(&verifyMedia, "medium", nil, "media to verify (default: recommend.media)")
	verifyCmd.Flags().StringVarP(&verifyOutDir, "out", "o", "", "artifact root (default: artifacts.dir)")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	media, _, err := resolveTargets(cfg, verifyMedia, nil)
	if err != nil {
		return err
	}
	root := cfg.Artifacts.Dir
	if verifyOutDir != "" {
		root = verifyOutDir
	}

	logger := logging.WithComponent("verify")
	for _, medium := range media {
		if err := verifyMedium(cmd.Context(), cmd.OutOrStdout(), root, medium, logger); err != nil {
			return err
		}
	}
	return nil
}

// verifyMedium warms up the artifacts of medium below root and builds the
// models of every method with an encoder entry.
func verifyMedium(ctx context.Context, out io.Writer, root string, medium recommend.Medium, logger zerolog.Logger) error {
	manifest, err := artifacts.LoadManifestFile(filepath.Join(root, string(medium), artifacts.ManifestFile))
	if err != nil {
		return err
	}
	if manifest.Medium != medium {
		return recommend.Invalidf("manifest below %s/ is for %s", medium, manifest.Medium)
	}

	store, err := artifacts.New(manifest, artifacts.LocalResolver{Root: root}, artifacts.WithLogger(logger))
	if err != nil {
		return err
	}
	if err := store.Warmup(ctx); err != nil {
		return fmt.Errorf("%s warmup: %w", medium, err)
	}

	fmt.Fprintf(out, "%s: %d artifacts loaded\n", medium, len(manifest.Entries))
	found := 0
	for _, method := range []recommend.Method{recommend.MethodTFIDF, recommend.MethodSBERT} {
		if _, ok := manifest.Lookup(artifacts.NameEncoder(method)); !ok {
			continue
		}
		found++
		if _, err := models.Build(store, method, models.BuildOptions{Logger: logger}); err != nil {
			return fmt.Errorf("%s/%s models: %w", medium, method, err)
		}
		fmt.Fprintf(out, "  %s/%s: ok\n", medium, method)
	}
	if found == 0 {
		return recommend.Invalidf("manifest for %s has no method artifacts", medium)
	}
	return nil
}
