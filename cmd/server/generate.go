package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/wochennachweis/api"
	"github.com/warp/wochennachweis/bundle"
)

func newGenerateCmd(g *globalFlags) *cobra.Command {
	var planPath, outPath string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Build the report ZIP for a JSON plan",
		Long: `Reads a plan in the shape of the generate-data request
({"nachname": ..., "umschulungsbeginn": ..., "zeitraeume": [...]}) and writes
the ZIP. "-" reads the plan from stdin. Without --out the archive gets its
usual name in the current directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			a, err := newApp(cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			plan, err := readPlan(planPath, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out, err := generate(cmd.Context(), a.service, plan, outPath)
			if err != nil {
				return err
			}
			a.logger.Info("archive written", zap.String("path", out))
			fmt.Fprintln(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&planPath, "plan", "", "Plan JSON file, - for stdin")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output ZIP path")
	cmd.MarkFlagRequired("plan")
	return cmd
}

func readPlan(path string, stdin io.Reader) (bundle.Plan, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return bundle.Plan{}, fmt.Errorf("open plan: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req api.GenerateRequest
	if err := json.NewDecoder(r).Decode(&req); err != nil {
		return bundle.Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	return req.Plan()
}

// generate runs the pipeline and writes the archive. It returns the path
// written.
func generate(ctx context.Context, svc *bundle.Service, plan bundle.Plan, outPath string) (string, error) {
	prep, err := svc.Prepare(ctx, plan, false)
	if err != nil {
		return "", err
	}
	for _, w := range prep.Warnings {
		fmt.Fprintln(os.Stderr, "Hinweis:", w)
	}

	archive, err := svc.Build(ctx, prep)
	if err != nil {
		return "", err
	}

	if outPath == "" {
		outPath = archive.Name
	}
	if dir := filepath.Dir(outPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(outPath, archive.Data, 0o644); err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}
	return outPath, nil
}
