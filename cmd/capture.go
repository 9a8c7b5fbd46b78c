package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	app "artifact-sifter/internal/application"
	"artifact-sifter/internal/infrastructure/vision"
)

func captureCommand(env *environment) *cobra.Command {
	var (
		imagePath string
		modelID   int64
		outDir    string
	)

	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Обработать снимок из файла и сохранить его",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := env.openStore()
			if err != nil {
				return err
			}
			defer store.Close()

			c := env.newContainer(store, nil, nil, nil)
			// Файл уже снят, датчика нет
			c.Session.MarkSensorUnavailable()

			if modelID > 0 {
				if _, err := c.ModelService.Activate(ctx, c.Session, modelID); err != nil {
					return err
				}
				defer c.ModelService.Deactivate(c.Session)
			}

			data, err := os.ReadFile(imagePath)
			if err != nil {
				return fmt.Errorf("failed to read image: %w", err)
			}
			img, err := vision.DecodeImage(data)
			if err != nil {
				return err
			}

			bounds := img.Bounds()
			result, err := c.CaptureService.Capture(ctx, c.Session, img, bounds.Dx(), bounds.Dy())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "capture #%d %s\n", result.Record.ID, result.Record.Filename)
			if result.Summary != nil {
				fmt.Fprintf(out, "peak %.3f mean %.3f coverage %.3f\n",
					result.Summary.Peak, result.Summary.Mean, result.Summary.Coverage)
			}
			if result.Warning != nil {
				fmt.Fprintf(out, "warning: %v\n", result.Warning)
			}

			if outDir == "" {
				return nil
			}
			return writeCapture(outDir, result)
		},
	}

	cmd.Flags().StringVar(&imagePath, "image", "", "Path to the photo")
	cmd.Flags().Int64Var(&modelID, "model", 0, "Model id to run (see models list)")
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to write photo, heatmap and compare view")
	_ = cmd.MarkFlagRequired("image")

	return cmd
}

// writeCapture сохраняет фото, карту и вид сравнения в dir
func writeCapture(dir string, result *app.CaptureResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	base := filepath.Join(dir, result.Record.Filename)
	if err := os.WriteFile(base+".jpg", result.Record.ImageBlob, 0o644); err != nil {
		return err
	}
	if !result.Record.HasHeatmap() {
		return nil
	}

	if err := os.WriteFile(base+"_heatmap.png", result.Record.HeatmapBlob, 0o644); err != nil {
		return err
	}
	view, err := vision.EncodeJPEG(vision.Compare(result.Frame, result.Heatmap, app.CompareSplit))
	if err != nil {
		return err
	}
	return os.WriteFile(base+"_compare.jpg", view, 0o644)
}
