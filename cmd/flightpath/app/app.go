package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"

	"flightcheck/internal/flightlog"
)

func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := flightlog.New(config.DBPath)
	defer store.Close()

	return renderTrack(ctx, store, config, logger)
}

func renderTrack(ctx context.Context, store *flightlog.Store, config *Config, logger *slog.Logger) error {
	m, err := store.Mission(ctx, config.MissionID)
	if err != nil {
		return err
	}
	if m == nil {
		return fmt.Errorf("mission %d not found", config.MissionID)
	}

	points, err := store.Track(ctx, config.MissionID)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		return fmt.Errorf("mission %d has no track points", config.MissionID)
	}

	bounds := TrackBounds(points)

	logger.Info("rendering flight path",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.Width),
		),
		slog.Group("track",
			slog.Int64("missionID", m.ID),
			slog.Int("points", len(points)),
		))

	renderer, err := NewPathRenderer(config.Width, bounds)
	if err != nil {
		return fmt.Errorf("creating path renderer: %w", err)
	}

	img, err := renderer.Render(points)
	if err != nil {
		return fmt.Errorf("rendering flight path: %w", err)
	}

	if !config.NoAnnotations {
		annotator, err := NewAnnotator()
		if err != nil {
			return fmt.Errorf("creating annotator: %w", err)
		}
		if err = annotator.Annotate(img, renderer, m, points); err != nil {
			return fmt.Errorf("annotating flight path: %w", err)
		}
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
