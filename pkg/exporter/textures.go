package exporter

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/robocraft/simusd/pkg/sim"
)

// extractTextures writes every model texture into the assets directory
// as texture_<i>.png, vertically flipped, recording the frames-relative
// path for material binding. This runs exactly once per session.
func (e *Exporter) extractTextures() error {
	rel, err := filepath.Rel(e.framesDir, e.assetsDir)
	if err != nil {
		return fmt.Errorf("resolving assets path: %w", err)
	}

	e.texturePaths = make([]string, 0, len(e.model.Textures))
	for i, tx := range e.model.Textures {
		name := fmt.Sprintf("texture_%d.png", i)
		if err := writeTexture(filepath.Join(e.assetsDir, name), tx); err != nil {
			return fmt.Errorf("extracting texture %d: %w", i, err)
		}
		e.texturePaths = append(e.texturePaths, filepath.ToSlash(filepath.Join(rel, name)))
	}

	e.log.Info("wrote textures",
		zap.Int("count", len(e.model.Textures)),
		zap.String("dir", e.assetsDir))
	return nil
}

// writeTexture encodes packed RGB/RGBA rows as a PNG, flipping
// vertically so the image origin matches the renderer convention.
func writeTexture(path string, tx sim.Texture) error {
	if tx.Channels != 3 && tx.Channels != 4 {
		return fmt.Errorf("texture has %d channels, want 3 or 4", tx.Channels)
	}
	if want := tx.Width * tx.Height * tx.Channels; len(tx.Pixels) != want {
		return fmt.Errorf("texture pixel data size %d, want %d", len(tx.Pixels), want)
	}

	img := image.NewRGBA(image.Rect(0, 0, tx.Width, tx.Height))
	for y := 0; y < tx.Height; y++ {
		srcY := tx.Height - 1 - y // flip Y
		for x := 0; x < tx.Width; x++ {
			src := (srcY*tx.Width + x) * tx.Channels
			dst := y*img.Stride + x*4
			img.Pix[dst] = tx.Pixels[src]
			img.Pix[dst+1] = tx.Pixels[src+1]
			img.Pix[dst+2] = tx.Pixels[src+2]
			if tx.Channels == 4 {
				img.Pix[dst+3] = tx.Pixels[src+3]
			} else {
				img.Pix[dst+3] = 0xff
			}
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return err
	}
	return f.Close()
}
