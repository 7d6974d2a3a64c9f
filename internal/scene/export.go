package scene

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

// TextureExporter writes material textures to PNG files for inspection.
type TextureExporter struct {
	outputDir string
	prefix    string
}

// NewTextureExporter creates an exporter writing <prefix>_<timestamp>.png into outputDir.
func NewTextureExporter(outputDir, prefix string) *TextureExporter {
	return &TextureExporter{
		outputDir: outputDir,
		prefix:    prefix,
	}
}

// Export writes the material's current texture and returns the file path.
func (e *TextureExporter) Export(m *Material) (string, error) {
	if m.Texture() == nil {
		return "", fmt.Errorf("material %s has no texture", m.Name)
	}
	filename := fmt.Sprintf("%s_%s_r%d.png", e.prefix, time.Now().Format("2006-01-02_15-04-05"), m.Revision)
	if e.outputDir != "" {
		filename = filepath.Join(e.outputDir, filename)
	}
	return filename, WritePNG(filename, m.Texture())
}

// WritePNG encodes img to path, creating parent directories as needed.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
