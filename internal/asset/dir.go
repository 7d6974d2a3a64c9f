package asset

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// textureExtensions are tried in order when looking up a texture on disk.
var textureExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tga"}

// DirSource serves textures from files named <uuid>.<ext> in a directory.
type DirSource struct {
	Dir string
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// RequestImage reads the file on a new goroutine and reports the result.
func (s *DirSource) RequestImage(id TextureID, done Done) {
	go func() {
		done(s.read(id))
	}()
}

func (s *DirSource) read(id TextureID) ([]byte, error) {
	for _, ext := range textureExtensions {
		path := filepath.Join(s.Dir, id.String()+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading texture %s: %w", path, err)
		}
		return data, nil
	}
	return nil, fmt.Errorf("%w: %s in %s", ErrNotFound, id, s.Dir)
}
