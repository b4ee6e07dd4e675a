// Package upload turns files on disk into dispatcher inputs for the CLI
// and terminal front-ends.
package upload

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/hejijunhao/kimo/internal/model"
)

// ErrUnsupported is returned for files that are neither images nor plain text.
var ErrUnsupported = errors.New("upload: unsupported file type")

// MediaType guesses the media type of a file from its extension, falling
// back to content sniffing. Parameters such as charset are dropped.
func MediaType(path string, data []byte) string {
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	if parsed, _, err := mime.ParseMediaType(mt); err == nil {
		return parsed
	}
	return mt
}

// File reads path as an image or text upload.
func File(path string) (model.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	mt := MediaType(path, data)
	in, ok := model.FromUpload(filepath.Base(path), mt, data)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, mt)
	}
	return in, nil
}

// Drawing reads path as a canvas snapshot.
func Drawing(path string) (model.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("upload: decode %s: %w", path, err)
	}
	return model.Drawing{Canvas: img}, nil
}

// Voice reads path as a speech recording.
func Voice(path string) (model.Input, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	return model.Voice{Audio: data, MediaType: MediaType(path, data)}, nil
}
