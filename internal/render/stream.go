package render

import (
	"io"
	"os"

	"gitreel/internal/pkg/errors"
)

// openVideo opens the stitched file for streaming and returns its size.
func openVideo(path string) (io.ReadCloser, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, 0, errors.IOFailure(err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, errors.IOFailure(err)
	}

	return f, info.Size(), nil
}
