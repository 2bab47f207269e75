package artifact

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compress returns the compressed payload and the Content-Encoding value to
// store alongside it.
func compress(data []byte, compression string) ([]byte, string, error) {
	switch compression {
	case "gzip":
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(data); err != nil {
			return nil, "", fmt.Errorf("gzip write: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, "", fmt.Errorf("gzip close: %w", err)
		}
		return buf.Bytes(), "gzip", nil

	case "zstd":
		w, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, "", fmt.Errorf("creating zstd writer: %w", err)
		}
		defer w.Close()
		return w.EncodeAll(data, nil), "zstd", nil

	default:
		return nil, "", fmt.Errorf("unsupported compression type: %s", compression)
	}
}
