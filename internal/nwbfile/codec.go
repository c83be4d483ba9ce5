package nwbfile

import (
	"bytes"
	"compress/gzip"
	"fmt"

	"github.com/sbinet/npyio"
)

// encodeFloats stores v as a gzip-compressed .npy blob. An empty slice
// encodes to an empty blob.
func encodeFloats(v []float64) ([]byte, error) {
	if len(v) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := npyio.Write(zw, v); err != nil {
		return nil, fmt.Errorf("encode npy: %w", err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("compress: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeFloats(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("decompress: %w", err)
	}
	defer zr.Close()

	var v []float64
	if err := npyio.Read(zr, &v); err != nil {
		return nil, fmt.Errorf("decode npy: %w", err)
	}
	return v, nil
}
