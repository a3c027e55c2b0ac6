package util

import (
	"fmt"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

func Checksum(b []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(b))
}

func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}

	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%016x", h.Sum64()), nil
}
