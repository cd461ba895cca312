package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/minio/highwayhash"
)

// checksumKey is fixed so checksums are comparable across stores.
var checksumKey = []byte("trplsim dataset checksum key 01!")

// ErrChecksum indicates a dataset file that no longer matches its metadata.
var ErrChecksum = errors.New("storage: dataset checksum mismatch")

// ChecksumFile returns the hex HighwayHash-256 of a file.
func ChecksumFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash, err := highwayhash.New(checksumKey)
	if err != nil {
		return "", fmt.Errorf("failed to create hash: %w", err)
	}

	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

func VerifyChecksum(path, want string) error {
	got, err := ChecksumFile(path)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: %s has %s, metadata records %s", ErrChecksum, path, got, want)
	}
	return nil
}
