package gtfs

import (
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

const cacheFilePrefix = "bus_routes_"

// DefaultCacheDir is used when no cache directory is configured
func DefaultCacheDir() string {
	return filepath.Join(os.TempDir(), "hktravel-gtfs-cache")
}

// DataFingerprint identifies an archive by content
func DataFingerprint(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func parsedCachePath(cacheDir, fingerprint string) string {
	return filepath.Join(cacheDir, cacheFilePrefix+fingerprint+".gob.gz")
}

// LoadParsedResult reads routes previously parsed from an archive with the
// same fingerprint
func LoadParsedResult(cacheDir, fingerprint string) (*ParseResult, string, error) {
	path := parsedCachePath(cacheDir, fingerprint)
	f, err := os.Open(path)
	if err != nil {
		return nil, path, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, path, err
	}
	defer zr.Close()

	var result ParseResult
	if err := gob.NewDecoder(zr).Decode(&result); err != nil {
		return nil, path, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if len(result.Routes) == 0 {
		return nil, path, fmt.Errorf("parsed cache has no routes")
	}

	return &result, path, nil
}

// SaveParsedResult writes result atomically and removes caches of older feeds
func SaveParsedResult(cacheDir, fingerprint string, result *ParseResult) (string, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", err
	}

	path := parsedCachePath(cacheDir, fingerprint)
	tmp, err := os.CreateTemp(cacheDir, cacheFilePrefix+"*.tmp")
	if err != nil {
		return "", err
	}
	tmpPath := tmp.Name()

	if err := writeGob(tmp, result); err != nil {
		os.Remove(tmpPath)
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", err
	}

	pruneParsedCache(cacheDir, path)
	return path, nil
}

func writeGob(f *os.File, result *ParseResult) error {
	zw, err := gzip.NewWriterLevel(f, gzip.BestSpeed)
	if err != nil {
		f.Close()
		return err
	}
	if err := gob.NewEncoder(zw).Encode(result); err != nil {
		zw.Close()
		f.Close()
		return err
	}
	if err := zw.Close(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// pruneParsedCache deletes every cached result except keep
func pruneParsedCache(cacheDir, keep string) {
	matches, _ := filepath.Glob(filepath.Join(cacheDir, cacheFilePrefix+"*.gob.gz"))
	for _, m := range matches {
		if m != keep {
			os.Remove(m)
		}
	}
}
