package processor

import (
	"bufio"
	"image"
	"os"
	"path/filepath"
	"strings"

	"shrink/pkg/imgutil"
)

// outputName keeps the base name and swaps the extension for the target
// format's, or keeps the lowercased original extension.
func outputName(name string, target imgutil.Format) string {
	ext := extOf(name)
	base := strings.TrimSuffix(name, ext)
	if target != imgutil.FormatUnknown {
		return base + target.Ext()
	}
	return base + strings.ToLower(ext)
}

// saveImage encodes img into a temp file next to destPath and renames it
// into place, so a failed encode never leaves a partial output behind.
func saveImage(img image.Image, format imgutil.Format, destPath string, opts imgutil.EncodeOptions) error {
	tmpFile, err := os.CreateTemp(filepath.Dir(destPath), ".shrink-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(0o644); err != nil {
		_ = tmpFile.Close()
		return err
	}

	bw := bufio.NewWriter(tmpFile)
	if err := imgutil.Encode(bw, img, format, opts); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}

	return replaceFile(tmpFile.Name(), destPath)
}

// extOf is the extension of a bare file name. Leading dots belong to the
// name, so ".png" has no extension.
func extOf(name string) string {
	return filepath.Ext(strings.TrimLeft(name, "."))
}

// replaceFile renames tmpPath over destPath. Only a regular file is ever
// removed to make room.
func replaceFile(tmpPath, destPath string) error {
	err := os.Rename(tmpPath, destPath)
	if err == nil {
		return nil
	}
	if info, statErr := os.Lstat(destPath); statErr == nil && !info.Mode().IsRegular() {
		return err
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}
