// Package archive bundles the run output directory into a zip file.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// DefaultName is the archive file created inside the output directory.
const DefaultName = "receipts.zip"

// Zip compresses every regular file under dir into dir/name and returns the
// archive path and the number of files stored. The archive never contains
// itself; everything else present at call time is included.
func Zip(dir, name string) (string, int, error) {
	dest := filepath.Join(dir, name)
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return "", 0, err
	}

	tmp, err := os.CreateTemp(dir, ".archive-*.zip")
	if err != nil {
		return "", 0, fmt.Errorf("create archive: %w", err)
	}
	tmpAbs, err := filepath.Abs(tmp.Name())
	if err != nil {
		tmp.Close()
		return "", 0, err
	}
	defer os.Remove(tmp.Name())

	zw := zip.NewWriter(tmp)
	count := 0
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		if abs == destAbs || abs == tmpAbs {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		if err := addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}
		count++
		return nil
	})

	if err := zw.Close(); walkErr == nil {
		walkErr = err
	}
	if err := tmp.Close(); walkErr == nil {
		walkErr = err
	}
	if walkErr != nil {
		return "", 0, walkErr
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return "", 0, fmt.Errorf("finalize archive: %w", err)
	}
	return dest, count, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate

	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, f)
	return err
}
