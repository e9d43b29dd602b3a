package vault

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// atomicWriteFile writes data next to path and renames it into place, so
// a crash or failed write never truncates the previous file.
func atomicWriteFile(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0700); err != nil {
		return errors.Wrap(err, "create vault directory")
	}

	tmpFile, err := afero.TempFile(fs, dir, ".vault-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpPath := tmpFile.Name()
	renamed := false
	defer func() {
		tmpFile.Close()
		if !renamed {
			fs.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err := tmpFile.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmpFile.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}
	if err := fs.Chmod(tmpPath, perm); err != nil {
		return errors.Wrap(err, "chmod temp file")
	}

	if err := fs.Rename(tmpPath, path); err != nil {
		return errors.Wrap(err, "rename temp file")
	}
	renamed = true

	_ = syncDir(fs, dir)
	return nil
}

func syncDir(fs afero.Fs, dir string) error {
	f, err := fs.Open(dir)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Sync()
}
