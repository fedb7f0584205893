package store

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"chatgate/internal/domain"
)

// maxKeyFileSize bounds key file reads. A PEM Ed25519 key, encrypted or
// not, is a few hundred bytes.
const maxKeyFileSize = 64 << 10

var errKeyFileTooLarge = errors.New("key file too large")

// readKeyFile returns the contents of a PEM key file. Every failure,
// including a missing file, is a *domain.KeyLoadError.
func readKeyFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &domain.KeyLoadError{Path: path, Err: err}
	}
	defer f.Close()

	b, err := io.ReadAll(io.LimitReader(f, maxKeyFileSize+1))
	if err != nil {
		return nil, &domain.KeyLoadError{Path: path, Err: err}
	}
	if len(b) > maxKeyFileSize {
		return nil, &domain.KeyLoadError{Path: path, Err: errKeyFileTooLarge}
	}
	return b, nil
}

// writeKeyFile stages b in a hidden temp file beside path, already at mode,
// and then moves it into place. Without overwrite the move is a hard link,
// so an existing key at path is never replaced and ErrKeyExists is returned.
func writeKeyFile(path string, b []byte, mode os.FileMode, overwrite bool) error {
	f, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer os.Remove(tmp)

	err = f.Chmod(mode)
	if err == nil {
		_, err = f.Write(b)
	}
	if err == nil {
		err = f.Sync()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if overwrite {
		return os.Rename(tmp, path)
	}
	if err := os.Link(tmp, path); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
		return err
	}
	return nil
}
