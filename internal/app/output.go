package app

import (
	"errors"
	"fmt"
	"os"
)

// ErrOutputExists is matched (via errors.Is) by the error returned when the
// report destination already exists and overwriting was not requested.
var ErrOutputExists = errors.New("output file already exists")

// OutputExistsError reports a refused overwrite of Path.
type OutputExistsError struct {
	Path string
}

func (e *OutputExistsError) Error() string {
	return fmt.Sprintf("Output file %s already exists. Use -f, --force to force overwriting the destination", e.Path)
}

func (e *OutputExistsError) Unwrap() error { return ErrOutputExists }

// checkOutput fails early when path exists and force is false.
func checkOutput(path string, force bool) error {
	if force {
		return nil
	}
	if _, err := os.Stat(path); err == nil {
		return &OutputExistsError{Path: path}
	}
	return nil
}

// openOutput creates the report file. Without force the file must not exist;
// with force an existing file is truncated.
func openOutput(path string, force bool) (*os.File, error) {
	flags := os.O_WRONLY | os.O_CREATE
	if force {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}

	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, &OutputExistsError{Path: path}
		}
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	return f, nil
}
