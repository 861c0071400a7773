package checker

import (
	"errors"
	"fmt"
	"os"
)

// CheckFileRef verifies a local file reference exists on disk.
func CheckFileRef(path string) Outcome {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return Outcome{StatusCode: 0}
	case errors.Is(err, os.ErrNotExist):
		return Outcome{Err: fmt.Errorf("file does not exist: %s", path)}
	default:
		return Outcome{Err: fmt.Errorf("stat %s: %w", path, err)}
	}
}
