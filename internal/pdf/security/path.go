package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines input PDFs, page images and written forms to the
// server's working directory
type PathValidator struct {
	root string
}

// NewPathValidator creates a validator rooted at dir. The directory does not
// have to exist yet; until it does every path is accepted.
func NewPathValidator(dir string) (*PathValidator, error) {
	if dir == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathValidator{root: dir}, nil
}

// GetConfiguredDirectory returns the directory the validator was created with
func (v *PathValidator) GetConfiguredDirectory() string {
	return v.root
}

// ValidatePath rejects paths that resolve outside the working directory.
// Output files that do not exist yet are checked through their nearest
// existing parent.
func (v *PathValidator) ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(path, 0) {
		return fmt.Errorf("path contains a NUL byte")
	}
	if _, err := os.Stat(v.root); os.IsNotExist(err) {
		return nil
	}

	inside, err := v.Contains(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if !inside {
		return fmt.Errorf("path is outside configured directory: %s", path)
	}
	return nil
}

// ValidateDirectory is ValidatePath for directories. A directory that does
// not exist yet passes.
func (v *PathValidator) ValidateDirectory(dir string) error {
	if err := v.ValidatePath(dir); err != nil {
		return err
	}
	info, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("cannot access directory: %w", err)
	case !info.IsDir():
		return fmt.Errorf("path is not a directory: %s", dir)
	}
	return nil
}

// Contains reports whether path lies within the working directory both
// lexically and after symlinks are resolved
func (v *PathValidator) Contains(path string) (bool, error) {
	root, err := filepath.Abs(v.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	if !within(root, abs) {
		return false, nil
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}
	return within(realRoot, resolveExisting(abs)), nil
}

// resolveExisting evaluates symlinks in the longest existing prefix of path
// and re-attaches the missing tail
func resolveExisting(path string) string {
	var tail []string
	for cur := path; ; cur = filepath.Dir(cur) {
		if resolved, err := filepath.EvalSymlinks(cur); err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, tail[i])
			}
			return resolved
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return path
		}
		tail = append(tail, filepath.Base(cur))
	}
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
