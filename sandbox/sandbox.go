// Package sandbox confines file writes to a project directory.
//
// A Root is opened from a project path and canonicalized once. Every write
// resolves its target against the root and refuses any location that could
// land outside it: ".." segments, absolute paths and symlinks are all
// checked against the real, resolved filesystem state.
//
// Containment is checked by canonicalizing the parent directory after it
// has been created and comparing it component-wise against the canonical
// root. A concurrent process can still swap a directory for a symlink
// between the check and the write. Directory creation and the write go
// through os.Root, which refuses to follow symlinks out of the root, so
// such a swap fails the write instead of escaping; the check-then-write
// window itself remains and is not coordinated by this package.
package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// File modes for created files and directories.
const (
	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

// Sentinel errors. Traversal errors always wrap ErrPathTraversal.
var (
	ErrPathTraversal = errors.New("security violation: path traversal detected")
	ErrAbsolutePath  = errors.New("absolute paths are not allowed")
	ErrInvalidPath   = errors.New("invalid file path")
)

// Root is a canonical, absolute sandbox directory.
type Root struct {
	path string
}

// Open canonicalizes dir (absolute, symlinks resolved) and returns a Root.
// The directory must exist.
func Open(dir string) (*Root, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("invalid project path: %w", ErrInvalidPath)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid project path %q: %w", dir, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("invalid project path %q: %w", dir, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("invalid project path %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("invalid project path %q: not a directory", dir)
	}

	return &Root{path: canonical}, nil
}

// Path returns the canonical root path.
func (r *Root) Path() string {
	return r.path
}

// WriteFile writes content to rel, replacing any existing content.
// Missing parent directories are created. The write is refused with an
// error wrapping ErrPathTraversal if the target could resolve outside the
// root.
func (r *Root) WriteFile(rel, content string) error {
	target, err := r.join(rel)
	if err != nil {
		return err
	}
	parent := filepath.Dir(target)

	// Refuse before creating anything if an existing ancestor already
	// points outside the root.
	if err := r.checkExistingAncestor(rel, parent); err != nil {
		return err
	}

	fsRoot, err := os.OpenRoot(r.path)
	if err != nil {
		return fmt.Errorf("failed to open project root: %w", err)
	}
	defer func() { _ = fsRoot.Close() }()

	relParent, err := filepath.Rel(r.path, parent)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	if relParent != "." {
		if err := fsRoot.MkdirAll(relParent, dirMode); err != nil {
			return fmt.Errorf("failed to create directories for %s: %w", rel, err)
		}
	}

	// Canonicalize after creation so the check sees what is really on disk.
	canonicalParent, err := filepath.EvalSymlinks(parent)
	if err != nil {
		return fmt.Errorf("failed to resolve parent of %s: %w", rel, err)
	}
	canonicalRoot, err := filepath.EvalSymlinks(r.path)
	if err != nil {
		return fmt.Errorf("failed to resolve project root: %w", err)
	}
	if !within(canonicalRoot, canonicalParent) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}

	if err := checkLeaf(canonicalRoot, target, rel); err != nil {
		return err
	}

	relTarget, err := filepath.Rel(r.path, target)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	if err := fsRoot.WriteFile(relTarget, []byte(content), fileMode); err != nil {
		return fmt.Errorf("failed to write %s: %w", rel, err)
	}
	return nil
}

// Resolve returns the absolute location rel refers to, following symlinks,
// without creating anything. Fails with ErrPathTraversal if the location
// resolves outside the root.
func (r *Root) Resolve(rel string) (string, error) {
	target, err := r.join(rel)
	if err != nil {
		return "", err
	}

	resolved, err := resolveForContainment(target)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", rel, err)
	}
	if !within(r.path, resolved) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return resolved, nil
}

// ReadFile reads the file at rel after containment checks.
func (r *Root) ReadFile(rel string) (string, error) {
	resolved, err := r.Resolve(rel)
	if err != nil {
		return "", err
	}

	fsRoot, err := os.OpenRoot(r.path)
	if err != nil {
		return "", fmt.Errorf("failed to open project root: %w", err)
	}
	defer func() { _ = fsRoot.Close() }()

	relResolved, err := filepath.Rel(r.path, resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, rel)
	}
	data, err := fsRoot.ReadFile(relResolved)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", rel, err)
	}
	return string(data), nil
}

// join validates rel and returns the lexically cleaned target under the root.
func (r *Root) join(rel string) (string, error) {
	if err := ValidateRelativePath(rel); err != nil {
		return "", err
	}

	target := filepath.Join(r.path, rel)
	if target == r.path {
		return "", fmt.Errorf("%w: %q refers to the project root", ErrInvalidPath, rel)
	}
	if !within(r.path, target) {
		return "", fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return target, nil
}

func (r *Root) checkExistingAncestor(rel, dir string) error {
	resolved, err := resolveForContainment(dir)
	if err != nil {
		return fmt.Errorf("failed to resolve parent of %s: %w", rel, err)
	}
	if !within(r.path, resolved) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return nil
}

// checkLeaf refuses to write through a symlink that resolves outside the
// root, or whose destination cannot be resolved.
func checkLeaf(canonicalRoot, target, rel string) error {
	info, err := os.Lstat(target)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat %s: %w", rel, err)
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return nil
	}

	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return fmt.Errorf("%w: %s: unresolvable symlink", ErrPathTraversal, rel)
	}
	if !within(canonicalRoot, resolved) {
		return fmt.Errorf("%w: %s", ErrPathTraversal, rel)
	}
	return nil
}

// ValidateRelativePath checks that path is usable as a sandbox-relative path.
// It must be non-empty, not absolute and free of NUL bytes.
func ValidateRelativePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return ErrInvalidPath
	}
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || strings.HasPrefix(path, `\`) {
		return fmt.Errorf("%w: %w: %s", ErrPathTraversal, ErrAbsolutePath, path)
	}
	if strings.ContainsRune(path, '\x00') {
		return fmt.Errorf("%w: contains NUL byte", ErrInvalidPath)
	}
	return nil
}

// within reports whether target equals base or lies below it.
// Comparison is per path component, so "/a/bc" is not within "/a/b".
func within(base, target string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	if filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// resolveForContainment resolves symlinks for containment checks.
// For non-existent paths it resolves the nearest existing ancestor and
// re-attaches the missing suffix.
func resolveForContainment(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}

	current := absPath
	var missing []string
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(missing) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, missing[i])
			}
			return resolved, nil
		}

		if !os.IsNotExist(err) {
			return "", err
		}

		parent := filepath.Dir(current)
		if parent == current {
			return "", err
		}

		missing = append(missing, filepath.Base(current))
		current = parent
	}
}
