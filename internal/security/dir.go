package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var ErrPathOutsideDir = errors.New("path outside download directory")

// Dir 限定下载文件只能写入根目录之内（包括经由符号链接的逃逸）。
// Dir confines downloaded files to a root directory, symlink escapes included.
type Dir struct {
	root string
}

func NewDir(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("download dir is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("abs download dir: %w", err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// The directory may not exist yet; WriteFile creates it.
		resolved = abs
	}
	return &Dir{root: resolved}, nil
}

func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Resolve(name string) (string, error) {
	target := name
	if strings.TrimSpace(target) == "" {
		return "", errors.New("file name is empty")
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(d.root, target)
	}

	clean := filepath.Clean(target)
	resolved, err := resolveWithParentSymlink(clean)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(d.root, resolved)
	if err != nil {
		return "", fmt.Errorf("relative path check: %w", err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", ErrPathOutsideDir
	}
	return resolved, nil
}

// WriteFile 清洗文件名后写入根目录，返回最终路径。
// WriteFile sanitizes name, writes data inside the root and returns the final path.
func (d *Dir) WriteFile(name string, data []byte) (string, error) {
	safe, err := SafeFilename(name)
	if err != nil {
		return "", err
	}
	path, err := d.Resolve(safe)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}
	tmp := path + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", safe, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalize %s: %w", safe, err)
	}
	return path, nil
}

func resolveWithParentSymlink(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("resolve symlink: %w", err)
	}

	parent := filepath.Dir(path)
	base := filepath.Base(path)
	parentResolved, perr := filepath.EvalSymlinks(parent)
	if perr != nil {
		if errors.Is(perr, os.ErrNotExist) {
			parentResolved = parent
		} else {
			return "", fmt.Errorf("resolve parent symlink: %w", perr)
		}
	}
	return filepath.Join(parentResolved, base), nil
}
