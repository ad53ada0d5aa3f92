package project

import (
	apperrors "amcli/internal/core/errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Scaffold lays out the default project tree in dir and writes its marker.
func Scaffold(dir string, cfg Configuration) error {
	cfg = cfg.withDefaults()
	dirs := []string{cfg.BuildDir, cfg.DataDir, "plugins"}
	for _, kind := range AssetTypes {
		dirs = append(dirs, filepath.Join(cfg.SourcesDir, kind))
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	return WriteMarker(dir, cfg)
}

// CopyTemplate copies the template tree at src into dst and rewrites the
// marker so the copy carries cfg instead of the template's identity.
func CopyTemplate(src, dst string, cfg Configuration) error {
	info, err := os.Stat(src)
	if err != nil {
		return apperrors.TemplateCopyFailed(src, err)
	}
	if !info.IsDir() {
		return apperrors.TemplateCopyFailed(src, fmt.Errorf("%s is not a directory", src))
	}
	if inside, err := within(src, dst); err != nil {
		return apperrors.TemplateCopyFailed(src, err)
	} else if inside {
		return apperrors.TemplateCopyFailed(src, fmt.Errorf("destination %s is inside the template directory", dst))
	}

	_, statErr := os.Stat(dst)
	existed := statErr == nil
	if err := copyTree(src, dst, cfg); err != nil {
		discard(dst, existed)
		return apperrors.TemplateCopyFailed(src, err)
	}
	return nil
}

func copyTree(src, dst string, cfg Configuration) error {
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		switch {
		case d.IsDir():
			return os.MkdirAll(target, 0o755)
		case d.Type().IsRegular():
			return copyFile(path, target)
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}
	return WriteMarker(dst, cfg)
}

// within reports whether dst is src or lies below it.
func within(src, dst string) (bool, error) {
	absSrc, err := filepath.Abs(src)
	if err != nil {
		return false, err
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return false, err
	}
	if resolved, err := filepath.EvalSymlinks(absSrc); err == nil {
		absSrc = resolved
	}
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(absDst)); err == nil {
		absDst = filepath.Join(resolved, filepath.Base(absDst))
	}
	rel, err := filepath.Rel(absSrc, absDst)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

// discard removes what a failed copy left in dst. A directory that existed
// before the copy is emptied, not removed.
func discard(dst string, existed bool) {
	if !existed {
		_ = os.RemoveAll(dst)
		return
	}
	entries, err := os.ReadDir(dst)
	if err != nil {
		return
	}
	for _, e := range entries {
		_ = os.RemoveAll(filepath.Join(dst, e.Name()))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
