// Package apply replaces the live installation tree from a staged update.
package apply

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// DefaultProtectedPaths lists the relative paths holding user and runtime
// state that must survive a whole-tree update.
var DefaultProtectedPaths = []string{
	"config/settings.json",
	"config/settings.local.json",
	"blackbox.log",
}

// backupPrefix is the name prefix of installation snapshots; the full name
// carries the snapshot's unix timestamp.
const backupPrefix = "blackbox_backup_"

// Applier applies a staged update tree over the live installation.
type Applier struct {
	installDir string
	backupRoot string
	protected  []string
}

// NewApplier returns an Applier for the provided installation directory.
// Snapshots are created under backupRoot; when protected is nil the default
// protected path set is used.
func NewApplier(installDir string, backupRoot string, protected []string) *Applier {
	if protected == nil {
		protected = DefaultProtectedPaths
	}

	return &Applier{
		installDir: installDir,
		backupRoot: backupRoot,
		protected:  protected,
	}
}

// Apply overlays the staged tree onto the live installation.
//
// A full snapshot of the installation is taken first; if that fails nothing
// is touched. Protected paths are read before the overlay and written back
// after it, so user configuration and logs survive even when the new release
// ships its own copies. Files present in the old tree but absent from the
// new one are left in place.
//
// Once the snapshot exists, the staging directory holding stagedRoot is
// removed no matter whether the overlay succeeded. On failure the snapshot
// stays on disk as the manual recovery path; no automatic rollback is
// attempted.
func (a *Applier) Apply(ctx context.Context, stagedRoot string) error {
	// Snapshot the current installation. An update must never proceed
	// without a working backup.
	backupDir := filepath.Join(a.backupRoot, backupPrefix+strconv.FormatInt(time.Now().Unix(), 10))

	err := copyTree(a.installDir, backupDir, filepath.Base(filepath.Dir(stagedRoot)))
	if err != nil {
		_ = os.RemoveAll(backupDir)

		return errors.New("unable to snapshot installation: " + err.Error())
	}

	slog.InfoContext(ctx, "Created installation snapshot", "path", backupDir)

	// The staging area is transient; once the backup exists it goes away on
	// both success and failure.
	defer func() { _ = os.RemoveAll(filepath.Dir(stagedRoot)) }()

	// Read the current contents of every protected path.
	preserved := map[string][]byte{}

	for _, rel := range a.protected {
		body, err := os.ReadFile(filepath.Join(a.installDir, rel)) //nolint:gosec
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}

			return err
		}

		preserved[rel] = body
	}

	// Overlay the staged tree onto the installation.
	err = a.overlay(stagedRoot)
	if err != nil {
		return err
	}

	// Write the preserved contents back over whatever the overlay left there.
	for rel, body := range preserved {
		target := filepath.Join(a.installDir, rel)

		err = os.MkdirAll(filepath.Dir(target), 0o700)
		if err != nil {
			return err
		}

		err = os.WriteFile(target, body, 0o600)
		if err != nil {
			return err
		}
	}

	return nil
}

// overlay copies every regular file from the staged tree into the live
// installation, creating parent directories as needed. Version-control
// metadata is skipped. Nothing is deleted from the live tree.
func (a *Applier) overlay(stagedRoot string) error {
	return filepath.WalkDir(stagedRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(stagedRoot, path)
		if err != nil {
			return err
		}

		// Skip version-control metadata shipped in the archive.
		first, _, _ := strings.Cut(rel, string(os.PathSeparator))
		if strings.HasPrefix(first, ".git") {
			return nil
		}

		target := filepath.Join(a.installDir, rel)

		err = os.MkdirAll(filepath.Dir(target), 0o700)
		if err != nil {
			return err
		}

		return copyFile(path, target)
	})
}

// copyTree copies the directory tree at src to dst. Top-level entries named
// skipName (the staging directory) are left out of the copy.
func copyTree(src string, dst string, skipName string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}

		if rel == "." {
			return os.MkdirAll(dst, 0o700)
		}

		first, _, _ := strings.Cut(rel, string(os.PathSeparator))
		if skipName != "" && first == skipName {
			if d.IsDir() {
				return filepath.SkipDir
			}

			return nil
		}

		target := filepath.Join(dst, rel)

		if d.IsDir() {
			return os.MkdirAll(target, 0o700)
		}

		return copyFile(path, target)
	})
}

// copyFile copies src to dst, carrying over the source's permission bits so
// executables stay executable after the overlay.
func copyFile(src string, dst string) error {
	// #nosec G304
	in, err := os.Open(src)
	if err != nil {
		return err
	}

	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	// #nosec G304
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	defer out.Close()

	// OpenFile only applies the mode on creation; existing targets keep
	// theirs, so set it explicitly.
	err = out.Chmod(info.Mode().Perm())
	if err != nil {
		return err
	}

	// Read from the source in chunks to avoid excessive memory consumption.
	for {
		_, err = io.CopyN(out, in, 4*1024*1024)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return err
		}
	}

	return out.Close()
}
