// Package fetch downloads and stages release archives.
package fetch

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/blackbox-racing/blackboxd/api"
)

// ErrBadArchive is returned when the downloaded archive doesn't extract to
// exactly one top-level directory.
var ErrBadArchive = errors.New("archive doesn't contain a single top-level directory")

// stagingName is the name of the transient staging directory created under
// the installation directory for each update attempt.
const stagingName = "temp_update"

// Fetcher downloads release archives into a staging directory and extracts them.
type Fetcher struct {
	installDir string
	token      string

	client *http.Client
}

// NewFetcher returns a Fetcher staging its downloads under the provided
// installation directory. The token, when non-empty, is attached to every
// download request.
func NewFetcher(installDir string, token string) *Fetcher {
	return &Fetcher{
		installDir: installDir,
		token:      token,

		client: &http.Client{
			Timeout: 10 * time.Minute,
		},
	}
}

// StagingDir returns the path of the staging directory.
func (f *Fetcher) StagingDir() string {
	return filepath.Join(f.installDir, stagingName)
}

// Cleanup removes the staging directory and everything under it.
func (f *Fetcher) Cleanup() error {
	return os.RemoveAll(f.StagingDir())
}

// Fetch downloads the release archive into a fresh staging directory,
// extracts it and returns the path of the extracted tree. When
// expectedSHA256 is non-empty, the downloaded archive is verified against it
// before extraction.
//
// On a failed download the partially written archive is left in place for
// diagnosis; the next attempt recreates the staging directory from scratch.
func (f *Fetcher) Fetch(ctx context.Context, release *api.Release, expectedSHA256 string) (string, error) {
	// Clear any stale staging directory from a previous failed attempt.
	staging := f.StagingDir()

	err := os.RemoveAll(staging)
	if err != nil && !os.IsNotExist(err) {
		return "", err
	}

	err = os.MkdirAll(staging, 0o700)
	if err != nil {
		return "", err
	}

	// Download the archive.
	archivePath := filepath.Join(staging, "update_v"+release.Version+".zip")

	err = f.download(ctx, release.DownloadURL, archivePath, expectedSHA256)
	if err != nil {
		return "", err
	}

	// Extract the archive.
	err = extractArchive(archivePath, staging)
	if err != nil {
		return "", err
	}

	// The archive is expected to extract to a single top-level directory,
	// matching the registry's archive-of-a-tag convention.
	entries, err := os.ReadDir(staging)
	if err != nil {
		return "", err
	}

	extracted := ""

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		if extracted != "" {
			return "", ErrBadArchive
		}

		extracted = filepath.Join(staging, entry.Name())
	}

	if extracted == "" {
		return "", ErrBadArchive
	}

	slog.InfoContext(ctx, "Staged update archive", "version", release.Version, "path", extracted)

	return extracted, nil
}

func (f *Fetcher) download(ctx context.Context, url string, target string, expectedSHA256 string) error {
	// Prepare the request.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return errors.New("unable to create http request: " + err.Error())
	}

	if f.token != "" {
		req.Header.Set("Authorization", "token "+f.token)
	}

	// Get a reader for the release archive.
	resp, err := f.client.Do(req)
	if err != nil {
		return errors.New("unable to get http response: " + err.Error())
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected HTTP status: " + resp.Status)
	}

	// Setup a sha256 hasher.
	h := sha256.New()

	// Setup the main reader.
	tr := io.TeeReader(resp.Body, h)

	// Create the target path.
	// #nosec G304
	fd, err := os.Create(target)
	if err != nil {
		return err
	}

	defer fd.Close()

	// Read from the body in chunks to avoid excessive memory consumption.
	for {
		_, err = io.CopyN(fd, tr, 4*1024*1024)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return errors.New("io.CopyN() error: " + err.Error())
		}
	}

	// Check the hash.
	if expectedSHA256 != "" && expectedSHA256 != hex.EncodeToString(h.Sum(nil)) {
		return errors.New("sha256 mismatch for file " + target)
	}

	return nil
}

func extractArchive(archivePath string, targetDir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return err
	}

	defer zr.Close()

	for _, file := range zr.File {
		// Don't let a crafted archive write outside of the staging directory.
		target := filepath.Join(targetDir, filepath.Clean(file.Name)) //nolint:gosec
		if !strings.HasPrefix(target, filepath.Clean(targetDir)+string(os.PathSeparator)) {
			return errors.New("invalid path in archive: " + file.Name)
		}

		if file.FileInfo().IsDir() {
			err := os.MkdirAll(target, 0o700)
			if err != nil {
				return err
			}

			continue
		}

		err = extractFile(file, target)
		if err != nil {
			return err
		}
	}

	return nil
}

func extractFile(f *zip.File, target string) error {
	// Open the file.
	rc, err := f.Open()
	if err != nil {
		return err
	}

	defer rc.Close()

	// Create the target path.
	err = os.MkdirAll(filepath.Dir(target), 0o700)
	if err != nil {
		return err
	}

	// Keep the archived permission bits so shipped executables stay
	// executable. Entries without unix attributes get a plain file mode.
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o600
	}

	// #nosec G304
	fd, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	defer fd.Close()

	// Read from the archive in chunks to avoid excessive memory consumption.
	for {
		_, err := io.CopyN(fd, rc, 4*1024*1024)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return err
		}
	}

	return nil
}
