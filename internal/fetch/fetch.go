package fetch

import (
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"

	goupdate "github.com/doitdistributed/go-update"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/ccdc-opensource/conda-offline-installer/internal/logger"

	// Ensure SHA256 is available for installer verification.
	_ "crypto/sha256"
)

// installerFileMode marks the downloaded installer as executable.
const installerFileMode os.FileMode = 0o755

var errBadHTTPStatus = errors.New("unexpected http status")

// DownloadInstaller fetches the installer binary from mirrorURL/installerName
// and places it at destPath. When sha256Hex is non-empty the download is
// verified against it before the file is moved into place.
func DownloadInstaller(ctx context.Context, mirrorURL, installerName, destPath, sha256Hex string) error {
	finalURL, err := installerURL(mirrorURL, installerName)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Downloading installer", "url", finalURL, "dest", destPath)

	client := retryablehttp.NewClient()
	client.Logger = nil

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return fmt.Errorf("build installer request: %w", err)
	}

	response, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("download installer: %w", err)
	}

	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode != http.StatusOK {
		return fmt.Errorf("%s, %s: %w", finalURL, response.Status, errBadHTTPStatus)
	}

	options := goupdate.Options{
		TargetPath: destPath,
		TargetMode: installerFileMode,
	}

	if sha256Hex != "" {
		checksum, decodeErr := hex.DecodeString(sha256Hex)
		if decodeErr != nil {
			return fmt.Errorf("decode installer checksum: %w", decodeErr)
		}

		options.Checksum = checksum
		options.Hash = crypto.SHA256
	}

	// Apply expects the target to exist so it can swap the old file out.
	if err = ensureFile(destPath); err != nil {
		return err
	}

	if err = goupdate.Apply(response.Body, options); err != nil {
		return fmt.Errorf("place installer: %w", err)
	}

	// Apply leaves the previous file behind under a .old suffix.
	oldPath := destPath + ".old"
	if _, err = os.Stat(oldPath); err == nil {
		_ = os.Remove(oldPath)
	}

	return nil
}

// installerURL joins the mirror base URL with the installer filename.
func installerURL(mirrorURL, installerName string) (string, error) {
	parsed, err := url.Parse(mirrorURL)
	if err != nil {
		return "", fmt.Errorf("parse mirror URL: %w", err)
	}

	parsed.Path = path.Join(parsed.Path, installerName)

	return parsed.String(), nil
}

// ensureFile creates an empty file at the path when none exists.
func ensureFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	return file.Close()
}
