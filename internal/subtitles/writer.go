package subtitles

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"hardsub/internal/cues"
	"hardsub/internal/fileutil"
	"hardsub/internal/logging"
	"hardsub/internal/services"
)

// DefaultOutputDirName is the directory created next to each video.
const DefaultOutputDirName = "output"

const lockFileName = ".hardsub.lock"

// DefaultOutputPath returns <videoDir>/<outputDirName>/<videoBase>.srt.
func DefaultOutputPath(videoPath, outputDirName string) string {
	if strings.TrimSpace(outputDirName) == "" {
		outputDirName = DefaultOutputDirName
	}
	base := filepath.Base(videoPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(filepath.Dir(videoPath), outputDirName, base+".srt")
}

// Writer persists cue sequences as SRT files.
type Writer struct {
	logger *slog.Logger
}

// NewWriter constructs a Writer.
func NewWriter(logger *slog.Logger) *Writer {
	return &Writer{logger: logging.NewComponentLogger(logger, "subtitles")}
}

// Write stores list at path, or at the first free suffixed variant of path
// when a file already exists, and returns the path actually written. Zero
// cues yields services.ErrEmptyResult and no file.
func (w *Writer) Write(ctx context.Context, path string, list []cues.Cue) (string, error) {
	if len(list) == 0 {
		return "", services.Wrap(services.ErrEmptyResult, "write", "", "no cues to write", nil)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrValidation, "write", "create output directory", dir, err)
	}

	lock := flock.New(filepath.Join(dir, lockFileName))
	locked, err := lock.TryLockContext(ctx, 25*time.Millisecond)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Interrupted("write", ctxErr)
		}
		return "", services.Wrap(services.ErrValidation, "write", "lock output directory", dir, err)
	}
	if !locked {
		return "", services.Wrap(services.ErrValidation, "write", "lock output directory", dir+" is locked", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.WarnWithContext(w.logger, "output lock release failed", "output_lock_release_failed",
				logging.String("dir", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "lock file remains held until process exit"),
			)
		}
	}()

	final, err := fileutil.FreeName(path)
	if err != nil {
		return "", services.Wrap(services.ErrValidation, "write", "choose output name", path, err)
	}
	if err := fileutil.WriteFileAtomic(final, []byte(Format(list)), 0o644); err != nil {
		return "", services.Wrap(services.ErrValidation, "write", "write subtitle file", final, err)
	}
	if final != path {
		w.logger.Info("output existed; wrote suffixed file",
			logging.String("requested", path),
			logging.String("path", final),
		)
	}
	w.logger.Debug("subtitle file written",
		logging.String("path", final),
		logging.Int("cues", len(list)),
		logging.String(logging.FieldEventType, "subtitle_written"),
	)
	return final, nil
}
