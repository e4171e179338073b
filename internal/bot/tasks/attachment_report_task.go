package tasks

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/edgard/notifybot/internal/metrics"
)

// newAttachmentReportTask creates the task reporting how many files the
// attachment directory holds and their total size. Files are never removed.
func newAttachmentReportTask(deps TaskDeps) ScheduledTaskFunc {
	log := deps.Logger.With("task", "attachment_report")

	return func(ctx context.Context) error {
		dir := deps.Config.Bot.AttachmentDir
		files, size, err := dirUsage(ctx, dir)
		if err != nil {
			log.ErrorContext(ctx, "Attachment report failed", "dir", dir, "error", err)
			return fmt.Errorf("attachment report failed: %w", err)
		}

		metrics.AttachmentDirFiles.Set(float64(files))
		metrics.AttachmentDirBytes.Set(float64(size))
		log.InfoContext(ctx, "Attachment directory usage", "dir", dir, "files", files, "bytes", size)
		return nil
	}
}

// dirUsage counts regular files below dir and sums their sizes.
func dirUsage(ctx context.Context, dir string) (files int, size int64, err error) {
	err = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += info.Size()
		return nil
	})
	return files, size, err
}
