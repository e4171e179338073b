package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/edgard/notifybot/internal/mail"
)

// DefaultFileServerURL is the Telegram host serving file downloads.
const DefaultFileServerURL = "https://api.telegram.org"

// FileGetter resolves a file id to a downloadable path. *bot.Bot implements it.
type FileGetter interface {
	GetFile(ctx context.Context, params *bot.GetFileParams) (*models.File, error)
}

// Downloader stores Telegram files on local disk.
type Downloader struct {
	files   FileGetter
	client  *resty.Client
	token   string
	baseURL string
	timeout time.Duration
	logger  *slog.Logger
}

// DownloaderOption customises a Downloader.
type DownloaderOption func(*Downloader)

// WithFileServerURL overrides the file host, mainly for tests.
func WithFileServerURL(url string) DownloaderOption {
	return func(d *Downloader) {
		d.baseURL = strings.TrimRight(url, "/")
	}
}

// NewDownloader creates a Downloader authenticating file URLs with token.
func NewDownloader(files FileGetter, token string, timeout time.Duration, logger *slog.Logger, opts ...DownloaderOption) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Downloader{
		files:   files,
		client:  resty.New(),
		token:   token,
		baseURL: DefaultFileServerURL,
		timeout: timeout,
		logger:  logger.With("component", "telegram_downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download resolves fileID and writes the file to dest. A partially written
// file is removed on failure.
func (d *Downloader) Download(ctx context.Context, fileID, dest string) error {
	if fileID == "" {
		return errors.New("empty file id")
	}
	if ctx.Err() != nil {
		return fmt.Errorf("context cancelled before file download: %w", ctx.Err())
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	f, err := d.files.GetFile(ctx, &bot.GetFileParams{FileID: fileID})
	if err != nil {
		return fmt.Errorf("failed to get file info from Telegram: %w", err)
	}
	if f.FilePath == "" {
		return fmt.Errorf("empty file path returned from Telegram for file ID %s", fileID)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(d.baseURL + "/file/bot" + d.token + "/" + f.FilePath)
	if err != nil {
		removeQuietly(dest)
		// the request URL carries the token, so the resty error is not wrapped verbatim
		return fmt.Errorf("failed to download %s: %s", f.FilePath, redact(err.Error(), d.token))
	}
	if resp.IsError() {
		removeQuietly(dest)
		return fmt.Errorf("unexpected status code %d downloading %s", resp.StatusCode(), f.FilePath)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fmt.Errorf("downloaded file missing: %w", err)
	}
	if info.Size() == 0 {
		removeQuietly(dest)
		return fmt.Errorf("received empty file data for %s", f.FilePath)
	}

	d.checkContent(ctx, dest)
	d.logger.DebugContext(ctx, "File downloaded", "file_id", fileID, "remote_path", f.FilePath, "dest", dest, "size", info.Size())
	return nil
}

// checkContent warns when the sniffed content does not match the extension
// the file was stored under. The file is kept either way.
func (d *Downloader) checkContent(ctx context.Context, path string) {
	mt, err := mimetype.DetectFile(path)
	if err != nil {
		d.logger.WarnContext(ctx, "Failed to detect content type", "path", path, "error", err)
		return
	}
	want := topLevelType(mail.MediaType(path))
	if got := topLevelType(mt.String()); got != want {
		d.logger.WarnContext(ctx, "Downloaded content does not match file extension",
			"path", path, "detected", mt.String(), "expected", want)
	}
}

func topLevelType(mediaType string) string {
	t, _, _ := strings.Cut(mediaType, "/")
	return t
}

func redact(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<token>")
}

func removeQuietly(path string) {
	_ = os.Remove(path)
}
