package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/akeller/resolvebot/internal/domain"
)

// StateSource supplies the current portfolio state for snapshotting. The
// ledger satisfies this.
type StateSource interface {
	State() domain.PortfolioState
}

// SnapshotArchiver periodically uploads a JSON snapshot of the portfolio
// state to object storage. Snapshots are append-only history; the local
// state file remains the source of truth for recovery.
//
// Key schema:
//
//	snapshots/2006-01-02T15-04-05Z.json  - timestamped history
//	snapshots/latest.json                - always the newest snapshot
type SnapshotArchiver struct {
	uploader *manager.Uploader
	bucket   string
	source   StateSource
	interval time.Duration
	clock    func() time.Time
	logger   *slog.Logger
}

// NewSnapshotArchiver creates a SnapshotArchiver uploading to the client's
// bucket every interval.
func NewSnapshotArchiver(c *Client, source StateSource, interval time.Duration, logger *slog.Logger) *SnapshotArchiver {
	return &SnapshotArchiver{
		uploader: manager.NewUploader(c.s3),
		bucket:   c.bucket,
		source:   source,
		interval: interval,
		clock:    time.Now,
		logger:   logger.With(slog.String("component", "snapshot_archiver")),
	}
}

// Run uploads snapshots on the configured interval until the context is
// cancelled. Upload failures are logged and retried on the next tick.
func (a *SnapshotArchiver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := a.Snapshot(ctx); err != nil {
				a.logger.WarnContext(ctx, "snapshot upload failed",
					slog.String("error", err.Error()))
			}
		}
	}
}

// Snapshot serializes the current portfolio state and uploads it under a
// timestamped key plus the latest.json alias.
func (a *SnapshotArchiver) Snapshot(ctx context.Context) error {
	state := a.source.State()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("snapshots/%s.json", a.clock().UTC().Format("2006-01-02T15-04-05Z"))
	for _, k := range []string{key, "snapshots/latest.json"} {
		_, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(k),
			Body:        bytes.NewReader(data),
			ContentType: aws.String("application/json"),
		})
		if err != nil {
			return fmt.Errorf("s3blob: upload %s: %w", k, err)
		}
	}

	a.logger.InfoContext(ctx, "snapshot uploaded",
		slog.String("key", key),
		slog.Int("positions", len(state.Positions)))

	return nil
}
