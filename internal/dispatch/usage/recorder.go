// Package usage supplies the usage-recorder collaborator contract and a
// reference implementation.
package usage

import (
	"context"
	"log/slog"

	retry "github.com/avast/retry-go"

	"github.com/ambergate/ambergate/internal/translator/anthropicwire"
)

// Recorder is the usage-recording collaborator the dispatch pipeline calls
// after every successful dispatch.
type Recorder interface {
	Record(ctx context.Context, accountID string, usage anthropicwire.Usage) error
}

// SlogRecorder logs structured usage events. It is the reference
// implementation for deployments that ship usage to a log pipeline rather
// than a billing database.
type SlogRecorder struct {
	logger *slog.Logger
}

// NewSlogRecorder builds a SlogRecorder writing through logger.
func NewSlogRecorder(logger *slog.Logger) *SlogRecorder {
	return &SlogRecorder{logger: logger}
}

func (r *SlogRecorder) Record(ctx context.Context, accountID string, usage anthropicwire.Usage) error {
	r.logger.InfoContext(ctx, "usage recorded",
		"account_id", accountID,
		"input_tokens", usage.InputTokens,
		"output_tokens", usage.OutputTokens,
	)
	return nil
}

// RecordAsync fires Record in the background wrapped in a small bounded
// retry: usage recording is fire-and-forget and must not block emission of
// downstream events. This never retries the upstream chat-completions call
// itself — only this side channel.
func RecordAsync(recorder Recorder, ctx context.Context, accountID string, usage anthropicwire.Usage) {
	go func() {
		err := retry.Do(
			func() error {
				return recorder.Record(ctx, accountID, usage)
			},
			retry.Attempts(3),
			retry.OnRetry(func(n uint, err error) {
				slog.Warn("usage recording failed, retrying", "attempt", n, "account_id", accountID, "error", err)
			}),
		)
		if err != nil {
			slog.Error("usage recording failed permanently", "account_id", accountID, "error", err)
		}
	}()
}
