// Package natsbarrier implements the namespace reset barrier on a NATS
// JetStream key-value bucket so workers in separate processes can wait for
// the coordinator.
package natsbarrier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/couchcryptid/meteor-ke-sweep/internal/artifact"
)

const (
	valueOK      = "ok"
	failedPrefix = "failed: "

	// Release keys outlive any single run and are then dropped by the server.
	keyTTL = 24 * time.Hour
)

var tokenRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Barrier is an artifact.Barrier backed by a JetStream KV bucket. Keys are
// scoped by run id, so a release left over from an earlier run never opens
// the barrier of a new one.
type Barrier struct {
	kv     jetstream.KeyValue
	nc     *nats.Conn
	runID  string
	logger *slog.Logger
}

var _ artifact.Barrier = (*Barrier)(nil)

// Connect dials url and opens the barrier in bucket.
func Connect(ctx context.Context, url, bucket, runID string, logger *slog.Logger) (*Barrier, error) {
	nc, err := nats.Connect(url,
		nats.Name("kesweep"),
		nats.Timeout(5*time.Second),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	b, err := New(ctx, nc, bucket, runID, logger)
	if err != nil {
		nc.Close()
		return nil, err
	}
	b.nc = nc
	return b, nil
}

// New opens the barrier on an existing connection, creating the bucket if
// needed. The connection stays owned by the caller.
func New(ctx context.Context, nc *nats.Conn, bucket, runID string, logger *slog.Logger) (*Barrier, error) {
	if !tokenRe.MatchString(runID) {
		return nil, fmt.Errorf("run id %q is not a valid key token", runID)
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}
	kv, err := ensureBucket(ctx, js, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "kesweep namespace reset barrier",
		History:     1,
		TTL:         keyTTL,
	}, 3)
	if err != nil {
		return nil, err
	}
	return &Barrier{kv: kv, runID: runID, logger: logger}, nil
}

// Close releases the connection when the barrier dialed it.
func (b *Barrier) Close() {
	if b.nc != nil {
		b.nc.Close()
	}
}

func (b *Barrier) key(namespace string) string {
	return "reset." + namespace + "." + b.runID
}

// Release records the reset outcome. A second release of the same namespace
// in one run is an error.
func (b *Barrier) Release(ctx context.Context, namespace string, resetErr error) error {
	value := valueOK
	if resetErr != nil {
		value = failedPrefix + resetErr.Error()
	}
	if _, err := b.kv.Create(ctx, b.key(namespace), []byte(value)); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("namespace %q already released in run %s", namespace, b.runID)
		}
		return fmt.Errorf("release %s: %w", namespace, err)
	}
	b.logger.Debug("barrier released", "namespace", namespace, "run_id", b.runID, "value", value)
	return nil
}

// Await watches the namespace key until the coordinator releases it.
func (b *Barrier) Await(ctx context.Context, namespace string) error {
	key := b.key(namespace)
	watcher, err := b.kv.Watch(ctx, key)
	if err != nil {
		return fmt.Errorf("watch %s: %w", key, err)
	}
	defer watcher.Stop() //nolint:errcheck // best effort on return

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("await reset of %q: %w", namespace, ctx.Err())
		case entry, ok := <-watcher.Updates():
			if !ok {
				return fmt.Errorf("watch %s closed", key)
			}
			// nil marks the end of the initial values.
			if entry == nil || entry.Operation() != jetstream.KeyValuePut {
				continue
			}
			value := string(entry.Value())
			if value == valueOK {
				return nil
			}
			return fmt.Errorf("%w: %s", artifact.ErrResetFailed, strings.TrimPrefix(value, failedPrefix))
		}
	}
}

// ensureBucket creates or opens a KV bucket, retrying when several workers
// race to create it.
func ensureBucket(ctx context.Context, js jetstream.JetStream, cfg jetstream.KeyValueConfig, maxRetries int) (jetstream.KeyValue, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		kv, err := js.CreateKeyValue(ctx, cfg)
		if err == nil {
			return kv, nil
		}
		if errors.Is(err, jetstream.ErrBucketExists) {
			kv, err = js.KeyValue(ctx, cfg.Bucket)
			if err == nil {
				return kv, nil
			}
			lastErr = fmt.Errorf("bucket exists but failed to open: %w", err)
		} else {
			lastErr = err
		}

		if ctx.Err() != nil {
			return nil, fmt.Errorf("ensure bucket %s: %w", cfg.Bucket, ctx.Err())
		}
		if attempt < maxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * 10 * time.Millisecond //nolint:gosec // attempt < maxRetries
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return nil, fmt.Errorf("create/open KV bucket %s after %d attempts: %w", cfg.Bucket, maxRetries, lastErr)
}
