package artifact

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

var fileRe = regexp.MustCompile(`^ke_res-(\d{6})\.nc$`)

// Mirror receives a copy of every artifact written. Uploads are best effort.
type Mirror interface {
	Upload(ctx context.Context, key, path string) error
}

// Coordinator manages the namespace directories under one output root.
type Coordinator struct {
	root         string
	barrier      Barrier
	mirror       Mirror
	logger       *slog.Logger
	awaitTimeout time.Duration
}

// NewCoordinator returns a coordinator writing under root. mirror may be nil.
func NewCoordinator(root string, barrier Barrier, mirror Mirror, logger *slog.Logger) *Coordinator {
	return &Coordinator{root: root, barrier: barrier, mirror: mirror, logger: logger}
}

// WithAwaitTimeout bounds how long a non-coordinator waits for the reset.
// Zero waits until the context ends.
func (c *Coordinator) WithAwaitTimeout(d time.Duration) *Coordinator {
	c.awaitTimeout = d
	return c
}

// FileName returns the artifact file name of the worker with index.
func FileName(index int) string {
	return fmt.Sprintf("ke_res-%06d.nc", index)
}

// ObjectKey returns the mirror key of a worker's artifact.
func ObjectKey(namespace string, index int) string {
	return namespace + "/" + FileName(index)
}

// Dir returns the namespace directory.
func (c *Coordinator) Dir(namespace string) string {
	return filepath.Join(c.root, namespace)
}

// Path returns where the worker with index writes in namespace.
func (c *Coordinator) Path(namespace string, index int) string {
	return filepath.Join(c.Dir(namespace), FileName(index))
}

// Prepare makes the namespace ready for id. The coordinator deletes and
// recreates the directory and then releases the barrier; every other worker
// waits for that release. Nothing is written to the namespace before Prepare
// returns nil.
func (c *Coordinator) Prepare(ctx context.Context, id domain.WorkerIdentity, namespace string) error {
	if err := domain.ValidateNamespace(namespace); err != nil {
		return err
	}
	if !id.IsCoordinator {
		if c.awaitTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.awaitTimeout)
			defer cancel()
		}
		if err := c.barrier.Await(ctx, namespace); err != nil {
			return fmt.Errorf("worker %s: %w", id, err)
		}
		return nil
	}

	resetErr := c.reset(namespace)
	if err := c.barrier.Release(ctx, namespace, resetErr); err != nil {
		if resetErr != nil {
			return fmt.Errorf("reset %s: %w", namespace, resetErr)
		}
		return fmt.Errorf("release %s: %w", namespace, err)
	}
	if resetErr != nil {
		return fmt.Errorf("reset %s: %w", namespace, resetErr)
	}
	c.logger.Info("namespace reset", "namespace", namespace, "dir", c.Dir(namespace))
	return nil
}

func (c *Coordinator) reset(namespace string) error {
	dir := c.Dir(namespace)
	if err := os.RemoveAll(dir); err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o755)
}

// Write checkpoints a worker artifact and mirrors it when a mirror is set.
// Only a failed local write is an error.
func (c *Coordinator) Write(ctx context.Context, a *Artifact) error {
	path := c.Path(a.Namespace, a.Worker.Index)
	if err := a.WriteFile(path); err != nil {
		return err
	}
	if c.mirror != nil {
		key := ObjectKey(a.Namespace, a.Worker.Index)
		if err := c.mirror.Upload(ctx, key, path); err != nil {
			c.logger.Warn("artifact mirror failed", "key", key, "error", err)
		}
	}
	return nil
}

// Discover lists the worker artifacts of namespace under root, ordered by
// worker index.
func Discover(root, namespace string) ([]string, error) {
	if err := domain.ValidateNamespace(namespace); err != nil {
		return nil, err
	}
	dir := filepath.Join(root, namespace)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type indexed struct {
		index int
		path  string
	}
	var found []indexed
	for _, e := range entries {
		m := fileRe.FindStringSubmatch(e.Name())
		if e.IsDir() || m == nil {
			continue
		}
		idx, _ := strconv.Atoi(m[1])
		found = append(found, indexed{idx, filepath.Join(dir, e.Name())})
	}
	sort.Slice(found, func(i, j int) bool { return found[i].index < found[j].index })

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.path
	}
	return paths, nil
}
