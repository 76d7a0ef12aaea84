package store

import (
	"container/list"
	"os"
	"sync"
	"time"

	"github.com/couchcryptid/meteor-ke-sweep/internal/domain"
)

// fileStamp identifies one version of a day file on disk. A cached day is
// served only while the file still carries the stamp it was decoded from.
type fileStamp struct {
	modTime time.Time
	size    int64
}

func stampOf(info os.FileInfo) fileStamp {
	return fileStamp{modTime: info.ModTime(), size: info.Size()}
}

type decodedDay struct {
	path  string
	stamp fileStamp
	ms    []domain.Measurement
}

// dayCache keeps the most recently used decoded day files. Consecutive
// windows overlap on their padded edge days, so without it the same file is
// decoded twice per worker.
type dayCache struct {
	mu    sync.Mutex
	limit int
	order *list.List // front is most recently used
	byDay map[string]*list.Element
}

func newDayCache(limit int) *dayCache {
	return &dayCache{
		limit: max(limit, 1),
		order: list.New(),
		byDay: make(map[string]*list.Element),
	}
}

// lookup returns the decoded day for path when it was decoded from the same
// file version. A stale entry is dropped.
func (c *dayCache) lookup(path string, stamp fileStamp) ([]domain.Measurement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byDay[path]
	if !ok {
		return nil, false
	}
	d := el.Value.(*decodedDay)
	if !d.stamp.modTime.Equal(stamp.modTime) || d.stamp.size != stamp.size {
		c.order.Remove(el)
		delete(c.byDay, path)
		return nil, false
	}
	c.order.MoveToFront(el)
	return d.ms, true
}

func (c *dayCache) store(path string, stamp fileStamp, ms []domain.Measurement) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byDay[path]; ok {
		el.Value = &decodedDay{path: path, stamp: stamp, ms: ms}
		c.order.MoveToFront(el)
		return
	}
	c.byDay[path] = c.order.PushFront(&decodedDay{path: path, stamp: stamp, ms: ms})

	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byDay, oldest.Value.(*decodedDay).path)
	}
}

func (c *dayCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
