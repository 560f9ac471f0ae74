package convert

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/npillmayer/fontpack/core/font"
)

// memoCache memoizes conversion results for repeated identical inputs.
// It is bounded by entry count with least-recently-used eviction and
// guarded by a mutex; the linked hash map keeps entries in recency order
// (front = coldest).
type memoCache struct {
	sync.Mutex
	entries *linkedhashmap.Map
	limit   int
}

func newMemoCache(limit int) *memoCache {
	return &memoCache{
		entries: linkedhashmap.New(),
		limit:   limit,
	}
}

// memoKey derives a cache key from a content hash of the input, the
// declared input format and the canonicalized set of requested output
// formats.
func memoKey(input []byte, inFormat font.Format, outputs []font.Format) string {
	h := sha256.New()
	h.Write(input)
	h.Write([]byte{'|'})
	h.Write([]byte(inFormat.String()))
	outs := append([]font.Format(nil), outputs...)
	sort.Slice(outs, func(i, j int) bool { return outs[i] < outs[j] })
	for _, f := range outs {
		h.Write([]byte{'|'})
		h.Write([]byte(f.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// get returns a copy of the cached result for key and refreshes its
// recency. Buffers are copied so callers can never mutate cached state.
func (mc *memoCache) get(key string) (*Result, bool) {
	mc.Lock()
	defer mc.Unlock()
	v, ok := mc.entries.Get(key)
	if !ok {
		return nil, false
	}
	mc.entries.Remove(key)
	mc.entries.Put(key, v)
	return copyResult(v.(*Result)), true
}

// put stores a result, evicting the least recently used entry when the
// bound is exceeded.
func (mc *memoCache) put(key string, res *Result) {
	mc.Lock()
	defer mc.Unlock()
	mc.entries.Remove(key)
	mc.entries.Put(key, copyResult(res))
	for mc.entries.Size() > mc.limit {
		it := mc.entries.Iterator()
		if !it.First() {
			break
		}
		tracer().Debugf("conversion cache evicts entry")
		mc.entries.Remove(it.Key())
	}
}

// size reports the current number of cached entries.
func (mc *memoCache) size() int {
	mc.Lock()
	defer mc.Unlock()
	return mc.entries.Size()
}

func copyResult(res *Result) *Result {
	cp := &Result{
		Buffers:    make(map[font.Format][]byte, len(res.Buffers)),
		Errors:     make(map[font.Format]error, len(res.Errors)),
		Metadata:   res.Metadata,
		SubsetDiag: res.SubsetDiag,
	}
	for f, b := range res.Buffers {
		cp.Buffers[f] = append([]byte(nil), b...)
	}
	for f, err := range res.Errors {
		cp.Errors[f] = err
	}
	return cp
}
