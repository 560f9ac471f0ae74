package convert

import (
	"bytes"
	"testing"

	"github.com/npillmayer/fontpack/core/font"
	"github.com/npillmayer/fontpack/core/font/sfnt"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
)

func TestMemoKeyCanonicalizesOutputs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.convert")
	defer teardown()
	//
	input := []byte{1, 2, 3}
	k1 := memoKey(input, font.FormatTTF, []font.Format{font.FormatWOFF, font.FormatWOFF2})
	k2 := memoKey(input, font.FormatTTF, []font.Format{font.FormatWOFF2, font.FormatWOFF})
	if k1 != k2 {
		t.Error("expected the cache key to be independent of output order")
	}
	k3 := memoKey(input, font.FormatTTF, []font.Format{font.FormatWOFF})
	if k1 == k3 {
		t.Error("expected different output sets to yield different cache keys")
	}
	k4 := memoKey([]byte{1, 2, 4}, font.FormatTTF, []font.Format{font.FormatWOFF, font.FormatWOFF2})
	if k1 == k4 {
		t.Error("expected different inputs to yield different cache keys")
	}
	k5 := memoKey(input, font.FormatWOFF, []font.Format{font.FormatWOFF, font.FormatWOFF2})
	if k1 == k5 {
		t.Error("expected different input formats to yield different cache keys")
	}
}

func TestCacheEviction(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.convert")
	defer teardown()
	//
	mc := newMemoCache(2)
	mc.put("a", &Result{})
	mc.put("b", &Result{})
	mc.put("c", &Result{})
	if mc.size() != 2 {
		t.Fatalf("expected cache to be bounded to 2 entries, has %d", mc.size())
	}
	if _, ok := mc.get("a"); ok {
		t.Error("expected oldest entry a to be evicted")
	}
	if _, ok := mc.get("c"); !ok {
		t.Error("expected newest entry c to be cached")
	}
}

func TestCacheRecency(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.convert")
	defer teardown()
	//
	mc := newMemoCache(2)
	mc.put("a", &Result{})
	mc.put("b", &Result{})
	mc.get("a") // refreshes a, making b the coldest entry
	mc.put("c", &Result{})
	if _, ok := mc.get("a"); !ok {
		t.Error("expected recently used entry a to survive eviction")
	}
	if _, ok := mc.get("b"); ok {
		t.Error("expected coldest entry b to be evicted")
	}
}

// Cached results hand out copies: a caller scribbling over a returned
// buffer must not corrupt later cache hits.
func TestCacheCopiesBuffers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.convert")
	defer teardown()
	//
	mc := newMemoCache(2)
	res := &Result{Buffers: map[font.Format][]byte{
		font.FormatWOFF: {1, 2, 3},
	}}
	mc.put("k", res)
	res.Buffers[font.FormatWOFF][0] = 99 // must not reach the cache
	hit, ok := mc.get("k")
	if !ok {
		t.Fatal("expected a cache hit")
	}
	hit.Buffers[font.FormatWOFF][1] = 99 // must not reach the cache either
	hit, _ = mc.get("k")
	if !bytes.Equal(hit.Buffers[font.FormatWOFF], []byte{1, 2, 3}) {
		t.Errorf("cached buffer was corrupted by a caller, is %v", hit.Buffers[font.FormatWOFF])
	}
}

func TestConverterUsesCache(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "fontpack.convert")
	defer teardown()
	//
	c := sfnt.New(sfnt.FlavorTrueType)
	c.Add(sfnt.NewTableRecord(sfnt.T("cmap"), []byte{1, 2, 3}))
	ttf, err := sfnt.Encode(c)
	if err != nil {
		t.Fatal(err)
	}
	codec := &countingCodec{}
	cv := New(WithWoff2Codec(codec), WithCacheSize(4))
	res1, err := cv.Transcode(ttf, font.FormatWOFF2)
	if err != nil {
		t.Fatal(err)
	}
	res2, err := cv.Transcode(ttf, font.FormatWOFF2)
	if err != nil {
		t.Fatal(err)
	}
	if codec.calls != 1 {
		t.Errorf("expected the second conversion to be served from cache, codec ran %d times",
			codec.calls)
	}
	b1, _ := res1.Buffer(font.FormatWOFF2)
	b2, _ := res2.Buffer(font.FormatWOFF2)
	if !bytes.Equal(b1, b2) {
		t.Error("expected the cached result to equal the computed one")
	}
}
