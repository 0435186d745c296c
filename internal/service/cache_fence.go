package service

import (
	"hash/fnv"
	"sync"
)

const fenceStripes = 64

// cacheFence orders cache fills against invalidations. A fill carries the
// generation observed before its store read and is dropped if any
// invalidation of the same stripe happened since.
type cacheFence struct {
	stripes [fenceStripes]struct {
		mu  sync.Mutex
		gen uint64
	}
}

func (f *cacheFence) stripe(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % fenceStripes)
}

func (f *cacheFence) generation(key string) uint64 {
	s := &f.stripes[f.stripe(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// fill runs set only while gen is still current.
func (f *cacheFence) fill(key string, gen uint64, set func()) bool {
	s := &f.stripes[f.stripe(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen != gen {
		return false
	}
	set()
	return true
}

func (f *cacheFence) invalidate(key string, del func()) {
	s := &f.stripes[f.stripe(key)]
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	del()
}
