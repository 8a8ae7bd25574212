package store

import (
	"fmt"
	"sync"
	"sync/atomic"
)

const (
	// DefaultSegmentShift gives segments of 1<<20 slots
	DefaultSegmentShift = 20

	minSegmentShift = 1
	maxSegmentShift = 29

	// maxDirectoryJump bounds how far past twice the current directory a
	// single Put may reach. Allocated ids are dense, so only a caller
	// inventing ids can get further ahead than this.
	maxDirectoryJump = 1024
)

// segment is a fixed-size run of slots for contiguous ids. A slot is written
// once by the goroutine that allocated its id and is never changed after.
type segment []atomic.Pointer[string]

// directory maps segment numbers to segments. A directory is never resized in
// place; growth publishes a new one holding the same segment pointers.
type directory struct {
	segments []atomic.Pointer[segment]
}

// ForwardIndex maps ids to urls in a segmented, append-only array.
//
// Get is lock-free and costs the same no matter how many entries exist.
// Put only takes growMu when it has to materialize a segment or grow the
// directory; writes into an existing segment are lock-free.
type ForwardIndex struct {
	shift       uint
	segmentSize uint64
	mask        uint64

	dir    atomic.Pointer[directory]
	growMu sync.Mutex

	// highest id whose slot write has completed, -1 before the first write
	watermark    atomic.Int64
	materialized atomic.Int64
}

// NewForwardIndex creates a new forward index
func NewForwardIndex(config ForwardIndexConfig) (*ForwardIndex, error) {
	shift := config.SegmentShift
	if shift == 0 {
		shift = DefaultSegmentShift
	}
	if shift < minSegmentShift || shift > maxSegmentShift {
		return nil, fmt.Errorf("%w: segment shift must be between %d and %d, got %d",
			ErrInvalidArgument, minSegmentShift, maxSegmentShift, shift)
	}

	size := uint64(1) << uint(shift)
	fi := &ForwardIndex{
		shift:       uint(shift),
		segmentSize: size,
		mask:        size - 1,
	}
	fi.dir.Store(&directory{segments: make([]atomic.Pointer[segment], 1)})
	fi.watermark.Store(-1)

	return fi, nil
}

// Put stores url under id. Each id must be written at most once; the
// allocator guarantees that, so concurrent callers always touch distinct slots.
func (fi *ForwardIndex) Put(id uint64, url string) error {
	if id > MaxID {
		return fmt.Errorf("%w: id %d out of range", ErrInvalidArgument, id)
	}

	seg, err := fi.ensureSegment(id >> fi.shift)
	if err != nil {
		return fmt.Errorf("id %d: %w", id, err)
	}
	(*seg)[id&fi.mask].Store(&url)

	// Publish only after the slot store so a reader that sees the new
	// watermark also sees the url.
	for {
		cur := fi.watermark.Load()
		if int64(id) <= cur || fi.watermark.CompareAndSwap(cur, int64(id)) {
			return nil
		}
	}
}

// Get returns the url stored under id. It reports false for ids above the
// high watermark and for slots that have not been written yet.
func (fi *ForwardIndex) Get(id uint64) (string, bool) {
	hw := fi.watermark.Load()
	if hw < 0 || id > uint64(hw) {
		return "", false
	}

	dir := fi.dir.Load()
	idx := id >> fi.shift
	if idx >= uint64(len(dir.segments)) {
		return "", false
	}
	seg := dir.segments[idx].Load()
	if seg == nil {
		return "", false
	}
	url := (*seg)[id&fi.mask].Load()
	if url == nil {
		return "", false
	}
	return *url, true
}

// HighWatermark returns the largest id written so far.
// ok is false until the first Put completes.
func (fi *ForwardIndex) HighWatermark() (id uint64, ok bool) {
	hw := fi.watermark.Load()
	if hw < 0 {
		return 0, false
	}
	return uint64(hw), true
}

// Stats returns forward index statistics
func (fi *ForwardIndex) Stats() ForwardIndexStats {
	hw, ok := fi.HighWatermark()
	return ForwardIndexStats{
		SegmentSize:          int(fi.segmentSize),
		SegmentsMaterialized: int(fi.materialized.Load()),
		DirectoryLength:      len(fi.dir.Load().segments),
		HighWatermark:        hw,
		Empty:                !ok,
	}
}

// ensureSegment returns segment idx, creating it and growing the directory
// as needed. It refuses to grow the directory further than
// 2*len+maxDirectoryJump in one step.
func (fi *ForwardIndex) ensureSegment(idx uint64) (*segment, error) {
	dir := fi.dir.Load()
	if idx < uint64(len(dir.segments)) {
		if seg := dir.segments[idx].Load(); seg != nil {
			return seg, nil
		}
	}

	fi.growMu.Lock()
	defer fi.growMu.Unlock()

	// re-check under the lock, another writer may have done the work
	dir = fi.dir.Load()
	if idx >= uint64(len(dir.segments)) {
		if limit := uint64(len(dir.segments))*2 + maxDirectoryJump; idx >= limit {
			return nil, fmt.Errorf("%w: segment %d is too far past directory length %d",
				ErrInvalidArgument, idx, len(dir.segments))
		}
		newLen := max(int(idx)+1, len(dir.segments)*2)
		grown := &directory{segments: make([]atomic.Pointer[segment], newLen)}
		for i := range dir.segments {
			grown.segments[i].Store(dir.segments[i].Load())
		}
		fi.dir.Store(grown)
		dir = grown
	}

	if seg := dir.segments[idx].Load(); seg != nil {
		return seg, nil
	}
	seg := make(segment, fi.segmentSize)
	dir.segments[idx].Store(&seg)
	fi.materialized.Add(1)
	return &seg, nil
}
