package store

import (
	"fmt"
	"sync/atomic"
)

// IDSpace hands out identifiers from a single atomic counter.
// Ids are strictly increasing across all callers and never reused.
type IDSpace struct {
	next  atomic.Uint64
	maxID uint64
}

// NewIDSpace creates an id space covering [0, MaxID]
func NewIDSpace() *IDSpace {
	return &IDSpace{maxID: MaxID}
}

// NewIDSpaceWithLimit creates an id space covering [0, maxID].
// maxID may not exceed MaxID.
func NewIDSpaceWithLimit(maxID uint64) (*IDSpace, error) {
	if maxID > MaxID {
		return nil, fmt.Errorf("%w: id limit %d exceeds %d", ErrInvalidArgument, maxID, MaxID)
	}
	return &IDSpace{maxID: maxID}, nil
}

// Allocate returns the next identifier, or ErrCapacityExceeded once the
// space is used up. A failed call does not hand out a usable id.
func (s *IDSpace) Allocate() (uint64, error) {
	id := s.next.Add(1) - 1
	if id > s.maxID {
		return 0, ErrCapacityExceeded
	}
	return id, nil
}

// MaxID returns the largest id this space can allocate
func (s *IDSpace) MaxID() uint64 {
	return s.maxID
}

// Remaining estimates how many ids are left. The value may be stale by the
// time it is returned and must not be used to gate Allocate.
func (s *IDSpace) Remaining() uint64 {
	cur := s.next.Load()
	if cur > s.maxID {
		return 0
	}
	return s.maxID - cur + 1
}

// Allocated estimates how many ids have been handed out
func (s *IDSpace) Allocated() uint64 {
	cur := s.next.Load()
	if cur > s.maxID {
		return s.maxID + 1
	}
	return cur
}
