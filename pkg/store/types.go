package store

// MaxID is the largest identifier the store will hand out or accept (2^48-1)
const MaxID uint64 = 1<<48 - 1

// ErrorKind classifies store errors for callers that map them to responses
type ErrorKind int

const (
	KindInvalidArgument ErrorKind = iota + 1
	KindCapacityExceeded
)

func (k ErrorKind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid_argument"
	case KindCapacityExceeded:
		return "capacity_exceeded"
	default:
		return "unknown"
	}
}

// Errors
var (
	ErrInvalidArgument  = &StoreError{Kind: KindInvalidArgument, Message: "invalid argument"}
	ErrCapacityExceeded = &StoreError{Kind: KindCapacityExceeded, Message: "id space exhausted"}
)

// StoreError represents a store error
type StoreError struct {
	Kind    ErrorKind
	Message string
}

func (e *StoreError) Error() string {
	return e.Message
}

// ForwardIndexConfig holds configuration for the forward index
type ForwardIndexConfig struct {
	// SegmentShift sets the segment size to 1<<SegmentShift slots.
	// Zero selects DefaultSegmentShift.
	SegmentShift int
}

// ReverseIndexConfig holds configuration for the reverse index
type ReverseIndexConfig struct {
	// Shards is rounded up to a power of two. Zero selects DefaultReverseShards.
	Shards int
}

// ForwardIndexStats holds statistics about the forward index
type ForwardIndexStats struct {
	SegmentSize          int    `json:"segment_size"`
	SegmentsMaterialized int    `json:"segments_materialized"`
	DirectoryLength      int    `json:"directory_length"`
	HighWatermark        uint64 `json:"high_watermark"`
	Empty                bool   `json:"empty"`
}

// ReverseIndexStats holds statistics about the reverse index
type ReverseIndexStats struct {
	TotalKeys int `json:"total_keys"`
	Shards    int `json:"shards"`
	// LargestShard is the key count of the fullest shard, useful for spotting skew.
	LargestShard int `json:"largest_shard"`
}
