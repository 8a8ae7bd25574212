package codec

import (
	"encoding/base64"
	"errors"
	"fmt"
)

const (
	// MaxID is the largest identifier that fits in a short code.
	MaxID uint64 = 1<<48 - 1

	// CodeLength is the length of every short code.
	CodeLength = 8

	idBytes = 6
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

var (
	// ErrIDOutOfRange is returned when encoding an id larger than MaxID.
	ErrIDOutOfRange = errors.New("id out of range")
	// ErrInvalidCode is returned when a code is not 8 alphabet characters.
	ErrInvalidCode = errors.New("invalid code format")
	// ErrEncoding is returned when encoding produces a code of the wrong length.
	ErrEncoding = errors.New("encoding failed")
)

var validChar [256]bool

func init() {
	for i := 0; i < len(alphabet); i++ {
		validChar[alphabet[i]] = true
	}
}

// Codec maps identifiers to short codes using unpadded URL-safe base64
type Codec struct {
	enc *base64.Encoding
}

// NewCodec creates a new codec instance
func NewCodec() *Codec {
	return &Codec{enc: base64.RawURLEncoding}
}

// Encode returns the 8-character code for id
func (c *Codec) Encode(id uint64) (string, error) {
	if id > MaxID {
		return "", fmt.Errorf("%w: %d", ErrIDOutOfRange, id)
	}

	var buf [idBytes]byte
	for i := idBytes - 1; i >= 0; i-- {
		buf[i] = byte(id)
		id >>= 8
	}

	code := c.enc.EncodeToString(buf[:])
	if err := checkCodeLength(code); err != nil {
		return "", err
	}
	return code, nil
}

func checkCodeLength(code string) error {
	if len(code) != CodeLength {
		return fmt.Errorf("%w: code length %d for %q", ErrEncoding, len(code), code)
	}
	return nil
}

// Decode returns the identifier a code was produced from
func (c *Codec) Decode(code string) (uint64, error) {
	if !c.IsValidCode(code) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCode, code)
	}

	var buf [idBytes]byte
	n, err := c.enc.Decode(buf[:], []byte(code))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidCode, err)
	}
	if n != idBytes {
		return 0, fmt.Errorf("%w: decoded %d bytes, want %d", ErrInvalidCode, n, idBytes)
	}

	var id uint64
	for _, b := range buf {
		id = id<<8 | uint64(b)
	}
	return id, nil
}

// IsValidCode reports whether code has the shape of a short code.
// It does not say whether the code was ever issued.
func (c *Codec) IsValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !validChar[code[i]] {
			return false
		}
	}
	return true
}
