//go:build fuzz
// +build fuzz

package codec

import (
	"testing"
)

// FuzzCodec_DecodeNeverPanics feeds arbitrary strings through the resolve path checks
func FuzzCodec_DecodeNeverPanics(f *testing.F) {
	c := NewCodec()

	f.Add("")
	f.Add("AAAAAAAA")
	f.Add("________")
	f.Add("!!!!@@@@")
	f.Add("AAAAAA==")

	f.Fuzz(func(t *testing.T, code string) {
		valid := c.IsValidCode(code)

		id, err := c.Decode(code)
		if valid != (err == nil) {
			t.Fatalf("IsValidCode=%t but Decode err=%v for %q", valid, err, code)
		}
		if err != nil {
			return
		}

		back, err := c.Encode(id)
		if err != nil {
			t.Fatalf("Encode(%d) failed after decoding %q: %v", id, code, err)
		}
		if back != code {
			t.Errorf("round trip mismatch: %q -> %d -> %q", code, id, back)
		}
	})
}

// FuzzCodec_RoundTrip checks decode(encode(id)) == id over the 48-bit space
func FuzzCodec_RoundTrip(f *testing.F) {
	c := NewCodec()

	f.Add(uint64(0))
	f.Add(uint64(1))
	f.Add(MaxID)
	f.Add(uint64(1 << 20))

	f.Fuzz(func(t *testing.T, id uint64) {
		code, err := c.Encode(id)
		if id > MaxID {
			if err == nil {
				t.Fatalf("expected out of range error for %d", id)
			}
			return
		}
		if err != nil {
			t.Fatalf("Encode(%d) failed: %v", id, err)
		}

		got, err := c.Decode(code)
		if err != nil {
			t.Fatalf("Decode(%q) failed: %v", code, err)
		}
		if got != id {
			t.Errorf("round trip mismatch: %d -> %q -> %d", id, code, got)
		}
	})
}
