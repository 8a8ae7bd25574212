// Package codec converts link identifiers to short codes and back.
//
// An identifier is a 48-bit unsigned integer. A short code is the identifier
// written as 6 big-endian bytes and encoded with the URL-safe base64
// alphabet without padding, which always yields exactly 8 characters:
//
//	id 0            -> "AAAAAAAA"
//	id 1            -> "AAAAAAAB"
//	id 2^48-1       -> "________"
//
// The mapping is a bijection between [0, 2^48-1] and the set of 8-character
// strings over the alphabet
//
//	ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_
//
// # Usage
//
//	c := codec.NewCodec()
//
//	code, err := c.Encode(42)
//	if err != nil {
//	    return err // id outside the 48-bit range
//	}
//
//	id, err := c.Decode(code)
//	if err != nil {
//	    return err // not an 8-character code
//	}
//
// IsValidCode is a cheap format check that callers on the resolve path use to
// reject garbage before attempting a decode.
//
// # Thread Safety
//
// Codec holds no mutable state and is safe for concurrent use.
package codec
