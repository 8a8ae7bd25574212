package codec_test

import (
	"fmt"
	"log"

	"github.com/ssargent/shortlinks/pkg/codec"
)

// ExampleCodec_basic demonstrates encoding an id and decoding it back
func ExampleCodec_basic() {
	c := codec.NewCodec()

	code, err := c.Encode(0)
	if err != nil {
		log.Fatal(err)
	}

	id, err := c.Decode(code)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Code: %s\n", code)
	fmt.Printf("ID: %d\n", id)

	// Output:
	// Code: AAAAAAAA
	// ID: 0
}

// ExampleCodec_errorHandling demonstrates rejecting malformed codes
func ExampleCodec_errorHandling() {
	c := codec.NewCodec()

	fmt.Printf("Valid: %t\n", c.IsValidCode("abc"))

	_, err := c.Decode("abc")
	if err != nil {
		fmt.Printf("Decode error: %v\n", err)
	}

	// Output:
	// Valid: false
	// Decode error: invalid code format: "abc"
}
