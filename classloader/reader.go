/*
 * stackvm - a bytecode virtual machine
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classloader

import "github.com/brinestone/stackvm/vmerr"

// byteReader is a cursor over a class file's raw bytes. Every read method
// advances the cursor and returns a ClassFormatError annotated with the
// byte offset at which the read was attempted, per spec.md §4.1's
// "decoder reports a ClassFormatError-class failure with a byte offset".
type byteReader struct {
	data []byte
	pos  int
}

func newByteReader(data []byte) *byteReader {
	return &byteReader{data: data}
}

func (r *byteReader) offset() int { return r.pos }

func (r *byteReader) require(n int) error {
	if r.pos+n > len(r.data) {
		return vmerr.CFE(r.pos, "unexpected end of class file, need %d more bytes", n)
	}
	return nil
}

func (r *byteReader) u1() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

func (r *byteReader) u2() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := uint16(r.data[r.pos])<<8 | uint16(r.data[r.pos+1])
	r.pos += 2
	return v, nil
}

func (r *byteReader) u4() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := uint32(r.data[r.pos])<<24 | uint32(r.data[r.pos+1])<<16 |
		uint32(r.data[r.pos+2])<<8 | uint32(r.data[r.pos+3])
	r.pos += 4
	return v, nil
}

func (r *byteReader) bytes(n int) ([]byte, error) {
	if err := r.require(n); err != nil {
		return nil, err
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}
