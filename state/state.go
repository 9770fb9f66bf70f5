// Package state is the container used to save and restore the emulator. It is
// a flat store of typed values keyed by globally unique strings; every
// component prefixes its keys with its own name.
package state

import (
	"encoding/gob"
	"fmt"
	"io"
	"sort"
)

// Bundle holds saved values.
type Bundle struct {
	Values map[string]interface{}
}

// New returns an empty bundle.
func New() *Bundle {
	return &Bundle{Values: make(map[string]interface{})}
}

func (b *Bundle) PutBool(key string, v bool)     { b.Values[key] = v }
func (b *Bundle) PutInt(key string, v int)       { b.Values[key] = v }
func (b *Bundle) PutInt64(key string, v int64)   { b.Values[key] = v }
func (b *Bundle) PutString(key string, v string) { b.Values[key] = v }

// PutBytes stores a copy of v.
func (b *Bundle) PutBytes(key string, v []byte) {
	c := make([]byte, len(v))
	copy(c, v)
	b.Values[key] = c
}

func (b *Bundle) Bool(key string) (bool, bool) {
	v, ok := b.Values[key].(bool)
	return v, ok
}

func (b *Bundle) Int(key string) (int, bool) {
	v, ok := b.Values[key].(int)
	return v, ok
}

func (b *Bundle) Int64(key string) (int64, bool) {
	v, ok := b.Values[key].(int64)
	return v, ok
}

func (b *Bundle) String(key string) (string, bool) {
	v, ok := b.Values[key].(string)
	return v, ok
}

func (b *Bundle) Bytes(key string) ([]byte, bool) {
	v, ok := b.Values[key].([]byte)
	return v, ok
}

// Has reports whether key is present.
func (b *Bundle) Has(key string) bool {
	_, ok := b.Values[key]
	return ok
}

// Keys returns every key in sorted order.
func (b *Bundle) Keys() []string {
	keys := make([]string, 0, len(b.Values))
	for k := range b.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Reader fetches typed values from a bundle and remembers the first missing
// or mistyped key, so a restore can read every field and check once.
type Reader struct {
	b   *Bundle
	err error
}

// NewReader returns a Reader over b.
func NewReader(b *Bundle) *Reader {
	return &Reader{b: b}
}

func (r *Reader) missing(key string) {
	if r.err == nil {
		r.err = fmt.Errorf("state: missing or invalid value for %q", key)
	}
}

func (r *Reader) Bool(key string) bool {
	v, ok := r.b.Bool(key)
	if !ok {
		r.missing(key)
	}
	return v
}

func (r *Reader) Int(key string) int {
	v, ok := r.b.Int(key)
	if !ok {
		r.missing(key)
	}
	return v
}

func (r *Reader) Int64(key string) int64 {
	v, ok := r.b.Int64(key)
	if !ok {
		r.missing(key)
	}
	return v
}

func (r *Reader) String(key string) string {
	v, ok := r.b.String(key)
	if !ok {
		r.missing(key)
	}
	return v
}

func (r *Reader) Bytes(key string) []byte {
	v, ok := r.b.Bytes(key)
	if !ok {
		r.missing(key)
	}
	return v
}

// Err returns the first missing key error, if any.
func (r *Reader) Err() error { return r.err }

// Encode writes the bundle to w.
func (b *Bundle) Encode(w io.Writer) error {
	if err := gob.NewEncoder(w).Encode(b); err != nil {
		return fmt.Errorf("state: encode: %w", err)
	}
	return nil
}

// Decode reads a bundle written by Encode.
func Decode(r io.Reader) (*Bundle, error) {
	b := New()
	if err := gob.NewDecoder(r).Decode(b); err != nil {
		return nil, fmt.Errorf("state: decode: %w", err)
	}
	return b, nil
}
