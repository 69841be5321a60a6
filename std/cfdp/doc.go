// Package cfdp implements the wire codec of the CCSDS File Delivery Protocol
// (CCSDS 727.0-B-5).
//
// Decoding is zero copy: readers keep a view into the caller's buffer and
// every accessor reads from that view. A reader, and every Lv or Tlv value it
// hands out, is only valid while the caller keeps the buffer alive and
// unmodified. Creators serialize into caller-provided buffers and report
// ErrBufferTooShort instead of growing them.
package cfdp
