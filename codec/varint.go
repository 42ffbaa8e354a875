// Package codec implements the binary on-disk layout for posting clusters,
// the term dictionary, and forward-index vectors (spec §4.5, C6): a
// per-term cluster record format, little-endian fixed-width fields,
// standard 7-bit-continuation varints, and a checksummed file
// header/footer. The varint helpers here are adapted directly from the
// teacher's encoders.DeltaEncoder/PlainEncoder varint routines
// (encoding/binary PutUvarint, manual continuation-bit reads), generalized
// from uint16 arrays to the doc-id/token/weight fields this package needs.
package codec

import (
	"encoding/binary"
	"io"

	"seismic/errs"
)

// WriteUvarint writes v to w using standard 7-bit-continuation varint
// encoding.
func WriteUvarint(w io.Writer, v uint64) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], v)
	_, err := w.Write(buf[:n])
	if err != nil {
		return errs.IOf(err, "codec: write varint")
	}
	return nil
}

// ReadUvarint reads a varint from r.
func ReadUvarint(r io.Reader) (uint64, error) {
	var buf [1]byte
	var result uint64
	var shift uint
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, errs.IOf(err, "codec: read varint")
		}
		b := buf[0]
		result |= uint64(b&0x7F) << shift
		if b&0x80 == 0 {
			break
		}
		shift += 7
		if shift >= 64 {
			return 0, errs.Corruptf("codec: varint overflow")
		}
	}
	return result, nil
}

// WriteFixedU32 writes v little-endian.
func WriteFixedU32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if _, err := w.Write(buf[:]); err != nil {
		return errs.IOf(err, "codec: write u32")
	}
	return nil
}

// ReadFixedU32 reads a little-endian uint32.
func ReadFixedU32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errs.IOf(err, "codec: read u32")
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

// WriteByte writes a single byte (a u8 field, e.g. shouldNotSkip or a
// quantized weight).
func WriteByte(w io.Writer, b byte) error {
	_, err := w.Write([]byte{b})
	if err != nil {
		return errs.IOf(err, "codec: write byte")
	}
	return nil
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, errs.IOf(err, "codec: read byte")
	}
	return buf[0], nil
}
