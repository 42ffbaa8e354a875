package codec

import (
	"bytes"
	"hash/crc64"
	"io"

	"seismic/errs"
)

// Magic identifies a seismic segment file. Both the posting-clusters file
// (which carries the term dictionary as its prefix block) and the
// forward-index file share it; FileKind in the header tells them apart.
const Magic uint32 = 0x53534D43 // "SSMC"

// Version is the current codec version. A file whose stored version does
// not match is a VersionError (spec §7), not a CorruptionError — it may be
// a perfectly valid file from a future (or too-old) release.
const Version uint32 = 1

// FileKind distinguishes the file types that make up one sealed
// (segment, field) pair (spec §6).
type FileKind uint8

const (
	FileKindPostingClusters FileKind = 1
	FileKindTermDictionary  FileKind = 2
	FileKindForwardIndex    FileKind = 3
)

var crcTable = crc64.MakeTable(crc64.ISO)

// Header is the fixed metadata every seismic file opens with.
type Header struct {
	Kind      FileKind
	SegmentID string
	Suffix    string
}

// WriteFramed writes magic, version, kind, then SegmentID, Suffix and body,
// sealed with a trailing CRC-64 checksum computed over everything after
// the kind byte. Every seismic file (posting clusters, forward index) uses
// this one frame.
func WriteFramed(w io.Writer, header Header, body []byte) error {
	if err := WriteFixedU32(w, Magic); err != nil {
		return err
	}
	if err := WriteFixedU32(w, Version); err != nil {
		return err
	}
	if err := WriteByte(w, byte(header.Kind)); err != nil {
		return err
	}

	var content bytes.Buffer
	if err := writeString(&content, header.SegmentID); err != nil {
		return err
	}
	if err := writeString(&content, header.Suffix); err != nil {
		return err
	}
	content.Write(body)

	checksum := crc64.Checksum(content.Bytes(), crcTable)
	if _, err := w.Write(content.Bytes()); err != nil {
		return errs.IOf(err, "codec: write frame body")
	}
	return WriteFixedU64(w, checksum)
}

// ReadFramed reads and validates a frame written by WriteFramed, reading r
// to EOF. It returns the decoded Header and the body bytes that followed
// SegmentID/Suffix, with the checksum already verified.
func ReadFramed(r io.Reader, wantKind FileKind) (Header, []byte, error) {
	magic, err := ReadFixedU32(r)
	if err != nil {
		return Header{}, nil, err
	}
	if magic != Magic {
		return Header{}, nil, errs.Corruptf("codec: bad magic 0x%X", magic)
	}
	version, err := ReadFixedU32(r)
	if err != nil {
		return Header{}, nil, err
	}
	if version != Version {
		return Header{}, nil, errs.Versionf("codec: unsupported version %d", version)
	}
	kindByte, err := ReadByte(r)
	if err != nil {
		return Header{}, nil, err
	}
	kind := FileKind(kindByte)
	if kind != wantKind {
		return Header{}, nil, errs.Corruptf("codec: expected file kind %d, got %d", wantKind, kind)
	}

	rest, err := io.ReadAll(r)
	if err != nil {
		return Header{}, nil, errs.IOf(err, "codec: read frame body")
	}
	if len(rest) < 8 {
		return Header{}, nil, errs.Corruptf("codec: frame too small to contain a checksum")
	}
	content := rest[:len(rest)-8]
	footer := rest[len(rest)-8:]

	want := decodeFixedU64(footer)
	got := crc64.Checksum(content, crcTable)
	if want != got {
		return Header{}, nil, errs.Corruptf("codec: checksum mismatch: file says %d, computed %d", want, got)
	}

	cr := bytes.NewReader(content)
	segID, err := readString(cr)
	if err != nil {
		return Header{}, nil, err
	}
	suffix, err := readString(cr)
	if err != nil {
		return Header{}, nil, err
	}
	body := content[len(content)-cr.Len():]

	return Header{Kind: kind, SegmentID: segID, Suffix: suffix}, body, nil
}

func writeString(w io.Writer, s string) error {
	if err := WriteUvarint(w, uint64(len(s))); err != nil {
		return err
	}
	if len(s) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, s); err != nil {
		return errs.IOf(err, "codec: write string")
	}
	return nil
}

func readString(r io.Reader) (string, error) {
	n, err := ReadUvarint(r)
	if err != nil {
		return "", err
	}
	if n == 0 {
		return "", nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", errs.IOf(err, "codec: read string body")
	}
	return string(buf), nil
}

// WriteFixedU64 writes v little-endian.
func WriteFixedU64(w io.Writer, v uint64) error {
	buf := make([]byte, 8)
	for i := 0; i < 8; i++ {
		buf[i] = byte(v >> (8 * i))
	}
	if _, err := w.Write(buf); err != nil {
		return errs.IOf(err, "codec: write u64")
	}
	return nil
}

// ReadFixedU64 reads a little-endian uint64.
func ReadFixedU64(r io.Reader) (uint64, error) {
	buf := make([]byte, 8)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, errs.IOf(err, "codec: read u64")
	}
	return decodeFixedU64(buf), nil
}

func decodeFixedU64(buf []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v |= uint64(buf[i]) << (8 * i)
	}
	return v
}
