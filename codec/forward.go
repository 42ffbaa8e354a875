package codec

import (
	"bytes"
	"io"

	"seismic/errs"
	"seismic/sparse"
)

// WriteForwardIndex serializes the persisted half of a forward index
// (spec §4.3): Frame{ numSlots(varu64) | slot* } where slot is
// present(u8) followed by the vector's items when present is 1
// (itemCount(varu64), (token varu32, weightByte)*itemCount), or nothing
// when present is 0 (an empty, never-inserted slot).
//
// Slots are addressed by position (docID), so every slot up to the
// highest inserted docID must be written, including empty ones.
func WriteForwardIndex(w io.Writer, header Header, vectors []*sparse.SparseVector) error {
	var body bytes.Buffer
	if err := WriteUvarint(&body, uint64(len(vectors))); err != nil {
		return err
	}
	for _, v := range vectors {
		if v == nil {
			if err := WriteByte(&body, 0); err != nil {
				return err
			}
			continue
		}
		if err := WriteByte(&body, 1); err != nil {
			return err
		}
		items := v.Items()
		if err := WriteUvarint(&body, uint64(len(items))); err != nil {
			return err
		}
		for _, it := range items {
			if err := WriteUvarint(&body, uint64(it.Token)); err != nil {
				return err
			}
			if err := WriteByte(&body, it.Weight); err != nil {
				return err
			}
		}
	}
	return WriteFramed(w, header, body.Bytes())
}

// ReadForwardIndex reads back a file written by WriteForwardIndex. The
// returned slice has exactly as many entries as were written, nil at any
// index that was never inserted.
func ReadForwardIndex(r io.Reader) (Header, []*sparse.SparseVector, error) {
	header, body, err := ReadFramed(r, FileKindForwardIndex)
	if err != nil {
		return Header{}, nil, err
	}

	br := bytes.NewReader(body)
	numSlots, err := ReadUvarint(br)
	if err != nil {
		return Header{}, nil, err
	}
	vectors := make([]*sparse.SparseVector, numSlots)
	for i := uint64(0); i < numSlots; i++ {
		present, err := ReadByte(br)
		if err != nil {
			return Header{}, nil, err
		}
		if present == 0 {
			continue
		}
		if present != 1 {
			return Header{}, nil, errs.Corruptf("codec: forward index slot flag must be 0 or 1, got %d", present)
		}
		itemCount, err := ReadUvarint(br)
		if err != nil {
			return Header{}, nil, err
		}
		items := make([]sparse.Item, itemCount)
		for j := uint64(0); j < itemCount; j++ {
			tok, err := ReadUvarint(br)
			if err != nil {
				return Header{}, nil, err
			}
			wb, err := ReadByte(br)
			if err != nil {
				return Header{}, nil, err
			}
			items[j] = sparse.Item{Token: uint32(tok), Weight: wb}
		}
		v, err := sparse.New(items)
		if err != nil {
			return Header{}, nil, errs.Corruptf("codec: invalid forward vector at slot %d: %v", i, err)
		}
		vectors[i] = v
	}
	return header, vectors, nil
}
