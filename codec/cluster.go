package codec

import (
	"io"

	"seismic/cluster"
	"seismic/errs"
	"seismic/sparse"
)

// WriteClusters writes one term's posting-cluster record, exactly matching
// spec §4.5:
//
//	numClusters(varu64)
//	cluster* {
//	  numDocs(varu64)
//	  (docId varu32, weightByte) * numDocs
//	  shouldNotSkip(u8)
//	  summaryLen(varu64)
//	  (token varu32, weightByte) * summaryLen
//	}
func WriteClusters(w io.Writer, pc *cluster.PostingClusters) error {
	clusters := pc.Clusters()
	if err := WriteUvarint(w, uint64(len(clusters))); err != nil {
		return err
	}
	for _, c := range clusters {
		if err := writeOneCluster(w, c); err != nil {
			return err
		}
	}
	return nil
}

func writeOneCluster(w io.Writer, c *cluster.DocumentCluster) error {
	docIDs := c.DocIDs()
	weights := c.Weights()
	if err := WriteUvarint(w, uint64(len(docIDs))); err != nil {
		return err
	}
	for i, id := range docIDs {
		if id < 0 {
			return errs.Invariantf("codec: negative docId %d cannot be encoded", id)
		}
		if err := WriteUvarint(w, uint64(uint32(id))); err != nil {
			return err
		}
		if err := WriteByte(w, weights[i]); err != nil {
			return err
		}
	}

	shouldNotSkip := byte(0)
	if c.ShouldNotSkip() {
		shouldNotSkip = 1
	}
	if err := WriteByte(w, shouldNotSkip); err != nil {
		return err
	}

	summary := c.Summary()
	if summary == nil {
		return WriteUvarint(w, 0)
	}
	items := summary.Items()
	if err := WriteUvarint(w, uint64(len(items))); err != nil {
		return err
	}
	for _, it := range items {
		if err := WriteUvarint(w, uint64(it.Token)); err != nil {
			return err
		}
		if err := WriteByte(w, it.Weight); err != nil {
			return err
		}
	}
	return nil
}

// ReadClusters reads back a record written by WriteClusters.
func ReadClusters(r io.Reader) (*cluster.PostingClusters, error) {
	numClusters, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	clusters := make([]*cluster.DocumentCluster, 0, numClusters)
	for i := uint64(0); i < numClusters; i++ {
		c, err := readOneCluster(r)
		if err != nil {
			return nil, err
		}
		clusters = append(clusters, c)
	}
	return cluster.NewPostingClusters(clusters), nil
}

func readOneCluster(r io.Reader) (*cluster.DocumentCluster, error) {
	numDocs, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	docIDs := make([]int32, numDocs)
	weights := make([]uint8, numDocs)
	var prev uint32
	for i := uint64(0); i < numDocs; i++ {
		id, err := ReadUvarint(r)
		if err != nil {
			return nil, err
		}
		if id > uint64(^uint32(0)) {
			return nil, errs.Corruptf("codec: docId %d out of range", id)
		}
		docID32 := uint32(id)
		if i > 0 && docID32 <= prev {
			return nil, errs.Corruptf("codec: docIds not strictly ascending at index %d", i)
		}
		prev = docID32

		w, err := ReadByte(r)
		if err != nil {
			return nil, err
		}
		docIDs[i] = int32(docID32)
		weights[i] = w
	}

	shouldNotSkipByte, err := ReadByte(r)
	if err != nil {
		return nil, err
	}
	if shouldNotSkipByte > 1 {
		return nil, errs.Corruptf("codec: shouldNotSkip byte must be 0 or 1, got %d", shouldNotSkipByte)
	}
	shouldNotSkip := shouldNotSkipByte == 1

	summaryLen, err := ReadUvarint(r)
	if err != nil {
		return nil, err
	}
	var summary *sparse.SparseVector
	if summaryLen > 0 {
		items := make([]sparse.Item, summaryLen)
		for i := uint64(0); i < summaryLen; i++ {
			tok, err := ReadUvarint(r)
			if err != nil {
				return nil, err
			}
			wb, err := ReadByte(r)
			if err != nil {
				return nil, err
			}
			items[i] = sparse.Item{Token: uint32(tok), Weight: wb}
		}
		summary, err = sparse.New(items)
		if err != nil {
			return nil, errs.Corruptf("codec: invalid summary vector: %v", err)
		}
	}

	return cluster.NewDocumentClusterWithFlag(docIDs, weights, summary, shouldNotSkip), nil
}
