package fetcher

import (
	"testing"

	"seismic/sparse"
)

func TestParseDocuments(t *testing.T) {
	validJson := `{
		"documents": [
			{
				"doc_id": 1,
				"tokens": {"1000": 0.5, "2000": 0.7}
			},
			{
				"doc_id": 2,
				"tokens": {"1000": 0.3}
			}
		]
	}`

	docs, err := ParseDocuments([]byte(validJson))
	if err != nil {
		t.Errorf("Failed to parse valid JSON: %v", err)
	}

	if len(docs) != 2 {
		t.Errorf("Expected 2 documents, got %d", len(docs))
	}

	if docs[0].DocID != 1 {
		t.Errorf("Expected docID 1, got %d", docs[0].DocID)
	}
	if docs[0].Tokens["1000"] != 0.5 {
		t.Errorf("Expected weight 0.5 for token 1000, got %f", docs[0].Tokens["1000"])
	}
	if docs[1].DocID != 2 {
		t.Errorf("Expected docID 2, got %d", docs[1].DocID)
	}
}

func TestEmptyDocuments(t *testing.T) {
	emptyJson := `{"documents":[]}`
	docs, err := ParseDocuments([]byte(emptyJson))
	if err != nil {
		t.Errorf("Failed to parse empty documents: %v", err)
	}
	if len(docs) != 0 {
		t.Errorf("Expected 0 documents, got %d", len(docs))
	}
}

func TestToSparseVectorQuantizesWeights(t *testing.T) {
	doc := JsonDocument{DocID: 1, Tokens: map[string]float64{"1000": 1.0, "2000": 0.5}}
	v, err := doc.ToSparseVector(sparse.NewQuantizer(4.0))
	if err != nil {
		t.Fatalf("ToSparseVector failed: %v", err)
	}
	if v.Len() != 2 {
		t.Errorf("Expected 2 items, got %d", v.Len())
	}
}

func TestToSparseVectorRejectsNonNumericToken(t *testing.T) {
	doc := JsonDocument{DocID: 1, Tokens: map[string]float64{"not-a-token": 1.0}}
	if _, err := doc.ToSparseVector(sparse.DefaultQuantizer); err == nil {
		t.Errorf("Expected an error for a non-numeric token key")
	}
}
