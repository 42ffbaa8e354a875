package fetcher

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"seismic/sparse"
)

// JsonDocument is one document's worth of sparse token weights: a token
// string (decimal, matching query.TermForToken's key space) to
// non-negative weight, per spec.md §6's ingestion format.
type JsonDocument struct {
	DocID  int32              `json:"doc_id"`
	Tokens map[string]float64 `json:"tokens"`
}

// Root is the top-level structure of the ingestion JSON file: one
// segment's worth of documents.
type Root struct {
	Documents []JsonDocument `json:"documents"`
}

// FetchJson fetches JSON data from either a URL or a local file path.
func FetchJson(path string) ([]byte, error) {
	// Check if the path is a URL (starts with "http" or "https")
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		response, err := http.Get(path)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch json: %w", err)
		}
		defer response.Body.Close()

		if response.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("non-ok HTTP response: %s", response.Status)
		}

		data, err := io.ReadAll(response.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		return data, nil
	}

	// Treat it as a local file path
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read local file: %w", err)
	}
	return data, nil
}

// ParseDocuments parses the JSON data into a slice of documents.
func ParseDocuments(data []byte) ([]JsonDocument, error) {
	var root Root
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse json: %w", err)
	}
	return root.Documents, nil
}

// ToSparseVector quantizes a document's float token weights into a
// sparse.SparseVector using q, rejecting non-numeric token keys.
func (d JsonDocument) ToSparseVector(q sparse.Quantizer) (*sparse.SparseVector, error) {
	weights := make(map[uint32]float32, len(d.Tokens))
	for tokenStr, weight := range d.Tokens {
		token, err := strconv.ParseUint(tokenStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("doc %d: invalid token %q: %w", d.DocID, tokenStr, err)
		}
		weights[uint32(token)] = float32(weight)
	}
	return sparse.FromWeights(weights, q)
}
