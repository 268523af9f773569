package vector

// QueryResult is the parallel-array wire shape for one query's neighbors:
// index i addresses the same neighbor in all four sequences. Internally the
// engine works on []Neighbor; the transposition happens only here, at the
// serialization boundary.
type QueryResult struct {
	IDs       []string            `json:"ids"`
	Distances []*float64          `json:"distances"`
	Contents  []string            `json:"contents"`
	Metadatas []map[string]string `json:"metadatas"`
}

func ToQueryResult(neighbors []Neighbor) QueryResult {
	result := QueryResult{
		IDs:       make([]string, len(neighbors)),
		Distances: make([]*float64, len(neighbors)),
		Contents:  make([]string, len(neighbors)),
		Metadatas: make([]map[string]string, len(neighbors)),
	}
	for i, n := range neighbors {
		result.IDs[i] = n.ID
		result.Distances[i] = n.Distance
		result.Contents[i] = n.Content
		result.Metadatas[i] = n.Metadata
	}
	return result
}
