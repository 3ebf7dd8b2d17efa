package core

// Document represents one ingested file. Documents are created during
// ingestion and never mutated afterwards; re-ingesting the same file
// produces a new Document with a fresh ID.
type Document struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Size      int64  `json:"size,omitempty"`
	DocType   string `json:"doc_type"`
	Text      string `json:"text,omitempty"`
	Source    string `json:"source,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
}

// Chunk is a bounded contiguous span of a document's text, the unit of
// embedding and retrieval.
type Chunk struct {
	DocumentID string `json:"document_id"`
	Index      int    `json:"chunk_index"`
	Text       string `json:"text"`
	Excerpt    string `json:"excerpt"`
	Length     int    `json:"length"`
}

// HitMetadata is the metadata bag stored alongside each vector and
// returned with every search hit.
type HitMetadata struct {
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	DocType    string `json:"doc_type"`
	Filename   string `json:"filename"`
	Source     string `json:"source,omitempty"`
	Provider   string `json:"provider,omitempty"`
	Excerpt    string `json:"text_excerpt"`
}

// SearchHit is one ranked match from the vector index. Scores are on the
// index's native similarity scale, higher is more relevant.
type SearchHit struct {
	ID       string      `json:"id"`
	Score    float32     `json:"score"`
	Metadata HitMetadata `json:"metadata"`
}

// SourceRef records where a compressed context unit's text came from.
type SourceRef struct {
	ChunkID    string `json:"id"`
	ChunkIndex int    `json:"chunk_index"`
	DocumentID string `json:"document_id"`
	DocType    string `json:"doc_type"`
	Filename   string `json:"filename"`
}

// CompressedContext is a merged, bounded-length context unit built from a
// group of search hits, retaining per-hit provenance.
type CompressedContext struct {
	Text    string      `json:"text"`
	Sources []SourceRef `json:"source_info"`
}

// Answer is the final payload of the query pipeline.
type Answer struct {
	Answer            string              `json:"answer"`
	Sources           []HitMetadata       `json:"sources"`
	CompressedContext []CompressedContext `json:"compressed_context"`
	DocType           string              `json:"doc_type"`
	DocumentsUsed     []string            `json:"documents_used"`
	ElapsedSeconds    float64             `json:"elapsed_seconds"`
}

// IngestResult is the final payload of the ingestion pipeline.
type IngestResult struct {
	Status         string  `json:"status"`
	DocumentID     string  `json:"document_id,omitempty"`
	Filename       string  `json:"filename,omitempty"`
	DocType        string  `json:"doc_type,omitempty"`
	Summary        string  `json:"summary,omitempty"`
	ChunkCount     int     `json:"chunk_count,omitempty"`
	VectorDim      int     `json:"vector_dimension,omitempty"`
	ImageCount     int     `json:"image_count"`
	FileSize       int64   `json:"file_size,omitempty"`
	ElapsedSeconds float64 `json:"elapsed_seconds"`
	Error          string  `json:"error,omitempty"`
}
