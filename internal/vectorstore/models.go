package vectorstore

// MetadataDocumentation is the metadata key holding the generated
// documentation text. Retrieval depends on this field being present.
const MetadataDocumentation = "documentation"

// Document represents a document to be stored in the vector index.
type Document struct {
	// ID is the unique identifier; the pipeline uses the branch name.
	ID string

	// Vector is the embedding of the document content.
	Vector []float32

	// Metadata contains additional key-value pairs. The pipeline
	// stores the generated documentation under MetadataDocumentation.
	Metadata map[string]string
}

// Match represents a similarity search result.
type Match struct {
	// ID is the stored document identifier.
	ID string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata contains the stored document metadata, when requested.
	Metadata map[string]string
}
