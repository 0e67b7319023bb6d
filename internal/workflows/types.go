package workflows

type DocumentIngestInput struct {
	DocumentID   string `json:"document_id"`
	ChunkSize    int    `json:"chunk_size,omitempty"`
	ChunkOverlap int    `json:"chunk_overlap,omitempty"`
}

type DocumentIngestProgress struct {
	DocumentID  string            `json:"document_id"`
	CurrentStep string            `json:"current_step"`
	Status      string            `json:"status"`
	FailReason  string            `json:"fail_reason,omitempty"`
	ChunkCount  int               `json:"chunk_count"`
	Steps       map[string]string `json:"steps"`
}
