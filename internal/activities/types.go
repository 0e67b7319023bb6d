package activities

type ChunkItem struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	ChunkIndex int    `json:"chunk_index"`
	Text       string `json:"text"`
}

type LoadDocumentInput struct {
	DocumentID string `json:"document_id"`
}

type LoadDocumentOutput struct {
	Name       string `json:"name"`
	RawContent string `json:"raw_content"`
}

type ExtractTextInput struct {
	DocumentID string `json:"document_id"`
	RawContent string `json:"raw_content"`
}

type ExtractTextOutput struct {
	Text string `json:"text"`
}

type ChunkTextInput struct {
	DocumentID   string `json:"document_id"`
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type ChunkTextOutput struct {
	Chunks []ChunkItem `json:"chunks"`
}

type EmbedChunksInput struct {
	Chunks []ChunkItem `json:"chunks"`
}

type EmbedChunksOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type UpsertChunksInput struct {
	Chunks  []ChunkItem `json:"chunks"`
	Vectors [][]float32 `json:"vectors"`
}

type MarkDocumentIngestedInput struct {
	DocumentID    string `json:"document_id"`
	HasEmbeddings bool   `json:"has_embeddings"`
}

type UpdateDocumentStatusInput struct {
	DocumentID string `json:"document_id"`
	Status     string `json:"status"`
	FailReason string `json:"fail_reason,omitempty"`
}
