package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.LoadDocumentActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.ChunkTextActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.UpsertChunksActivity)
	w.RegisterActivity(a.MarkDocumentIngestedActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
}
