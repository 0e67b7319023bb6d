package cache

import (
	"time"

	"docchat/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// InlineDocuments holds documents supplied inline in a request so follow-up
// questions can reference them by id. Entries are written once, bounded in
// count, and expire; this is not a durable store.
type InlineDocuments struct {
	lru *expirable.LRU[string, *models.Document]
}

func NewInlineDocuments(size int, ttl time.Duration) *InlineDocuments {
	if size <= 0 {
		size = 256
	}
	return &InlineDocuments{lru: expirable.NewLRU[string, *models.Document](size, nil, ttl)}
}

func (c *InlineDocuments) Add(id string, doc *models.Document) {
	c.lru.Add(id, doc)
}

func (c *InlineDocuments) Get(id string) (*models.Document, bool) {
	return c.lru.Get(id)
}
