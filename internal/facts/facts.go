// Package facts persists durable knowledge about the user and renders
// it as prompt context.
package facts

import (
	"crypto/md5"
	"fmt"
	"strings"
	"time"
)

const defaultCategory = "general"

type Fact struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	CreatedAt time.Time `json:"created_at"`
}

// New builds a fact whose ID derives from the content hash, so saving
// the same fact twice updates rather than duplicates.
func New(title, content, category string) Fact {
	if category == "" {
		category = defaultCategory
	}
	sum := md5.Sum([]byte(content))
	return Fact{
		ID:       fmt.Sprintf("%x", sum)[:12],
		Title:    title,
		Content:  content,
		Category: strings.ToLower(category),
	}
}
