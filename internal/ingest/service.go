// Package ingest turns folders, file lists and URLs into populated
// vector collections.
package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"graft/internal/extract"
	"graft/internal/htmltext"
	"graft/internal/text"
	"graft/internal/vector"
)

var (
	ErrNotFound          = errors.New("folder not found")
	ErrNoSupportedFiles  = errors.New("no supported files found")
	ErrNoFiles           = errors.New("no files provided")
	ErrUnsupportedScheme = errors.New("unsupported url scheme")
)

// TopicIngestCompleted is published after every successful ingest.
const TopicIngestCompleted = "ingest.completed"

const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// maxBodyBytes caps how much of a fetched page is read.
const maxBodyBytes = 10 * 1024 * 1024

type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

type EventPublisher interface {
	Publish(topic string, body []byte) error
}

// Stats reports the outcome of one ingest operation.
type Stats struct {
	FilesProcessed int      `json:"files_processed"`
	FilesFailed    int      `json:"files_failed"`
	ChunksCreated  int      `json:"chunks_created"`
	Errors         []string `json:"errors,omitempty"`
	Collection     string   `json:"collection"`
	Title          string   `json:"title,omitempty"`
}

type Service struct {
	embedder Embedder
	index    vector.Index
	client   *http.Client
	pub      EventPublisher

	targetWords      int
	overlapSentences int
}

// NewService wires an ingestion pipeline. pub may be nil; event
// publishing is then skipped.
func NewService(embedder Embedder, index vector.Index, client *http.Client, pub EventPublisher, targetWords, overlapSentences int) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{
		embedder:         embedder,
		index:            index,
		client:           client,
		pub:              pub,
		targetWords:      targetWords,
		overlapSentences: overlapSentences,
	}
}

// Folder ingests every supported file directly under dir, non-recursive.
// Individual file failures are recorded in the stats; the batch goes on.
func (s *Service) Folder(ctx context.Context, dir string) (*Stats, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read folder: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !extract.Supported(filepath.Ext(entry.Name())) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSupportedFiles, dir)
	}

	return s.ingestFiles(ctx, folderCollection(dir), paths)
}

// Files ingests an explicit list of file paths, for upload support.
func (s *Service) Files(ctx context.Context, paths []string) (*Stats, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}
	return s.ingestFiles(ctx, filesCollection(paths), paths)
}

// URL fetches one page and ingests its extracted text. Unlike file
// ingestion there is no partial success: any fetch or extraction
// problem fails the operation.
func (s *Service) URL(ctx context.Context, rawURL string) (*Stats, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", browserUA)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch url: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	page := string(body)
	title := htmltext.Title(page)
	if title == "" {
		title = "Untitled"
	}
	content := htmltext.DocumentText(page)
	if content == "" {
		return nil, fmt.Errorf("no text content found at %s", rawURL)
	}

	name := urlCollection(u)
	chunks := text.ChunkSemantic(content, s.targetWords, s.overlapSentences)

	metas := make([]vector.ChunkMeta, 0, len(chunks))
	for i, chunk := range chunks {
		metas = append(metas, vector.ChunkMeta{
			Text:       chunk,
			Source:     rawURL,
			FileType:   "url",
			Title:      title,
			ChunkIndex: i,
		})
	}

	if err := s.rebuild(ctx, name); err != nil {
		return nil, err
	}
	if err := s.embedAndAdd(ctx, name, metas); err != nil {
		return nil, err
	}

	stats := &Stats{
		FilesProcessed: 1,
		ChunksCreated:  len(chunks),
		Collection:     name,
		Title:          title,
	}
	s.publish(ctx, stats)
	return stats, nil
}

func (s *Service) ingestFiles(ctx context.Context, name string, paths []string) (*Stats, error) {
	stats := &Stats{Collection: name}

	var metas []vector.ChunkMeta
	for _, path := range paths {
		base := filepath.Base(path)

		content, warnings, err := extract.File(path)
		for _, w := range warnings {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %s", base, w))
		}
		if err != nil {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", base, err))
			stats.FilesFailed++
			continue
		}
		if strings.TrimSpace(content) == "" {
			stats.Errors = append(stats.Errors, fmt.Sprintf("%s: no text extracted", base))
			stats.FilesFailed++
			continue
		}

		chunks := text.ChunkSemantic(content, s.targetWords, s.overlapSentences)
		for i, chunk := range chunks {
			metas = append(metas, vector.ChunkMeta{
				Text:       chunk,
				Source:     base,
				FileType:   strings.ToLower(filepath.Ext(path)),
				ChunkIndex: i,
			})
		}
		stats.FilesProcessed++
		stats.ChunksCreated += len(chunks)
	}

	if err := s.rebuild(ctx, name); err != nil {
		return nil, err
	}
	if err := s.embedAndAdd(ctx, name, metas); err != nil {
		return nil, err
	}

	s.publish(ctx, stats)
	return stats, nil
}

// rebuild discards any previous contents of the collection.
func (s *Service) rebuild(ctx context.Context, name string) error {
	if err := s.index.Delete(ctx, name); err != nil {
		return fmt.Errorf("delete collection %s: %w", name, err)
	}
	if err := s.index.Create(ctx, name); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}

// embedAndAdd embeds all chunks in one batch call and inserts them in
// one batch write.
func (s *Service) embedAndAdd(ctx context.Context, name string, metas []vector.ChunkMeta) error {
	if len(metas) == 0 {
		return nil
	}

	texts := make([]string, len(metas))
	for i, m := range metas {
		texts[i] = m.Text
	}

	vectors, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(metas) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(metas))
	}

	records := make([]vector.Record, len(metas))
	for i, m := range metas {
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(name+"/"+m.Source+"#"+strconv.Itoa(m.ChunkIndex)))
		records[i] = vector.Record{ID: id.String(), Vector: vectors[i], Meta: m}
	}

	if err := s.index.Add(ctx, name, records); err != nil {
		return fmt.Errorf("add records to %s: %w", name, err)
	}
	return nil
}

// publish emits the ingest-completed event. Failures are logged, never
// returned; ingestion has already succeeded.
func (s *Service) publish(ctx context.Context, stats *Stats) {
	if s.pub == nil {
		return
	}
	body, err := json.Marshal(stats)
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode ingest event", "error", err)
		return
	}
	if err := s.pub.Publish(TopicIngestCompleted, body); err != nil {
		slog.WarnContext(ctx, "failed to publish ingest event",
			"topic", TopicIngestCompleted, "collection", stats.Collection, "error", err)
	}
}
