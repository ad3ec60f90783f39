package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"graft/internal/prompt"
	"graft/internal/retrieval"
	"graft/internal/websearch"
)

// Modes are mutually exclusive; each turn is augmented by at most one
// context source.
const (
	ModeDocuments = "documents"
	ModeWeb       = "web"
	ModeNone      = "none"
)

var (
	ErrEmptyMessage = errors.New("message is empty")
	ErrInvalidMode  = errors.New("unknown chat mode")

	// ErrNoDocuments is returned for documents mode before anything has
	// been ingested.
	ErrNoDocuments = errors.New("no documents loaded")
)

type Retriever interface {
	Loaded(ctx context.Context) bool
	Context(ctx context.Context, query string, k int) (string, []retrieval.Citation, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, n int) []websearch.Result
}

type Completer interface {
	Complete(ctx context.Context, model string, messages []prompt.Message) (string, error)
}

type FactSource interface {
	Context(ctx context.Context) (string, error)
}

type Reply struct {
	Text      string               `json:"reply"`
	Citations []retrieval.Citation `json:"citations"`
}

type Service struct {
	retriever Retriever
	searcher  Searcher
	llm       Completer
	facts     FactSource
	topK      int
	results   int

	mu            sync.Mutex
	history       []prompt.Message
	lastCitations []retrieval.Citation
}

func NewService(retriever Retriever, searcher Searcher, llm Completer, facts FactSource, topK, searchResults int) *Service {
	return &Service{
		retriever: retriever,
		searcher:  searcher,
		llm:       llm,
		facts:     facts,
		topK:      topK,
		results:   searchResults,
	}
}

// Send runs one chat turn. Web search failures degrade to an unaugmented
// search context; fact lookup failures degrade to no fact context.
func (s *Service) Send(ctx context.Context, message, mode, model string) (*Reply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, ErrEmptyMessage
	}
	if mode == "" {
		mode = ModeNone
	}

	factContext := ""
	if s.facts != nil {
		fc, err := s.facts.Context(ctx)
		if err != nil {
			slog.WarnContext(ctx, "fact context unavailable", "error", err)
		} else {
			factContext = fc
		}
	}

	history := s.snapshotHistory()

	var (
		messages  []prompt.Message
		citations []retrieval.Citation
	)
	switch mode {
	case ModeDocuments:
		if !s.retriever.Loaded(ctx) {
			return nil, ErrNoDocuments
		}
		docContext, cits, err := s.retriever.Context(ctx, message, s.topK)
		if err != nil {
			return nil, fmt.Errorf("retrieve context: %w", err)
		}
		citations = cits
		messages = prompt.BuildDocumentPrompt(docContext, message, factContext, history)
	case ModeWeb:
		results := s.searcher.Search(ctx, message, s.results)
		messages = prompt.BuildSearchPrompt(websearch.FormatContext(results), message, factContext, history)
	case ModeNone:
		messages = prompt.BuildPlainPrompt(message, factContext, history)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, mode)
	}

	text, err := s.llm.Complete(ctx, model, messages)
	if err != nil {
		return nil, fmt.Errorf("complete: %w", err)
	}

	s.mu.Lock()
	s.history = append(s.history,
		prompt.Message{Role: prompt.RoleUser, Content: message},
		prompt.Message{Role: prompt.RoleAssistant, Content: text},
	)
	// Citations stick around until the next documents turn replaces them.
	if mode == ModeDocuments {
		s.lastCitations = citations
	}
	s.mu.Unlock()

	return &Reply{Text: text, Citations: citations}, nil
}

// Citations returns the citations from the most recent documents-mode turn.
func (s *Service) Citations() []retrieval.Citation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]retrieval.Citation, len(s.lastCitations))
	copy(out, s.lastCitations)
	return out
}

// Reset clears conversation history and citations.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history = nil
	s.lastCitations = nil
}

func (s *Service) snapshotHistory() []prompt.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]prompt.Message, len(s.history))
	copy(out, s.history)
	return out
}
