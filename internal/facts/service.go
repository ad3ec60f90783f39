package facts

import (
	"context"
	"sort"
	"strings"
)

type Repository interface {
	Save(ctx context.Context, f *Fact) error
	Get(ctx context.Context, id string) (*Fact, error)
	List(ctx context.Context) ([]Fact, error)
	ListByCategory(ctx context.Context, category string) ([]Fact, error)
	Search(ctx context.Context, term string) ([]Fact, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Add stores a fact, replacing any prior fact with identical content.
func (s *Service) Add(ctx context.Context, title, content, category string) (*Fact, error) {
	f := New(title, content, category)
	if err := s.repo.Save(ctx, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Fact, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Fact, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListByCategory(ctx context.Context, category string) ([]Fact, error) {
	return s.repo.ListByCategory(ctx, strings.ToLower(category))
}

func (s *Service) Search(ctx context.Context, term string) ([]Fact, error) {
	return s.repo.Search(ctx, term)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

// Context renders all facts as a prompt block grouped by category.
// Empty string when no facts exist, so callers can skip augmentation.
func (s *Service) Context(ctx context.Context) (string, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return "", err
	}
	if len(all) == 0 {
		return "", nil
	}

	byCategory := make(map[string][]Fact)
	for _, f := range all {
		byCategory[f.Category] = append(byCategory[f.Category], f)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	lines := []string{"Known facts about the user:"}
	for _, c := range categories {
		lines = append(lines, "\n["+titleCase(c)+"]")
		for _, f := range byCategory[c] {
			lines = append(lines, "- "+f.Content)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
