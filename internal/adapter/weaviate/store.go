// Package weaviate adapts a Weaviate instance to the vector.Index
// capability. Each collection maps to one Weaviate class.
package weaviate

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-openapi/strfmt"
	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"graft/internal/vector"
)

type Store struct {
	client *weaviate.Client
}

var _ vector.Index = (*Store)(nil)

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

var invalidClassChar = regexp.MustCompile(`[^_0-9A-Za-z]`)

// className maps a collection name onto Weaviate's class-name grammar:
// leading uppercase letter, then word characters only.
func className(collection string) string {
	name := invalidClassChar.ReplaceAllString(collection, "_")
	if name == "" {
		name = "Collection"
	}
	if name[0] >= 'a' && name[0] <= 'z' {
		name = strings.ToUpper(name[:1]) + name[1:]
	} else if name[0] < 'A' || name[0] > 'Z' {
		name = "C" + name
	}
	return name
}

func (s *Store) Create(ctx context.Context, name string) error {
	class := &models.Class{
		Class:      className(name),
		Vectorizer: "none",
		VectorIndexConfig: map[string]interface{}{
			"distance": "cosine",
		},
		Properties: []*models.Property{
			{Name: "text", DataType: []string{"text"}},
			{Name: "source", DataType: []string{"string"}},
			{Name: "fileType", DataType: []string{"string"}},
			{Name: "title", DataType: []string{"text"}},
			{Name: "chunkIndex", DataType: []string{"int"}},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("create class %s: %w", class.Class, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	class := className(name)
	exists, err := s.client.Schema().ClassExistenceChecker().WithClassName(class).Do(ctx)
	if err != nil {
		return fmt.Errorf("check class %s: %w", class, err)
	}
	if !exists {
		return nil
	}
	if err := s.client.Schema().ClassDeleter().WithClassName(class).Do(ctx); err != nil {
		return fmt.Errorf("delete class %s: %w", class, err)
	}
	return nil
}

func (s *Store) Add(ctx context.Context, name string, records []vector.Record) error {
	if len(records) == 0 {
		return nil
	}
	class := className(name)

	objects := make([]*models.Object, 0, len(records))
	for _, r := range records {
		objects = append(objects, &models.Object{
			Class: class,
			ID:    strfmt.UUID(r.ID),
			Properties: map[string]interface{}{
				"text":       r.Meta.Text,
				"source":     r.Meta.Source,
				"fileType":   r.Meta.FileType,
				"title":      r.Meta.Title,
				"chunkIndex": r.Meta.ChunkIndex,
			},
			Vector: models.C11yVector(r.Vector),
		})
	}

	resp, err := s.client.Batch().ObjectsBatcher().WithObjects(objects...).Do(ctx)
	if err != nil {
		return fmt.Errorf("batch insert into %s: %w", class, err)
	}
	for _, obj := range resp {
		if obj.Result != nil && obj.Result.Errors != nil && len(obj.Result.Errors.Error) > 0 {
			return fmt.Errorf("batch insert into %s: %s", class, obj.Result.Errors.Error[0].Message)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, name string, vec []float32, k int) ([]vector.Hit, error) {
	class := className(name)

	nearVector := s.client.GraphQL().NearVectorArgBuilder().WithVector(vec)
	fields := []graphql.Field{
		{Name: "text"},
		{Name: "source"},
		{Name: "fileType"},
		{Name: "title"},
		{Name: "chunkIndex"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "id"}, {Name: "distance"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(class).
		WithNearVector(nearVector).
		WithLimit(k).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", class, err)
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("query %s: %s", class, res.Errors[0].Message)
	}

	var hits []vector.Hit
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return hits, nil
	}
	items, ok := data[class].([]interface{})
	if !ok {
		return hits, nil
	}

	for _, item := range items {
		props, ok := item.(map[string]interface{})
		if !ok {
			continue
		}

		hit := vector.Hit{}
		if v, ok := props["text"].(string); ok {
			hit.Meta.Text = v
		}
		if v, ok := props["source"].(string); ok {
			hit.Meta.Source = v
		}
		if v, ok := props["fileType"].(string); ok {
			hit.Meta.FileType = v
		}
		if v, ok := props["title"].(string); ok {
			hit.Meta.Title = v
		}
		if v, ok := props["chunkIndex"].(float64); ok {
			hit.Meta.ChunkIndex = int(v)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if v, ok := additional["id"].(string); ok {
				hit.ID = v
			}
			if v, ok := additional["distance"].(float64); ok {
				hit.Distance = float32(v)
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (s *Store) Count(ctx context.Context, name string) (int, error) {
	class := className(name)

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(class).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", class, err)
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("count %s: %s", class, res.Errors[0].Message)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	items, ok := data[class].([]interface{})
	if !ok || len(items) == 0 {
		return 0, nil
	}
	props, ok := items[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := props["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}
