package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/pkg/helpers"
)

// PollIndexMapping is the index definition used by EnsureIndex.
const PollIndexMapping = `{
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "title":       {"type": "text"},
      "meta_tags":   {"type": "text", "fields": {"raw": {"type": "keyword"}}},
      "options":     {"type": "text"},
      "total_votes": {"type": "integer"},
      "created_at":  {"type": "date"}
    }
  }
}`

// ErrBadEvent reports a queue message that can never be processed.
var ErrBadEvent = errors.New("malformed poll event")

// PollDocument is what gets indexed and returned by search.
type PollDocument struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	MetaTags   []string `json:"meta_tags"`
	Options    []string `json:"options"`
	TotalVotes int      `json:"total_votes"`
	CreatedAt  string   `json:"created_at"`
}

func NewPollDocument(p *entity.Poll) PollDocument {
	labels := make([]string, 0, len(p.Options))
	for _, o := range p.Options {
		labels = append(labels, o.Option)
	}
	return PollDocument{
		ID:         p.ID,
		Title:      p.Title,
		MetaTags:   p.MetaTags,
		Options:    labels,
		TotalVotes: p.TotalVotes(),
		CreatedAt:  p.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// PollIndex keeps a searchable copy of polls in Elasticsearch. A nil
// *PollIndex or one without a client is a disabled index.
type PollIndex struct {
	ES     *elasticsearch.Client
	Index  string
	Logger *logrus.Logger
}

func NewPollIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *PollIndex {
	return &PollIndex{ES: es, Index: index, Logger: logger}
}

func (x *PollIndex) Enabled() bool {
	return x != nil && x.ES != nil && x.Index != ""
}

func (x *PollIndex) EnsureIndex(ctx context.Context) error {
	if !x.Enabled() {
		return nil
	}
	return helpers.EnsureIndex(ctx, x.ES, x.Index, PollIndexMapping)
}

// IndexPoll upserts the poll document.
func (x *PollIndex) IndexPoll(ctx context.Context, p *entity.Poll) error {
	if !x.Enabled() || p == nil {
		return nil
	}
	b, err := json.Marshal(NewPollDocument(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.Index, DocumentID: p.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		helpers.LogWarn(x.Logger, "es index failed", err, logrus.Fields{"poll_id": p.ID})
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		helpers.LogWarn(x.Logger, "es index response error", nil, logrus.Fields{"poll_id": p.ID, "status": res.Status()})
		return &helpers.ESResponseError{Status: res.Status()}
	}
	return nil
}

// HandleMessage indexes the poll carried by a queued PollEvent.
func (x *PollIndex) HandleMessage(ctx context.Context, body []byte) error {
	var ev PollEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	if ev.Poll == nil || ev.Poll.ID == "" {
		return fmt.Errorf("%w: missing poll", ErrBadEvent)
	}
	return x.IndexPoll(ctx, ev.Poll)
}

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

func clampSearchSize(size int) int {
	switch {
	case size <= 0:
		return defaultSearchSize
	case size > maxSearchSize:
		return maxSearchSize
	}
	return size
}

// Search runs a multi_match over title, tags and option labels.
func (x *PollIndex) Search(ctx context.Context, q string, size int) ([]PollDocument, error) {
	if !x.Enabled() {
		return []PollDocument{}, nil
	}
	size = clampSearchSize(size)
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "meta_tags", "options"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.ES.Search(x.ES.Search.WithContext(c), x.ES.Search.WithIndex(x.Index), x.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, &helpers.ESResponseError{Status: res.Status()}
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source PollDocument `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]PollDocument, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}
