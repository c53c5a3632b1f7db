package knowledge

import (
	"context"
	"strings"
)

// fakeIndex records Add batches and SimilaritySearch requests and returns
// canned results.
type fakeIndex struct {
	added     [][]Record
	addErr    error
	results   []Record
	searchErr error
	requests  []SearchRequest
}

func (f *fakeIndex) Add(_ context.Context, records []Record) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, records)
	return nil
}

func (f *fakeIndex) SimilaritySearch(_ context.Context, req SearchRequest) ([]Record, error) {
	f.requests = append(f.requests, req)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

// fakeLookup serves a fixed project set keyed by code.
type fakeLookup struct {
	projects map[string]ProjectRef
	calls    int
	err      error
}

func (f *fakeLookup) GetByCode(_ context.Context, code string) (*ProjectRef, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if proj, ok := f.projects[code]; ok {
		return &proj, nil
	}
	return nil, nil
}

func (f *fakeLookup) ListAll(_ context.Context) ([]ProjectRef, error) {
	if f.err != nil {
		return nil, f.err
	}
	var refs []ProjectRef
	for _, proj := range f.projects {
		refs = append(refs, proj)
	}
	return refs, nil
}

// wordSplitter splits on blank lines, close enough to real splitting for
// builder and service tests.
type wordSplitter struct{}

func (wordSplitter) Split(text string) []string {
	var pieces []string
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			pieces = append(pieces, strings.TrimSpace(p))
		}
	}
	return pieces
}

type fakePublisher struct {
	topics  []string
	bodies  [][]byte
	pubErr  error
}

func (f *fakePublisher) Publish(topic string, body []byte) error {
	if f.pubErr != nil {
		return f.pubErr
	}
	f.topics = append(f.topics, topic)
	f.bodies = append(f.bodies, body)
	return nil
}
