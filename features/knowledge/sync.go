package knowledge

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/buildware/kbase/internal/config"
)

// SyncService loads a project's documents from its base path into the
// knowledge base. Unlike IngestService, sync is idempotent per file: a
// document whose marker is already indexed is skipped. The check-then-act
// sequence is race-prone under concurrent syncs of the same project; that
// is an accepted limitation, not a guarantee.
type SyncService struct {
	projects ProjectLookup
	index    VectorIndex
	builder  *ChunkBuilder
	events   EventPublisher
}

func NewSyncService(projects ProjectLookup, index VectorIndex, builder *ChunkBuilder, events EventPublisher) *SyncService {
	return &SyncService{projects: projects, index: index, builder: builder, events: events}
}

// SyncResult summarizes one sync run. Documents counts every file processed
// without error, already-loaded ones included; Chunks counts newly written
// content chunks, markers excluded. A re-sync of an unchanged project
// therefore reports Documents=N, Chunks=0.
type SyncResult struct {
	ProjectCode string `json:"projectCode"`
	Documents   int    `json:"documents"`
	Chunks      int    `json:"chunks"`
}

// SyncProject walks the project's base path and ingests every document not
// yet indexed. A missing or non-directory base path yields a zero result.
// Per-file failures are logged and skipped so one bad file cannot block the
// rest of the run.
func (s *SyncService) SyncProject(ctx context.Context, projectCode string) (*SyncResult, error) {
	if strings.TrimSpace(projectCode) == "" {
		return nil, invalidArgument("projectCode")
	}

	proj, err := s.projects.GetByCode(ctx, projectCode)
	if err != nil {
		return nil, err
	}
	if proj == nil {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectCode)
	}

	info, err := os.Stat(proj.BasePath)
	if err != nil || !info.IsDir() {
		slog.WarnContext(ctx, "project base path missing, nothing to sync",
			"project_code", projectCode, "base_path", proj.BasePath)
		return &SyncResult{ProjectCode: projectCode}, nil
	}

	result := &SyncResult{ProjectCode: projectCode}
	for _, path := range listDocs(ctx, proj.BasePath) {
		chunks, err := s.syncDocument(ctx, proj, path)
		if err != nil {
			slog.ErrorContext(ctx, "failed to sync document",
				"error", err, "project_code", projectCode, "path", path)
			continue
		}
		result.Documents++
		result.Chunks += chunks
	}

	s.notifySynced(ctx, result)
	return result, nil
}

// SyncAll syncs every registered project in turn.
func (s *SyncService) SyncAll(ctx context.Context) ([]SyncResult, error) {
	projects, err := s.projects.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]SyncResult, 0, len(projects))
	for _, proj := range projects {
		result, err := s.SyncProject(ctx, proj.Code)
		if err != nil {
			slog.ErrorContext(ctx, "failed to sync project", "error", err, "project_code", proj.Code)
			continue
		}
		results = append(results, *result)
	}
	return results, nil
}

// syncDocument ingests one file unless its marker is already indexed.
// Returns the number of content chunks written, zero when skipped.
func (s *SyncService) syncDocument(ctx context.Context, proj *ProjectRef, path string) (int, error) {
	relPath, err := filepath.Rel(proj.BasePath, path)
	if err != nil {
		return 0, err
	}

	raw, err := os.ReadFile(path) // #nosec G304 -- path comes from walking the registered base path
	if err != nil {
		return 0, err
	}
	content := string(raw)

	markerText := DocumentMarkerText(proj.Code, relPath, ContentHash(content))
	if s.alreadyLoaded(ctx, markerText, proj.Code) {
		slog.InfoContext(ctx, "document already loaded, skipping",
			"project_code", proj.Code, "doc_path", relPath)
		return 0, nil
	}

	records := s.builder.BuildDocument(proj.Code, relPath, inferTitle(relPath, content), content)
	if err := s.index.Add(ctx, records); err != nil {
		return 0, err
	}
	return len(records) - 1, nil
}

// alreadyLoaded checks for the document's marker. Only an exact
// case-insensitive text match counts; a mere similarity hit does not. Check
// failures are logged and treated as not loaded, so sync errs toward
// re-ingesting.
func (s *SyncService) alreadyLoaded(ctx context.Context, markerText, projectCode string) bool {
	records, err := s.index.SimilaritySearch(ctx, SearchRequest{
		Query:            markerText,
		TopK:             1,
		FilterExpression: markerFilter(projectCode),
	})
	if err != nil {
		slog.ErrorContext(ctx, "marker lookup failed", "error", err, "project_code", projectCode)
		return false
	}
	for _, rec := range records {
		if strings.EqualFold(markerText, rec.Text) {
			return true
		}
	}
	return false
}

// listDocs enumerates the regular .md, .markdown and .txt files under base.
func listDocs(ctx context.Context, base string) []string {
	var paths []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(d.Name())) {
		case ".md", ".markdown", ".txt":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to walk knowledge directory", "error", err, "base_path", base)
	}
	return paths
}

// inferTitle uses the first markdown heading, else a humanized filename.
func inferTitle(relPath, content string) string {
	for _, line := range strings.Split(content, "\n") {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "#") {
			l = strings.TrimSpace(strings.TrimLeft(l, "#"))
			if l != "" {
				return l
			}
		}
	}
	return humanize(stripExtension(filepath.Base(relPath)))
}

func stripExtension(name string) string {
	if i := strings.LastIndex(name, "."); i > 0 {
		return name[:i]
	}
	return name
}

// humanize replaces underscores and hyphens with spaces and capitalizes
// each word.
func humanize(name string) string {
	replaced := strings.NewReplacer("_", " ", "-", " ").Replace(name)
	words := strings.Fields(replaced)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func (s *SyncService) notifySynced(ctx context.Context, result *SyncResult) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(result)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal sync event", "error", err)
		return
	}
	if err := s.events.Publish(config.TopicKnowledgeSynced, payload); err != nil {
		slog.WarnContext(ctx, "failed to publish sync event",
			"error", err, "project_code", result.ProjectCode)
	}
}
