package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/moviesearch/internal/domain"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/mode"
	"github.com/kailas-cloud/moviesearch/internal/domain/search/request"
	"github.com/kailas-cloud/moviesearch/internal/logger"
	"github.com/kailas-cloud/moviesearch/internal/metrics"
	"github.com/kailas-cloud/moviesearch/internal/presenter"
)

// Outcome labels for metrics and logs.
const (
	outcomeResults = "results"
	outcomeEmpty   = "empty"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
	outcomeInvalid = "invalid"
)

// Options carries the names shown in notices.
type Options struct {
	Index             string
	EmbeddingEndpoint string
	EmbeddingModel    string
}

// Input is one search submission.
type Input struct {
	Query string
	Mode  mode.Mode
	Top   int
}

// Outcome is everything the page shows for one submission.
type Outcome struct {
	Query   string
	Mode    mode.Mode
	Top     int
	Notices []presenter.Notice
	// View is nil when no search response was rendered.
	View *presenter.View
	// Duration is zero when the search phase never started.
	Duration time.Duration
	outcome  string
}

// Service sequences the probe, the embedding client, the search gateway and the presenter.
type Service struct {
	probe       Prober
	embed       QueryEmbedder
	newSearcher SearcherFactory
	opts        Options
	logger      *zap.Logger
	now         func() time.Time
}

// New creates the search orchestrator.
func New(probe Prober, embed QueryEmbedder, newSearcher SearcherFactory, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		probe:       probe,
		embed:       embed,
		newSearcher: newSearcher,
		opts:        opts,
		logger:      logger,
		now:         time.Now,
	}
}

// Run executes one submission. It never returns an error: every failure becomes a notice.
func (s *Service) Run(ctx context.Context, in Input) Outcome {
	out := Outcome{Query: strings.TrimSpace(in.Query), Mode: in.Mode, Top: request.ClampTop(in.Top)}
	defer s.record(ctx, &out)

	if out.Query == "" {
		out.outcome = outcomeInvalid
		out.Notices = append(out.Notices, presenter.Warning("Please enter a search query."))
		return out
	}

	req, err := request.New(out.Query, in.Mode, in.Top)
	if err != nil {
		out.outcome = outcomeInvalid
		out.Notices = append(out.Notices, presenter.Error(fmt.Sprintf("Invalid search: %v", err)))
		return out
	}

	m := req.Mode()
	out.Notices = append(out.Notices,
		presenter.Info(fmt.Sprintf("Performing %s search for: '%s'", m.Label(), req.Query())))

	start := s.now()

	searcher, err := s.newSearcher()
	if err != nil {
		out.outcome = outcomeFailed
		out.Notices = append(out.Notices, presenter.Error(fmt.Sprintf("Error creating Azure Search client: %v", err)))
		return out
	}

	if m.NeedsEmbedding() {
		var ok bool
		if req, ok = s.attachVector(ctx, req, &out); !ok {
			out.outcome = outcomeSkipped
			out.Duration = s.now().Sub(start)
			return out
		}
	}

	cursor, err := searcher.Search(ctx, req)
	out.Duration = s.now().Sub(start)
	if err != nil {
		out.outcome = outcomeFailed
		out.Notices = append(out.Notices, presenter.Error(s.describeSearchFailure(m, err)))
		return out
	}
	if cursor == nil {
		out.outcome = outcomeEmpty
		out.Notices = append(out.Notices, presenter.Info("No results found for your query."))
		return out
	}

	if m == mode.Semantic {
		out.Notices = append(out.Notices, presenter.Info(
			"Note: Semantic search requires a Semantic Configuration to be enabled and set up on your Azure AI Search Index."))
	}

	view := presenter.Render(cursor)
	out.View = &view
	out.outcome = outcomeResults
	if view.Empty {
		out.outcome = outcomeEmpty
	}
	return out
}

// attachVector checks reachability and embeds the query. ok=false means the search must be skipped.
func (s *Service) attachVector(ctx context.Context, req request.Request, out *Outcome) (request.Request, bool) {
	if !s.probe.Reachable(ctx) {
		out.Notices = append(out.Notices, presenter.Error(
			"Cannot perform Vector/Hybrid search because the embedding service is not reachable."))
		return req, false
	}

	vec, err := s.embed.QueryVector(ctx, req.Query())
	if err != nil {
		out.Notices = append(out.Notices, presenter.Error(s.describeEmbeddingFailure(err)))
	}
	if err != nil || len(vec) == 0 {
		out.Notices = append(out.Notices, presenter.Warning(fmt.Sprintf(
			"Failed to generate query embedding. Cannot perform %s search.", req.Mode().Label())))
		return req, false
	}

	out.Notices = append(out.Notices, presenter.Success("Query embedding generated."))
	return req.WithVector(vec), true
}

func (s *Service) describeEmbeddingFailure(err error) string {
	kind, _ := domain.EmbeddingFailureKind(err)
	switch kind {
	case domain.FailureTimeout:
		return fmt.Sprintf("Error: embedding request timed out (%s). Is the embedding service running and responding?",
			s.opts.EmbeddingEndpoint)
	case domain.FailureConnectionRefused:
		return fmt.Sprintf("Error: could not connect to the embedding service at %s. Is it running?",
			s.opts.EmbeddingEndpoint)
	case domain.FailureMalformedJSON:
		return fmt.Sprintf("Error: could not decode JSON response from the embedding service: %v", err)
	case domain.FailureEmptyResult:
		return fmt.Sprintf("The embedding service returned an empty embedding list: %v", err)
	case domain.FailureInvalidKey:
		return fmt.Sprintf("Error: valid embedding key ('embedding' or 'embeddings') missing or invalid in the response: %v", err)
	case domain.FailureDimensionMismatch:
		return fmt.Sprintf("%v. Check OLLAMA_MODEL (%s) and VECTOR_DIMENSION.", err, s.opts.EmbeddingModel)
	default:
		return fmt.Sprintf("Error calling the embedding API: %v", err)
	}
}

func (s *Service) describeSearchFailure(m mode.Mode, err error) string {
	if m == mode.Semantic || errors.Is(err, domain.ErrSemanticConfigMissing) {
		return fmt.Sprintf(
			"Semantic Search Error: %v. Is Semantic Search enabled and configured on the index '%s' "+
				"with the configuration named in AZURE_SEMANTIC_CONFIGURATION_NAME?", err, s.opts.Index)
	}
	return fmt.Sprintf("An error occurred during search: %v", err)
}

func (s *Service) record(ctx context.Context, out *Outcome) {
	modeLabel := string(out.Mode)
	if !out.Mode.IsValid() {
		modeLabel = "unknown"
	}
	metrics.SearchOutcomesTotal.WithLabelValues(modeLabel, out.outcome).Inc()

	log := logger.FromContextOr(ctx, s.logger)
	fields := []zap.Field{
		zap.String("mode", modeLabel),
		zap.Int("top", out.Top),
		zap.String("outcome", out.outcome),
		zap.Duration("duration", out.Duration),
		zap.Int("notices", len(out.Notices)),
	}
	if out.View != nil {
		fields = append(fields, zap.Int("items", len(out.View.Items)))
	}
	log.Info("Search finished", fields...)
}

// DurationText renders the elapsed time line, or "" when no search phase ran.
func (o *Outcome) DurationText() string {
	if o.Duration == 0 {
		return ""
	}
	return fmt.Sprintf("Search completed in %.2f seconds.", o.Duration.Seconds())
}
