package enrollmentservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	catalogservice "github.com/oh-sansi/olympiad-backend/app/modules/catalog/application"
	domain "github.com/oh-sansi/olympiad-backend/app/modules/enrollment/domain"
	"github.com/oh-sansi/olympiad-backend/internal/observability"
)

// DefaultParallelism bounds concurrent row validation and concurrent unit
// writes when the config does not say otherwise.
const DefaultParallelism = 8

// ImportService runs one enrollment batch end to end: normalize and validate
// rows in parallel, assemble teams, persist units (each in its own
// transaction) and aggregate the report. Rows of a run never interleave with
// another run's state; the service itself is stateless apart from the shared
// catalog cache.
type ImportService struct {
	catalog     *catalogservice.Cache
	writer      *Writer
	logger      *slog.Logger
	metrics     observability.ImportMetrics
	tracer      trace.Tracer
	parallelism int
}

// NewImportService wires the import pipeline.
func NewImportService(
	catalog *catalogservice.Cache,
	writer *Writer,
	logger *slog.Logger,
	metrics observability.ImportMetrics,
	tracer trace.Tracer,
	parallelism int,
) *ImportService {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	return &ImportService{
		catalog:     catalog,
		writer:      writer,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		parallelism: parallelism,
	}
}

// rowResult carries the outcome of validating one row, indexed so the
// report stays deterministic regardless of execution order.
type rowResult struct {
	candidate *domain.Candidate
	issues    []domain.Issue
}

// Import processes one run. The returned summary is always populated, even
// when an infrastructure failure aborts the run mid-writer; units already
// committed stay committed.
func (s *ImportService) Import(ctx context.Context, rows []domain.RawRow) (domain.ImportSummary, error) {
	runID := uuid.NewString()
	ctx, span := s.tracer.Start(ctx, "enrollment.Import", trace.WithAttributes(
		attribute.String("run_id", runID),
		attribute.Int("rows", len(rows)),
	))
	defer span.End()

	start := time.Now()
	logger := s.logger.With(slog.String("run_id", runID))
	logger.InfoContext(ctx, "enrollment import started", slog.Int("rows", len(rows)))
	s.metrics.RecordRows(len(rows))

	counters := domain.Counters{RowsProcessed: len(rows)}

	snap, err := s.catalog.Resolve(ctx)
	if err != nil {
		s.metrics.RecordRun("error", time.Since(start))
		span.RecordError(err)
		return Aggregate(counters, nil, nil), fmt.Errorf("enrollment import: %w", err)
	}

	// Normalization and validation are pure, so rows run in parallel;
	// everything after this barrier sees the complete, ordered result set.
	results := make([]rowResult, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallelism)
	for i, raw := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			normalized, warnings := NormalizeRow(raw)
			cand, issues := ValidateRow(normalized, snap)
			results[i] = rowResult{candidate: cand, issues: append(warnings, issues...)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.metrics.RecordRun("error", time.Since(start))
		span.RecordError(err)
		return Aggregate(counters, nil, nil), fmt.Errorf("enrollment import: %w", err)
	}

	var allIssues []domain.Issue
	var individuals []domain.Candidate
	var teamMembers []domain.Candidate

	// In-run duplicate rule: a second individual row for the same (student,
	// area, level) is an error, first occurrence wins. Team-member
	// duplicates are handled later by the assembler, as a warning.
	type participationKey struct {
		key     domain.NaturalKey
		areaID  int64
		levelID int64
	}
	seenIndividual := make(map[participationKey]struct{})

	for _, res := range results {
		allIssues = append(allIssues, res.issues...)
		if res.candidate == nil {
			continue
		}
		cand := *res.candidate
		switch cand.Kind {
		case domain.ParticipationIndividual:
			pk := participationKey{key: cand.Student.Key, areaID: cand.AreaID, levelID: cand.LevelID}
			if _, dup := seenIndividual[pk]; dup {
				allIssues = append(allIssues, domain.NewError(
					cand.Row, domain.ErrDuplicateIndividual, cand.Subject(),
					"fila duplicada para el mismo estudiante, área y nivel en este lote",
				))
				continue
			}
			seenIndividual[pk] = struct{}{}
			individuals = append(individuals, cand)
		case domain.ParticipationTeam:
			teamMembers = append(teamMembers, cand)
		}
	}

	assembly := AssembleTeams(teamMembers)
	allIssues = append(allIssues, assembly.Issues...)
	rejected := assembly.Rejected

	// Writer phase: units are independent, so they may persist concurrently;
	// each unit is its own transaction and no cross-unit atomicity exists.
	var mu sync.Mutex
	wg, wctx := errgroup.WithContext(ctx)
	wg.SetLimit(s.parallelism)

	for _, cand := range individuals {
		wg.Go(func() error {
			issues, inserted, err := s.writer.WriteIndividual(wctx, cand)
			mu.Lock()
			defer mu.Unlock()
			allIssues = append(allIssues, issues...)
			if inserted {
				counters.IndividualsInserted++
				s.metrics.RecordUnitInserted("individual")
			}
			return err
		})
	}

	for _, group := range assembly.Accepted {
		wg.Go(func() error {
			issues, members, reason, err := s.writer.WriteTeam(wctx, group)
			mu.Lock()
			defer mu.Unlock()
			allIssues = append(allIssues, issues...)
			if err == nil && reason == "" {
				counters.TeamsInserted++
				counters.MembersInserted += members
				s.metrics.RecordUnitInserted("team")
				for range members {
					s.metrics.RecordUnitInserted("member")
				}
			} else if reason != "" {
				rejected = append(rejected, domain.RejectedTeam{Name: group.Name, Reason: reason})
			}
			return err
		})
	}

	writeErr := wg.Wait()

	summary := Aggregate(counters, allIssues, rejected)
	if writeErr != nil {
		summary.OK = false
		summary.Message = "la importación fue interrumpida por un error de infraestructura; los registros ya confirmados se conservan"
		s.metrics.RecordRun("error", time.Since(start))
		span.RecordError(writeErr)
		return summary, fmt.Errorf("enrollment import: %w", writeErr)
	}

	outcome := "success"
	if !summary.OK {
		outcome = "failed"
	} else if summary.Counters.RowsDiscarded > 0 || summary.Counters.TeamsRejected > 0 {
		outcome = "qualified"
	}
	s.metrics.RecordRun(outcome, time.Since(start))

	logger.InfoContext(ctx, "enrollment import finished",
		slog.String("outcome", outcome),
		slog.Int("individuals", summary.Counters.IndividualsInserted),
		slog.Int("teams", summary.Counters.TeamsInserted),
		slog.Int("members", summary.Counters.MembersInserted),
		slog.Int("discarded", summary.Counters.RowsDiscarded),
		slog.Duration("elapsed", time.Since(start)),
	)
	return summary, nil
}
