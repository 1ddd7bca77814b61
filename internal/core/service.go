package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/payorsync/internal/logging"
	"github.com/google/uuid"
)

// ExportFilePrefix and ExportFileExt make up PayorAgreement_Changes_<date>.xlsx.
const (
	ExportFilePrefix = "PayorAgreement_Changes_"
	ExportFileExt    = ".xlsx"
)

// ExportFileName returns the export file name for a comparison date.
func ExportFileName(date string) string {
	return ExportFilePrefix + date + ExportFileExt
}

// Codec converts between workbook bytes and datasets.
// Decode failures must wrap ErrUnreadableWorkbook.
type Codec interface {
	Decode(r io.Reader) (*Dataset, error)
	Encode(ds *Dataset) ([]byte, error)
}

// ServiceConfig holds the tunables for comparison runs.
type ServiceConfig struct {
	MaxConcurrent   int
	MaxWait         time.Duration
	MaxFileSize     int64
	ParallelSheets  int
	DuplicatePolicy DuplicatePolicy
	RunRetention    time.Duration
}

// DefaultRunRetention is how long a run stays exportable when unset.
const DefaultRunRetention = 24 * time.Hour

// CompareRequest carries the two workbooks for a comparison.
type CompareRequest struct {
	OldName string
	Old     io.Reader
	NewName string
	New     io.Reader
}

// Run is one completed comparison. Old is kept for the export.
type Run struct {
	ID        string     `json:"id"`
	OldFile   string     `json:"oldFile"`
	NewFile   string     `json:"newFile"`
	CreatedAt time.Time  `json:"createdAt"`
	ChangeSet *ChangeSet `json:"changeSet"`
	Old       *Dataset   `json:"-"`
}

// Summary reduces a run to its history entry.
func (r *Run) Summary() RunSummary {
	return RunSummary{
		ID:             r.ID,
		OldFile:        r.OldFile,
		NewFile:        r.NewFile,
		ComparisonDate: r.ChangeSet.ComparisonDate,
		SheetsCompared: r.ChangeSet.SheetsCompared,
		Summaries:      r.ChangeSet.Summaries,
		ChangeCount:    len(r.ChangeSet.Changes),
		CreatedAt:      r.CreatedAt,
	}
}

// ExportFile is an encoded changes workbook.
type ExportFile struct {
	Name string
	Data []byte
}

// Service runs comparisons and keeps their results for export.
type Service struct {
	codec   Codec
	history HistoryStore
	limiter *ComparisonLimiter
	cfg     ServiceConfig
	now     func() time.Time

	mu   sync.RWMutex
	runs map[string]*Run
}

// NewService creates a Service. A nil history keeps summaries in memory.
func NewService(codec Codec, history HistoryStore, cfg ServiceConfig) *Service {
	if history == nil {
		history = NewMemoryHistory(0)
	}
	if cfg.RunRetention <= 0 {
		cfg.RunRetention = DefaultRunRetention
	}
	if cfg.DuplicatePolicy == "" {
		cfg.DuplicatePolicy = LastWins
	}
	return &Service{
		codec:   codec,
		history: history,
		limiter: NewComparisonLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		cfg:     cfg,
		now:     time.Now,
		runs:    make(map[string]*Run),
	}
}

// Compare decodes both workbooks, compares them and records the run.
func (s *Service) Compare(ctx context.Context, req CompareRequest) (*Run, error) {
	if req.Old == nil || req.New == nil {
		return nil, ErrDatasetMissing
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	runID := uuid.New().String()
	log := logging.WithFields(ctx, "run_id", runID)
	start := s.now()

	oldDS, err := s.decode(req.Old)
	if err != nil {
		return nil, fmt.Errorf("decode old file %q: %w", req.OldName, err)
	}
	newDS, err := s.decode(req.New)
	if err != nil {
		return nil, fmt.Errorf("decode new file %q: %w", req.NewName, err)
	}

	cmp := NewComparator(
		WithDuplicatePolicy(s.cfg.DuplicatePolicy),
		WithParallelSheets(s.cfg.ParallelSheets),
		WithClock(s.now),
		WithLogger(log),
	)
	cs, err := cmp.Compare(ctx, oldDS, newDS)
	if err != nil {
		return nil, err
	}

	run := &Run{
		ID:        runID,
		OldFile:   req.OldName,
		NewFile:   req.NewName,
		CreatedAt: start,
		ChangeSet: cs,
		Old:       oldDS,
	}

	s.mu.Lock()
	s.pruneLocked(start)
	s.runs[runID] = run
	s.mu.Unlock()

	if err := s.history.Record(ctx, run.Summary()); err != nil {
		log.Warn("failed to record comparison history", "error", err)
	}

	log.Info("comparison complete",
		"old_file", req.OldName,
		"new_file", req.NewName,
		"sheets_compared", len(cs.SheetsCompared),
		"changes", len(cs.Changes),
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)

	return run, nil
}

// decode reads at most MaxFileSize bytes and hands them to the codec.
func (s *Service) decode(r io.Reader) (*Dataset, error) {
	if s.cfg.MaxFileSize > 0 {
		r = io.LimitReader(r, s.cfg.MaxFileSize+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableWorkbook, err)
	}
	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, s.cfg.MaxFileSize)
	}
	return s.codec.Decode(bytes.NewReader(data))
}

// Run returns a stored run.
func (s *Service) Run(runID string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[runID]
	if !ok || s.expired(run, s.now()) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return run, nil
}

// Export composes and encodes the changes workbook for a run.
func (s *Service) Export(ctx context.Context, runID string) (*ExportFile, error) {
	run, err := s.Run(runID)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := Compose(run.Old, run.ChangeSet)
	if err != nil {
		return nil, err
	}

	data, err := s.codec.Encode(out)
	if err != nil {
		return nil, fmt.Errorf("encode export for run %s: %w", runID, err)
	}

	logging.FromContext(ctx).Info("export generated",
		"run_id", runID,
		"rows", run.ChangeSet.ExportRowCount(),
		"bytes", len(data),
	)

	return &ExportFile{Name: ExportFileName(run.ChangeSet.ComparisonDate), Data: data}, nil
}

// History returns up to limit recent run summaries, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]RunSummary, error) {
	return s.history.List(ctx, limit)
}

// Runs returns the live runs, newest first.
func (s *Service) Runs() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	out := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		if !s.expired(r, now) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// LimiterStatus reports comparison slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForComparisons blocks until in-flight comparisons finish or ctx is done.
func (s *Service) WaitForComparisons(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) expired(r *Run, now time.Time) bool {
	return now.Sub(r.CreatedAt) > s.cfg.RunRetention
}

// pruneLocked drops expired runs. Caller holds s.mu.
func (s *Service) pruneLocked(now time.Time) {
	for id, r := range s.runs {
		if s.expired(r, now) {
			delete(s.runs, id)
		}
	}
}
