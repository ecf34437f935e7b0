package core

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/JonMunkholm/peopleimport/internal/config"
	"github.com/JonMunkholm/peopleimport/internal/logging"
	"github.com/google/uuid"
)

// historySize is how many finished imports the service remembers.
const historySize = 50

// Service fronts the importer with concurrency limits, timeouts and
// reporting. It is safe for concurrent use.
type Service struct {
	store    Store
	importer *Importer
	limiter  *ImportLimiter
	cfg      config.ImportConfig

	mu      sync.RWMutex
	imports map[string]*ImportStatus
	order   []string // import IDs, oldest first
}

// ImportPhase is the lifecycle stage of an import.
type ImportPhase string

const (
	PhaseRunning   ImportPhase = "running"
	PhaseCompleted ImportPhase = "completed"
	PhaseFailed    ImportPhase = "failed"
)

// ImportStatus describes a running or finished import.
type ImportStatus struct {
	ImportID   string      `json:"import_id"`
	Path       string      `json:"path"`
	Phase      ImportPhase `json:"phase"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt *time.Time  `json:"finished_at,omitempty"`
	Summary    Summary     `json:"summary"`
	ExportPath string      `json:"export_path,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// NewService creates a service importing into store.
func NewService(store Store, cfg config.ImportConfig) *Service {
	var exporter Exporter
	if cfg.ExportEnabled {
		exporter = NewFileExporter(cfg.ExportDir)
	}
	return &Service{
		store:    store,
		importer: NewImporter(store, exporter),
		limiter:  NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWaitTime),
		cfg:      cfg,
		imports:  make(map[string]*ImportStatus),
	}
}

// DefaultCSVPath returns the file imported when a request names none.
func (s *Service) DefaultCSVPath() string {
	return s.cfg.CSVPath
}

// ResolveCSVPath maps a requested path to a file inside the data directory.
// An empty request selects the configured default path, which is trusted.
// Relative requests are taken relative to the data directory.
func (s *Service) ResolveCSVPath(requested string) (string, error) {
	if strings.TrimSpace(requested) == "" {
		return s.cfg.CSVPath, nil
	}

	base, err := filepath.Abs(s.cfg.DataDir)
	if err != nil {
		return "", fmt.Errorf("resolve data dir: %w", err)
	}

	target := requested
	if !filepath.IsAbs(target) {
		target = filepath.Join(base, target)
	}
	target = filepath.Clean(target)

	rel, err := filepath.Rel(base, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideDataDir, requested)
	}
	return target, nil
}

// Import runs one import of path, waiting for a free slot first.
//
// The import itself is detached from ctx's cancellation and bounded by the
// configured import timeout instead, so a client disconnect does not abort
// a half-written import. ctx still bounds the wait for a slot.
func (s *Service) Import(ctx context.Context, path string) (ImportResult, error) {
	if !s.limiter.TryAcquire() {
		logging.FromContext(ctx).Debug("waiting for import slot",
			"path", path,
			"active", s.limiter.ActiveCount(),
		)
		if err := s.limiter.Acquire(ctx); err != nil {
			return ImportResult{Path: path}, err
		}
	}
	defer s.limiter.Release()

	importID := uuid.New().String()
	importCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.Timeout)
	defer cancel()
	importCtx = ContextWithImportID(importCtx, importID)

	s.track(&ImportStatus{
		ImportID:  importID,
		Path:      path,
		Phase:     PhaseRunning,
		StartedAt: time.Now(),
	})

	result, err := s.importer.Import(importCtx, path, Options{BatchSize: s.cfg.BatchSize})
	result.ImportID = importID
	s.finish(importID, result, err)

	return result, err
}

// AgeDistribution reports the share of stored people per age bucket.
func (s *Service) AgeDistribution(ctx context.Context) (AgeDistribution, error) {
	counts, err := s.store.AgeCounts(ctx)
	if err != nil {
		return AgeDistribution{}, err
	}
	return counts.Distribution(), nil
}

// LogAgeDistribution writes the distribution as one structured log line.
func (s *Service) LogAgeDistribution(ctx context.Context, d AgeDistribution) {
	logging.FromContext(ctx).Info("Age-Group % Distribution",
		"total", d.Total,
		"<20", d.Under20,
		"20-40", d.From20To40,
		"40-60", d.From40To60,
		">60", d.Over60,
	)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ImportLimiterStatus returns the current limiter state.
func (s *Service) ImportLimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// ImportStatus returns a copy of the status of one import.
func (s *Service) ImportStatus(importID string) (ImportStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.imports[importID]
	if !ok {
		return ImportStatus{}, false
	}
	return *st, true
}

// RecentImports returns the remembered imports, newest first.
func (s *Service) RecentImports() []ImportStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]ImportStatus, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, *s.imports[s.order[i]])
	}
	return out
}

func (s *Service) track(st *ImportStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.imports[st.ImportID] = st
	s.order = append(s.order, st.ImportID)
	for len(s.order) > historySize {
		oldest := s.order[0]
		if s.imports[oldest].Phase == PhaseRunning {
			break
		}
		delete(s.imports, oldest)
		s.order = s.order[1:]
	}
}

func (s *Service) finish(importID string, result ImportResult, err error) {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.imports[importID]
	if !ok {
		return
	}
	st.FinishedAt = &now
	st.Summary = result.Summary
	st.ExportPath = result.ExportPath
	if err != nil {
		st.Phase = PhaseFailed
		st.Error = err.Error()
		return
	}
	st.Phase = PhaseCompleted
}
