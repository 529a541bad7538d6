package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"courseflags/internal"
	"courseflags/internal/config"
	"courseflags/internal/logger"
	"courseflags/internal/storage"
)

type AnnotationService struct {
	cfg     config.Config
	history *storage.DB
}

// NewAnnotationService builds the one-shot annotator. history may be nil, in
// which case runs are not recorded.
func NewAnnotationService(cfg config.Config, history *storage.DB) *AnnotationService {
	return &AnnotationService{cfg: cfg, history: history}
}

type RunResult struct {
	TraceID    string
	OutputPath string
	Stats      AnnotateStats
	UERefSize  int
	URRefSize  int
}

// Run loads the primary table and both reference lists, flags every course
// and writes the annotated workbook. Nothing is written if any step fails.
func (s *AnnotationService) Run() (RunResult, error) {
	log := logger.WithModule("pipeline")
	start := time.Now()
	trace := traceID()

	primary, err := LoadTable(s.cfg.PrimaryPath)
	if err != nil {
		return RunResult{}, err
	}
	if !primary.HasColumn(CourseCodeColumn) {
		return RunResult{}, &SchemaError{Column: CourseCodeColumn, Source: primary.Source}
	}
	log.Debug("primary table loaded", zap.String("path", primary.Source), zap.Int("rows", len(primary.Rows)), zap.Int("columns", len(primary.Columns)))

	ueCodes, err := LoadReferenceSetFromFile(s.cfg.UERefPath)
	if err != nil {
		return RunResult{}, err
	}
	urCodes, err := LoadReferenceSetFromFile(s.cfg.URRefPath)
	if err != nil {
		return RunResult{}, err
	}
	log.Debug("reference sets loaded", zap.Int("ue", ueCodes.Len()), zap.Int("ur", urCodes.Len()))
	loaded := time.Now()

	stats, err := Annotate(&primary, ueCodes, urCodes)
	if err != nil {
		return RunResult{}, err
	}
	annotated := time.Now()

	if err := ExportTableToXLSX(primary, s.cfg.OutputPath); err != nil {
		return RunResult{}, fmt.Errorf("write %s: %w", s.cfg.OutputPath, err)
	}
	exported := time.Now()

	log.Info("annotation complete",
		zap.String("trace", trace),
		zap.Int("rows", stats.Rows),
		zap.Int("ueYes", stats.UEYes),
		zap.Int("urYes", stats.URYes),
		zap.String("output", s.cfg.OutputPath),
	)

	result := RunResult{
		TraceID:    trace,
		OutputPath: s.cfg.OutputPath,
		Stats:      stats,
		UERefSize:  ueCodes.Len(),
		URRefSize:  urCodes.Len(),
	}

	if s.history != nil {
		timings := map[string]float64{
			"loadMs":     float64(loaded.Sub(start).Milliseconds()),
			"annotateMs": float64(annotated.Sub(loaded).Milliseconds()),
			"exportMs":   float64(exported.Sub(annotated).Milliseconds()),
			"totalMs":    float64(time.Since(start).Milliseconds()),
		}
		if _, err := s.history.InsertRun(toRunRecord(s.cfg, result, timings)); err != nil {
			log.Warn("run history not recorded", zap.Error(err))
		}
	}

	return result, nil
}

func toRunRecord(cfg config.Config, result RunResult, timings map[string]float64) internal.RunRecord {
	return internal.RunRecord{
		TraceID:     result.TraceID,
		PrimaryPath: cfg.PrimaryPath,
		UERefPath:   cfg.UERefPath,
		URRefPath:   cfg.URRefPath,
		OutputPath:  result.OutputPath,
		RowCount:    result.Stats.Rows,
		UEYes:       result.Stats.UEYes,
		URYes:       result.Stats.URYes,
		UERefSize:   result.UERefSize,
		URRefSize:   result.URRefSize,
		Timings:     timings,
	}
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
