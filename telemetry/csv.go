package telemetry

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/terrarium/engine"
)

// MetricsRecord is one flattened CSV row of an engine.Metrics pull.
type MetricsRecord struct {
	Tick             int64   `csv:"tick"`
	AliveParticles   int     `csv:"alive_particles"`
	TotalBirths      int64   `csv:"total_births"`
	TotalDeaths      int64   `csv:"total_deaths"`
	StructureCount   int     `csv:"structure_count"`
	CommunityCount   int     `csv:"community_count"`
	ChunkCount       int     `csv:"chunk_count"`
	ActiveChunkCount int     `csv:"active_chunk_count"`
	GPUFallbackCount int64   `csv:"gpu_fallback_count"`
	TickP50Ms        float64 `csv:"tick_p50_ms"`
	TickP95Ms        float64 `csv:"tick_p95_ms"`
}

func toRecord(m engine.Metrics) MetricsRecord {
	return MetricsRecord{
		Tick:             m.Tick,
		AliveParticles:   m.AliveParticles,
		TotalBirths:      m.TotalBirths,
		TotalDeaths:      m.TotalDeaths,
		StructureCount:   m.StructureCount,
		CommunityCount:   m.CommunityCount,
		ChunkCount:       m.ChunkCount,
		ActiveChunkCount: m.ActiveChunkCount,
		GPUFallbackCount: m.GPUFallbackCount,
		TickP50Ms:        m.TickP50Ms,
		TickP95Ms:        m.TickP95Ms,
	}
}

// CSVLog appends one row per tick to a metrics.csv file, writing the
// header only on the first row (the teacher's own append pattern in its
// CSV output manager).
type CSVLog struct {
	file          *os.File
	headerWritten bool
}

// OpenCSVLog creates (truncating) path and returns a log ready for
// WriteMetrics calls. On error the returned *CSVLog is nil; callers
// check err.
func OpenCSVLog(path string) (*CSVLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("telemetry: create %s: %w", path, err)
	}
	return &CSVLog{file: f}, nil
}

// WriteMetrics appends one row for m.
func (l *CSVLog) WriteMetrics(m engine.Metrics) error {
	records := []MetricsRecord{toRecord(m)}
	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.file); err != nil {
			return fmt.Errorf("telemetry: write metrics header+row: %w", err)
		}
		l.headerWritten = true
		return nil
	}
	if err := gocsv.MarshalWithoutHeaders(records, l.file); err != nil {
		return fmt.Errorf("telemetry: write metrics row: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *CSVLog) Close() error {
	return l.file.Close()
}
