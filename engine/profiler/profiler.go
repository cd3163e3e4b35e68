package profiler

import (
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Stats is one profiling sample, covering the frames since the previous sample.
type Stats struct {
	FPS         float64
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
	LastPauseUs uint64
	MaxPauseUs  uint64
	SysMB       float64
}

// Profiler tracks frame rate and memory statistics for performance monitoring.
// Outputs stats to the logger at a configurable interval.
type Profiler struct {
	logger *zap.Logger
	now    func() time.Time

	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
	last           Stats
}

// ProfilerBuilderOption is a functional option applied to a Profiler during construction via NewProfiler.
type ProfilerBuilderOption func(*Profiler)

// WithLogger sets the logger receiving profiling samples.
//
// Parameters:
//   - logger: the zap logger to use
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithLogger(logger *zap.Logger) ProfilerBuilderOption {
	return func(p *Profiler) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithInterval sets how often a sample is taken. Values <= 0 keep the default of 1 second.
//
// Parameters:
//   - interval: the sampling interval
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithInterval(interval time.Duration) ProfilerBuilderOption {
	return func(p *Profiler) {
		if interval > 0 {
			p.updateInterval = interval
		}
	}
}

// WithClock replaces time.Now as the profiler's time source.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - ProfilerBuilderOption: option function to apply
func WithClock(now func() time.Time) ProfilerBuilderOption {
	return func(p *Profiler) {
		if now != nil {
			p.now = now
		}
	}
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options for profiler configuration
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		logger:         zap.NewNop(),
		now:            time.Now,
		updateInterval: time.Second,
	}
	for _, opt := range options {
		opt(p)
	}
	// Baseline so the first sample only counts allocations and GCs made after construction.
	runtime.ReadMemStats(&p.memStats)
	p.lastGCCount = p.memStats.NumGC
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame to track frame timing.
// Logs performance statistics when the update interval has elapsed.
// Statistics include: FPS, heap usage, allocation rate, GC count/pause times, total memory.
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick() bool {
	p.frameCount++
	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)

	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	// Alloc: live heap bytes. TotalAlloc: cumulative heap bytes. Sys: bytes obtained from the OS.
	s := Stats{
		FPS:         float64(p.frameCount) / elapsed.Seconds(),
		HeapMB:      float64(p.memStats.Alloc) / 1024 / 1024,
		AllocRateMB: float64(p.memStats.TotalAlloc-p.lastTotalAlloc) / 1024 / 1024 / elapsed.Seconds(),
		GCCount:     p.memStats.NumGC,
		SysMB:       float64(p.memStats.Sys) / 1024 / 1024,
	}

	if s.GCCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses
		s.LastPauseUs = p.memStats.PauseNs[(s.GCCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if s.GCCount-startIdx > 256 {
			startIdx = s.GCCount - 256
		}
		for i := startIdx; i < s.GCCount; i++ {
			if pause := p.memStats.PauseNs[i%256] / 1000; pause > s.MaxPauseUs {
				s.MaxPauseUs = pause
			}
		}
	}

	p.logger.Info("frame stats",
		zap.Float64("fps", s.FPS),
		zap.Float64("heap_mb", s.HeapMB),
		zap.Float64("alloc_rate_mb_s", s.AllocRateMB),
		zap.Uint32("gc_count", s.GCCount),
		zap.Uint64("gc_last_pause_us", s.LastPauseUs),
		zap.Uint64("gc_max_pause_us", s.MaxPauseUs),
		zap.Float64("sys_mb", s.SysMB),
	)

	p.frameCount = 0
	p.lastTime = currentTime
	p.lastGCCount = s.GCCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	p.last = s
	return true
}

// Last returns the most recent sample, the zero value before the first one.
func (p *Profiler) Last() Stats {
	return p.last
}
