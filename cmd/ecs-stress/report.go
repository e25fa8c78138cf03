package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"slices"
	"text/template"
	"time"
)

type Report struct {
	// Configuration
	Duration     time.Duration
	Entities     int
	WorkerCount  int
	Components   int
	DestroyRatio float64
	Seed         uint64

	// Results
	TotalUpdates   int64
	TotalCreated   int64
	TotalFinalized int64
	TotalTime      time.Duration
	UpdateTime     Stats
	Workers        []WorkerStats
	GCPauseMetrics bool
	MemStatsStart  runtime.MemStats
	MemStatsEnd    runtime.MemStats
}

// maxSamples bounds the frame times kept for percentiles.
const maxSamples = 4096

// Stats summarizes frame times. Min, Max and Avg cover every frame; the
// percentiles come from a uniform sample of at most maxSamples frames.
type Stats struct {
	Count   int64
	Total   time.Duration
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	P50     time.Duration
	P99     time.Duration
	Samples []time.Duration
}

// Add records one frame time, replacing a random sample once the reservoir is full.
func (s *Stats) Add(d time.Duration, rng *rand.Rand) {
	if s.Count == 0 || d < s.Min {
		s.Min = d
	}
	if d > s.Max {
		s.Max = d
	}
	s.Count++
	s.Total += d

	if len(s.Samples) < maxSamples {
		s.Samples = append(s.Samples, d)
		return
	}
	if j := rng.Int64N(s.Count); j < maxSamples {
		s.Samples[j] = d
	}
}

// Merge folds another summary into s.
func (s *Stats) Merge(other Stats) {
	if other.Count == 0 {
		return
	}
	if s.Count == 0 || other.Min < s.Min {
		s.Min = other.Min
	}
	s.Max = max(s.Max, other.Max)
	s.Count += other.Count
	s.Total += other.Total
	s.Samples = append(s.Samples, other.Samples...)
}

// Finalize sorts the samples and fills in the summary fields.
func (s *Stats) Finalize() {
	if s.Count == 0 {
		return
	}
	s.Avg = s.Total / time.Duration(s.Count)

	n := len(s.Samples)
	if n == 0 {
		return
	}
	slices.Sort(s.Samples)
	s.P50 = s.Samples[(n-1)/2]
	s.P99 = s.Samples[(n-1)*99/100]
}

// AddWorker folds one world's results into the report totals.
func (r *Report) AddWorker(ws WorkerStats) {
	r.TotalUpdates += ws.Frames
	r.TotalCreated += ws.Created
	r.TotalFinalized += ws.Finalized
	r.UpdateTime.Merge(ws.FrameTimes)
	r.Workers = append(r.Workers, ws)
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `
# ECS Stress Test Report

## Test Configuration
- **Run Duration:** {{.Duration}}
- **Workers:** {{.WorkerCount}}
- **Initial Entities per Worker:** {{.Entities}}
- **Untyped Component Kinds:** {{.Components}}
- **Destroy Ratio per Frame:** {{.DestroyRatio}}
- **Seed:** {{.Seed}}

## Performance Results
- **Total Updates:** {{.TotalUpdates}}
- **Total Test Time:** {{.TotalTime}}
- **Entities Created:** {{.TotalCreated}}
- **Entities Finalized:** {{.TotalFinalized}}
- **Update Time (Frame):**
  - **Avg:** {{.UpdateTime.Avg}}
  - **P50:** {{.UpdateTime.P50}}
  - **P99:** {{.UpdateTime.P99}}
  - **Min:** {{.UpdateTime.Min}}
  - **Max:** {{.UpdateTime.Max}}

## Slot Accounting
| Worker | Frames | Live | Reusable | Retired | Capacity |
|--------|--------|------|----------|---------|----------|
{{- range .Workers}}
| {{.Worker}} | {{.Frames}} | {{.Size}} | {{.Reusable}} | {{.Retired}} | {{.Capacity}} |
{{- end}}

## Memory Usage (MB)
| Metric | Start | End | Delta |
|--------|-------|-----|-------|
| Heap Alloc | {{mb .MemStatsStart.HeapAlloc}} | {{mb .MemStatsEnd.HeapAlloc}} | {{mb (bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc)}} |
| Total Alloc | {{mb .MemStatsStart.TotalAlloc}} | {{mb .MemStatsEnd.TotalAlloc}} | {{mb (bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc)}} |
| Sys | {{mb .MemStatsStart.Sys}} | {{mb .MemStatsEnd.Sys}} | {{mb (bsub .MemStatsEnd.Sys .MemStatsStart.Sys)}} |

- **GC Cycles:** {{usub .MemStatsEnd.NumGC .MemStatsStart.NumGC}}

{{if .GCPauseMetrics}}
## GC Pause Durations
- **Total GC Pause:** {{bsub .MemStatsEnd.PauseTotalNs .MemStatsStart.PauseTotalNs | ns}}
- **Last GC Pause:** {{lastPause .MemStatsEnd | ns}}
{{end}}
`

	fm := template.FuncMap{
		"mb": func(v any) string {
			switch val := v.(type) {
			case uint64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			case int64:
				return fmt.Sprintf("%.2f", float64(val)/1024/1024)
			default:
				return "N/A"
			}
		},
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"usub": func(a, b uint32) uint32 {
			return a - b
		},
		"ns": func(ns int64) string {
			return time.Duration(ns).String()
		},
		"lastPause": func(ms runtime.MemStats) int64 {
			if ms.NumGC == 0 {
				return 0
			}
			return int64(ms.PauseNs[(ms.NumGC+255)%256])
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
