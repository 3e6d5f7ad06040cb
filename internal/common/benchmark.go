// Package common provides timing and memory measurement helpers.
package common

import (
	"fmt"
	"runtime"
	"time"
)

// MemoryStats is a snapshot of the Go heap.
type MemoryStats struct {
	Alloc       uint64
	TotalAlloc  uint64
	Sys         uint64
	HeapObjects uint64
	NumGC       uint32
}

// GetMemoryStats returns current memory statistics.
func GetMemoryStats() MemoryStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryStats{
		Alloc:       m.Alloc,
		TotalAlloc:  m.TotalAlloc,
		Sys:         m.Sys,
		HeapObjects: m.HeapObjects,
		NumGC:       m.NumGC,
	}
}

func (m MemoryStats) String() string {
	return fmt.Sprintf("Alloc: %d KB, Total: %d KB, Sys: %d KB, GC: %d",
		m.Alloc/1024, m.TotalAlloc/1024, m.Sys/1024, m.NumGC)
}

// Measurement is the outcome of Measure.
type Measurement struct {
	Name       string
	Iterations int
	Duration   time.Duration
	// Allocated is the number of bytes allocated while running.
	Allocated uint64
	Error     error
}

// Average returns the mean duration of one iteration.
func (m Measurement) Average() time.Duration {
	if m.Iterations <= 0 {
		return 0
	}
	return m.Duration / time.Duration(m.Iterations)
}

func (m Measurement) String() string {
	if m.Error != nil {
		return fmt.Sprintf("%s: ERROR - %v", m.Name, m.Error)
	}
	return fmt.Sprintf("%s: %d iterations, avg: %v, total: %v, alloc: %d KB",
		m.Name, m.Iterations, m.Average(), m.Duration, m.Allocated/1024)
}

// Measure runs fn up to iterations times and stops at the first error.
func Measure(name string, iterations int, fn func() error) Measurement {
	iterations = max(iterations, 1)
	before := GetMemoryStats()
	timer := NewNamedTimer(name)

	m := Measurement{Name: name}
	for range iterations {
		if err := fn(); err != nil {
			m.Error = err
			break
		}
		m.Iterations++
	}
	m.Duration = timer.Stop()
	m.Allocated = GetMemoryStats().TotalAlloc - before.TotalAlloc
	return m
}
