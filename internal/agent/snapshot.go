package agent

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
)

// HostSnapshot состояние процесса и машины, которое прикладывается
// к событиям выполнения заданий.
type HostSnapshot struct {
	Goroutines     int       `json:"goroutines"`
	HeapAlloc      uint64    `json:"heap_alloc"`
	NumGC          uint32    `json:"num_gc"`
	TotalMemory    uint64    `json:"total_memory,omitempty"`
	FreeMemory     uint64    `json:"free_memory,omitempty"`
	CPUUtilization []float64 `json:"cpu_utilization,omitempty"`
}

// Snapshot собирает HostSnapshot. Системные показатели через gopsutil
// необязательны: при ошибке соответствующие поля остаются пустыми.
func Snapshot(ctx context.Context) HostSnapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	s := HostSnapshot{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  m.HeapAlloc,
		NumGC:      m.NumGC,
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil && vm != nil {
		s.TotalMemory = vm.Total
		s.FreeMemory = vm.Free
	}

	// interval 0 не блокирует: значения считаются от предыдущего вызова
	if vals, err := cpu.PercentWithContext(ctx, 0, true); err == nil {
		s.CPUUtilization = vals
	}
	return s
}
