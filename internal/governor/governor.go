// Package governor implements advisory pre-flight checks of memory and disk
// headroom. A passing check is not a transactional guarantee; a write may
// still fail afterwards and is then reported as a write error.
package governor

import (
	"os"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"
)

// Governor answers resource-headroom questions for the current process.
type Governor struct {
	memoryCeiling uint64
	diskFloor     uint64
	proc          *process.Process
	logger        *zap.Logger

	// diskUsage is swappable for tests.
	diskUsage func(path string) (*disk.UsageStat, error)
}

// New builds a Governor. memoryCeiling bounds resident+virtual process
// memory; diskFloor is an additional free-space reserve kept on top of any
// per-write requirement.
func New(memoryCeiling, diskFloor uint64, logger *zap.Logger) (*Governor, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Governor{
		memoryCeiling: memoryCeiling,
		diskFloor:     diskFloor,
		proc:          proc,
		logger:        logger,
		diskUsage:     disk.Usage,
	}, nil
}

// HasMemoryHeadroom reports whether the process is below the configured
// memory ceiling. No side effects.
func (g *Governor) HasMemoryHeadroom() bool {
	info, err := g.proc.MemoryInfo()
	if err != nil {
		// Treat an unreadable stat as headroom: refusing every write on a
		// stats failure would wedge the whole capture.
		g.logger.Warn("memory stat unavailable", zap.Error(err))
		return true
	}
	total := info.RSS + info.VMS
	if total >= g.memoryCeiling {
		g.logger.Warn("memory ceiling reached",
			zap.Uint64("rss", info.RSS),
			zap.Uint64("vms", info.VMS),
			zap.Uint64("ceiling", g.memoryCeiling),
		)
		return false
	}
	return true
}

// HasDiskSpace reports whether the volume containing path has at least
// required bytes free, plus the configured floor. required of 0 passes
// unless the floor itself is violated.
func (g *Governor) HasDiskSpace(required uint64, path string) bool {
	usage, err := g.diskUsage(path)
	if err != nil {
		g.logger.Warn("disk stat unavailable", zap.String("path", path), zap.Error(err))
		return true
	}
	if usage.Free < required+g.diskFloor {
		g.logger.Warn("insufficient disk space",
			zap.String("path", path),
			zap.Uint64("free", usage.Free),
			zap.Uint64("required", required+g.diskFloor),
		)
		return false
	}
	return true
}
