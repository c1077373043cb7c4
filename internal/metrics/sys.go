package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// SysHealth represents real-time system metrics.
type SysHealth struct {
	AllocMB       uint64 `json:"alloc_mb"`
	SysMB         uint64 `json:"sys_mb"`
	NumGC         uint32 `json:"num_gc"`
	Goroutines    int    `json:"goroutines"`
	DatabaseSize  string `json:"database_size"`
	ImageDirSize  string `json:"image_dir_size,omitempty"`
	SchemaVersion uint   `json:"schema_version,omitempty"`
}

// GetSysHealth collects real-time health data. imageDir may be empty when
// images are not stored locally.
func GetSysHealth(databasePath, imageDir string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		AllocMB:      m.Alloc / 1024 / 1024,
		SysMB:        m.Sys / 1024 / 1024,
		NumGC:        m.NumGC,
		Goroutines:   runtime.NumGoroutine(),
		DatabaseSize: formatBytes(pathSize(databasePath)),
	}
	if imageDir != "" {
		h.ImageDirSize = formatBytes(pathSize(imageDir))
	}
	return h
}

// pathSize sums file sizes under path; a plain file counts itself. Sidecar
// files such as SQLite's -wal are not included.
func pathSize(path string) int64 {
	var size int64
	_ = filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size
}

func formatBytes(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
