package storage

import (
	"os"
)

// DiskUsage is the on-disk footprint of the SQLite database and the vector index snapshot.
type DiskUsage struct {
	DatabaseBytes    int64 `json:"database_bytes"`
	WALBytes         int64 `json:"wal_bytes"`
	VectorIndexBytes int64 `json:"vector_index_bytes"`
	TotalBytes       int64 `json:"total_bytes"`
}

// MeasureDiskUsage stats the database file, its -wal and -shm sidecars, and the index
// snapshot. Files that do not exist yet count as zero; an in-memory database has no files.
func MeasureDiskUsage(dbPath, indexPath string) (*DiskUsage, error) {
	u := &DiskUsage{}
	var err error
	if dbPath != "" && dbPath != ":memory:" {
		if u.DatabaseBytes, err = fileSize(dbPath); err != nil {
			return nil, err
		}
		for _, suffix := range []string{"-wal", "-shm"} {
			n, err := fileSize(dbPath + suffix)
			if err != nil {
				return nil, err
			}
			u.WALBytes += n
		}
	}
	if u.VectorIndexBytes, err = fileSize(indexPath); err != nil {
		return nil, err
	}
	u.TotalBytes = u.DatabaseBytes + u.WALBytes + u.VectorIndexBytes
	return u, nil
}

func fileSize(path string) (int64, error) {
	if path == "" {
		return 0, nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
