package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestMeasureDiskUsage(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "mentorlink.db")
	indexPath := filepath.Join(dir, "cards.vec")

	tests := []struct {
		name  string
		files map[string]string
		want  DiskUsage
	}{
		{"nothing written yet", nil, DiskUsage{}},
		{
			name:  "database with sidecars",
			files: map[string]string{dbPath: "12345", dbPath + "-wal": "abc", dbPath + "-shm": "d"},
			want:  DiskUsage{DatabaseBytes: 5, WALBytes: 4, TotalBytes: 9},
		},
		{
			name:  "index snapshot",
			files: map[string]string{indexPath: "vectors"},
			want:  DiskUsage{DatabaseBytes: 5, WALBytes: 4, VectorIndexBytes: 7, TotalBytes: 16},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for path, content := range tt.files {
				if err := os.WriteFile(path, []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}
			got, err := MeasureDiskUsage(dbPath, indexPath)
			if err != nil {
				t.Fatal(err)
			}
			if *got != tt.want {
				t.Errorf("MeasureDiskUsage = %+v, want %+v", *got, tt.want)
			}
		})
	}
}

func TestMeasureDiskUsage_LiveDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "mentorlink.db")
	store, err := NewSQLiteStorage(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if err := store.UpsertUser(context.Background(), mentor("m1", 0, 2)); err != nil {
		t.Fatal(err)
	}
	got, err := MeasureDiskUsage(dbPath, "")
	if err != nil {
		t.Fatal(err)
	}
	if got.DatabaseBytes+got.WALBytes == 0 || got.VectorIndexBytes != 0 {
		t.Errorf("usage = %+v", got)
	}

	mem, err := MeasureDiskUsage(":memory:", "")
	if err != nil {
		t.Fatal(err)
	}
	if mem.TotalBytes != 0 {
		t.Errorf("in-memory usage = %+v", mem)
	}
}
