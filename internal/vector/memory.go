package vector

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

const fileMagic = "MLVX"

// MemoryIndex is an in-memory vector index using exact brute-force inner product search.
// Vectors are L2-normalized on insert so scores are cosine similarities.
type MemoryIndex struct {
	dimensions int
	entries    []Entry
	pos        map[string]int // card id -> index in entries
	mu         sync.RWMutex
}

// NewMemoryIndex creates an in-memory vector index with the given dimension.
func NewMemoryIndex(dimensions int) (*MemoryIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	return &MemoryIndex{
		dimensions: dimensions,
		entries:    make([]Entry, 0),
		pos:        make(map[string]int),
	}, nil
}

// Dimensions returns the vector dimension.
func (m *MemoryIndex) Dimensions() int {
	return m.dimensions
}

// Add inserts entries, replacing any entry with the same card id.
func (m *MemoryIndex) Add(ctx context.Context, entries []Entry) error {
	for _, e := range entries {
		if e.CardID == "" {
			return fmt.Errorf("entry without card id")
		}
		if len(e.Vector) != m.dimensions {
			return fmt.Errorf("vector dimension mismatch: got %d, expected %d", len(e.Vector), m.dimensions)
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entries {
		vec := make([]float32, m.dimensions)
		copy(vec, e.Vector)
		Normalize(vec)
		stored := Entry{CardID: e.CardID, MentorID: e.MentorID, Vector: vec}
		if i, ok := m.pos[e.CardID]; ok {
			m.entries[i] = stored
			continue
		}
		m.pos[e.CardID] = len(m.entries)
		m.entries = append(m.entries, stored)
	}
	return nil
}

// Search returns up to opts.Limit entries with similarity at least opts.MinScore,
// highest first. The scan is exact, so NumCandidates does not narrow it.
func (m *MemoryIndex) Search(ctx context.Context, query []float32, opts SearchOptions) ([]*VectorResult, error) {
	if len(query) != m.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), m.dimensions)
	}
	if opts.Limit <= 0 {
		return nil, nil
	}
	q := make([]float32, len(query))
	copy(q, query)
	Normalize(q)

	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]*VectorResult, 0, opts.Limit)
	for i := range m.entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score := InnerProduct(q, m.entries[i].Vector)
		if score < opts.MinScore {
			continue
		}
		results = append(results, &VectorResult{
			CardID:   m.entries[i].CardID,
			MentorID: m.entries[i].MentorID,
			Score:    score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

// Remove deletes entries by card id.
func (m *MemoryIndex) Remove(ctx context.Context, cardIDs []string) error {
	removeSet := make(map[string]bool, len(cardIDs))
	for _, id := range cardIDs {
		removeSet[id] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]Entry, 0, len(m.entries))
	pos := make(map[string]int, len(m.entries))
	for _, e := range m.entries {
		if removeSet[e.CardID] {
			continue
		}
		pos[e.CardID] = len(kept)
		kept = append(kept, e)
	}
	m.entries = kept
	m.pos = pos
	return nil
}

// Save persists the index to path, creating the directory if needed. Format: magic (4),
// dimension (4), n (4), then per entry: idLen (4), id, mentorLen (4), mentor id,
// vector (dimension*4 bytes). All integers little endian.
func (m *MemoryIndex) Save(path string) error {
	if path == "" {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	w := bufio.NewWriter(f)
	if err := m.write(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("flush index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close index file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace index file: %w", err)
	}
	return nil
}

func (m *MemoryIndex) write(w io.Writer) error {
	if _, err := w.Write([]byte(fileMagic)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(m.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.entries))); err != nil {
		return fmt.Errorf("write count: %w", err)
	}
	for _, e := range m.entries {
		if err := writeString(w, e.CardID); err != nil {
			return fmt.Errorf("write card id: %w", err)
		}
		if err := writeString(w, e.MentorID); err != nil {
			return fmt.Errorf("write mentor id: %w", err)
		}
		if _, err := w.Write(float32SliceToBytes(e.Vector)); err != nil {
			return fmt.Errorf("write vector: %w", err)
		}
	}
	return nil
}

// Load reads the index from path and replaces the in-memory contents. Dimensions must match.
// If the file does not exist, no error is returned and the index is unchanged.
func (m *MemoryIndex) Load(path string) error {
	if path == "" {
		return nil
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open index file: %w", err)
	}
	defer f.Close()
	r := bufio.NewReader(f)

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(r, magic); err != nil || string(magic) != fileMagic {
		return fmt.Errorf("not a vector index file: %s", path)
	}
	var dim, n uint32
	if err := binary.Read(r, binary.LittleEndian, &dim); err != nil {
		return fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != m.dimensions {
		return fmt.Errorf("dimension mismatch: file has %d, index expects %d", dim, m.dimensions)
	}
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return fmt.Errorf("read count: %w", err)
	}
	entries := make([]Entry, 0, n)
	pos := make(map[string]int, n)
	buf := make([]byte, m.dimensions*4)
	for i := uint32(0); i < n; i++ {
		cardID, err := readString(r)
		if err != nil {
			return fmt.Errorf("read card id: %w", err)
		}
		mentorID, err := readString(r)
		if err != nil {
			return fmt.Errorf("read mentor id: %w", err)
		}
		if _, err := io.ReadFull(r, buf); err != nil {
			return fmt.Errorf("read vector: %w", err)
		}
		pos[cardID] = len(entries)
		entries = append(entries, Entry{CardID: cardID, MentorID: mentorID, Vector: bytesToFloat32Slice(buf)})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = entries
	m.pos = pos
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}

// Size returns the number of vectors in the index.
func (m *MemoryIndex) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close is a no-op for MemoryIndex.
func (m *MemoryIndex) Close() error {
	return nil
}
