// Package packs loads content packs from static artifacts and caches
// them for the process lifetime.
package packs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/book2ai/book2ai/internal/domain"
)

// Artifact file names under <dir>/<pack id>/.
const (
	chunksFile     = "chunks.json"
	embeddingsFile = "embeddings.json"
	qaFile         = "qa.json"
)

// Repository loads packs from disk on first request and serves the
// cached object afterwards. Packs are immutable once constructed, so a
// duplicate load on a cold-start race is benign: the last writer stores
// an equivalent value.
type Repository struct {
	dir    string
	logger *zap.Logger

	mu     sync.RWMutex
	packs  map[string]*domain.Pack
	qaVecs map[string][][]float32
}

// New creates a pack repository rooted at dir.
func New(dir string, logger *zap.Logger) *Repository {
	return &Repository{
		dir:    dir,
		logger: logger,
		packs:  make(map[string]*domain.Pack),
		qaVecs: make(map[string][][]float32),
	}
}

// Load returns the pack for id, reading its artifacts on first call.
func (r *Repository) Load(ctx context.Context, id string) (*domain.Pack, error) {
	r.mu.RLock()
	if p, ok := r.packs[id]; ok {
		r.mu.RUnlock()
		return p, nil
	}
	r.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p, err := r.load(id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.packs[id]; ok {
		return existing, nil
	}
	r.packs[id] = p
	return p, nil
}

// List returns the ids of all packs available on disk, sorted.
func (r *Repository) List() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read packs dir: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if fileExists(filepath.Join(r.dir, e.Name(), chunksFile)) {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// QAEmbeddings returns the cached Q&A question vectors for a pack.
func (r *Repository) QAEmbeddings(id string) ([][]float32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.qaVecs[id]
	return v, ok
}

// SetQAEmbeddings caches Q&A question vectors for a pack. First writer
// wins; concurrent cold-start computations produce equivalent values.
func (r *Repository) SetQAEmbeddings(id string, vectors [][]float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.qaVecs[id]; ok {
		return
	}
	r.qaVecs[id] = vectors
}

func (r *Repository) load(id string) (*domain.Pack, error) {
	if !validPackID(id) {
		return nil, fmt.Errorf("%w: %q", domain.ErrPackNotFound, id)
	}
	packDir := filepath.Join(r.dir, id)

	chunkDTOs, err := r.loadChunks(packDir)
	if err != nil {
		return nil, err
	}

	chunks := make([]domain.Chunk, len(chunkDTOs))
	for i, d := range chunkDTOs {
		chunks[i] = d.toDomain()
	}

	embeddings := r.loadEmbeddings(packDir, id)
	qa := r.loadQA(packDir, id, chunkDTOs)

	r.logger.Info("pack loaded",
		zap.String("pack", id),
		zap.Int("chunks", len(chunks)),
		zap.Int("embeddings", embeddings.Len()),
		zap.Int("qa", len(qa)),
	)

	return domain.NewPack(id, chunks, embeddings, qa), nil
}

func (r *Repository) loadChunks(packDir string) ([]chunkDTO, error) {
	data, err := os.ReadFile(filepath.Join(packDir, chunksFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %q", domain.ErrPackNotFound, filepath.Base(packDir))
		}
		return nil, fmt.Errorf("read chunks: %w", err)
	}
	return decodeChunks(data)
}

// loadEmbeddings tolerates a missing or malformed embedding artifact:
// retrieval then yields zero results but the process stays up.
func (r *Repository) loadEmbeddings(packDir, id string) domain.EmbeddingSet {
	data, err := os.ReadFile(filepath.Join(packDir, embeddingsFile))
	if err != nil {
		r.logger.Warn("pack has no embeddings artifact", zap.String("pack", id), zap.Error(err))
		return domain.EmbeddingSet{}
	}
	dto, err := decodeEmbeddings(data)
	if err != nil {
		r.logger.Warn("pack embeddings artifact is malformed", zap.String("pack", id), zap.Error(err))
		return domain.EmbeddingSet{}
	}

	set := dto.toDomain()
	if len(set.IDs) != len(set.Vectors) {
		r.logger.Warn("pack embeddings ids/vectors length mismatch",
			zap.String("pack", id),
			zap.Int("ids", len(set.IDs)),
			zap.Int("vectors", len(set.Vectors)),
		)
	}
	return set
}

// loadQA reads the curated Q&A artifact, falling back to chunks tagged
// as Q&A type when the file is absent.
func (r *Repository) loadQA(packDir, id string, chunks []chunkDTO) []domain.QAPair {
	data, err := os.ReadFile(filepath.Join(packDir, qaFile))
	if err != nil {
		return deriveQA(chunks)
	}
	dtos, err := decodeQA(data)
	if err != nil {
		r.logger.Warn("pack qa artifact is malformed", zap.String("pack", id), zap.Error(err))
		return deriveQA(chunks)
	}

	qa := make([]domain.QAPair, 0, len(dtos))
	for _, d := range dtos {
		pair := d.toDomain()
		if pair.Question == "" || pair.Answer == "" {
			continue
		}
		qa = append(qa, pair)
	}
	return qa
}

func deriveQA(chunks []chunkDTO) []domain.QAPair {
	var qa []domain.QAPair
	for _, c := range chunks {
		if c.Type != domain.ChunkTypeQA || c.Question == "" || c.Answer == "" {
			continue
		}
		qa = append(qa, domain.QAPair{
			ID:       c.ID,
			Question: c.Question,
			Answer:   c.Answer,
			ChunkID:  c.ID,
		})
	}
	return qa
}

// validPackID rejects ids that could escape the packs directory.
func validPackID(id string) bool {
	return id != "" && id != "." && id != ".." &&
		!strings.ContainsAny(id, `/\`)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
