package domain

// ChunkTypeQA tags chunks that hold a curated question/answer pair
// instead of narrative book text.
const ChunkTypeQA = "qa"

// Chunk is a unit of source text with a stable id.
type Chunk struct {
	ID   string
	Text string
	Page int // 0 = no page reference
	Type string
}

// QAPair is a curated question with an authoritative answer.
type QAPair struct {
	ID       string
	Question string
	Answer   string
	ChunkID  string // source chunk the answer cites
}

// EmbeddingSet holds parallel id/vector arrays for a pack's chunks.
// The arrays may drift out of sync when pack artifacts are partially
// written; consumers iterate only the overlapping prefix.
type EmbeddingSet struct {
	IDs     []string
	Vectors [][]float32
}

// Len returns the number of usable rows: the overlapping prefix of IDs and Vectors.
func (s EmbeddingSet) Len() int {
	if len(s.IDs) < len(s.Vectors) {
		return len(s.IDs)
	}
	return len(s.Vectors)
}

// Pack is an immutable, named bundle of chunks, their embeddings,
// and curated Q&A pairs. Loaded once per process and reused.
type Pack struct {
	ID         string
	Chunks     []Chunk
	Embeddings EmbeddingSet
	QA         []QAPair

	chunkIndex map[string]int
}

// NewPack builds a pack and its chunk-id index.
func NewPack(id string, chunks []Chunk, embeddings EmbeddingSet, qa []QAPair) *Pack {
	idx := make(map[string]int, len(chunks))
	for i, c := range chunks {
		idx[c.ID] = i
	}
	return &Pack{
		ID:         id,
		Chunks:     chunks,
		Embeddings: embeddings,
		QA:         qa,
		chunkIndex: idx,
	}
}

// ChunkByID resolves a chunk by id. Missing ids are expected when the
// corpus and embedding artifacts drift; callers skip them.
func (p *Pack) ChunkByID(id string) (Chunk, bool) {
	i, ok := p.chunkIndex[id]
	if !ok {
		return Chunk{}, false
	}
	return p.Chunks[i], true
}
