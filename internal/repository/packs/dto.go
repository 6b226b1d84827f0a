package packs

import (
	"encoding/json"
	"fmt"

	"github.com/book2ai/book2ai/internal/domain"
)

// Pack artifacts historically shipped with drifting field names
// (text/content, page/page_number, vectors/embeddings, bare arrays vs
// wrapped objects). All aliases are resolved here; everything past this
// file uses the canonical domain shapes.

type chunkDTO struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Content    string `json:"content"` // legacy alias for text
	Page       int    `json:"page"`
	PageNumber int    `json:"page_number"` // legacy alias for page
	Type       string `json:"type"`
	Question   string `json:"question"` // set on qa-typed chunks
	Answer     string `json:"answer"`   // set on qa-typed chunks
}

func (d chunkDTO) toDomain() domain.Chunk {
	text := d.Text
	if text == "" {
		text = d.Content
	}
	page := d.Page
	if page == 0 {
		page = d.PageNumber
	}
	return domain.Chunk{ID: d.ID, Text: text, Page: page, Type: d.Type}
}

type chunksFileDTO struct {
	Chunks []chunkDTO `json:"chunks"`
}

// decodeChunks accepts either a bare array or a {"chunks": [...]} wrapper.
func decodeChunks(data []byte) ([]chunkDTO, error) {
	var bare []chunkDTO
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var wrapped chunksFileDTO
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse chunks: %w", err)
	}
	return wrapped.Chunks, nil
}

type embeddingsDTO struct {
	IDs        []string    `json:"ids"`
	Vectors    [][]float32 `json:"vectors"`
	Embeddings [][]float32 `json:"embeddings"` // legacy alias for vectors
}

func (d embeddingsDTO) toDomain() domain.EmbeddingSet {
	vectors := d.Vectors
	if len(vectors) == 0 {
		vectors = d.Embeddings
	}
	return domain.EmbeddingSet{IDs: d.IDs, Vectors: vectors}
}

func decodeEmbeddings(data []byte) (embeddingsDTO, error) {
	var dto embeddingsDTO
	if err := json.Unmarshal(data, &dto); err != nil {
		return embeddingsDTO{}, fmt.Errorf("parse embeddings: %w", err)
	}
	return dto, nil
}

type qaDTO struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	ChunkID  string `json:"chunk_id"`
	Source   string `json:"source"` // legacy alias for chunk_id
}

func (d qaDTO) toDomain() domain.QAPair {
	chunkID := d.ChunkID
	if chunkID == "" {
		chunkID = d.Source
	}
	return domain.QAPair{ID: d.ID, Question: d.Question, Answer: d.Answer, ChunkID: chunkID}
}

type qaFileDTO struct {
	QA []qaDTO `json:"qa"`
}

// decodeQA accepts either a bare array or a {"qa": [...]} wrapper.
func decodeQA(data []byte) ([]qaDTO, error) {
	var bare []qaDTO
	if err := json.Unmarshal(data, &bare); err == nil {
		return bare, nil
	}
	var wrapped qaFileDTO
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("parse qa: %w", err)
	}
	return wrapped.QA, nil
}
