package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quarry-labs/quarry/internal/core/domain"
	"github.com/quarry-labs/quarry/internal/core/ports/driven"
	"github.com/quarry-labs/quarry/internal/core/ports/driving"
	"github.com/quarry-labs/quarry/internal/logger"
)

// DefaultRetrievalLimit is used when the caller asks for zero or fewer
// chunks.
const DefaultRetrievalLimit = 10

// snippetLength caps the text stored per chunk in the audit record's
// retrieved-chunk entries.
const snippetLength = 200

var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService answers agent queries over indexed chunks. Every
// candidate passes through the agent's active policies before it is served,
// and every decision, including the rejections, lands in the audit log.
type RetrievalService struct {
	store    driven.Stores
	policies *PolicyService
	tenantID string
}

func NewRetrievalService(store driven.Stores, policies *PolicyService, tenantID string) *RetrievalService {
	return &RetrievalService{
		store:    store,
		policies: policies,
		tenantID: tenantID,
	}
}

// Result carries one served chunk with the text rendered for the view the
// policies selected.
type Result struct {
	Chunk *domain.Chunk
	View  domain.ViewType
	Text  string
}

// Retrieve returns the policy-filtered interaction record for the query.
// An empty agentID searches without policy constraints.
func (s *RetrievalService) Retrieve(ctx context.Context, agentID, query string, limit int) (*domain.Interaction, error) {
	started := time.Now()
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}

	var policies []*domain.Policy
	if agentID != "" {
		var err error
		policies, err = s.store.Policies().ActiveForAgent(ctx, agentID)
		if err != nil {
			return nil, fmt.Errorf("loading policies for agent %s: %w", agentID, err)
		}
	}

	// Over-fetch so policy rejections still leave enough to fill the page.
	candidates, err := s.store.Documents().SearchChunks(ctx, s.tenantID, query, limit*2)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}

	//nolint:prealloc // rejected candidates also produce entries
	var recorded []domain.RetrievedChunk
	served := 0
	for _, chunk := range candidates {
		if served >= limit {
			break
		}
		document, err := s.store.Documents().Get(ctx, chunk.DocumentID)
		if err != nil {
			return nil, fmt.Errorf("loading document %s: %w", chunk.DocumentID, err)
		}
		file, err := s.store.Files().GetFile(ctx, document.FileID)
		if err != nil {
			return nil, fmt.Errorf("loading file %s: %w", document.FileID, err)
		}

		decision := s.policies.Decide(policies, document.DocType, file.RelativePath)
		if !decision.Allowed {
			recorded = append(recorded, domain.RetrievedChunk{
				ChunkID:      chunk.ID,
				Rank:         len(recorded),
				Filtered:     true,
				FilterReason: decision.FilterReason,
			})
			continue
		}

		recorded = append(recorded, domain.RetrievedChunk{
			ChunkID: chunk.ID,
			Rank:    len(recorded),
			View:    decision.View,
		})
		served++
	}

	interaction := &domain.Interaction{
		ID:        uuid.New().String(),
		TenantID:  s.tenantID,
		AgentID:   agentID,
		Type:      "retrieve_chunks",
		Query:     query,
		Chunks:    recorded,
		LatencyMS: time.Since(started).Milliseconds(),
	}
	// Auditing is fire-and-forget: a failed insert never fails retrieval.
	if err := s.store.Interactions().Insert(ctx, interaction); err != nil {
		logger.Warn("recording interaction: %v", err)
	}
	return interaction, nil
}

// RetrieveResults runs Retrieve and resolves each served chunk's text for
// the view the policies selected, truncated for display.
func (s *RetrievalService) RetrieveResults(ctx context.Context, agentID, query string, limit int) ([]Result, *domain.Interaction, error) {
	interaction, err := s.Retrieve(ctx, agentID, query, limit)
	if err != nil {
		return nil, nil, err
	}

	//nolint:prealloc // filtered entries yield no result
	var results []Result
	for _, entry := range interaction.Chunks {
		if entry.Filtered {
			continue
		}
		chunk, err := s.store.Documents().GetChunk(ctx, entry.ChunkID)
		if err != nil {
			return nil, nil, fmt.Errorf("loading chunk %s: %w", entry.ChunkID, err)
		}
		text := chunk.TextForView(entry.View)
		if len(text) > snippetLength {
			text = text[:snippetLength]
		}
		results = append(results, Result{Chunk: chunk, View: entry.View, Text: text})
	}
	return results, interaction, nil
}
