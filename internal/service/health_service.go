package service

import (
	"context"

	"doc-review-be/internal/dto"
	"doc-review-be/pkg/embedding"
	"doc-review-be/pkg/review/response"
	"doc-review-be/pkg/vectorstore"
)

type IHealthService interface {
	Check(ctx context.Context) *dto.HealthResponse
}

type healthService struct {
	store     *vectorstore.Store
	embedder  *embedding.Embedder
	generator *response.Generator
}

func NewHealthService(store *vectorstore.Store, embedder *embedding.Embedder, generator *response.Generator) IHealthService {
	return &healthService{
		store:     store,
		embedder:  embedder,
		generator: generator,
	}
}

// Check never fails; an unreachable backend is reported as "degraded".
func (s *healthService) Check(ctx context.Context) *dto.HealthResponse {
	reachable, detail := s.store.Ping(ctx)

	status := "ok"
	if !reachable || s.store.State() == vectorstore.StateDegraded {
		status = "degraded"
	}

	details := map[string]string{}
	if e := s.store.LastError(); e != "" {
		details["vector_last_error"] = e
	}
	if e := s.embedder.LastError(); e != "" {
		details["embedding_last_error"] = e
	}
	if e := s.generator.LastError(); e != "" {
		details["llm_last_error"] = e
	}

	return &dto.HealthResponse{
		Status:              status,
		VectorBackend:       s.store.BackendName(),
		VectorState:         string(s.store.State()),
		VectorReachable:     reachable,
		VectorDetail:        detail,
		VectorClientPresent: s.store.ClientAvailable(),
		EmbeddingProvider:   s.embedder.ProviderName(),
		EmbeddingConfigured: s.embedder.Configured(),
		LLMProvider:         s.generator.ProviderName(),
		LLMModel:            s.generator.Model(),
		LLMConfigured:       s.generator.Configured(),
		Details:             details,
	}
}
