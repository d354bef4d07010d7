package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/config"
	"github.com/autou/email-triage/internal/core"
	"github.com/autou/email-triage/internal/factory"
)

// classifyRequest is the JSON body of the text classification endpoint.
type classifyRequest struct {
	Conteudo string `json:"conteudo"`
	Provider string `json:"provider,omitempty"`
}

// classifyResponse is the wire representation of a classification.
// Field names follow the public API contract.
type classifyResponse struct {
	Categoria        string  `json:"categoria"`
	Confianca        float64 `json:"confianca"`
	RespostaSugerida string  `json:"resposta_sugerida"`
	Assunto          *string `json:"assunto,omitempty"`
	Remetente        *string `json:"remetente,omitempty"`
	Destinatario     *string `json:"destinatario,omitempty"`
	ModeloUsado      string  `json:"modelo_usado,omitempty"`
	NomeArquivo      string  `json:"nome_arquivo,omitempty"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

type providerStatus struct {
	Available      bool     `json:"available"`
	Model          string   `json:"model"`
	FallbackModels []string `json:"fallback_models,omitempty"`
}

type providersResponse struct {
	Default   string                    `json:"default"`
	Providers map[string]providerStatus `json:"providers"`
}

// Handlers holds the endpoint implementations.
type Handlers struct {
	svc    *core.TriageService
	cfg    *config.Config
	logger *zap.Logger
}

// NewHandlers creates the endpoint handlers
func NewHandlers(svc *core.TriageService, cfg *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{svc: svc, cfg: cfg, logger: logger}
}

// ClassifyText handles POST /api/v1/emails/classificar.
func (h *Handlers) ClassifyText(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	result, err := h.svc.ClassifyText(r.Context(), req.Conteudo, req.Provider)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result, ""))
}

// ClassifyFile handles POST /api/v1/emails/classificar/arquivo.
func (h *Handlers) ClassifyFile(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.cfg.GetServer().MaxUploadBytes
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Arquivo muito grande. Tamanho máximo: 5MB")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("arquivo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field 'arquivo'")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Arquivo muito grande. Tamanho máximo: 5MB")
			return
		}
		writeError(w, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "Arquivo está vazio")
		return
	}

	filename := header.Filename
	if filename == "" {
		filename = "arquivo_sem_nome"
	}
	provider := r.URL.Query().Get("provider")

	result, err := h.svc.ClassifyFile(r.Context(), filename, data, provider)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(result, filename))
}

// ListProviders handles GET /api/v1/emails/providers.
func (h *Handlers) ListProviders(w http.ResponseWriter, r *http.Request) {
	resp := providersResponse{
		Default:   h.cfg.GetDefaultProvider(),
		Providers: make(map[string]providerStatus, len(factory.Providers)),
	}
	for _, name := range factory.Providers {
		resp.Providers[name] = providerStatus{
			Available:      h.cfg.GetString(name+".api_key") != "",
			Model:          h.cfg.GetString(name + ".model"),
			FallbackModels: h.cfg.GetStringSlice(name + ".fallback_models"),
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Health handles the health check endpoints.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "email-triage",
	})
}

// writeServiceError maps core error kinds onto HTTP statuses.
func (h *Handlers) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrUnsupportedFormat):
		writeError(w, http.StatusUnsupportedMediaType, err.Error())
	case errors.Is(err, core.ErrInvalidContent),
		errors.Is(err, core.ErrInvalidFile),
		errors.Is(err, core.ErrUnknownProvider):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrClassification):
		h.logger.Error("Classification failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error("Unexpected error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func toResponse(result *core.ClassificationResult, filename string) classifyResponse {
	return classifyResponse{
		Categoria:        string(result.Category),
		Confianca:        result.Confidence,
		RespostaSugerida: result.SuggestedReply,
		Assunto:          result.Subject,
		Remetente:        result.Sender,
		Destinatario:     result.Recipient,
		ModeloUsado:      result.ModelUsed,
		NomeArquivo:      filename,
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
