package server

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"go.uber.org/zap"

	"github.com/wattmonk/ragchat/internal/models"
)

// maxUploadBytes caps document uploads at 50 MB.
const maxUploadBytes = 50 << 20

type chatRequest struct {
	Query           string `json:"query"`
	MaintainHistory *bool  `json:"maintain_history,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	keepHistory := req.MaintainHistory == nil || *req.MaintainHistory
	s.logger.Debug("chat request", zap.String("query", req.Query))
	resp := s.service.Chat(r.Context(), req.Query, keepHistory)
	s.respondJSON(w, http.StatusOK, resp)
}

type searchRequest struct {
	Query        string `json:"query"`
	DocumentType string `json:"document_type,omitempty"`
	NResults     int    `json:"n_results,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	var filter *models.Corpus
	if req.DocumentType != "" {
		corpus, ok := models.ParseCorpus(req.DocumentType)
		if !ok {
			s.respondError(w, http.StatusBadRequest, "document_type must be 'nec' or 'wattmonk'")
			return
		}
		filter = &corpus
	}
	results := s.service.Search(r.Context(), req.Query, filter, req.NResults)
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":         req.Query,
		"results":       results,
		"total_results": len(results),
	})
}

func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	corpus, ok := models.ParseCorpus(r.FormValue("document_type"))
	if !ok {
		s.respondError(w, http.StatusBadRequest, "document_type must be 'nec' or 'wattmonk'")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "missing file")
		return
	}
	defer file.Close()

	// Spool to a temp file preserving the extension so the extractor can
	// dispatch on it.
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(header.Filename))
	if err != nil {
		s.respondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := io.Copy(tmp, file); err != nil {
		_ = tmp.Close()
		s.respondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	_ = tmp.Close()

	s.logger.Debug("upload request",
		zap.String("filename", header.Filename), zap.String("corpus", string(corpus)))
	ok = s.service.Process(r.Context(), tmpPath, corpus)
	message := "Document '" + header.Filename + "' processed successfully"
	if !ok {
		message = "Failed to process document '" + header.Filename + "'"
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  ok,
		"message":  message,
		"filename": header.Filename,
	})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	s.respondJSON(w, http.StatusOK, s.service.Classify(query))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, s.service.Stats(r.Context()))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	turns := s.service.History(r.Context(), limit)
	if turns == nil {
		turns = []*models.ConversationTurn{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"history": turns,
		"total":   len(turns),
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	s.service.ClearHistory(r.Context())
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
