package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nzaccagnino/go-sheets/internal/store"
)

type DocumentSummary struct {
	Name     string    `json:"name"`
	Modified time.Time `json:"modified"`
}

// DocumentResponse carries plaintext content unless Sealed is set, in which
// case Content is the stored envelope.
type DocumentResponse struct {
	Name              string    `json:"name"`
	Created           time.Time `json:"created"`
	Modified          time.Time `json:"modified"`
	Content           string    `json:"content"`
	BillType          int       `json:"billType"`
	PasswordProtected bool      `json:"passwordProtected"`
	Sealed            bool      `json:"sealed"`
}

type PutDocumentRequest struct {
	Content  string `json:"content"`
	BillType int    `json:"billType"`
}

type PasswordRequest struct {
	Password string `json:"password"`
}

type VerifyResponse struct {
	Valid bool `json:"valid"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) listDocumentsHandler(w http.ResponseWriter, r *http.Request) {
	all, err := s.docs.ListAll(r.Context())
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	response := make([]DocumentSummary, 0, len(all))
	for name, modified := range all {
		response = append(response, DocumentSummary{Name: name, Modified: modified})
	}
	sort.Slice(response, func(i, j int) bool {
		if response[i].Modified.Equal(response[j].Modified) {
			return response[i].Name < response[j].Name
		}
		return response[i].Modified.After(response[j].Modified)
	})

	jsonResponse(w, response, http.StatusOK)
}

func (s *Server) getDocumentHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	password := r.Header.Get(PasswordHeader)

	var (
		doc *store.Document
		err error
	)
	if password != "" {
		doc, err = s.docs.GetDecrypted(r.Context(), name, password)
	} else {
		doc, err = s.docs.Get(r.Context(), name)
	}
	if err != nil {
		s.storeError(w, r, err)
		return
	}

	response := DocumentResponse{
		Name:              doc.Name,
		Created:           doc.Created,
		Modified:          doc.Modified,
		BillType:          doc.BillType,
		PasswordProtected: doc.PasswordProtected,
	}
	if doc.PasswordProtected && password == "" {
		response.Content = doc.Content
		response.Sealed = true
	} else {
		content, err := store.DecodeContent(doc.Content)
		if err != nil {
			s.storeError(w, r, err)
			return
		}
		response.Content = content
	}

	jsonResponse(w, response, http.StatusOK)
}

// putDocumentHandler creates name or replaces its content. Replacing a
// protected document needs its current password, which also reseals it.
func (s *Server) putDocumentHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	password := r.Header.Get(PasswordHeader)

	var req PutDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	doc := store.Document{
		Name:     name,
		Content:  store.EncodeContent(req.Content),
		BillType: req.BillType,
	}
	var opts []store.SaveOption
	if password != "" {
		opts = append(opts, store.WithPassword(password))
	}

	exists, err := s.docs.Exists(ctx, name)
	if err != nil {
		s.storeError(w, r, err)
		return
	}
	if !exists {
		_, err := s.docs.Create(ctx, doc, opts...)
		if err == nil {
			w.WriteHeader(http.StatusCreated)
			return
		}
		if !errors.Is(err, store.ErrAlreadyExists) {
			s.storeError(w, r, err)
			return
		}
	}

	if err := s.docs.Replace(ctx, doc, password); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteDocumentHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) protectHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.docs.Protect(r.Context(), chi.URLParam(r, "name"), req.Password); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) unprotectHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.docs.RemoveProtection(r.Context(), chi.URLParam(r, "name"), req.Password); err != nil {
		s.storeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) verifyHandler(w http.ResponseWriter, r *http.Request) {
	var req PasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	valid := s.docs.VerifyPassword(r.Context(), chi.URLParam(r, "name"), req.Password)
	jsonResponse(w, VerifyResponse{Valid: valid}, http.StatusOK)
}

// storeError maps store failures onto status codes. Persistence failures
// are logged and reported without detail.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		jsonError(w, "document not found", http.StatusNotFound)
	case errors.Is(err, store.ErrInvalidName):
		jsonError(w, "invalid document name", http.StatusBadRequest)
	case errors.Is(err, store.ErrAlreadyExists):
		jsonError(w, "document already exists", http.StatusConflict)
	case errors.Is(err, store.ErrPasswordRequired):
		jsonError(w, "password required", http.StatusUnauthorized)
	case errors.Is(err, store.ErrInvalidPassword):
		jsonError(w, "invalid password", http.StatusForbidden)
	case errors.Is(err, store.ErrAlreadyProtected):
		jsonError(w, "document already protected", http.StatusConflict)
	case errors.Is(err, store.ErrNotProtected):
		jsonError(w, "document not protected", http.StatusConflict)
	case errors.Is(err, store.ErrInvalidRecord):
		jsonError(w, "document record is unreadable", http.StatusUnprocessableEntity)
	default:
		s.log.Error(r.Context(), "store request failed",
			"request_id", getRequestID(r.Context()), "error", err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}
