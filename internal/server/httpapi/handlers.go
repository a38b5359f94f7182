package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/server/models"
	"github.com/dropvault/dropvault/internal/server/services"
	"github.com/gorilla/mux"
)

type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type filePayload struct {
	ID           string    `json:"id"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	IsShared     bool      `json:"is_shared"`
	CreatedAt    time.Time `json:"created_at"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  userPayload `json:"user"`
}

func toUserPayload(u *models.User) userPayload {
	return userPayload{ID: u.ID, Username: u.Username, Email: u.Email}
}

func toFilePayload(f *models.File) filePayload {
	return filePayload{
		ID:           f.ID,
		OriginalName: f.OriginalName,
		Size:         f.Size,
		MimeType:     f.MimeType,
		IsShared:     f.IsShared,
		CreatedAt:    f.CreatedAt,
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.users.Register(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "user registered", "username", user.Username)
	s.writeJSON(w, http.StatusCreated, authResponse{Token: token, User: toUserPayload(user)})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	user, token, err := s.users.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, authResponse{Token: token, User: toUserPayload(user)})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	list, err := s.files.List(r.Context(), session.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	payload := make([]filePayload, 0, len(list))
	for _, f := range list {
		payload = append(payload, toFilePayload(f))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"files": payload})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)

	if err := r.ParseMultipartForm(services.MaxUploadSize); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid multipart body")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "no file selected")
		return
	}
	defer part.Close()

	// read one byte past the cap so the service can reject oversize payloads
	data, err := io.ReadAll(io.LimitReader(part, services.MaxUploadSize+1))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "error reading file")
		return
	}

	file, err := s.files.Upload(r.Context(), session.UserID, header.Filename, header.Header.Get("Content-Type"), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "file uploaded", "file_id", file.ID, "size", file.Size)
	s.writeJSON(w, http.StatusCreated, map[string]any{"file": toFilePayload(file)})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	fileID := mux.Vars(r)["id"]

	url, err := s.files.DownloadURL(r.Context(), fileID, session.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"download_url": url})
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	fileID := mux.Vars(r)["id"]

	token, _, err := s.shares.Issue(r.Context(), fileID, session.UserID)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "share link issued", "file_id", fileID)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"share_token": token,
		"share_url":   shareURL(r, token),
	})
}

func (s *Server) handleRevoke(w http.ResponseWriter, r *http.Request) {
	session := sessionFrom(r)
	fileID := mux.Vars(r)["id"]

	if err := s.shares.Revoke(r.Context(), fileID, session.UserID); err != nil {
		s.respondError(w, r, err)
		return
	}

	s.logger.Info(r.Context(), "share link revoked", "file_id", fileID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleShared(w http.ResponseWriter, r *http.Request) {
	token := mux.Vars(r)["token"]

	file, err := s.gate.AuthorizeSharedAccess(r.Context(), token)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	url, err := s.files.PresignDownload(r.Context(), file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

func shareURL(r *http.Request, token string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + "/api/shared/" + token
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

// respondError maps sentinel errors onto status codes; this is the only place
// that mapping exists.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorInvalidInput):
		s.writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized):
		s.writeError(w, r, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrorConflict):
		s.writeError(w, r, http.StatusConflict, "username or email already exists")
	case errors.Is(err, common.ErrorNotFound):
		s.writeError(w, r, http.StatusNotFound, "not found")
	case errors.Is(err, common.ErrorUnavailable):
		s.writeError(w, r, http.StatusServiceUnavailable, "service unavailable")
	default:
		s.logger.Error(r.Context(), err.Error())
		s.writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
