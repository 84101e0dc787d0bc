package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type authResponse struct {
	User  userJSON `json:"user"`
	Token string   `json:"token"`
}

// historyItem is the snake_case record shape.
type historyItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ImageURL  string    `json:"image_url"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Scans     int64     `json:"scans"`
}

// generatedItem is the camelCase record shape.
type generatedItem struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	URL       string    `json:"url"`
	ImageURL  string    `json:"imageUrl"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"createdAt"`
}

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, field string) {
	writeJSON(w, status, errorResponse{Message: msg, Field: field})
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func toUserJSON(u User) userJSON {
	return userJSON{ID: u.ID, Username: u.Username, Email: u.Email}
}

func (s *Server) issue(w http.ResponseWriter, status int, u User) {
	token, err := GenerateToken(strconv.FormatInt(u.ID, 10), s.secret, s.cfg.TokenTTL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not issue token", "")
		return
	}
	writeJSON(w, status, authResponse{User: toUserJSON(u), Token: token})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	switch {
	case req.Username == "":
		writeError(w, http.StatusUnprocessableEntity, "username is required", "username")
		return
	case req.Email == "" || !strings.Contains(req.Email, "@"):
		writeError(w, http.StatusUnprocessableEntity, "a valid email is required", "email")
		return
	case len(req.Password) < minPasswordLength:
		writeError(w, http.StatusUnprocessableEntity, fmt.Sprintf("password must be at least %d characters", minPasswordLength), "password")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not hash password", "")
		return
	}

	u, err := s.store.CreateUser(req.Username, req.Email, hash)
	switch {
	case errors.Is(err, ErrUsernameTaken):
		writeError(w, http.StatusConflict, err.Error(), "username")
		return
	case errors.Is(err, ErrEmailTaken):
		writeError(w, http.StatusConflict, err.Error(), "email")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "could not create user", "")
		return
	}

	s.log.Info(r.Context(), "user registered", "user_id", u.ID)
	s.issue(w, http.StatusCreated, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusUnprocessableEntity, "email and password are required", "")
		return
	}

	u, err := s.store.UserByEmail(req.Email)
	if err != nil || bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password", "")
		return
	}

	s.issue(w, http.StatusOK, u)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.store.UserByID(userIDFrom(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unknown user", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": toUserJSON(u)})
}

func (s *Server) owner(r *http.Request) int64 {
	id, _ := strconv.ParseInt(userIDFrom(r.Context()), 10, 64)
	return id
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	rs := s.store.Records(s.owner(r))
	out := make([]historyItem, 0, len(rs))
	for _, rec := range rs {
		out = append(out, historyItem{
			ID:        rec.ID,
			Name:      rec.Name,
			URL:       rec.URL,
			ImageURL:  rec.ImageURL,
			Type:      rec.Type,
			CreatedAt: rec.CreatedAt,
			Scans:     rec.Scans,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URL  string `json:"url"`
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		writeError(w, http.StatusUnprocessableEntity, "url is required", "url")
		return
	}
	if req.Type == "" {
		req.Type = "url"
	}

	image := fmt.Sprintf(s.cfg.ImageURLTemplate, url.QueryEscape(req.URL))
	rec := s.store.AddRecord(s.owner(r), req.Name, req.URL, image, req.Type)

	writeJSON(w, http.StatusCreated, map[string]any{"data": generatedItem{
		ID:        rec.ID,
		Name:      rec.Name,
		URL:       rec.URL,
		ImageURL:  rec.ImageURL,
		Type:      rec.Type,
		CreatedAt: rec.CreatedAt,
	}})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.store.DeleteRecord(s.owner(r), id); err != nil {
		writeError(w, http.StatusNotFound, "qr code not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
