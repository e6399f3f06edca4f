package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"

	"exegesisai/internal/app"
	"exegesisai/internal/ratelimit"
	"exegesisai/internal/util"
	"exegesisai/pkg/ai"
	"exegesisai/pkg/auth"
	"exegesisai/pkg/domain"
	"exegesisai/pkg/storage"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Sessions *auth.Sessions
	Images   storage.ImageStore
	Limiter  *ratelimit.FixedWindowLimiter
}

// Server exposes the exegesis proxy and the account/history endpoints.
type Server struct {
	app      *app.App
	sessions *auth.Sessions
	images   storage.ImageStore
	limiter  *ratelimit.FixedWindowLimiter
	mux      *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:      cfg.App,
		sessions: cfg.Sessions,
		images:   cfg.Images,
		limiter:  cfg.Limiter,
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped with the middleware stack.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/api/exegesis", s.handleExegesis)
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/history", s.handleHistory)
	s.mux.HandleFunc("/api/voices", s.handleVoices)
	s.mux.HandleFunc("/api/images/", s.handleImage)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type proxyRequest struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

type analysisResponse struct {
	domain.AnalysisResult
	ImageURL string `json:"imageUrl,omitempty"`
}

// handleExegesis is the single proxy entrypoint: {action, payload} in,
// action-specific JSON out. OPTIONS preflight is answered by the CORS
// middleware before reaching here.
func (s *Server) handleExegesis(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if s.app == nil {
		writeError(w, http.StatusInternalServerError, "server configuration incomplete")
		return
	}
	var req proxyRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	switch req.Action {
	case "getExegesis":
		s.handleGetExegesis(w, r, req.Payload)
	case "generateImage":
		s.handleGenerateImage(w, r, req.Payload)
	case "generateTTS":
		s.handleGenerateTTS(w, r, req.Payload)
	default:
		writeError(w, http.StatusBadRequest, "unsupported action")
	}
}

func (s *Server) handleGetExegesis(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(body.Query) == "" {
		writeError(w, http.StatusBadRequest, "query is required")
		return
	}

	user := s.optionalUser(r)
	if s.limiter != nil && !s.limiter.Allow(rateKey(r, user)) {
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, try again shortly")
		return
	}

	result, imageURL, err := s.app.Analyze(r.Context(), user, body.Query)
	if err != nil {
		writeAIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, analysisResponse{AnalysisResult: result, ImageURL: imageURL})
}

func (s *Server) handleGenerateImage(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var body struct {
		Prompt string `json:"prompt"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(body.Prompt) == "" {
		writeError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	img, err := s.app.Illustrate(r.Context(), body.Prompt)
	if err != nil {
		writeAIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, base64Response(img))
}

func (s *Server) handleGenerateTTS(w http.ResponseWriter, r *http.Request, payload json.RawMessage) {
	var body struct {
		Text     string `json:"text"`
		Voice    string `json:"voice"`
		Language string `json:"language"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(body.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	audio, err := s.app.Narrate(r.Context(), body.Text, body.Voice, body.Language)
	if err != nil {
		if errors.Is(err, app.ErrUnknownVoice) || errors.Is(err, app.ErrUnknownLanguage) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeAIError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, base64Response(audio))
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Username string `json:"username"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Register(req.Username, req.Name, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrUsernameTaken) {
			writeError(w, http.StatusConflict, err.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeSession(w, user)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, err := s.app.Login(req.Username, req.Password)
	if err != nil {
		if errors.Is(err, app.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "login failed")
		return
	}
	s.writeSession(w, user)
}

func (s *Server) writeSession(w http.ResponseWriter, user domain.User) {
	token := ""
	if s.sessions != nil {
		signed, err := s.sessions.Issue(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "issue session token")
			return
		}
		token = signed
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": user})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := s.requireUser(w, r)
	if !ok {
		return
	}
	switch r.Method {
	case http.MethodGet:
		entries, err := s.app.History(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "load history failed")
			return
		}
		writeJSON(w, http.StatusOK, entries)
	case http.MethodDelete:
		if err := s.app.ClearHistory(user.ID); err != nil {
			writeError(w, http.StatusInternalServerError, "clear history failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleVoices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"voices":    domain.Voices(),
		"languages": domain.Languages(),
	})
}

func (s *Server) handleImage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if s.images == nil {
		writeError(w, http.StatusNotFound, "image storage not configured")
		return
	}
	key := strings.TrimPrefix(r.URL.Path, "/api/images/")
	if key == "" || strings.Contains(key, "/") {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	content, contentType, err := s.images.Open(r.Context(), key)
	if err != nil {
		writeError(w, http.StatusNotFound, "image not found")
		return
	}
	defer content.Close()
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, content)
}

// optionalUser resolves the bearer token when present and valid; anonymous
// requests get a nil user and no history persistence.
func (s *Server) optionalUser(r *http.Request) *domain.User {
	if s.sessions == nil {
		return nil
	}
	token, ok := bearerToken(r)
	if !ok {
		return nil
	}
	userID, err := s.sessions.Verify(token)
	if err != nil {
		return nil
	}
	user, found, err := s.app.GetUser(userID)
	if err != nil || !found {
		return nil
	}
	return &user
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (domain.User, bool) {
	if s.sessions == nil {
		writeError(w, http.StatusInternalServerError, "sessions not configured")
		return domain.User{}, false
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	userID, err := s.sessions.Verify(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	user, found, err := s.app.GetUser(userID)
	if err != nil || !found {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return domain.User{}, false
	}
	return user, true
}

// rateKey buckets authenticated users by id and anonymous clients by IP.
func rateKey(r *http.Request, user *domain.User) string {
	if user != nil {
		return "user:" + user.ID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// writeAIError maps facade errors onto proxy statuses. Rate limits keep
// their own status so clients can distinguish "wait and retry" from a
// credential problem; everything else provider-side is a gateway failure
// with the provider's diagnostic attached.
func writeAIError(w http.ResponseWriter, err error) {
	var provErr *ai.ProviderError
	var schemaErr *ai.SchemaError
	switch {
	case errors.Is(err, app.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &provErr):
		switch provErr.Kind {
		case ai.KindRateLimited:
			writeDetailedError(w, http.StatusTooManyRequests, "provider quota exhausted, wait and retry", provErr.Message)
		case ai.KindUnauthenticated:
			writeDetailedError(w, http.StatusBadGateway, "provider rejected the server credential", provErr.Message)
		case ai.KindModelUnavailable:
			writeDetailedError(w, http.StatusBadGateway, "model unavailable", provErr.Message)
		default:
			writeDetailedError(w, http.StatusBadGateway, "provider request failed", provErr.Message)
		}
	case errors.As(err, &schemaErr):
		writeDetailedError(w, http.StatusBadGateway, "provider returned a malformed analysis", schemaErr.Error())
	case errors.Is(err, ai.ErrEmptyResponse):
		writeDetailedError(w, http.StatusBadGateway, "provider returned no content", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func base64Response(data []byte) map[string]any {
	if len(data) == 0 {
		return map[string]any{"base64": nil}
	}
	return map[string]any{"base64": base64.StdEncoding.EncodeToString(data)}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeDetailedError(w http.ResponseWriter, status int, msg, details string) {
	writeJSON(w, status, map[string]string{"error": msg, "details": details})
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}
