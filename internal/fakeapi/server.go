// ABOUTME: In-process Korrekturleser backend for tests and local runs
// ABOUTME: Issues HS256 tokens, counts calls per route and lets callers script responses

package fakeapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/korrekturleser-cli/internal/client"
)

// Route names used by Calls and FailWith
const (
	RouteLogin  = "login"
	RouteMe     = "me"
	RouteConfig = "config"
	RouteModes  = "modes"
	RouteText   = "text"
	RouteStats  = "stats"
)

// AdminID sees usage statistics of every user
const AdminID = 1

// User is an account known to the fake backend
type User struct {
	ID       int64
	Name     string
	Secret   string
	Requests int
	Tokens   int
}

// DefaultUsers are available unless WithUsers replaces them
var DefaultUsers = []User{
	{ID: AdminID, Name: "admin", Secret: "admin-secret"},
	{ID: 2, Name: "anna", Secret: "anna-secret"},
}

// ImproveFunc produces the AI text for a request
type ImproveFunc func(req client.TextRequest) (string, error)

// StatusError makes an ImproveFunc answer with a specific status
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	return e.Detail
}

type forcedStatus struct {
	code   int
	detail string
}

// Server is a running fake backend
type Server struct {
	*httptest.Server

	signingKey   []byte
	tokenTTL     time.Duration
	loginLimiter *rateLimiter
	minimalLogin bool
	withoutModes bool

	mu          sync.Mutex
	users       []User
	providers   []string
	models      map[string][]string
	modes       []string
	description map[string]string
	improve     ImproveFunc
	forced      map[string]forcedStatus
	calls       map[string]int
	delay       time.Duration
}

// Option configures a Server
type Option func(*Server)

// WithUsers replaces the default accounts
func WithUsers(users ...User) Option {
	return func(s *Server) {
		s.users = slices.Clone(users)
	}
}

// WithImprove replaces the text transformation
func WithImprove(fn ImproveFunc) Option {
	return func(s *Server) {
		s.improve = fn
	}
}

// WithTokenTTL sets the lifetime of issued tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

// WithLoginLimit allows limit login attempts per minute and client
func WithLoginLimit(limit int) Option {
	return func(s *Server) {
		s.loginLimiter = newRateLimiter(limit, time.Minute)
	}
}

// WithMinimalLogin answers logins with the token only, like older backends
func WithMinimalLogin() Option {
	return func(s *Server) {
		s.minimalLogin = true
	}
}

// WithModes replaces the modes the backend offers and accepts
func WithModes(modes ...string) Option {
	return func(s *Server) {
		s.modes = slices.Clone(modes)
	}
}

// WithoutModes makes /api/modes/ answer 404, like older backends
func WithoutModes() Option {
	return func(s *Server) {
		s.withoutModes = true
	}
}

// New starts a fake backend. Close it when done.
func New(opts ...Option) *Server {
	s := &Server{
		signingKey: []byte("fake-backend-signing-key"),
		tokenTTL:   time.Hour,
		users:      slices.Clone(DefaultUsers),
		providers:  []string{"gemini", "openai"},
		models: map[string][]string{
			"gemini": {"gemini-2.5-flash", "gemini-2.5-pro"},
			"openai": {"gpt-4o-mini", "gpt-4o"},
		},
		modes: []string{"correct", "improve", "summarize", "expand", "translate_de", "translate_en", "custom"},
		description: map[string]string{
			"correct":      "Korrigiere",
			"improve":      "Verbessere",
			"summarize":    "Text -> Stichwörter",
			"expand":       "Stichwörter -> Text",
			"translate_de": "Übersetzen -> DE",
			"translate_en": "Übersetzen -> EN",
			"custom":       "Eigene Anweisung",
		},
		improve: DefaultImprove,
		forced:  make(map[string]forcedStatus),
		calls:   make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", s.route(RouteLogin, Chain(s.handleLogin, rateLimit(s.loginLimiter))))
	mux.HandleFunc("GET /api/auth/me", s.route(RouteMe, Chain(s.handleMe, s.requireBearer)))
	mux.HandleFunc("GET /api/config/", s.route(RouteConfig, Chain(s.handleConfig, s.requireBearer)))
	mux.HandleFunc("GET /api/modes/", s.route(RouteModes, s.handleModes))
	mux.HandleFunc("POST /api/text/", s.route(RouteText, Chain(s.handleText, s.requireBearer)))
	mux.HandleFunc("POST /api/{$}", s.route(RouteText, Chain(s.handleText, s.requireBearer)))
	mux.HandleFunc("GET /api/stats/", s.route(RouteStats, Chain(s.handleStats, s.requireBearer)))

	s.Server = httptest.NewServer(logRequest(mux.ServeHTTP))
	return s
}

// Calls returns how often route was requested
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// FailWith makes route answer code with detail until Recover is called
func (s *Server) FailWith(route string, code int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forced[route] = forcedStatus{code: code, detail: detail}
}

// Recover undoes FailWith for route
func (s *Server) Recover(route string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.forced, route)
}

// SetDelay slows every response down by d
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// User returns the current record of the account with id
func (s *Server) User(id int64) (User, bool) {
	return s.userByID(id)
}

// MintToken issues a token for user id that expires after ttl. A negative
// ttl gives an already expired token.
func (s *Server) MintToken(id int64, ttl time.Duration) string {
	user, _ := s.userByID(id)
	now := time.Now()
	claims := tokenClaims{
		UserID:   id,
		Username: user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
	if err != nil {
		panic(err)
	}
	return token
}

// route counts calls and applies forced statuses
func (s *Server) route(name string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls[name]++
		forced, isForced := s.forced[name]
		delay := s.delay
		s.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if isForced {
			writeDetail(w, forced.detail, forced.code)
			return
		}
		next(w, r)
	}
}

func (s *Server) userByID(id int64) (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := slices.IndexFunc(s.users, func(u User) bool { return u.ID == id })
	if idx < 0 {
		return User{}, false
	}
	return s.users[idx], true
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, []string{"body"}, "Input should be a valid dictionary")
		return
	}
	if req.Secret == "" {
		writeValidation(w, []string{"body", "secret"}, "String should have at least 1 character")
		return
	}

	s.mu.Lock()
	idx := slices.IndexFunc(s.users, func(u User) bool { return u.Secret == req.Secret })
	var user User
	if idx >= 0 {
		user = s.users[idx]
	}
	s.mu.Unlock()

	if idx < 0 {
		writeDetail(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	resp := client.TokenResponse{
		AccessToken: s.MintToken(user.ID, s.tokenTTL),
		TokenType:   "bearer",
	}
	if !s.minimalLogin {
		resp.Username = user.Name
		resp.RequestCount = &user.Requests
		resp.TokenCount = &user.Tokens
	}
	writeJSON(w, resp)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	writeJSON(w, client.UserInfo{
		Username:     user.Name,
		RequestCount: user.Requests,
		TokenCount:   user.Tokens,
	})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = s.providers[0]
	}
	models, ok := s.models[provider]
	if !ok {
		writeValidation(w, []string{"query", "provider"}, "Unknown provider")
		return
	}
	writeJSON(w, client.ConfigResponse{
		LLMProvider: provider,
		Models:      models,
		Providers:   s.providers,
	})
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	if s.withoutModes {
		writeDetail(w, "Not Found", http.StatusNotFound)
		return
	}
	writeJSON(w, client.ModesResponse{Modes: s.modes, Descriptions: s.description})
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req client.TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeValidation(w, []string{"body"}, "Input should be a valid dictionary")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeDetail(w, "Text cannot be empty", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	knownMode := slices.Contains(s.modes, req.Mode)
	provider := req.Provider
	if provider == "" {
		provider = s.providers[0]
	}
	models := s.models[provider]
	improve := s.improve
	s.mu.Unlock()

	if !knownMode {
		writeValidation(w, []string{"body", "mode"}, "Input should be one of the supported modes")
		return
	}
	model := req.Model
	if !slices.Contains(models, model) && len(models) > 0 {
		model = models[0]
	}

	aiText, err := improve(req)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) {
			writeDetail(w, statusErr.Detail, statusErr.Code)
			return
		}
		writeDetail(w, "Failed to improve text: "+err.Error(), http.StatusInternalServerError)
		return
	}

	tokens := 2 * len(strings.Fields(req.Text+" "+aiText))
	user := currentUser(r)
	s.mu.Lock()
	if idx := slices.IndexFunc(s.users, func(u User) bool { return u.ID == user.ID }); idx >= 0 {
		s.users[idx].Requests++
		s.users[idx].Tokens += tokens
	}
	s.mu.Unlock()

	writeJSON(w, client.TextResponse{
		TextOriginal: req.Text,
		TextAI:       aiText,
		Mode:         req.Mode,
		TokensUsed:   tokens,
		Model:        model,
		Provider:     provider,
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	caller := currentUser(r)
	today := time.Now().Format(time.DateOnly)

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := client.UsageStatsResponse{
		Daily: []client.DailyUsage{},
		Total: []client.TotalUsage{},
	}
	for _, u := range s.users {
		if caller.ID != AdminID && u.ID != caller.ID {
			continue
		}
		if u.Requests > 0 {
			resp.Daily = append(resp.Daily, client.DailyUsage{Date: today, UserName: u.Name, Requests: u.Requests, Tokens: u.Tokens})
		}
		resp.Total = append(resp.Total, client.TotalUsage{UserName: u.Name, Requests: u.Requests, Tokens: u.Tokens})
	}
	writeJSON(w, resp)
}

var corrections = strings.NewReplacer(
	"Helo", "Hello",
	"wordl", "world",
	"Fehlr", "Fehler",
	"Satzt", "Satz",
)

// DefaultImprove fixes a few known typos, turns summaries into bullet lists
// and echoes other modes.
func DefaultImprove(req client.TextRequest) (string, error) {
	switch req.Mode {
	case "correct", "improve":
		return corrections.Replace(req.Text), nil
	case "summarize":
		var b strings.Builder
		b.WriteString("## Stichwörter\n\n")
		for _, sentence := range strings.FieldsFunc(req.Text, func(r rune) bool { return r == '.' || r == '\n' }) {
			if s := strings.TrimSpace(sentence); s != "" {
				b.WriteString("- " + s + "\n")
			}
		}
		return b.String(), nil
	default:
		return req.Text, nil
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

// writeDetail writes a FastAPI style {"detail": "..."} error
func writeDetail(w http.ResponseWriter, detail string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}

// writeValidation writes a 422 with one validation issue
func writeValidation(w http.ResponseWriter, loc []string, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnprocessableEntity)
	json.NewEncoder(w).Encode(map[string]any{
		"detail": []map[string]any{{"loc": loc, "msg": msg, "type": "value_error"}},
	})
}
