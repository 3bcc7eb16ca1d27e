package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/formation-jira/valo/internal/config"
	"github.com/formation-jira/valo/internal/repository"
	"github.com/formation-jira/valo/internal/scraper"
	"github.com/formation-jira/valo/internal/service"
	"github.com/formation-jira/valo/internal/summary"
)

const summaryCachePrefix = "book_summary:"

type Server struct {
	cfg       config.Config
	auth      *service.Auth
	books     repository.Books
	scraper   *scraper.Scraper
	summaries *summary.Client
	redis     *redis.Client
}

func NewServer(cfg config.Config, auth *service.Auth, books repository.Books, bookScraper *scraper.Scraper, summaries *summary.Client, redisClient *redis.Client) *Server {
	return &Server{
		cfg:       cfg,
		auth:      auth,
		books:     books,
		scraper:   bookScraper,
		summaries: summaries,
		redis:     redisClient,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Bienvenue sur l'API!"})
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/api/signup", s.handleSignup)
	r.Post("/api/login", s.handleLogin)
	r.With(s.authMiddleware).Get("/api/me", s.handleGetMe)

	r.Get("/api/scrape_books", s.handleScrapeBooks)
	r.Post("/api/scrape_books", s.handleScrapeBooks)
	r.Get("/api/recommendations", s.handleRecommendations)
	r.Get("/api/books/summary", s.handleBookSummary)

	return r
}

type signupRequest struct {
	Nom         string `json:"nom"`
	Age         int    `json:"age"`
	Classe      string `json:"classe"`
	Departement string `json:"departement"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Nom == "" || req.Classe == "" || req.Departement == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}

	err := s.auth.Signup(r.Context(), service.SignupInput{
		Nom:         req.Nom,
		Age:         req.Age,
		Classe:      req.Classe,
		Departement: req.Departement,
		Email:       req.Email,
		Password:    req.Password,
	})
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, "Email déjà utilisé.")
			return
		}
		log.Printf("signup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Inscription réussie"})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			// One message for unknown email and wrong password alike.
			writeError(w, http.StatusBadRequest, "Identifiants invalides")
			return
		}
		log.Printf("login failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"access_token": token,
		"token_type":   "bearer",
	})
}

type profileResponse struct {
	Nom         string `json:"nom"`
	Age         int    `json:"age"`
	Classe      string `json:"classe"`
	Departement string `json:"departement"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	subject := subjectFromContext(r.Context())
	if subject == "" {
		writeUnauthenticated(w)
		return
	}

	student, err := s.auth.Profile(r.Context(), subject)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user_not_found")
			return
		}
		log.Printf("profile lookup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Nom:         student.Nom,
		Age:         student.Age,
		Classe:      student.Classe,
		Departement: student.Departement,
	})
}

func (s *Server) handleScrapeBooks(w http.ResponseWriter, r *http.Request) {
	books, err := s.scraper.Fetch(r.Context())
	if err != nil {
		log.Printf("scrape failed: %v", err)
		writeError(w, http.StatusBadGateway, "scrape_failed")
		return
	}
	if len(books) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "Aucun livre trouvé. Aucune modification apportée à la base.",
		})
		return
	}

	count, err := s.books.Replace(r.Context(), books)
	if err != nil {
		log.Printf("book replace failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": strconv.Itoa(count) + " livres insérés dans la base.",
	})
}

type bookResponse struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Category     string  `json:"category"`
	Availability string  `json:"availability"`
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	filter := repository.BookFilter{Category: r.URL.Query().Get("category")}

	min, ok := parsePrice(r.URL.Query().Get("price_min"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_price_min")
		return
	}
	filter.PriceMin = min
	max, ok := parsePrice(r.URL.Query().Get("price_max"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_price_max")
		return
	}
	filter.PriceMax = max

	books, err := s.books.List(r.Context(), filter)
	if err != nil {
		log.Printf("recommendations failed: %v", err)
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	resp := make([]bookResponse, 0, len(books))
	for _, book := range books {
		resp = append(resp, bookResponse{
			ID:           book.ID,
			Title:        book.Title,
			Price:        book.Price,
			Category:     book.Category,
			Availability: book.Availability,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBookSummary(w http.ResponseWriter, r *http.Request) {
	title := strings.TrimSpace(r.URL.Query().Get("title"))
	if title == "" {
		writeError(w, http.StatusBadRequest, "missing_title")
		return
	}
	if s.summaries == nil {
		writeError(w, http.StatusServiceUnavailable, "summary_not_configured")
		return
	}

	if cached, ok := s.cachedSummary(r.Context(), title); ok {
		writeJSON(w, http.StatusOK, map[string]string{"title": title, "summary": cached})
		return
	}

	text, err := s.summaries.Summarize(r.Context(), title)
	if err != nil {
		log.Printf("summary failed: %v", err)
		writeError(w, http.StatusBadGateway, "summary_failed")
		return
	}
	s.cacheSummary(r.Context(), title, text)

	writeJSON(w, http.StatusOK, map[string]string{"title": title, "summary": text})
}

func (s *Server) cachedSummary(ctx context.Context, title string) (string, bool) {
	if s.redis == nil {
		return "", false
	}
	value, err := s.redis.Get(ctx, summaryCachePrefix+title).Result()
	if err == redis.Nil {
		return "", false
	}
	if err != nil {
		log.Printf("summary cache read error: %v", err)
		return "", false
	}
	return value, true
}

func (s *Server) cacheSummary(ctx context.Context, title, text string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Set(ctx, summaryCachePrefix+title, text, s.cfg.SummaryCacheTTL).Err(); err != nil {
		log.Printf("summary cache write error: %v", err)
	}
}

// Auth

type subjectKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeUnauthenticated(w)
			return
		}

		subject, err := s.auth.ResolveCaller(token)
		if err != nil {
			writeUnauthenticated(w)
			return
		}

		ctx := context.WithValue(r.Context(), subjectKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func subjectFromContext(ctx context.Context) string {
	subject, _ := ctx.Value(subjectKey{}).(string)
	return subject
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func parsePrice(raw string) (*float64, bool) {
	if raw == "" {
		return nil, true
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return nil, false
	}
	return &value, true
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError uses the {"detail": ...} body shape the frontend already
// consumes.
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeUnauthenticated is deliberately generic: missing, malformed, badly
// signed, and expired tokens all produce the same response.
func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeError(w, http.StatusUnauthorized, "Could not validate credentials")
}
