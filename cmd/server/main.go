package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/nording/breathe/internal/auth"
	"github.com/nording/breathe/internal/domain"
	"github.com/nording/breathe/internal/http"
	"github.com/nording/breathe/internal/practice"
	"github.com/nording/breathe/internal/storage"
)

func main() {
	godotenv.Load()

	repo, err := openRepository()
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	if err := repo.EnsurePresets(domain.PresetPatterns()); err != nil {
		log.Fatal(err)
	}

	secret := os.Getenv("BREATHE_SECRET")
	if secret == "" {
		secret = "dev-secret-change-me"
		log.Println("Warning: BREATHE_SECRET not set, using dev secret")
	}
	codec := auth.NewTokenCodec([]byte(secret))

	users := auth.NewService(repo)

	cfg := practice.DefaultConfig()
	cfg.FallbackZone = os.Getenv("BREATHE_TZ_FALLBACK")
	svc := practice.NewService(repo, cfg)

	r := newRouter(users, svc, codec)

	addr := os.Getenv("BREATHE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	log.Println("listening on " + addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		log.Fatal(err)
	}
}

func openRepository() (storage.Repository, error) {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return storage.NewPostgresRepository(url)
	}

	dbPath := os.Getenv("BREATHE_DB")
	if dbPath == "" {
		dbPath = "./breathe.db"
	}
	return storage.NewSQLiteRepository(dbPath)
}

func newRouter(users *auth.Service, svc *practice.Service, codec *auth.TokenCodec) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", getHealth)

	r.Post("/api/auth/register", registerUser(users))
	r.Post("/api/auth/login", loginUser(users, codec))
	r.Post("/api/auth/logout", logoutUser())

	r.Group(func(r chi.Router) {
		r.Use(requireSession(users, codec))

		r.Get("/api/patterns", listPatterns(svc))
		r.Post("/api/patterns", createPattern(svc))
		r.Get("/api/patterns/{id}", getPattern(svc))
		r.Put("/api/patterns/{id}", updatePattern(svc))
		r.Delete("/api/patterns/{id}", deletePattern(svc))

		r.Post("/api/sessions", startSession(svc))
		r.Post("/api/sessions/{id}/complete", completeSession(svc))
		r.Get("/api/sessions/{id}", getSession(svc))
		r.Get("/api/sessions", listSessions(svc))

		r.Get("/api/stats", getStats(svc))
		r.Get("/api/stats/week", getWeek(svc))

		r.Get("/api/preferences", getPreferences(svc))
		r.Put("/api/preferences", updatePreferences(svc))
	})

	return r
}

func getHealth(w http.ResponseWriter, r *http.Request) {
	httpapi.JSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}
