package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nording/breathe/internal/auth"
	"github.com/nording/breathe/internal/http"
)

type contextKey string

const UserIDKey contextKey = "userId"

// requireSession verifies the session cookie and loads the account behind
// it before letting a request through. The user id travels in the request
// context.
func requireSession(users *auth.Service, codec *auth.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.CookieName)
			if err != nil {
				httpapi.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			userId, err := codec.Verify(cookie.Value)
			if err != nil {
				httpapi.ErrorFrom(w, err)
				return
			}

			if _, err := users.UserByID(userId); err != nil {
				httpapi.Error(w, "authentication required", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userId)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetUserId(r *http.Request) string {
	userId, ok := r.Context().Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userId
}

func registerUser(users *auth.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := users.Register(req.Email, req.Password)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, user, http.StatusCreated)
	}
}

func loginUser(users *auth.Service, codec *auth.TokenCodec) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		user, err := users.Authenticate(req.Email, req.Password)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		token, err := codec.Sign(user.ID)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(auth.TokenMaxAge / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		httpapi.JSON(w, user, http.StatusOK)
	}
}

func logoutUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{
			Name:     auth.CookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		w.WriteHeader(http.StatusNoContent)
	}
}
