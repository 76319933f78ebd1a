package main

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nording/breathe/internal/domain"
	"github.com/nording/breathe/internal/http"
	"github.com/nording/breathe/internal/practice"
)

func listPatterns(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patterns, err := svc.Patterns(GetUserId(r))
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, patterns, http.StatusOK)
	}
}

func createPattern(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.BreathingPattern
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		pattern, err := svc.CreatePattern(GetUserId(r), req)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, pattern, http.StatusCreated)
	}
}

func getPattern(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		pattern, err := svc.Pattern(GetUserId(r), id)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, pattern, http.StatusOK)
	}
}

func updatePattern(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req domain.BreathingPattern
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		pattern, err := svc.UpdatePattern(GetUserId(r), id, req)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, pattern, http.StatusOK)
	}
}

func deletePattern(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := svc.DeletePattern(GetUserId(r), id); err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func getPreferences(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		prefs, err := svc.Preferences(GetUserId(r))
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, prefs, http.StatusOK)
	}
}

func updatePreferences(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req domain.Preferences
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		prefs, err := svc.UpdatePreferences(GetUserId(r), req)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, prefs, http.StatusOK)
	}
}
