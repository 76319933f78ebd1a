package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nording/breathe/internal/domain"
	"github.com/nording/breathe/internal/http"
	"github.com/nording/breathe/internal/practice"
)

func startSession(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PatternID string `json:"patternId"`
			TargetSec int    `json:"targetSec"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		session, err := svc.Start(GetUserId(r), req.PatternID, req.TargetSec)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, session, http.StatusCreated)
	}
}

func completeSession(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		var req struct {
			ActualSec int    `json:"actualSec"`
			Timezone  string `json:"timezone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		session, stats, err := svc.Complete(GetUserId(r), id, req.ActualSec, req.Timezone)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		resp := struct {
			Session *domain.Session   `json:"session"`
			Stats   *domain.UserStats `json:"stats,omitempty"`
		}{
			Session: session,
			Stats:   stats,
		}
		httpapi.JSON(w, resp, http.StatusOK)
	}
}

func getSession(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		session, err := svc.Get(GetUserId(r), id)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, session, http.StatusOK)
	}
}

func listSessions(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				httpapi.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		sessions, err := svc.History(GetUserId(r), limit)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, sessions, http.StatusOK)
	}
}

func getStats(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.Stats(GetUserId(r))
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, stats, http.StatusOK)
	}
}

func getWeek(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tz := r.URL.Query().Get("tz")
		date := r.URL.Query().Get("date")

		week, err := svc.WeeklyCalendar(GetUserId(r), tz, date)
		if err != nil {
			httpapi.ErrorFrom(w, err)
			return
		}

		httpapi.JSON(w, week, http.StatusOK)
	}
}
