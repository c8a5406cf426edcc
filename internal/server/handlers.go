// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/pdiddy/book-metasearch/internal/quota"
	"github.com/pdiddy/book-metasearch/internal/search"
	"github.com/pdiddy/book-metasearch/internal/session"
)

type searchRequest struct {
	Query string `validate:"max=200"`
}

type pageRequest struct {
	Source string `validate:"required,source"`
	Page   int    `validate:"gte=1,lte=100000"`
}

// session returns the caller's session, creating one and setting the
// cookie when the request carries none or an expired one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *session.Session {
	id := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		id = c.Value
	}
	sess, created := s.Sessions.GetOrCreate(id)
	if created {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return sess
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req := searchRequest{Query: r.URL.Query().Get("q")}
	if details := s.check(req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid search request", details)
		return
	}

	sess := s.session(w, r)
	res, err := s.Engine.Submit(r.Context(), sess, req.Query)
	if err != nil {
		s.writeEngineError(w, r, err, res)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := pageRequest{Source: q.Get("source")}
	if p := q.Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid page request",
				[]errorDetail{{Field: "page", Message: "page must be a number"}})
			return
		}
		req.Page = n
	}
	if details := s.check(req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_request", "invalid page request", details)
		return
	}

	sess := s.session(w, r)
	res, err := s.Engine.Navigate(r.Context(), sess, req.Source, req.Page)
	if err != nil {
		s.writeEngineError(w, r, err, res)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}

// handleSession re-renders the caller's current view without moving any
// cursor.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := s.session(w, r)
	writeJSON(w, r, http.StatusOK, s.Engine.Render(r.Context(), sess))
}

func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(SessionCookie); err == nil {
		s.Sessions.Delete(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Path: "/", MaxAge: -1})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	if s.Engine.Quota == nil {
		writeError(w, r, http.StatusNotFound, "quota_disabled", "daily quota is not enabled", nil)
		return
	}
	u, err := s.Engine.Quota.Usage(r.Context())
	if err != nil {
		s.Logger.Error("reading quota usage", "error", err, "request_id", requestIDFrom(r))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "could not read quota usage", nil)
		return
	}
	writeJSON(w, r, http.StatusOK, u)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := w.Write([]byte("OK")); err != nil {
		s.Logger.Error("writing healthcheck", "error", err)
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error, res search.Result) {
	switch {
	case errors.Is(err, quota.ErrQuotaExceeded):
		writeErrorWithData(w, r, http.StatusTooManyRequests, "quota_exceeded", err.Error(), res.Usage)
	case errors.Is(err, search.ErrNoActiveSearch):
		writeError(w, r, http.StatusConflict, "no_active_search", "submit a keyword first", nil)
	case errors.Is(err, search.ErrUnknownSource):
		writeError(w, r, http.StatusNotFound, "unknown_source", err.Error(), nil)
	default:
		s.Logger.Error("search failed", "error", err, "request_id", requestIDFrom(r))
		writeError(w, r, http.StatusInternalServerError, "internal_error", "search failed", nil)
	}
}
