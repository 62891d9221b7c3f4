package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/warp/wochennachweis/generic"
	"github.com/warp/wochennachweis/report"
)

// currentSession returns the session named by the request cookie. With
// create set, a missing or expired session is replaced by a fresh one and
// the cookie is (re)issued.
func (h *Handler) currentSession(ctx context.Context, w http.ResponseWriter, r *http.Request, create bool) (*generic.Session, error) {
	if c, err := r.Cookie(h.CookieName); err == nil && c.Value != "" {
		sess, err := h.Sessions.GetSession(ctx, c.Value)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, generic.ErrSessionNotFound) {
			return nil, err
		}
	}

	if !create {
		return nil, generic.ErrSessionNotFound
	}

	sess, err := h.Sessions.CreateSession(ctx)
	if err != nil {
		return nil, err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return sess, nil
}

func (h *Handler) expireCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func toSessionDTO(s *generic.Session) SessionDTO {
	return SessionDTO{
		Person:     toPersonDTO(s.Person),
		Zeitraeume: toZeitraumDTOs(s.Zeitraeume),
		Warnings:   orEmpty(report.Warnings(s.Zeitraeume)),
	}
}
