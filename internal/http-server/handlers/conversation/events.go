package conversation

import (
	"Sobaken/impl/core"
	"Sobaken/internal/lib/api/response"
	"Sobaken/internal/lib/sl"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"strconv"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

func Events(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := chi.URLParam(r, "chat_id")

		limit := int64(defaultLimit)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || n < 1 || n > maxLimit {
				render.Status(r, http.StatusBadRequest)
				render.JSON(w, r, response.Error("limit must be between 1 and 500"))
				return
			}
			limit = n
		}

		events, err := handler.ChatEvents(r.Context(), chatID, limit)
		if errors.Is(err, core.ErrNoJournal) {
			render.Status(r, http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("Event journal is not enabled"))
			return
		}
		if err != nil {
			log.Error("chat events", slog.String("chat_id", chatID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to load events"))
			return
		}

		render.JSON(w, r, response.Ok(events))
	}
}
