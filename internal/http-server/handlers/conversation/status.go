package conversation

import (
	"Sobaken/internal/lib/api/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func Status(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := chi.URLParam(r, "chat_id")
		if chatID == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Missing chat_id"))
			return
		}

		status := handler.ChatStatus(chatID)
		log.Debug("chat status",
			slog.String("chat_id", chatID),
			slog.String("state", status.State),
		)

		render.JSON(w, r, response.Ok(status))
	}
}
