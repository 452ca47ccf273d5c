package conversation

import (
	"Sobaken/bot/chat"
	"Sobaken/internal/lib/api/response"
	"Sobaken/internal/lib/sl"
	"errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func Reset(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chatID := chi.URLParam(r, "chat_id")

		err := handler.ResetChat(chatID)
		if errors.Is(err, chat.ErrChainRunning) {
			render.Status(r, http.StatusConflict)
			render.JSON(w, r, response.Error("Walk in progress, try again when it is over"))
			return
		}
		if err != nil {
			log.Error("reset chat", slog.String("chat_id", chatID), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Reset failed"))
			return
		}

		render.JSON(w, r, response.Ok(handler.ChatStatus(chatID)))
	}
}
