package conversation

import (
	"Sobaken/internal/lib/api/response"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
)

func Chains(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chains := handler.ActiveChains()
		log.Debug("active chains", slog.Int("count", len(chains)))
		render.JSON(w, r, response.Ok(chains))
	}
}

func Chats(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		chats := handler.ActiveChats()
		log.Debug("active chats", slog.Int("count", len(chats)))
		render.JSON(w, r, response.Ok(chats))
	}
}
