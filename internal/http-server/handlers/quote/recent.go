package quote

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"MudaBot/entity"
	"MudaBot/internal/lib/api/response"
	"MudaBot/internal/lib/sl"
)

// Core lists the persisted quotes for the dashboard.
type Core interface {
	RecentQuotes(ctx context.Context, limit int64) ([]entity.QuoteRecord, error)
}

type recentResponse struct {
	response.Response
	Quotes []entity.QuoteRecord `json:"quotes"`
}

// Recent returns the latest quotes, newest first. ?limit=N caps the page
// size (default 20, max 100).
func Recent(log *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.quote"))

		limit := int64(20)
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil && n > 0 && n <= 100 {
				limit = n
			}
		}

		quotes, err := core.RecentQuotes(r.Context(), limit)
		if err != nil {
			logger.Error("listing quotes", sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to list quotes"))
			return
		}

		render.JSON(w, r, recentResponse{
			Response: response.OK(),
			Quotes:   quotes,
		})
	}
}
