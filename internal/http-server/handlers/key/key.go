package key

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"

	"MudaBot/internal/lib/api/response"
	"MudaBot/internal/lib/sl"
)

// Core issues dashboard API keys.
type Core interface {
	GenerateApiKey(username string) (string, error)
}

type keyResponse struct {
	response.Response
	Username string `json:"username"`
	Key      string `json:"key"`
}

// Generate returns the API key for ?username=, minting one if needed.
func Generate(log *slog.Logger, core Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(sl.Module("http.handlers.key"))

		username := r.URL.Query().Get("username")
		if username == "" {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("Username is required"))
			return
		}

		apiKey, err := core.GenerateApiKey(username)
		if err != nil {
			logger.Error("generating api key", slog.String("username", username), sl.Err(err))
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, response.Error("Failed to generate api key"))
			return
		}

		render.JSON(w, r, keyResponse{
			Response: response.OK(),
			Username: username,
			Key:      apiKey,
		})
	}
}
