package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	whatsappbot "MudaBot/bot/whatsapp"
	"MudaBot/internal/config"
	"MudaBot/internal/http-server/handlers/errors"
	"MudaBot/internal/http-server/handlers/key"
	"MudaBot/internal/http-server/handlers/quote"
	"MudaBot/internal/http-server/handlers/whatsapp"
	"MudaBot/internal/http-server/middleware/authenticate"
	"MudaBot/internal/lib/sl"
	"MudaBot/internal/ws"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

// Handler aggregates the backends the API routes need.
type Handler interface {
	authenticate.Authenticate
	quote.Core
	key.Core
	ws.Authenticator
}

// New builds the router and serves it. Blocks until the server stops.
// The webhook routes stay public (the messaging platform calls them); the
// dashboard API sits behind the api-key middleware.
func New(conf *config.Config, log *slog.Logger, bot *whatsappbot.WhatsAppBot, hub *ws.Hub, handler Handler) error {
	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Get("/webhook", whatsapp.WebhookVerify(log, bot))
	router.Post("/webhook", whatsapp.WebhookHandler(log, bot))

	router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWs(hub, handler, log, w, r)
	})

	router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(render.SetContentType(render.ContentTypeJSON))
		v1.Use(authenticate.New(log, handler))
		v1.Route("/quotes", func(r chi.Router) {
			r.Get("/recent", quote.Recent(log, handler))
		})
		v1.Post("/key", key.Generate(log, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  router,
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
