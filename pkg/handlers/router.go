// Package handlers wires the HTTP surface served to the local UI.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sendlink/sendlink/pkg/handlers/messages"
	"github.com/sendlink/sendlink/pkg/handlers/payments"
	"github.com/sendlink/sendlink/pkg/handlers/threads"
	"github.com/sendlink/sendlink/pkg/middleware"
	"github.com/sendlink/sendlink/pkg/telemetry"
)

// NewRouter mounts every handler on a chi router with the shared middleware
// stack.
func NewRouter(mh *messages.MessagesHandler, ph *payments.PaymentsHandler, th *threads.ThreadsHandler, logger *slog.Logger) chi.Router {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	if logger != nil {
		r.Use(middleware.NewStructuredLogger(logger))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Method(http.MethodGet, "/metrics", telemetry.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Get("/threads", th.ListThreads)
		r.Get("/threads/{threadId}", func(w http.ResponseWriter, req *http.Request) {
			th.GetThreadById(w, req, chi.URLParam(req, "threadId"))
		})
		r.Get("/threads/{threadId}/messages", func(w http.ResponseWriter, req *http.Request) {
			th.ListThreadMessages(w, req, chi.URLParam(req, "threadId"))
		})
		r.Post("/threads/{threadId}/archive", func(w http.ResponseWriter, req *http.Request) {
			th.ArchiveThread(w, req, chi.URLParam(req, "threadId"))
		})

		r.Post("/messages", mh.SendMessage)
		r.Get("/messages/{messageId}", func(w http.ResponseWriter, req *http.Request) {
			mh.GetMessageById(w, req, chi.URLParam(req, "messageId"))
		})
		r.Post("/messages/{messageId}/read", func(w http.ResponseWriter, req *http.Request) {
			mh.MarkRead(w, req, chi.URLParam(req, "messageId"))
		})
		r.Post("/messages/{messageId}/retract", func(w http.ResponseWriter, req *http.Request) {
			mh.Retract(w, req, chi.URLParam(req, "messageId"))
		})

		r.Post("/payments", ph.SendPayment)
		r.Get("/payments/{paymentId}", func(w http.ResponseWriter, req *http.Request) {
			ph.GetPaymentById(w, req, chi.URLParam(req, "paymentId"))
		})
		r.Get("/risklog", ph.ListRiskLog)
	})

	return r
}
