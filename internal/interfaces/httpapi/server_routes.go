package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metricsHandler http.Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}
}

func registerWorkerRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.HandleFunc("GET /v1/worker/status", handler.WorkerStatus)
	mux.HandleFunc("GET /v1/worker/runs", handler.ListWorkerRuns)
	mux.Handle("POST /v1/worker/run", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.TriggerPriceRun)))
}
