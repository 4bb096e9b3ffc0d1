package main

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/hairizuan-noorazman/browser-bridge/cmd/bridge/handlers"
	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
)

// routes lists what the HTTP surface needs from the application.
type routes struct {
	runner   handlers.TestRunner
	sessions handlers.SessionCounter
	history  history.Store
	metrics  http.Handler
	log      logger.Logger
}

func newRouter(rt routes) *mux.Router {
	router := mux.NewRouter()
	router.Use(handlers.NewRequestLogger(rt.log).Handler)

	healthHandler := handlers.NewHealthHandler(rt.sessions, ServiceName, Version)
	router.HandleFunc("/", healthHandler.Root).Methods("GET")
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")

	executeHandler := handlers.NewExecuteHandler(rt.runner, rt.log)
	router.HandleFunc("/execute-test", executeHandler.Execute).Methods("POST")

	if rt.metrics != nil {
		router.Handle("/metrics", rt.metrics).Methods("GET")
	}

	runsHandler := handlers.NewRunsHandler(rt.history, rt.log)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/runs", runsHandler.List).Methods("GET")
	apiRouter.HandleFunc("/runs/{id}", runsHandler.GetByID).Methods("GET")

	return router
}
