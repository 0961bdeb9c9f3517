package main

import (
	"encoding/json"
	"net/http"

	"github.com/dagmesh/dagindexd/dagindex"
	"github.com/dagmesh/dagindexd/logger"
	"github.com/dagmesh/dagindexd/util/panics"
	"github.com/gorilla/mux"
)

type statusServer struct {
	router *mux.Router
	index  *dagindex.DagIndex
	walker *dagindex.Walker
}

type statusResponse struct {
	Order                   int64             `json:"order"`
	MissingParentRecoveries uint64            `json:"missingParentRecoveries"`
	PanicsRecovered         uint64            `json:"panicsRecovered"`
	LogLevels               map[string]string `json:"logLevels"`
}

func newStatusServer(index *dagindex.DagIndex, walker *dagindex.Walker) *statusServer {
	s := &statusServer{router: mux.NewRouter(), index: index, walker: walker}
	s.router.HandleFunc("/status", s.handleStatus).Methods("GET")
	return s
}

func (s *statusServer) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s.router)
}

func (s *statusServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	order, err := s.index.GetOrder()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		Order:                   order,
		MissingParentRecoveries: s.index.MissingParentRecoveries(),
		PanicsRecovered:         panics.Count(),
		LogLevels:               logger.LevelSnapshot(),
	})
}
