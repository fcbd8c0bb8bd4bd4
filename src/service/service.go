package service

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/zialiel/zialiel/src/node"
)

// Service ...
type Service struct {
	sync.Mutex

	bindAddress string
	node        *node.Node
	router      *mux.Router
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n *node.Node, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		router:      mux.NewRouter(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering Zialiel API handlers")
	s.router.HandleFunc("/stats", s.makeHandler(s.GetStats)).Methods("GET")
	s.router.HandleFunc("/balance/{account}", s.makeHandler(s.GetBalance)).Methods("GET")
	s.router.HandleFunc("/pools", s.makeHandler(s.GetPools)).Methods("GET")
	s.router.HandleFunc("/checkpoint/{digest}", s.makeHandler(s.GetCheckpoint)).Methods("GET")
	s.router.HandleFunc("/checkpoints", s.makeHandler(s.GetCheckpoints)).Methods("GET")
	s.router.HandleFunc("/tips", s.makeHandler(s.GetTips)).Methods("GET")
	s.router.HandleFunc("/committee", s.makeHandler(s.GetCommittee)).Methods("GET")
	s.router.Handle("/metrics", promhttp.Handler()).Methods("GET")
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Lock()
		defer s.Unlock()

		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		fn(w, r)
	}
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving Zialiel API")

	err := http.ListenAndServe(s.bindAddress, s.router)
	if err != nil {
		s.logger.Error(err)
	}
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	stats := s.node.GetStats()

	returnJSON(w, stats)
}

// GetBalance returns the balance of a single account.
func (s *Service) GetBalance(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]

	res := map[string]interface{}{
		"account": account,
		"balance": s.node.Ledger().GetBalance(account),
	}

	returnJSON(w, res)
}

// GetPools returns the balances of the fee pools.
func (s *Service) GetPools(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.node.Ledger().PoolBalances())
}

// GetCheckpoint returns a checkpoint by digest.
func (s *Service) GetCheckpoint(w http.ResponseWriter, r *http.Request) {
	digest := mux.Vars(r)["digest"]

	checkpoint, err := s.node.Store().GetCheckpoint(digest)
	if err != nil {
		s.logger.WithError(err).Errorf("Retrieving checkpoint %s", digest)

		http.Error(w, err.Error(), http.StatusNotFound)

		return
	}

	returnJSON(w, checkpoint)
}

// GetCheckpoints returns the digests of all stored checkpoints in insertion
// order.
func (s *Service) GetCheckpoints(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.node.Store().Checkpoints())
}

// GetTips returns the current frontier of the batch DAG.
func (s *Service) GetTips(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.node.Store().Tips())
}

// GetCommittee returns the current committee members.
func (s *Service) GetCommittee(w http.ResponseWriter, r *http.Request) {
	returnJSON(w, s.node.Committee().Current())
}

func returnJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(v)
}
