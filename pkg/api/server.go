package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/clobx/matchbook/pkg/engine"
	"github.com/clobx/matchbook/pkg/util"
)

// recentTradesCap bounds the in-memory trade tape served over REST.
const recentTradesCap = 1000

// Server exposes the book over REST and WebSocket. It is also the book's
// single serializing point: the engine does no internal locking, so every
// Process call goes through s.mu.
type Server struct {
	mu   sync.Mutex
	book *engine.Orderbook
	seq  *util.Sequencer

	router  *mux.Router
	hub     *Hub
	log     *zap.SugaredLogger
	origins []string

	recent []TradeInfo

	// onTrades, when set, receives every batch of executed trades;
	// the daemon wires it to the settlement packager.
	onTrades func([]engine.Trade)
}

func NewServer(book *engine.Orderbook, seq *util.Sequencer, origins []string, log *zap.SugaredLogger) *Server {
	s := &Server{
		book:    book,
		seq:     seq,
		router:  mux.NewRouter(),
		hub:     NewHub(log),
		log:     log,
		origins: origins,
	}
	s.setupRoutes()
	return s
}

// OnTrades registers the downstream trade sink. It is called while the
// book is locked, so the sink needs no synchronization of its own but must
// not submit orders back. Set before Start.
func (s *Server) OnTrades(fn func([]engine.Trade)) { s.onTrades = fn }

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orderbook", s.handleGetOrderbook).Methods("GET")
	api.HandleFunc("/bbo", s.handleGetBBO).Methods("GET")
	api.HandleFunc("/trades", s.handleGetTrades).Methods("GET")

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Start runs the hub and serves until the listener fails.
func (s *Server) Start(addr string) error {
	go s.hub.Run()

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})

	if s.log != nil {
		s.log.Infow("api_listening", "addr", addr)
	}
	return http.ListenAndServe(addr, c.Handler(s.router))
}

// Handler returns the routed handler; tests drive it via httptest.
func (s *Server) Handler() http.Handler { return s.router }

// ==============================
// REST handlers
// ==============================

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	var side engine.Side
	switch req.Side {
	case 0:
		side = engine.Buy
	case 1:
		side = engine.Sell
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("side must be 0 (buy) or 1 (sell), got %d", req.Side))
		return
	}
	id := req.OrderID
	if id == 0 {
		id = s.seq.NextID()
	}

	var (
		o   *engine.Order
		err error
	)
	switch req.Type {
	case "limit", "":
		o, err = engine.NewLimitOrder(id, side, req.Price, req.Size, s.seq.Next(), req.Trader)
	case "market":
		o, err = engine.NewMarketOrder(id, side, req.Size, s.seq.Next(), req.Trader)
	default:
		writeError(w, http.StatusBadRequest, "unknown order type: "+req.Type)
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.SignatureType != "" || req.R != "" {
		o.SetSignature(engine.Signature{Type: req.SignatureType, V: req.V, R: req.R, S: req.S})
	}

	s.mu.Lock()
	trades, status := s.book.Process(o)
	s.record(trades)
	if len(trades) > 0 {
		// Rotate the engine's log so it never accumulates; the drained
		// batch is this call's fills. The settlement sink is not safe for
		// concurrent callers, so it runs under the same lock that
		// serializes the book.
		settled := s.book.DrainTrades()
		if s.onTrades != nil {
			s.onTrades(settled)
		}
	}
	s.mu.Unlock()

	for _, t := range trades {
		s.hub.Broadcast(WSMessage{Type: "trade", Data: tradeInfo(t)})
	}

	resp := SubmitOrderResponse{
		OrderID:   o.ID,
		Status:    status.String(),
		Remaining: o.Remaining,
		Trades:    make([]TradeInfo, 0, len(trades)),
	}
	for _, t := range trades {
		resp.Trades = append(resp.Trades, tradeInfo(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	s.mu.Lock()
	_, status := s.book.Process(engine.NewCancelOrder(req.OrderID))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, CancelOrderResponse{OrderID: req.OrderID, Status: status.String()})
}

func (s *Server) handleGetOrderbook(w http.ResponseWriter, r *http.Request) {
	n := 0
	if v := r.URL.Query().Get("depth"); v != "" {
		// Bad values fall through to full depth.
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			n = parsed
		}
	}

	s.mu.Lock()
	snap := OrderbookSnapshot{
		Bids:      s.book.BidDepth(n),
		Asks:      s.book.AskDepth(n),
		Timestamp: time.Now().UnixMilli(),
	}
	s.mu.Unlock()

	if snap.Bids == nil {
		snap.Bids = []engine.PriceLevel{}
	}
	if snap.Asks == nil {
		snap.Asks = []engine.PriceLevel{}
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleGetBBO(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	bid, hasBid := s.book.BestBid()
	ask, hasAsk := s.book.BestAsk()
	s.mu.Unlock()

	var resp BBOResponse
	if hasBid {
		resp.Bid = &bid
	}
	if hasAsk {
		resp.Ask = &ask
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTrades(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]TradeInfo, len(s.recent))
	copy(out, s.recent)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// record appends to the recent-trade tape; caller holds s.mu.
func (s *Server) record(trades []engine.Trade) {
	for _, t := range trades {
		s.recent = append(s.recent, tradeInfo(t))
	}
	if len(s.recent) > recentTradesCap {
		s.recent = s.recent[len(s.recent)-recentTradesCap:]
	}
}

// ==============================
// helpers
// ==============================

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

