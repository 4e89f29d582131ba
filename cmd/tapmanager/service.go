package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/graphprotocol/tap-manager/aggregator"
	"github.com/graphprotocol/tap-manager/checks"
	"github.com/graphprotocol/tap-manager/config"
	"github.com/graphprotocol/tap-manager/manager"
	"github.com/graphprotocol/tap-manager/store/memory"
	"github.com/graphprotocol/tap-manager/tap"
	"github.com/graphprotocol/tap-manager/watermark"
	"github.com/streamingfast/eth-go"
	"github.com/streamingfast/shutter"
	"go.uber.org/zap"
)

// Service wires the manager, the in-memory stores, and the demo
// reference aggregator into a runnable process: an HTTP endpoint for
// receipt ingest, and a RAV request fired in its own goroutine for an
// allocation each time its receipt count reaches ravTriggerCount, following
// spec.md §9's resolution that the manager itself never self-triggers.
type Service struct {
	*shutter.Shutter

	listenAddr      string
	logger          *zap.Logger
	domain          *tap.Domain
	mgr             *manager.Manager
	agg             *aggregator.Aggregator
	receipts        *memory.ReceiptStore
	allocations     *memory.AddressAllowList
	senders         *memory.AddressAllowList
	aggregators     *memory.AddressAllowList
	appraisals      *memory.AppraisalStore
	wm              *watermark.Watermark
	ravBufferNs     uint64
	ravTriggerCount int

	server *http.Server

	mu       sync.Mutex
	counters map[string]int
}

// ServiceConfig bundles Service's construction arguments.
type ServiceConfig struct {
	ListenAddr      string
	Domain          *tap.Domain
	AggregatorKey   *eth.PrivateKey
	Seed            *config.Resolved
	RAVBufferNs     uint64
	RAVTriggerCount int
}

// NewService builds a Service over fresh in-memory stores seeded from
// cfg.Seed.
func NewService(cfg *ServiceConfig, logger *zap.Logger) *Service {
	receipts := memory.NewReceiptStore()
	ravs := memory.NewRAVStore()
	escrow := memory.NewEscrowStore()
	appraisals := memory.NewAppraisalStore()
	allocations := memory.NewAddressAllowList(cfg.Seed.AllocationAllowlist...)
	senders := memory.NewAddressAllowList(cfg.Seed.SenderAllowlist...)
	aggregators := memory.NewAddressAllowList(cfg.Seed.AggregatorAllowlist...)
	wm := watermark.New(0)

	ctx := context.Background()
	for requestID, value := range cfg.Seed.Appraisals {
		_ = appraisals.Set(ctx, requestID, value)
	}

	mgr := manager.New(cfg.Domain, receipts, ravs, escrow, wm, manager.WithLogger(logger))
	agg := aggregator.New(cfg.Domain, cfg.AggregatorKey, cfg.Seed.SenderAllowlist)

	return &Service{
		Shutter:         shutter.New(),
		listenAddr:      cfg.ListenAddr,
		logger:          logger,
		domain:          cfg.Domain,
		mgr:             mgr,
		agg:             agg,
		receipts:        receipts,
		allocations:     allocations,
		senders:         senders,
		aggregators:     aggregators,
		appraisals:      appraisals,
		wm:              wm,
		ravBufferNs:     cfg.RAVBufferNs,
		ravTriggerCount: cfg.RAVTriggerCount,
		counters:        make(map[string]int),
	}
}

// Run starts the HTTP server and blocks until it terminates; wired as a
// shutter-supervised component the same way provider/sidecar.Sidecar.Run
// wires its connectrpc server.
func (s *Service) Run() {
	mux := http.NewServeMux()
	mux.HandleFunc("/receipts", s.handleSubmitReceipt)

	s.server = &http.Server{Addr: s.listenAddr, Handler: mux}

	s.OnTerminating(func(_ error) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(ctx)
	})

	s.logger.Info("starting tap-manager demo server", zap.String("listen_addr", s.listenAddr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.Shutdown(err)
	}
}

type submitReceiptRequest struct {
	Receipt   *tap.SignedReceipt `json:"receipt"`
	RequestID string             `json:"request_id"`
}

func (s *Service) handleSubmitReceipt(w http.ResponseWriter, r *http.Request) {
	var req submitReceiptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
		return
	}

	pipeline := checks.NewPipeline(
		checks.AllocationIDCheck(s.allocations),
		checks.SignatureCheck(s.domain, s.senders),
		checks.TimestampCheck(s.wm),
		checks.UniqueCheck(s.domain, s.receipts),
		checks.ValueCheck(s.domain, s.appraisals, req.RequestID),
	)

	if err := s.mgr.VerifyAndStoreReceipt(r.Context(), req.Receipt, req.RequestID, pipeline); err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	allocationID := req.Receipt.Message.AllocationID
	if s.bumpCounter(allocationID) {
		go s.triggerRAV(context.Background(), allocationID)
	}

	w.WriteHeader(http.StatusAccepted)
}

// bumpCounter increments the per-allocation receipt counter and reports
// whether it just crossed the trigger threshold.
func (s *Service) bumpCounter(allocationID eth.Address) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := allocationID.Pretty()
	s.counters[key]++
	if s.counters[key] >= s.ravTriggerCount {
		s.counters[key] = 0
		return true
	}
	return false
}

func (s *Service) triggerRAV(ctx context.Context, allocationID eth.Address) {
	req, err := s.mgr.CreateRAVRequest(ctx, allocationID, s.ravBufferNs)
	if err != nil {
		s.logger.Warn("RAV request creation skipped", zap.Error(err), zap.Stringer("allocation_id", allocationID))
		return
	}

	signed, err := s.agg.AggregateReceipts(req.ValidReceipts, req.PreviousRAV)
	if err != nil {
		s.logger.Error("reference aggregator rejected RAV request", zap.Error(err), zap.Stringer("allocation_id", allocationID))
		return
	}

	if err := s.mgr.VerifyAndStoreRAV(ctx, allocationID, req.ExpectedRAV, signed, s.aggregators); err != nil {
		s.logger.Error("failed to verify and store aggregator RAV", zap.Error(err), zap.Stringer("allocation_id", allocationID))
		return
	}

	s.logger.Info("RAV cycle complete",
		zap.Stringer("allocation_id", allocationID),
		zap.Int("receipts_absorbed", len(req.ValidReceipts)),
		zap.String("value_aggregate", req.ExpectedRAV.ValueAggregate.String()))
}
