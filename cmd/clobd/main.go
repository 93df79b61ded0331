package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/clobx/matchbook/params"
	"github.com/clobx/matchbook/pkg/api"
	"github.com/clobx/matchbook/pkg/engine"
	"github.com/clobx/matchbook/pkg/ingest"
	"github.com/clobx/matchbook/pkg/settlement"
	"github.com/clobx/matchbook/pkg/util"
)

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile)

	// ---- Matching engine ----
	book := engine.NewOrderbook(nil)
	seq := util.NewSequencer(nil)

	// ---- Settlement pipeline ----
	packager := settlement.NewPackager(settlement.Config{
		CashToken:     common.HexToAddress(cfg.Settlement.CashToken),
		SecurityToken: common.HexToAddress(cfg.Settlement.SecurityToken),
		FeeRecipient:  common.HexToAddress(cfg.Settlement.FeeRecipient),
		Expiry:        cfg.Settlement.Expiry,
	})

	archive, err := settlement.OpenArchive(cfg.Settlement.ArchivePath)
	if err != nil {
		sugar.Fatalw("archive_open_failed", "path", cfg.Settlement.ArchivePath, "err", err)
	}
	defer archive.Close()
	sugar.Infow("archive_opened", "path", cfg.Settlement.ArchivePath, "trades", archive.Len())

	var submitter *settlement.Submitter
	if cfg.Settlement.VenueURL != "" {
		submitter = settlement.NewSubmitter(cfg.Settlement.VenueURL, sugar)
		sugar.Infow("settlement_venue_configured", "url", cfg.Settlement.VenueURL)
	} else {
		sugar.Info("settlement_venue_disabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Startup replay (optional) ----
	if cfg.IngestPath != "" {
		records, err := ingest.LoadFile(cfg.IngestPath)
		if err != nil {
			sugar.Fatalw("ingest_load_failed", "path", cfg.IngestPath, "err", err)
		}
		res := ingest.Apply(book, seq, records, sugar)
		sugar.Infow("ingest_applied",
			"path", cfg.IngestPath,
			"orders", res.Orders,
			"rejected", res.Rejected,
			"trades", len(res.Trades))
		settle(ctx, sugar, packager, archive, submitter, res.Trades)
	}

	// ---- API server ----
	server := api.NewServer(book, seq, cfg.API.AllowedOrigins, sugar)
	server.OnTrades(func(trades []engine.Trade) {
		settle(ctx, sugar, packager, archive, submitter, trades)
	})

	go func() {
		if err := server.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	sugar.Infow("matchbook_started", "addr", cfg.API.Addr, "chain_id", cfg.ChainID)

	<-ctx.Done()
	sugar.Info("shutting_down")
}

// settle packages executed trades, archives them, and forwards them to the
// venue when one is configured. Archive write failures are fatal: losing a
// packaged trade means a fill that never settles.
func settle(ctx context.Context, sugar *zap.SugaredLogger, packager *settlement.Packager, archive *settlement.Archive, submitter *settlement.Submitter, trades []engine.Trade) {
	if len(trades) == 0 {
		return
	}

	ready := packager.Package(trades)
	start, err := archive.Append(ready)
	if err != nil {
		sugar.Fatalw("archive_append_failed", "err", err)
	}
	sugar.Infow("trades_packaged", "count", len(ready), "first_seq", start)

	if submitter == nil {
		return
	}
	subCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := submitter.Submit(subCtx, ready); err != nil {
		// Submission is retryable from the archive; don't take the
		// book down over a venue outage.
		sugar.Warnw("settlement_submit_failed", "err", err)
	}
}
