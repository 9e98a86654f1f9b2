// Command celsius runs the weather prediction-market trading engine: it
// polls Polymarket for tradable temperature markets, evaluates them
// against NOAA/Open-Meteo forecasts and the sum-to-one arbitrage check,
// passes candidate signals through the risk gate, and executes them
// (in paper or live mode) while the circuit breaker and ledger track
// state.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os/signal"
	"syscall"
	"time"

	"github.com/nagavaishak/celsius-go/internal/cache"
	"github.com/nagavaishak/celsius-go/internal/clob"
	"github.com/nagavaishak/celsius-go/internal/config"
	"github.com/nagavaishak/celsius-go/internal/csvlog"
	"github.com/nagavaishak/celsius-go/internal/gamma"
	"github.com/nagavaishak/celsius-go/internal/ledger"
	"github.com/nagavaishak/celsius-go/internal/market"
	"github.com/nagavaishak/celsius-go/internal/metrics"
	"github.com/nagavaishak/celsius-go/internal/recovery"
	"github.com/nagavaishak/celsius-go/internal/risk"
	"github.com/nagavaishak/celsius-go/internal/simulator"
	"github.com/nagavaishak/celsius-go/internal/strategy"
	"github.com/nagavaishak/celsius-go/internal/telegram"
	"github.com/nagavaishak/celsius-go/internal/wallet"
	"github.com/nagavaishak/celsius-go/internal/weather"
	"github.com/redis/go-redis/v9"

	"net/http"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to TOML configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("celsius: load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("celsius: invalid config: %v", err)
	}

	secrets, err := config.LoadSecrets()
	if err != nil {
		log.Fatalf("celsius: load secrets: %v", err)
	}

	log.Printf("celsius: starting (dry_run=%v db=%s storage=%s cache=%s)",
		cfg.System.DryRun, cfg.System.DatabasePath, cfg.System.StorageBackend, cfg.System.CacheBackend)

	store, err := openStore(cfg, secrets)
	if err != nil {
		log.Fatalf("celsius: open ledger: %v", err)
	}
	defer store.Close()

	signerWallet, err := wallet.NewWalletFromHex(secrets.WalletPrivateKey)
	if err != nil {
		log.Fatalf("celsius: load wallet: %v", err)
	}
	log.Printf("celsius: trading wallet %s", signerWallet.AddressHex())

	clobClient := clob.NewClient(secrets.PolymarketAPIKey, secrets.PolymarketAPISecret, secrets.PolymarketAPIPassphrase, signerWallet.AddressHex())
	orderBuilder := clob.NewOrderBuilder(signerWallet, secrets.PolymarketAPIKey)

	bot, err := telegram.NewBot(secrets.TelegramBotToken, secrets.TelegramChatID)
	if err != nil {
		log.Fatalf("celsius: telegram: %v", err)
	}
	bot.SetDryRun(cfg.System.DryRun)
	_ = bot.NotifyStarted()
	defer bot.NotifyStopped()

	var csvLogger *csvlog.Logger
	if cfg.Monitoring.CSVLogging {
		csvLogger, err = csvlog.New(cfg.Monitoring.CSVLogPath)
		if err != nil {
			log.Fatalf("celsius: open csv log: %v", err)
		}
		defer csvLogger.Close()
	}

	if cfg.Monitoring.PrometheusEnabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Printf("celsius: prometheus metrics on :9090/metrics")
			if err := http.ListenAndServe(":9090", mux); err != nil {
				log.Printf("celsius: metrics server stopped: %v", err)
			}
		}()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	recoveryRunner := recovery.New(store, nil, nil, log.Default())
	if err := recoveryRunner.Run(ctx); err != nil {
		log.Printf("celsius: recovery: %v", err)
	}

	sim := simulator.New(simulator.Config{
		FillRate:           cfg.PaperTrading.FillRate,
		SlippagePct:        cfg.PaperTrading.SlippagePct,
		InitialBalanceUSD:  cfg.PaperTrading.InitialBalanceUSD,
	}, rand.New(rand.NewSource(time.Now().UnixNano())))

	priceCache, err := openPriceCache(cfg, secrets)
	if err != nil {
		log.Fatalf("celsius: open price cache: %v", err)
	}
	weatherClient := weather.NewClient(time.Duration(cfg.Infra.RPCTimeoutSecs) * time.Second)
	gammaClient := gamma.NewClient()

	weatherEval := strategy.NewWeatherEdgeEvaluator(strategy.WeatherEdgeConfig{
		MinEdge:        cfg.Strategies.Weather.MinEdge,
		MaxPositionPct: cfg.Risk.MaxPositionPct,
	}, weatherClient, log.Default())

	arbEval := strategy.NewSumToOneArbEvaluator(strategy.SumToOneArbConfig{
		MinSpread:      cfg.Strategies.Arbitrage.MinSpread,
		MaxPositionPct: cfg.Risk.MaxPositionPct,
	}, priceCache)

	riskManager := risk.New(risk.Config{
		MaxPositionSizeUSD:        cfg.Risk.MaxPositionSizeUSD,
		MaxPositionPct:            cfg.Risk.MaxPositionPct,
		MaxOpenPositions:          cfg.Risk.MaxOpenPositions,
		MaxDailyTrades:            cfg.Risk.MaxDailyTrades,
		MaxDailyLossUSD:           cfg.Risk.MaxDailyLossUSD,
		MaxDrawdownPct:            cfg.Risk.MaxDrawdownPct,
		MaxPositionsPerCityPerDay: cfg.Risk.MaxPositionsPerCityPerDay,
		MinLiquidityUSD:           cfg.Risk.MinLiquidityUSD,
		MaxGasGwei:                cfg.Risk.MaxGasGwei,
	}, store, nil)

	breaker := risk.NewCircuitBreaker(store, nil)

	orderBookFeed := clob.NewFeed(clob.NewWSClient(), priceCache, "sum_to_one_arb")
	go func() {
		if err := orderBookFeed.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("celsius: order book feed stopped: %v", err)
		}
	}()

	filterCfg := market.FilterConfig{
		TargetCities:     cfg.Strategies.Weather.TargetCities,
		MinLeadTimeHours: 24,
		MaxLeadTimeHours: cfg.Strategies.Weather.ForecastLeadTimeHours,
		MinVolume24h:     cfg.Risk.MinLiquidityUSD,
	}

	pollInterval := time.Duration(cfg.Strategies.Weather.PollingIntervalSecs) * time.Second
	if pollInterval <= 0 {
		pollInterval = 5 * time.Minute
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	log.Printf("celsius: entering main loop (poll every %s)", pollInterval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("celsius: shutting down")
			return
		case <-ticker.C:
			if breaker.IsTripped() {
				if ok, _ := breaker.CanReset(ctx); !ok {
					log.Printf("celsius: circuit breaker tripped (%s), skipping cycle", breaker.Reason())
					continue
				}
				breaker.Reset()
				log.Printf("celsius: circuit breaker reset, resuming")
			}

			markets, err := gammaClient.GetWeatherMarkets()
			if err != nil {
				log.Printf("celsius: fetch weather markets: %v", err)
				continue
			}

			now := time.Now()
			for _, m := range markets {
				if !market.IsTradable(m, filterCfg, now) {
					continue
				}

				if !cfg.Strategies.Weather.Enabled {
					continue
				}

				sig, err := weatherEval.AnalyzeWeatherMarket(ctx, m, sim.Balance())
				if err != nil {
					log.Printf("celsius: analyze %s: %v", m.ID, err)
					continue
				}
				if sig == nil {
					continue
				}

				info, parseErr := market.ParseWeatherQuestion(m.Question)
				city := ""
				if parseErr == nil {
					city = info.City
				}

				if err := riskManager.Validate(ctx, *sig, city, sim.Balance()); err != nil {
					log.Printf("celsius: signal for %s rejected: %v", m.ID, err)
					kind := asRiskKind(err)
					metrics.RiskRejectionsTotal.WithLabelValues(string(kind)).Inc()
					tripBreakerOnFatalRejection(ctx, breaker, err, kind)
					continue
				}

				_ = bot.NotifySignal(*sig)

				order := market.Order{
					MarketID:  sig.MarketID,
					Side:      sig.Side,
					Token:     sig.Side,
					Price:     sig.EntryPrice,
					Size:      sig.Size,
					OrderType: market.FOK,
				}

				fill, filled := sim.ExecuteOrder(order)
				if !filled {
					log.Printf("celsius: order for %s missed fill", m.ID)
					continue
				}

				pos := simulator.CreatePositionFromFill(fill, sig.Side, sig.Strategy, city)
				id, err := store.InsertPosition(ctx, pos)
				if err != nil {
					log.Printf("celsius: insert position: %v", err)
					continue
				}
				pos.ID = id

				metrics.TradesTotal.WithLabelValues(sig.Strategy.String(), sig.Side.String()).Inc()
				metrics.OpenPositions.Inc()
				metrics.AccountBalance.Set(sim.Balance())

				_ = bot.NotifyFill(fill)
				if csvLogger != nil {
					_ = csvLogger.LogPosition(pos)
				}

				if cfg.Strategies.Arbitrage.Enabled {
					orderBookFeed.Track(m.ID, m.YesTokenID)
					if err := clob.RefreshOrderBook(clobClient, priceCache, "sum_to_one_arb", m.ID, m.YesTokenID); err != nil {
						log.Printf("celsius: refresh order book for %s: %v", m.ID, err)
					}
					arbSig := arbEval.Evaluate(m.ID, m.YesAsk, m.NoAsk, sim.Balance())
					if arbSig != nil {
						_ = bot.NotifySignal(*arbSig)
					}
				}

				if !cfg.System.DryRun {
					if err := submitLiveOrder(clobClient, orderBuilder, m, *sig); err != nil {
						log.Printf("celsius: live order submission for %s: %v", m.ID, err)
					}
				}
			}
		}
	}
}

// openStore constructs the position ledger per [system].storage_backend.
// "postgres" requires POSTGRES_CONN_STRING; anything else (including an
// empty value) falls back to the local SQLite file at database_path.
func openStore(cfg *config.Config, secrets *config.Secrets) (ledger.Store, error) {
	switch cfg.System.StorageBackend {
	case "postgres":
		if secrets.PostgresConnString == "" {
			return nil, fmt.Errorf("storage_backend=postgres requires POSTGRES_CONN_STRING")
		}
		return ledger.NewPostgresStore(context.Background(), secrets.PostgresConnString)
	default:
		return ledger.NewSQLiteStore(cfg.System.DatabasePath)
	}
}

// openPriceCache constructs the strategy-keyed TTL price store per
// [system].cache_backend. "redis" requires REDIS_URL; anything else
// (including an empty value) falls back to the in-process PriceCache.
func openPriceCache(cfg *config.Config, secrets *config.Secrets) (cache.Store, error) {
	switch cfg.System.CacheBackend {
	case "redis":
		if secrets.RedisURL == "" {
			return nil, fmt.Errorf("cache_backend=redis requires REDIS_URL")
		}
		opts, err := redis.ParseURL(secrets.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		return cache.NewRedisStore(redis.NewClient(opts), "celsius"), nil
	default:
		return cache.New(), nil
	}
}

// submitLiveOrder builds and signs a real FOK order for sig against m's
// CLOB token and submits it. The paper-trading ledger remains the engine's
// source of truth for position tracking; this path only runs when
// [system].dry_run is false, and its outcome is logged, not ledgered.
func submitLiveOrder(client *clob.Client, builder *clob.OrderBuilder, m market.Market, sig market.Signal) error {
	tokenID := m.YesTokenID
	if sig.Side == market.No {
		tokenID = m.NoTokenID
	}
	if tokenID == "" {
		return fmt.Errorf("no clob token id for market %s side %s", m.ID, sig.Side)
	}

	req, err := builder.BuildFOKBuyOrder(tokenID, sig.EntryPrice, sig.Size)
	if err != nil {
		return fmt.Errorf("build order: %w", err)
	}

	resp, err := client.CreateOrder(req)
	if err != nil {
		return fmt.Errorf("submit order: %w", err)
	}
	if !resp.Success {
		return fmt.Errorf("clob rejected order: %s", resp.Error)
	}
	log.Printf("celsius: live order %s filled for %s", resp.OrderID, m.ID)
	return nil
}

// asRiskKind extracts the risk check Kind from a Validate error for
// metric labeling, falling back to "unknown" for non-ValidationError
// errors (which should not occur in practice).
func asRiskKind(err error) risk.Kind {
	if ve, ok := err.(*risk.ValidationError); ok {
		return ve.Kind
	}
	return risk.Kind("unknown")
}

// tripBreakerOnFatalRejection latches the circuit breaker for the risk
// checks that are fatal to the trading session (daily loss limit,
// drawdown) rather than merely rejecting a single signal. Every other
// rejection kind just skips the signal and lets the loop continue.
func tripBreakerOnFatalRejection(ctx context.Context, breaker *risk.CircuitBreaker, err error, kind risk.Kind) {
	ve, ok := err.(*risk.ValidationError)
	if !ok {
		return
	}
	switch kind {
	case risk.DailyLossLimitHit:
		breaker.Trigger(ctx, risk.DailyLoss(ve.Measured))
	case risk.DrawdownExceeded:
		breaker.Trigger(ctx, risk.Drawdown(ve.Measured))
	}
}
