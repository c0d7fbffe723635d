// rcsd runs the resource competition world as a daemon: a paced tick loop,
// a websocket observer stream, and compressed run history on disk.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/persistence/indexdb"
	persistlog "github.com/JS123524/2D-Resource-Competition-Simulation/internal/persistence/log"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/runtime"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/tuning"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/transport/observer"
)

func main() {
	var (
		addr       = flag.String("addr", "", "http listen address (default from tuning)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		dataDir    = flag.String("data", "", "runtime data directory (default from tuning)")
		seed       = flag.Int64("seed", 0, "override world seed (0 keeps the tuned seed)")
		rate       = flag.Int("rate", 0, "override tick rate in Hz (0 keeps the tuned rate)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite run history index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[rcsd] ", log.LstdFlags|log.Lmicroseconds)

	tune := tuning.Default()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		var err error
		tune, err = tuning.Load(tp)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	if *addr != "" {
		tune.Runtime.ListenAddr = *addr
	}
	if *dataDir != "" {
		tune.Runtime.DataDir = *dataDir
	}
	if *rate != 0 {
		tune.Runtime.TickRateHz = *rate
	}

	cfg := tune.EngineConfig()
	if *seed != 0 {
		cfg.Seed = *seed
	}

	sess, err := runtime.NewSession(cfg, tune.Runtime.TickRateHz, logger)
	if err != nil {
		logger.Fatalf("session: %v", err)
	}

	_ = os.MkdirAll(tune.Runtime.DataDir, 0o755)

	tickLog := persistlog.NewTickLogger(tune.Runtime.DataDir)
	defer tickLog.Close()

	var idx *indexdb.SQLiteIndex
	if !*disableDB {
		idx, err = indexdb.OpenSQLite(filepath.Join(tune.Runtime.DataDir, "index", "history.db"))
		if err != nil {
			logger.Fatalf("open history index: %v", err)
		}
		defer idx.Close()
		sess.SetRunRecorder(idx)
	}
	sess.SetTickLogger(multiTickLogger{a: tickLog, b: idx})

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := sess.Run(ctx); err != nil && err != context.Canceled {
			logger.Printf("session stopped: %v", err)
		}
		cancel()
	}()

	obs := observer.NewServer(sess, logger)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/observer/bootstrap", obs.BootstrapHandler())
	mux.HandleFunc("/v1/observer/ws", obs.WSHandler())
	mux.HandleFunc("/admin/v1/control", obs.ControlHandler())

	srv := &http.Server{
		Addr:              tune.Runtime.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Printf("run=%s seed=%d grid=%dx%d rate=%dHz listening on %s",
		sess.RunID(), cfg.Seed, cfg.Width, cfg.Height, tune.Runtime.TickRateHz, tune.Runtime.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

type multiTickLogger struct {
	a runtime.TickLogger
	b runtime.TickLogger
}

func (m multiTickLogger) WriteTick(entry runtime.TickLogEntry) error {
	if m.a != nil {
		_ = m.a.WriteTick(entry)
	}
	if m.b != nil {
		_ = m.b.WriteTick(entry)
	}
	return nil
}
