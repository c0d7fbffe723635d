// rcs-batch runs the world headless for a fixed number of ticks and prints
// population and resource stats. Useful for tuning experiments and for
// comparing runs across seeds.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/engine"
	"github.com/JS123524/2D-Resource-Competition-Simulation/internal/sim/tuning"
)

func main() {
	var (
		ticks      = flag.Uint64("ticks", 1000, "number of ticks to run")
		seed       = flag.Int64("seed", 0, "override world seed (0 keeps the tuned seed)")
		tuningPath = flag.String("tuning", "", "path to tuning.yaml (optional)")
		printEvery = flag.Uint64("print_every", 100, "print stats every N ticks (0 disables)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[rcs-batch] ", log.LstdFlags)

	tune := tuning.Default()
	if tp := strings.TrimSpace(*tuningPath); tp != "" {
		var err error
		tune, err = tuning.Load(tp)
		if err != nil {
			logger.Fatalf("load tuning: %v", err)
		}
	}
	cfg := tune.EngineConfig()
	if *seed != 0 {
		cfg.Seed = *seed
	}

	w, err := engine.New(cfg)
	if err != nil {
		logger.Fatalf("world: %v", err)
	}

	startAgents := w.AgentCount()
	logger.Printf("seed=%d grid=%dx%d agents=%d resource=%d", cfg.Seed, cfg.Width, cfg.Height, startAgents, w.TotalResource())

	var totalDeaths int
	var extinctAt uint64
	for w.Tick() < *ticks {
		if err := w.Update(); err != nil {
			logger.Fatalf("update: %v", err)
		}
		totalDeaths += len(w.DeathsLastTick())

		alive := w.AliveAgents()
		if alive == 0 && extinctAt == 0 {
			extinctAt = w.Tick()
			logger.Printf("population extinct at tick %d", extinctAt)
		}
		if *printEvery > 0 && w.Tick()%*printEvery == 0 {
			logger.Printf("tick=%d alive=%d/%d resource=%d deaths=%d", w.Tick(), alive, startAgents, w.TotalResource(), totalDeaths)
		}
	}

	logger.Printf("done: ticks=%d alive=%d/%d resource=%d deaths=%d", w.Tick(), w.AliveAgents(), startAgents, w.TotalResource(), totalDeaths)
}
