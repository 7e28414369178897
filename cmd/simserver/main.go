// Package main provides the simulation server binary that runs a headless
// combat bout between stat-sheet-defined combatants.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/config"
	"github.com/cory-johannsen/skirmish/internal/game/ai"
	"github.com/cory-johannsen/skirmish/internal/game/clock"
	"github.com/cory-johannsen/skirmish/internal/game/combat"
	"github.com/cory-johannsen/skirmish/internal/game/forces"
	"github.com/cory-johannsen/skirmish/internal/game/stats"
	"github.com/cory-johannsen/skirmish/internal/observability"
	"github.com/cory-johannsen/skirmish/internal/scripting"
	"github.com/cory-johannsen/skirmish/internal/server"
	"github.com/cory-johannsen/skirmish/internal/sim"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	sheetsDir := flag.String("sheets-dir", "", "path to stat sheet YAML directory; empty = config value")
	scriptsDir := flag.String("scripts-dir", "", "path to Lua combat hook directory; empty = config value")
	playerSheet := flag.String("player", "", "sheet ID for the player-side combatant; empty = first player-archetype sheet")
	opponentSheet := flag.String("opponent", "", "sheet ID for the opposing combatant; empty = first opponent-archetype sheet")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *sheetsDir == "" {
		*sheetsDir = cfg.Content.StatsDir
	}
	if *scriptsDir == "" {
		*scriptsDir = cfg.Content.ScriptsDir
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting simulation server",
		zap.Duration("frame_step", cfg.Simulation.FrameStep),
		zap.Duration("bout_duration", cfg.Simulation.BoutDuration),
	)

	// Load stat sheets
	sheetStart := time.Now()
	sheets, err := stats.LoadSheetsFromDir(*sheetsDir)
	if err != nil {
		logger.Fatal("loading stat sheets", zap.Error(err))
	}
	logger.Info("stat sheets loaded",
		zap.Int("count", len(sheets)),
		zap.Duration("elapsed", time.Since(sheetStart)),
	)

	player, err := pickSheet(sheets, *playerSheet, stats.ArchetypePlayer)
	if err != nil {
		logger.Fatal("selecting player sheet", zap.Error(err))
	}
	opponent, err := pickSheet(sheets, *opponentSheet, stats.ArchetypeOpponent)
	if err != nil {
		logger.Fatal("selecting opponent sheet", zap.Error(err))
	}

	clk := clock.New()
	resolver, err := combat.NewResolver(combat.Config{
		PartialParryFactor: cfg.Combat.PartialParryFactor,
		BlockFactor:        cfg.Combat.BlockFactor,
	}, clk, logger)
	if err != nil {
		logger.Fatal("creating resolver", zap.Error(err))
	}

	// Initialise scripting engine
	var scriptMgr *scripting.Manager
	if *scriptsDir != "" {
		scriptStart := time.Now()
		scriptMgr = scripting.NewManager(logger)
		if err := scriptMgr.LoadDir(*scriptsDir, cfg.Content.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading combat scripts",
				zap.String("dir", *scriptsDir), zap.Error(err))
		}
		defer scriptMgr.Close()
		resolver.SetDamageHook(scriptMgr)
		logger.Info("scripting engine initialized",
			zap.String("dir", *scriptsDir),
			zap.Duration("elapsed", time.Since(scriptStart)),
		)
	}

	arena := sim.NewArena(clk, resolver, cfg.Combat.Tuning, cfg.Simulation.AttackRange, logger)

	// Spawn both combatants inside attack range so the bout engages
	// immediately; positions only move under forces after that.
	gap := cfg.Simulation.AttackRange * 0.75
	pc, err := arena.Spawn(player, forces.Vec2{}, nil)
	if err != nil {
		logger.Fatal("spawning player combatant", zap.Error(err))
	}
	npc, err := arena.Spawn(opponent, forces.Vec2{X: gap}, nil)
	if err != nil {
		logger.Fatal("spawning opponent combatant", zap.Error(err))
	}
	// Drivers need the spawned actors' intent buffers, so they attach after
	// Spawn. The player side runs a faster rotation than the opponent to keep
	// a headless bout from stalemating.
	pc.Driver = ai.NewPatternDriver(pc.Actor.Intents, cfg.Combat.Tuning.AttackCadence*3/4, nil)
	npc.Driver = ai.NewPatternDriver(npc.Actor.Intents, cfg.Combat.Tuning.AttackCadence, nil)

	loop := sim.NewLoop(arena, clk, cfg.Simulation.FrameStep, cfg.Simulation.PhysicsStep, logger)

	// Cap the bout's wall-clock run; the loop ticks sim time 1:1 with it.
	boutTimer := time.AfterFunc(cfg.Simulation.BoutDuration, loop.Stop)
	defer boutTimer.Stop()

	// Wire lifecycle
	lifecycle := server.NewLifecycle(logger)

	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	lifecycle.Add("sim", &server.FuncService{
		StartFn: func() error {
			defer cancelRun()
			return loop.Start()
		},
		StopFn: loop.Stop,
	})

	logger.Info("simulation server initialized",
		zap.Duration("startup", time.Since(start)),
		zap.String("player", player.ID),
		zap.String("opponent", opponent.ID),
	)

	if err := lifecycle.Run(runCtx); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}

	reportBout(logger, arena)
}

// pickSheet selects the named sheet, or the first sheet of the archetype in
// ID order when no name is given.
func pickSheet(sheets map[string]*stats.Sheet, id string, arch stats.Archetype) (*stats.Sheet, error) {
	if id != "" {
		sheet, ok := sheets[id]
		if !ok {
			return nil, fmt.Errorf("sheet %q not found", id)
		}
		if sheet.Archetype != arch {
			return nil, fmt.Errorf("sheet %q has archetype %q, want %q", id, sheet.Archetype, arch)
		}
		return sheet, nil
	}
	ids := make([]string, 0, len(sheets))
	for sheetID := range sheets {
		ids = append(ids, sheetID)
	}
	sort.Strings(ids)
	for _, sheetID := range ids {
		if sheets[sheetID].Archetype == arch {
			return sheets[sheetID], nil
		}
	}
	return nil, fmt.Errorf("no sheet with archetype %q loaded", arch)
}

// reportBout logs the final standings after the loop returns.
func reportBout(logger *zap.Logger, arena *sim.Arena) {
	for _, c := range arena.Combatants() {
		current, max := c.Actor.Health()
		logger.Info("combatant final state",
			zap.String("id", c.Actor.ID()),
			zap.String("faction", c.Actor.Faction()),
			zap.Bool("alive", c.Actor.Alive()),
			zap.Int("health", current),
			zap.Int("max_health", max),
		)
	}
	if faction, done := arena.Winner(); done {
		logger.Info("bout result", zap.String("winner", faction))
	} else {
		logger.Info("bout result", zap.String("winner", "none"))
	}
}
