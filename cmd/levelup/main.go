// Package main provides a non-interactive CLI that creates characters, runs one
// level-up session, removes levels, and prints a character's spellbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/srd/internal/config"
	"github.com/cory-johannsen/srd/internal/game/character"
	"github.com/cory-johannsen/srd/internal/game/dice"
	"github.com/cory-johannsen/srd/internal/game/feats"
	"github.com/cory-johannsen/srd/internal/game/levelup"
	"github.com/cory-johannsen/srd/internal/game/ruleset"
	"github.com/cory-johannsen/srd/internal/game/spells"
	"github.com/cory-johannsen/srd/internal/observability"
	"github.com/cory-johannsen/srd/internal/scripting"
	"github.com/cory-johannsen/srd/internal/storage/postgres"
)

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	newName := flag.String("new", "", "create a new character with this name before leveling")
	abilities := flag.String("abilities", "", "abilities for -new: str=10,dex=14,... or roll")
	characterID := flag.String("character", "", "character ID; generated for -new when empty")
	classID := flag.String("class", "", "class ID to level in; empty skips the level-up")
	domainList := flag.String("domains", "", "comma-separated domain keys for a new domain caster")
	hp := flag.String("hp", "", "hit points for the level, or roll; empty uses the first-level maximum")
	skillPoints := flag.String("skills", "", "skill points per skill key: climb=4,spot=2")
	featID := flag.String("feat", "", "feat ID to take when the level grants a feat")
	remove := flag.Int("remove", 0, "remove this many levels instead of leveling up")
	showSpells := flag.Bool("spells", false, "print the spellbook after the run")
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	catalog := ruleset.NewCatalog(observability.Named(logger, observability.ComponentCatalog), cfg.Content.Sources()...)
	if err := catalog.Refresh(); err != nil {
		logger.Fatal("loading catalog", zap.Error(err))
	}

	var scripts feats.Scripts
	if cfg.Content.ScriptsDir != "" {
		mgr := scripting.NewManager(observability.Named(logger, observability.ComponentScripting))
		if err := mgr.LoadDir(cfg.Content.ScriptsDir, cfg.Rules.ScriptInstructionLimit); err != nil {
			logger.Fatal("loading prerequisite scripts", zap.Error(err))
		}
		defer mgr.Close()
		scripts = mgr
	}

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("opening character store", zap.Error(err))
	}
	defer closeStore()

	roller := dice.NewLoggedRoller(dice.NewCryptoSource(), observability.Named(logger, observability.ComponentDice))
	deriver := spells.NewDeriver(catalog)
	engine := levelup.NewEngine(levelup.Deps{
		Catalog: catalog,
		Store:   store,
		Deriver: deriver,
		Feats:   feats.NewEvaluator(catalog, scripts, observability.Named(logger, observability.ComponentFeats)),
		Roller:  roller,
		Logger:  observability.Named(logger, observability.ComponentLevelUp),
	}, cfg.Rules.Policy())

	id := *characterID
	if *newName != "" {
		scores, err := parseAbilities(*abilities, roller)
		if err != nil {
			fail(err)
		}
		if id == "" {
			id = character.NewID()
		}
		if err := store.Create(ctx, character.New(id, *newName, scores)); err != nil {
			fail(fmt.Errorf("creating character: %w", err))
		}
		fmt.Printf("created %s (%s)\n", *newName, id)
	}
	if id == "" {
		fail(fmt.Errorf("-character or -new is required"))
	}

	var rec *character.Record
	switch {
	case *remove > 0:
		rec, err = engine.RemoveLevels(ctx, id, *remove)
	case *classID != "":
		rec, err = runLevelUp(ctx, engine, id, request{
			ClassID: *classID,
			Domains: splitList(*domainList),
			HP:      *hp,
			Skills:  *skillPoints,
			FeatID:  *featID,
		}, os.Stdout)
	default:
		rec, err = store.Read(ctx, id)
	}
	if err != nil {
		fail(err)
	}

	printSummary(os.Stdout, rec)
	if *showSpells {
		resolver := spells.NewResolver(catalog, deriver, observability.Named(logger, observability.ComponentSpells))
		printSpellbook(os.Stdout, resolver.Resolve(rec), resolver.Unassigned(rec))
	}
	logger.Debug("levelup finished", zap.Duration("elapsed", time.Since(start)))
}

// recordStore is the store surface the CLI needs.
type recordStore interface {
	character.Store
	Create(ctx context.Context, r *character.Record) error
}

func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (recordStore, func(), error) {
	if cfg.Store.Driver == "memory" {
		return character.NewMemoryStore(), func() {}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Database, observability.Named(logger, observability.ComponentStorage))
	if err != nil {
		return nil, nil, err
	}
	if err := pool.CheckSchema(ctx); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return pool.Characters(), pool.Close, nil
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
