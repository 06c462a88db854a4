// Command logcrunch-local crunches local .log.gz files into the relational
// store. Useful for reprocessing objects pulled down by hand
package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"logcrunch/internal/adapters/objstore"
	"logcrunch/internal/modkit"
	"logcrunch/internal/modkit/module"
	"logcrunch/internal/platform/config"
	"logcrunch/internal/platform/logger"
	"logcrunch/internal/platform/store"

	crunchmod "logcrunch/internal/services/crunch/module"
	crunchrepo "logcrunch/internal/services/crunch/repo"
)

func main() {
	fDB := flag.String("db", "", "path to the relational store file (overrides DB_PATH)")
	flag.Parse()

	root := config.New()
	l := logger.Get()

	files := flag.Args()
	if len(files) == 0 {
		l.Panic().Msg("usage: logcrunch-local [-db path] file.log.gz ...")
	}

	dbCfg := root.Prefix("DB_")
	dbPath := *fDB
	if dbPath == "" {
		dbPath = dbCfg.MustString("PATH")
	}

	st, err := store.Open(context.Background(), store.Config{
		Path:        dbPath,
		InitSQL:     crunchrepo.Schema(),
		LogSQL:      dbCfg.MayBool("LOG_SQL", false),
		SlowQueryMs: dbCfg.MayInt("SLOW_MS", 500),
	}, store.WithLogger(*l))
	if err != nil {
		l.Panic().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	// local files go through the same pipeline as bucket objects, via the
	// in-memory capability; cleanup stays off so the files are untouched
	mem := objstore.NewMemory()
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			l.Panic().Err(err).Str("file", path).Msg("read failed")
		}
		mem.Put(filepath.Base(path), data)
	}

	deps := modkit.Deps{Cfg: root, DB: st.DB, Log: *l}
	cm := crunchmod.New(deps, mem)
	module.Register(cm.Name(), cm.Ports())

	crunch, ok := module.PortsAs[crunchmod.Ports]("crunch")
	if !ok {
		l.Panic().Msg("crunch module not registered")
	}
	sum, err := crunch.Runner.Run(context.Background())
	if err != nil {
		l.Error().Err(err).
			Int("objects", sum.Objects).
			Int("failed", sum.Failed).
			Msg("local crunch finished with failures")
		os.Exit(1)
	}
}
