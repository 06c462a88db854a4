// Command logcrunch-crunch ingests a bucket of defective gzip access-log
// objects into the local relational file, then optionally runs the ASN
// name catchup over whatever the run left unnamed.
package main

import (
	"context"
	"flag"
	"os"
	"strconv"

	"logcrunch/internal/adapters/objstore"
	"logcrunch/internal/modkit"
	"logcrunch/internal/modkit/module"
	"logcrunch/internal/platform/config"
	"logcrunch/internal/platform/logger"
	"logcrunch/internal/platform/store"

	asnmod "logcrunch/internal/services/asn/module"
	crunchmod "logcrunch/internal/services/crunch/module"
	crunchrepo "logcrunch/internal/services/crunch/repo"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fDB          = flag.String("db", "", "path to the relational store file (overrides DB_PATH)")
		fBucket      = flag.String("bucket", "", "object store bucket (overrides OBJSTORE_BUCKET)")
		fPrefix      = flag.String("prefix", "", "only crunch objects under this key prefix")
		fConcurrency = flag.Int("concurrency", 0, "max concurrent object retrievals (default 4)")
		fCleanup     = flag.Bool("cleanup", false, "delete source objects after successful ingest")
		fASN         = flag.Bool("asn", false, "run the ASN name catchup after the crunch run")
	)
	flag.Parse()

	root := config.New()
	l := logger.Get()

	// flags win over env so one-off runs don't need an environment edit
	mustSetEnv("OBJSTORE_BUCKET", *fBucket)
	mustSetEnv("CRUNCH_PREFIX", *fPrefix)
	mustSetEnv("CRUNCH_CLEANUP", map[bool]string{true: "1", false: ""}[*fCleanup])
	if *fConcurrency > 0 {
		mustSetEnv("CRUNCH_CAPACITY", strconv.Itoa(*fConcurrency))
	}

	dbCfg := root.Prefix("DB_")
	dbPath := *fDB
	if dbPath == "" {
		dbPath = dbCfg.MustString("PATH")
	}

	st, err := store.Open(context.Background(), store.Config{
		Path:        dbPath,
		BusyTimeout: dbCfg.MayDuration("BUSY_TIMEOUT", 0),
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

	bucket, err := objstore.NewS3(objstore.S3OptionsFromConf(root))
	if err != nil {
		l.Panic().Err(err).Msg("object store dial failed")
	}

	deps := modkit.Deps{Cfg: root, DB: st.DB, Log: *l}

	cm := crunchmod.New(deps, bucket)
	module.Register(cm.Name(), cm.Ports())

	am := asnmod.New(deps)
	module.Register(am.Name(), am.Ports())

	ctx := context.Background()

	crunch, ok := module.PortsAs[crunchmod.Ports]("crunch")
	if !ok {
		l.Panic().Msg("crunch module not registered")
	}
	sum, err := crunch.Runner.Run(ctx)
	if err != nil {
		l.Error().Err(err).
			Int("objects", sum.Objects).
			Int("failed", sum.Failed).
			Msg("crunch run finished with failures")
	}

	if *fASN {
		asn, ok := module.PortsAs[asnmod.Ports]("asn")
		if !ok {
			l.Panic().Msg("asn module not registered")
		}
		asum, aerr := asn.Catchup.Catchup(ctx)
		if aerr != nil {
			l.Error().Err(aerr).Int("unknown", asum.Unknown).Msg("asn catchup failed")
		}
	}

	if err != nil {
		os.Exit(1)
	}
}
