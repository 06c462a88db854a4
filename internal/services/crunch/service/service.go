// Package service provides the crunch orchestrator
package service

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"logcrunch/internal/modkit/repokit"
	perr "logcrunch/internal/platform/errors"
	"logcrunch/internal/platform/logger"
	"logcrunch/internal/services/crunch/domain"
)

// Config holds the orchestrator knobs
type Config struct {
	// Capacity bounds concurrent object retrievals; <=0 -> 1.
	// Keep conservative: each in-flight retrieval holds a connection
	Capacity int64
}

// Service implements domain.RunnerPort. It is the single consumer of the
// fetch pipeline: concurrency is bounded upstream, so objects are processed
// one at a time here, decode then store then finalize
type Service struct {
	DB     repokit.TxRunner
	Binder repokit.Binder[domain.StorageRepo]
	Fetch  domain.FetchPort
	Reader domain.ReaderFactory
	Cfg    Config
}

// New constructs the crunch service
func New(
	db repokit.TxRunner,
	binder repokit.Binder[domain.StorageRepo],
	fetch domain.FetchPort,
	reader domain.ReaderFactory,
	cfg Config,
) *Service {
	if db == nil {
		panic("crunch.Service requires a non nil TxRunner")
	}
	if binder == nil {
		panic("crunch.Service requires a non nil Repo binder")
	}
	if fetch == nil {
		panic("crunch.Service requires a non nil FetchPort")
	}
	if reader == nil {
		panic("crunch.Service requires a non nil ReaderFactory")
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	return &Service{DB: db, Binder: binder, Fetch: fetch, Reader: reader, Cfg: cfg}
}

// Run implements domain.RunnerPort. It drains the fetch pipeline, ingests
// each object in one transaction, finalizes each object's lifecycle, and
// reports the aggregate. Per-object failures are never fatal to the run
func (s *Service) Run(ctx context.Context) (domain.RunSummary, error) {
	sum := domain.RunSummary{RunID: uuid.NewString(), Started: time.Now().UTC()}
	ctx = logger.WithRun(ctx, sum.RunID)
	log := logger.C(ctx)

	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).StartRun(ctx, sum.RunID, sum.Started)
	}); err != nil {
		return sum, err
	}

	var firstErr error
	for res := range s.Fetch.Fetch(ctx, s.Cfg.Capacity) {
		sum.Objects++

		if res.Err != nil {
			// listing or retrieval failure; the object never materialized
			sum.Failed++
			if firstErr == nil {
				firstErr = res.Err
			}
			log.Error().Err(res.Err).Msg("fetch failed")
			continue
		}

		set := res.Set
		octx := logger.WithObject(ctx, set.Name)

		n, procErr := s.ingestObject(octx, set.Data)
		finErr := set.Complete(octx, procErr)

		switch {
		case procErr != nil:
			sum.Failed++
			if firstErr == nil {
				firstErr = finErr // Complete annotated it with the object name
			}
			logger.C(octx).Error().Err(finErr).Msg("object failed")
		case finErr != nil:
			// ingest landed, only the source deletion failed
			sum.OK++
			sum.CleanupFailures++
			sum.Records += n
			logger.C(octx).Error().Err(finErr).Msg("cleanup failed after successful ingest")
		default:
			sum.OK++
			sum.Records += n
			logger.C(octx).Info().Int("records", n).Msg("object ingested")
		}
	}

	sum.Finished = time.Now().UTC()
	status := "ok"
	errText := ""
	if sum.Failed > 0 {
		status = "partial"
		errText = firstErr.Error()
	}
	if err := repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		return s.Binder.Bind(q).FinishRun(ctx, sum.RunID, domain.RunFinish{
			Status:          status,
			Objects:         sum.Objects,
			OK:              sum.OK,
			Failed:          sum.Failed,
			CleanupFailures: sum.CleanupFailures,
			Records:         sum.Records,
			ErrText:         errText,
		})
	}); err != nil {
		log.Error().Err(err).Msg("finish run audit failed")
	}

	log.Info().
		Int("objects", sum.Objects).
		Int("ok", sum.OK).
		Int("failed", sum.Failed).
		Int("cleanup_failures", sum.CleanupFailures).
		Int("records", sum.Records).
		Msg("run complete")

	if sum.Failed > 0 {
		return sum, perr.Wrapf(firstErr, perr.CodeOf(firstErr),
			"%d of %d objects failed", sum.Failed, sum.Objects)
	}
	return sum, nil
}

// ingestObject decodes one object's bytes and commits every record in a
// single transaction. Decode precedes store; any decode failure means
// nothing is written for this object
func (s *Service) ingestObject(ctx context.Context, data []byte) (int, error) {
	rd, err := s.Reader.New(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return 0, perr.WrapIf(err, perr.ErrorCodeDecode, "open record stream")
	}
	defer func() { _ = rd.Close() }()

	var recs []domain.LogRecord
	for {
		rec, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}
		recs = append(recs, rec)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	var n int
	err = repokit.WithTx(ctx, s.DB, func(q repokit.Queryer) error {
		i, e := s.Binder.Bind(q).InsertRecords(ctx, recs)
		if e == nil {
			n = i
		}
		return e
	})
	return n, err
}
