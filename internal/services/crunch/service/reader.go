package service

import (
	"io"

	"logcrunch/internal/adapters/ingest/fastly"
	"logcrunch/internal/services/crunch/domain"
)

// readerFactory adapts the fastly reader to domain.ReaderFactory
type readerFactory struct{}

// NewReaderFactory returns the production record reader factory
func NewReaderFactory() domain.ReaderFactory { return readerFactory{} }

func (readerFactory) New(rc io.ReadCloser) (domain.ReaderPort, error) {
	return fastly.NewReader(rc)
}
