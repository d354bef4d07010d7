package factory

import (
	"go.uber.org/zap"

	"github.com/autou/email-triage/internal/adapters/reader"
	"github.com/autou/email-triage/internal/core"
)

// ReaderFactory assembles the ordered file reader list.
type ReaderFactory struct {
	logger *zap.Logger
}

// NewReaderFactory creates a new reader factory
func NewReaderFactory(logger *zap.Logger) *ReaderFactory {
	return &ReaderFactory{logger: logger}
}

// CreateReaders returns the readers in selection order. The first
// reader whose Supports matches the extension handles the file, so
// order is part of the contract.
func (f *ReaderFactory) CreateReaders() []core.FileReader {
	eml := reader.NewEmlReader(f.logger)
	return []core.FileReader{
		reader.NewTxtReader(f.logger),
		reader.NewPdfReader(f.logger),
		eml,
		reader.NewMsgReader(f.logger),
		reader.NewMboxReader(eml, f.logger),
	}
}
