package source

import (
	"context"
	"io"

	"github.com/lysyi3m/regcheck/app/registry"
)

// Acquirer loads the inputs of a reconciliation run. Every failure is
// returned as an *AcquisitionError naming the input that failed.
type Acquirer struct {
	fetcher *Fetcher
}

func NewAcquirer(fetcher *Fetcher) *Acquirer {
	return &Acquirer{fetcher: fetcher}
}

// Banks downloads the bank license registry and reads the local banks book.
func (a *Acquirer) Banks(ctx context.Context, config *Config) (registrySheet, book registry.Grid, err error) {
	data, err := a.fetcher.Fetch(ctx, config)
	if err != nil {
		return nil, nil, acquisitionError(config.Domain, OriginRegistry, err)
	}

	wb, err := OpenWorkbookBytes(data)
	if err != nil {
		return nil, nil, acquisitionError(config.Domain, OriginRegistry, err)
	}
	defer wb.Close()

	registrySheet, err = wb.Sheet("")
	if err != nil {
		return nil, nil, acquisitionError(config.Domain, OriginRegistry, err)
	}

	book, err = a.localBook(config)
	if err != nil {
		return nil, nil, err
	}
	return registrySheet, book, nil
}

// MFO downloads the microfinance registry and reads the local organizations book.
func (a *Acquirer) MFO(ctx context.Context, config *Config) (registry.MFOSheets, registry.Grid, error) {
	data, err := a.fetcher.Fetch(ctx, config)
	if err != nil {
		return registry.MFOSheets{}, nil, acquisitionError(config.Domain, OriginRegistry, err)
	}

	wb, err := OpenWorkbookBytes(data)
	if err != nil {
		return registry.MFOSheets{}, nil, acquisitionError(config.Domain, OriginRegistry, err)
	}
	defer wb.Close()

	sheets, err := wb.MFOSheets()
	if err != nil {
		return registry.MFOSheets{}, nil, acquisitionError(config.Domain, OriginRegistry, err)
	}

	book, err := a.localBook(config)
	if err != nil {
		return registry.MFOSheets{}, nil, err
	}
	return sheets, book, nil
}

// Watchlist parses an uploaded watchlist document and reads the local persons book.
func (a *Acquirer) Watchlist(config *Config, document io.Reader) (*registry.WatchlistDocument, registry.Grid, error) {
	doc, err := ParseWatchlist(document)
	if err != nil {
		return nil, nil, acquisitionError(config.Domain, OriginDocument, err)
	}

	book, err := a.localBook(config)
	if err != nil {
		return nil, nil, err
	}
	return doc, book, nil
}

func (a *Acquirer) localBook(config *Config) (registry.Grid, error) {
	book, err := ReadLocalBook(config.Local)
	if err != nil {
		return nil, acquisitionError(config.Domain, OriginLocal, err)
	}
	return book, nil
}
