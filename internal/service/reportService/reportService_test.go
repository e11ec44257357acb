package reportService

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePortfolios struct {
	err error
}

func (f fakePortfolios) GetPortfolioReport(_ context.Context, portfolioID string) (model.PortfolioReport, error) {
	if f.err != nil {
		return model.PortfolioReport{}, f.err
	}
	return model.PortfolioReport{
		Portfolio:   model.Portfolio{ID: portfolioID},
		GeneratedAt: time.Date(2024, 7, 8, 9, 10, 11, 0, time.UTC),
	}, nil
}

type fakeGenerator struct{}

func (fakeGenerator) Generate(context.Context, model.PortfolioReport) ([]byte, string, error) {
	return []byte("xlsx-bytes"), ".xlsx", nil
}

type fakeStorage struct {
	uploaded  string
	content   string
	uploadErr error
	cleaned   bool
}

func (f *fakeStorage) UploadFile(_ context.Context, reader io.Reader, filename string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	b, _ := io.ReadAll(reader)
	f.uploaded, f.content = filename, string(b)
	return "https://example.com/" + filename, nil
}

func (f *fakeStorage) DeleteOldFiles(context.Context) error {
	f.cleaned = true
	return nil
}

func TestExportPortfolio_WithoutStorage(t *testing.T) {
	srv := New(fakePortfolios{}, fakeGenerator{}, nil)

	export, err := srv.ExportPortfolio(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "portfolio-report-p1-20240708-091011.xlsx", export.FileName)
	assert.Equal(t, []byte("xlsx-bytes"), export.File)
	assert.Empty(t, export.Link)

	assert.Error(t, srv.CleanupOldReports(context.Background()))
}

func TestExportPortfolio_Uploads(t *testing.T) {
	storage := &fakeStorage{}
	srv := New(fakePortfolios{}, fakeGenerator{}, storage)

	export, err := srv.ExportPortfolio(context.Background(), "p1")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(storage.uploaded, FilePrefix))
	assert.Equal(t, "xlsx-bytes", storage.content)
	assert.Equal(t, "https://example.com/"+export.FileName, export.Link)

	require.NoError(t, srv.CleanupOldReports(context.Background()))
	assert.True(t, storage.cleaned)
}

func TestExportPortfolio_Errors(t *testing.T) {
	srv := New(fakePortfolios{err: service.PortfolioNotFound("p1")}, fakeGenerator{}, nil)
	_, err := srv.ExportPortfolio(context.Background(), "p1")
	assert.ErrorIs(t, err, service.ErrPortfolioNotFound)

	uploadErr := errors.New("quota")
	srv = New(fakePortfolios{}, fakeGenerator{}, &fakeStorage{uploadErr: uploadErr})
	_, err = srv.ExportPortfolio(context.Background(), "p1")
	assert.ErrorIs(t, err, uploadErr)
}
