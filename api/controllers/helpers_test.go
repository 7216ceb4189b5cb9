package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/catalog-backoffice/api/middleware"
	inventorysvc "github.com/angelmondragon/catalog-backoffice/internal/inventory"
	variantsvc "github.com/angelmondragon/catalog-backoffice/internal/variants"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "controllers-test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func newRequest(method, target, body string, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	ctx = middleware.WithActor(ctx, "ops@example.com")
	return req.WithContext(ctx)
}

type stubVariantService struct {
	createInput  variantsvc.CreateVariantInput
	createErr    error
	matrixInput  variantsvc.MatrixInput
	matrixErr    error
	updateInput  *variantsvc.UpdateVariantInput
	updateErr    error
	deletedID    uuid.UUID
	deletedActor string
	repriceLimit int
}

func (s *stubVariantService) CreateVariant(ctx context.Context, productID uuid.UUID, input variantsvc.CreateVariantInput) (*variantsvc.VariantDTO, error) {
	s.createInput = input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &variantsvc.VariantDTO{ID: uuid.New(), ProductID: productID, Status: "ACTIVE"}, nil
}

func (s *stubVariantService) GenerateVariantMatrix(ctx context.Context, productID uuid.UUID, input variantsvc.MatrixInput) (*variantsvc.MatrixResult, error) {
	s.matrixInput = input
	if s.matrixErr != nil {
		return nil, s.matrixErr
	}
	return &variantsvc.MatrixResult{Created: []variantsvc.VariantDTO{}}, nil
}

func (s *stubVariantService) GetVariant(ctx context.Context, variantID uuid.UUID) (*variantsvc.VariantDTO, error) {
	return &variantsvc.VariantDTO{ID: variantID}, nil
}

func (s *stubVariantService) ListVariants(ctx context.Context, productID uuid.UUID) ([]variantsvc.VariantDTO, error) {
	return nil, nil
}

func (s *stubVariantService) UpdateVariant(ctx context.Context, variantID uuid.UUID, input variantsvc.UpdateVariantInput) (*variantsvc.VariantDTO, error) {
	s.updateInput = &input
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	return &variantsvc.VariantDTO{ID: variantID, Version: 2}, nil
}

func (s *stubVariantService) DeleteVariant(ctx context.Context, variantID uuid.UUID, actor string) error {
	s.deletedID = variantID
	s.deletedActor = actor
	return nil
}

func (s *stubVariantService) RepriceUnresolved(ctx context.Context, limit int) (*variantsvc.RepriceResult, error) {
	s.repriceLimit = limit
	return &variantsvc.RepriceResult{}, nil
}

type stubInventoryService struct {
	ensureResult *inventorysvc.EnsureResult
	adjustInput  inventorysvc.AdjustStockInput
	adjustErr    error
	repairOpts   inventorysvc.RepairOptions
	repairResult *inventorysvc.RepairResult
	lowStock     inventorysvc.LowStockInput
	dedupeDryRun *bool
	report       *inventorysvc.DiagnosticsReport
}

func (s *stubInventoryService) EnsureInventory(ctx context.Context, variantID uuid.UUID) (*inventorysvc.EnsureResult, error) {
	return s.ensureResult, nil
}

func (s *stubInventoryService) RepairInventory(ctx context.Context, opts inventorysvc.RepairOptions) (*inventorysvc.RepairResult, error) {
	s.repairOpts = opts
	return s.repairResult, nil
}

func (s *stubInventoryService) AdjustStock(ctx context.Context, inventoryID uuid.UUID, input inventorysvc.AdjustStockInput) (*inventorysvc.InventoryDTO, error) {
	s.adjustInput = input
	if s.adjustErr != nil {
		return nil, s.adjustErr
	}
	return &inventorysvc.InventoryDTO{ID: inventoryID}, nil
}

func (s *stubInventoryService) SetDiscontinued(ctx context.Context, inventoryID uuid.UUID, discontinued bool, actor string) (*inventorysvc.InventoryDTO, error) {
	return &inventorysvc.InventoryDTO{ID: inventoryID}, nil
}

func (s *stubInventoryService) GetInventory(ctx context.Context, inventoryID uuid.UUID) (*inventorysvc.InventoryDTO, error) {
	return &inventorysvc.InventoryDTO{ID: inventoryID}, nil
}

func (s *stubInventoryService) GetInventoryByVariant(ctx context.Context, variantID uuid.UUID) (*inventorysvc.InventoryDTO, error) {
	return &inventorysvc.InventoryDTO{VariantID: variantID}, nil
}

func (s *stubInventoryService) ListLowStock(ctx context.Context, input inventorysvc.LowStockInput) (*inventorysvc.LowStockPage, error) {
	s.lowStock = input
	return &inventorysvc.LowStockPage{Items: []inventorysvc.InventoryDTO{}}, nil
}

func (s *stubInventoryService) ListMovements(ctx context.Context, inventoryID uuid.UUID, limit int) ([]inventorysvc.MovementDTO, error) {
	return nil, nil
}

func (s *stubInventoryService) RunDiagnostics(ctx context.Context) (*inventorysvc.DiagnosticsReport, error) {
	return s.report, nil
}

func (s *stubInventoryService) CleanupDuplicates(ctx context.Context, dryRun bool) (*inventorysvc.CleanupResult, error) {
	s.dedupeDryRun = &dryRun
	return &inventorysvc.CleanupResult{DryRun: dryRun}, nil
}
