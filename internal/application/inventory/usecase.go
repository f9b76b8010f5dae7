package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	domoutbox "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	productService    = "product-service"
	useCaseAdjust     = "inventory.adjust_stock"
	useCaseGetProduct = "inventory.get_product"
)

type AdjustStockInput struct {
	ProductID string
	Delta     int
}

// AdjustStockUseCase is the ledger's only stock mutation. Atomicity is the
// repository's contract; this layer validates, classifies and publishes.
type AdjustStockUseCase struct {
	repo      dominv.Repository
	publisher domoutbox.Publisher
	inst      application.Instruments
}

func NewAdjustStockUseCase(repo dominv.Repository, publisher domoutbox.Publisher, tel observability.Observability) *AdjustStockUseCase {
	return &AdjustStockUseCase{
		repo:      repo,
		publisher: publisher,
		inst:      application.NewInstruments(tel, productService),
	}
}

func (uc *AdjustStockUseCase) Execute(ctx context.Context, cmd AdjustStockInput) (_ *dominv.Product, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseAdjust, "AdjustStock",
		attribute.String("product.id", cmd.ProductID),
		attribute.Int("stock.delta", cmd.Delta),
	)
	run.Field(
		observability.F("product_id", cmd.ProductID),
		observability.F("delta", cmd.Delta),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.ProductID) == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, apperr.Validation("product id is required")
	}
	if cmd.Delta == 0 {
		run.Fail("DELTA_INVALID")
		return nil, apperr.Wrap(apperr.KindValidation, "delta must be non-zero", dominv.ErrInvalidDelta)
	}

	p, err := uc.repo.Adjust(ctx, cmd.ProductID, cmd.Delta)
	if err != nil {
		err = classify(cmd.ProductID, err)
		run.Fail(string(apperr.KindOf(err)))
		return nil, err
	}

	run.Span().SetAttributes(attribute.Int("stock.quantity", p.StockQuantity))
	run.Field(observability.F("stock_quantity", p.StockQuantity))

	if pubErr := uc.inst.Publish(ctx, uc.publisher, dominv.NewStockAdjustedEvent(p, cmd.Delta)); pubErr != nil {
		run.Status("EVENT_PUBLISH_FAILED")
		run.Field(observability.F("event_publish_error", pubErr.Error()))
	}
	return p, nil
}

type GetProductInput struct {
	ProductID string
}

type GetProductUseCase struct {
	repo dominv.Repository
	inst application.Instruments
}

func NewGetProductUseCase(repo dominv.Repository, tel observability.Observability) *GetProductUseCase {
	return &GetProductUseCase{repo: repo, inst: application.NewInstruments(tel, productService)}
}

func (uc *GetProductUseCase) Execute(ctx context.Context, cmd GetProductInput) (_ *dominv.Product, err error) {
	ctx, run := uc.inst.Begin(ctx, useCaseGetProduct, "GetProduct",
		attribute.String("product.id", cmd.ProductID),
	)
	defer func() { run.End(err) }()

	if strings.TrimSpace(cmd.ProductID) == "" {
		run.Fail("PRODUCT_ID_REQUIRED")
		return nil, apperr.Validation("product id is required")
	}
	p, err := uc.repo.Get(ctx, cmd.ProductID)
	if err != nil {
		return nil, classify(cmd.ProductID, err)
	}
	return p, nil
}

func classify(productID string, err error) error {
	switch {
	case errors.Is(err, dominv.ErrNotFound):
		return apperr.NotFound("product "+productID, err)
	case errors.Is(err, dominv.ErrInsufficientStock):
		return apperr.Wrap(apperr.KindInsufficientStock, "product "+productID, err)
	case errors.Is(err, dominv.ErrConflict):
		return apperr.Wrap(apperr.KindValidation, "product "+productID, err)
	case errors.Is(err, dominv.ErrInvalidDelta),
		errors.Is(err, dominv.ErrInvalidName),
		errors.Is(err, dominv.ErrInvalidPrice),
		errors.Is(err, dominv.ErrInvalidStock):
		return apperr.Wrap(apperr.KindValidation, "product "+productID, err)
	default:
		return apperr.Internal("inventory repository", err)
	}
}
