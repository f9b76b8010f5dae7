package inventory

import (
	"context"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	dominv "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/inventory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const (
	useCaseCreateProduct = "inventory.create_product"
	useCaseUpdateProduct = "inventory.update_product"
	useCaseListProducts  = "inventory.list_products"
)

type IDGenerator interface {
	NewID() string
}

// Catalog groups the administrative product operations.
type Catalog struct {
	repo  dominv.Repository
	idGen IDGenerator
	inst  application.Instruments
}

func NewCatalog(repo dominv.Repository, idGen IDGenerator, tel observability.Observability) *Catalog {
	return &Catalog{repo: repo, idGen: idGen, inst: application.NewInstruments(tel, productService)}
}

type CreateProductInput struct {
	ID            string
	Name          string
	UnitPrice     decimal.Decimal
	StockQuantity int
}

func (c *Catalog) Create(ctx context.Context, in CreateProductInput) (_ *dominv.Product, err error) {
	ctx, run := c.inst.Begin(ctx, useCaseCreateProduct, "CreateProduct")
	defer func() { run.End(err) }()

	id := in.ID
	if id == "" {
		id = c.idGen.NewID()
	}
	p, err := dominv.NewProduct(id, in.Name, in.UnitPrice, in.StockQuantity)
	if err != nil {
		return nil, classify(id, err)
	}
	if err := c.repo.Insert(ctx, p); err != nil {
		return nil, classify(id, err)
	}
	run.Span().SetAttributes(attribute.String("product.id", id))
	return p, nil
}

type UpdateProductInput struct {
	ProductID string
	Details   dominv.Details
}

func (c *Catalog) Update(ctx context.Context, in UpdateProductInput) (_ *dominv.Product, err error) {
	ctx, run := c.inst.Begin(ctx, useCaseUpdateProduct, "UpdateProduct",
		attribute.String("product.id", in.ProductID),
	)
	defer func() { run.End(err) }()

	if in.Details.Name == nil && in.Details.UnitPrice == nil {
		run.Fail("NOTHING_TO_UPDATE")
		return nil, apperr.Validation("name or unitPrice is required")
	}
	p, err := c.repo.UpdateDetails(ctx, in.ProductID, in.Details)
	if err != nil {
		return nil, classify(in.ProductID, err)
	}
	return p, nil
}

func (c *Catalog) List(ctx context.Context) (_ []*dominv.Product, err error) {
	ctx, run := c.inst.Begin(ctx, useCaseListProducts, "ListProducts")
	defer func() { run.End(err) }()

	out, err := c.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal("inventory repository", err)
	}
	run.Field(observability.F("count", len(out)))
	return out, nil
}
