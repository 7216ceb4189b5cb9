package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/catalog-backoffice/api/middleware"
	"github.com/angelmondragon/catalog-backoffice/api/responses"
	"github.com/angelmondragon/catalog-backoffice/api/validators"
	variantsvc "github.com/angelmondragon/catalog-backoffice/internal/variants"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/types"
)

const maxSKULength = 64

// CreateVariant handles POST /products/{productId}/variants.
func CreateVariant(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "variant service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload createVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.CreateVariant(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, variant)
	}
}

// GenerateVariantMatrix handles POST /products/{productId}/variants/matrix.
func GenerateVariantMatrix(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "variant service unavailable"))
			return
		}

		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload matrixRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.GenerateVariantMatrix(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ListVariants(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListVariants(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []variantsvc.VariantDTO{}
		}
		responses.WriteSuccess(w, items)
	}
}

func GetVariant(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.GetVariant(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variant)
	}
}

// UpdateVariant handles PATCH /variants/{variantId}. Omitted fields keep their value.
func UpdateVariant(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "variant service unavailable"))
			return
		}

		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload updateVariantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		variant, err := svc.UpdateVariant(r.Context(), variantID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, variant)
	}
}

// DeleteVariant soft-deletes the variant. Its inventory record is left in place and
// shows up as a zombie in the inventory diagnostics.
func DeleteVariant(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteVariant(r.Context(), variantID, middleware.ActorFromContext(r.Context())); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// RepriceVariants resolves variants whose price was left unresolved.
func RepriceVariants(svc variantsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", 500, 1, 5000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RepriceUnresolved(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type pricingRequest struct {
	Price         decimal.NullDecimal `json:"price"`
	PriceOverride decimal.NullDecimal `json:"price_override"`
	MRP           decimal.NullDecimal `json:"mrp"`
	CostPrice     decimal.NullDecimal `json:"cost_price"`
}

func (p pricingRequest) toInput() (variantsvc.PricingInput, error) {
	if !p.Price.Valid {
		return variantsvc.PricingInput{}, pkgerrors.New(pkgerrors.CodeValidation, "price is required")
	}
	return variantsvc.PricingInput{
		Price:     p.Price,
		Override:  p.PriceOverride,
		MRP:       p.MRP,
		CostPrice: p.CostPrice,
	}, nil
}

type createVariantRequest struct {
	pricingRequest
	SKU             *string               `json:"sku,omitempty"`
	Attributes      []types.AttributePair `json:"attributes"`
	SizeID          *uuid.UUID            `json:"size_id,omitempty"`
	ColorID         *uuid.UUID            `json:"color_id,omitempty"`
	Status          string                `json:"status,omitempty"`
	IsActive        *bool                 `json:"is_active,omitempty"`
	EnsureInventory *bool                 `json:"ensure_inventory,omitempty"`
}

func (r createVariantRequest) toInput(actor string) (variantsvc.CreateVariantInput, error) {
	pricing, err := r.pricingRequest.toInput()
	if err != nil {
		return variantsvc.CreateVariantInput{}, err
	}
	sku, err := sanitizeSKU(r.SKU, "sku")
	if err != nil {
		return variantsvc.CreateVariantInput{}, err
	}
	return variantsvc.CreateVariantInput{
		SKU:             sku,
		Attributes:      r.Attributes,
		LegacySizeID:    r.SizeID,
		LegacyColorID:   r.ColorID,
		Pricing:         pricing,
		Status:          strings.TrimSpace(r.Status),
		LegacyActive:    r.IsActive,
		EnsureInventory: r.EnsureInventory,
		Actor:           actor,
	}, nil
}

type matrixRequest struct {
	pricingRequest
	Axes            [][]uuid.UUID `json:"axes" validate:"required,min=1"`
	Status          string        `json:"status,omitempty"`
	SKUPrefix       *string       `json:"sku_prefix,omitempty"`
	EnsureInventory *bool         `json:"ensure_inventory,omitempty"`
}

func (r matrixRequest) toInput(actor string) (variantsvc.MatrixInput, error) {
	pricing, err := r.pricingRequest.toInput()
	if err != nil {
		return variantsvc.MatrixInput{}, err
	}
	prefix, err := sanitizeSKU(r.SKUPrefix, "sku_prefix")
	if err != nil {
		return variantsvc.MatrixInput{}, err
	}
	return variantsvc.MatrixInput{
		Axes:            r.Axes,
		Pricing:         pricing,
		Status:          strings.TrimSpace(r.Status),
		SKUPrefix:       prefix,
		EnsureInventory: r.EnsureInventory,
		Actor:           actor,
	}, nil
}

type updateVariantRequest struct {
	SKU                *string                `json:"sku,omitempty"`
	Attributes         *[]types.AttributePair `json:"attributes,omitempty"`
	SizeID             *uuid.UUID             `json:"size_id,omitempty"`
	ColorID            *uuid.UUID             `json:"color_id,omitempty"`
	Price              decimal.NullDecimal    `json:"price"`
	PriceOverride      decimal.NullDecimal    `json:"price_override"`
	ClearPriceOverride bool                   `json:"clear_price_override,omitempty"`
	MRP                decimal.NullDecimal    `json:"mrp"`
	CostPrice          decimal.NullDecimal    `json:"cost_price"`
	Status             *string                `json:"status,omitempty"`
	IsActive           *bool                  `json:"is_active,omitempty"`
	ExpectedVersion    *int                   `json:"expected_version,omitempty" validate:"omitempty,min=1"`
}

func (r updateVariantRequest) toInput(actor string) (variantsvc.UpdateVariantInput, error) {
	if r.ClearPriceOverride && r.PriceOverride.Valid {
		return variantsvc.UpdateVariantInput{}, pkgerrors.New(pkgerrors.CodeValidation, "price_override and clear_price_override are mutually exclusive")
	}
	sku, err := sanitizeSKU(r.SKU, "sku")
	if err != nil {
		return variantsvc.UpdateVariantInput{}, err
	}
	return variantsvc.UpdateVariantInput{
		SKU:             sku,
		Attributes:      r.Attributes,
		LegacySizeID:    r.SizeID,
		LegacyColorID:   r.ColorID,
		Price:           r.Price,
		Override:        r.PriceOverride,
		ClearOverride:   r.ClearPriceOverride,
		MRP:             r.MRP,
		CostPrice:       r.CostPrice,
		Status:          r.Status,
		LegacyActive:    r.IsActive,
		ExpectedVersion: r.ExpectedVersion,
		Actor:           actor,
	}, nil
}

func sanitizeSKU(raw *string, field string) (*string, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := validators.SanitizeString(*raw, field, maxSKULength)
	if err != nil {
		return nil, err
	}
	return &value, nil
}
