package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/catalog-backoffice/api/middleware"
	"github.com/angelmondragon/catalog-backoffice/api/responses"
	"github.com/angelmondragon/catalog-backoffice/api/validators"
	inventorysvc "github.com/angelmondragon/catalog-backoffice/internal/inventory"
	pkgerrors "github.com/angelmondragon/catalog-backoffice/pkg/errors"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
	"github.com/angelmondragon/catalog-backoffice/pkg/pagination"
)

const maxNoteLength = 500

// EnsureInventory handles POST /variants/{variantId}/inventory. It answers 201 when a
// record was created and 200 when the existing one was returned.
func EnsureInventory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.EnsureInventory(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := http.StatusOK
		if result.Created {
			status = http.StatusCreated
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func GetVariantInventory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		variantID, err := validators.ParseUUIDParam(r, "variantId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetInventoryByVariant(r.Context(), variantID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func GetInventory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParseUUIDParam(r, "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.GetInventory(r.Context(), inventoryID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

// AdjustStock handles POST /inventory/{inventoryId}/adjust.
func AdjustStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		inventoryID, err := validators.ParseUUIDParam(r, "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload adjustStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput(middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.AdjustStock(r.Context(), inventoryID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func SetInventoryDiscontinued(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParseUUIDParam(r, "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload discontinuedRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		record, err := svc.SetDiscontinued(r.Context(), inventoryID, *payload.Discontinued, middleware.ActorFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, record)
	}
}

func ListMovements(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		inventoryID, err := validators.ParseUUIDParam(r, "inventoryId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.ListMovements(r.Context(), inventoryID, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if items == nil {
			items = []inventorysvc.MovementDTO{}
		}
		responses.WriteSuccess(w, items)
	}
}

// ListLowStock handles GET /inventory/low-stock?max_available=&cursor=&limit=.
func ListLowStock(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := inventorysvc.LowStockInput{
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
			Limit:  limit,
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("max_available")); raw != "" {
			maxAvailable, err := validators.ParseQueryInt(r, "max_available", 0, 0, 1<<30)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.MaxAvailable = &maxAvailable
		}

		page, err := svc.ListLowStock(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

type adjustStockRequest struct {
	DeltaStock    *int    `json:"delta_stock,omitempty" validate:"omitempty,min=-1000000000,max=1000000000"`
	DeltaReserved *int    `json:"delta_reserved,omitempty" validate:"omitempty,min=-1000000000,max=1000000000"`
	Reason        string  `json:"reason" validate:"required"`
	Note          *string `json:"note,omitempty"`
}

func (r adjustStockRequest) toInput(actor string) (inventorysvc.AdjustStockInput, error) {
	var note *string
	if r.Note != nil {
		trimmed, err := validators.SanitizeString(*r.Note, "note", maxNoteLength)
		if err != nil {
			return inventorysvc.AdjustStockInput{}, err
		}
		note = &trimmed
	}
	return inventorysvc.AdjustStockInput{
		TotalDelta:    r.DeltaStock,
		ReservedDelta: r.DeltaReserved,
		Reason:        strings.TrimSpace(r.Reason),
		Actor:         actor,
		Note:          note,
	}, nil
}

type discontinuedRequest struct {
	Discontinued *bool `json:"discontinued" validate:"required"`
}
