package controllers

import (
	"net/http"

	"github.com/angelmondragon/catalog-backoffice/api/responses"
	"github.com/angelmondragon/catalog-backoffice/api/validators"
	inventorysvc "github.com/angelmondragon/catalog-backoffice/internal/inventory"
	"github.com/angelmondragon/catalog-backoffice/pkg/logger"
)

// AdminRepairInventory runs an orphan repair sweep. Per-variant failures are reported in
// the body, so a partially failed sweep still answers 200.
func AdminRepairInventory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dryRun, err := validators.ParseQueryBool(r, "dry_run", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseQueryUUID(r, "product_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.RepairInventory(r.Context(), inventorysvc.RepairOptions{
			ProductID: productID,
			DryRun:    dryRun,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminInventoryDiagnostics(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := svc.RunDiagnostics(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

// AdminDedupeInventory archives all but the oldest live record of each duplicated variant.
func AdminDedupeInventory(svc inventorysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dryRun, err := validators.ParseQueryBool(r, "dry_run", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CleanupDuplicates(r.Context(), dryRun)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
