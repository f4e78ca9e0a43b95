package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/hearthapp/hearth/internal/apierr"
	"github.com/hearthapp/hearth/internal/auth"
	"github.com/hearthapp/hearth/internal/backup"
	"github.com/hearthapp/hearth/internal/entitlement"
	"github.com/hearthapp/hearth/internal/model"
	"github.com/hearthapp/hearth/internal/store"
)

type BackupHandler struct {
	manager    *backup.Manager
	backups    *store.BackupStore
	households *store.HouseholdStore
	quota      *entitlement.QuotaChecker
	logger     *slog.Logger
}

func NewBackupHandler(m *backup.Manager, bs *store.BackupStore, hs *store.HouseholdStore, quota *entitlement.QuotaChecker, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{
		manager:    m,
		backups:    bs,
		households: hs,
		quota:      quota,
		logger:     logger.With("component", "backup"),
	}
}

// checkAccess enforces the role gate, the plan gate, and the monthly
// quota, in that order. consume controls whether a quota unit is spent.
func (h *BackupHandler) checkAccess(r *http.Request, consume bool) *apierr.Error {
	if !auth.IsOwnerOrAdmin(r.Context()) {
		return apierr.Forbidden("only owners and admins can manage backups")
	}

	householdID := auth.HouseholdID(r.Context())
	household, err := h.households.GetByID(householdID)
	if err != nil {
		return apierr.Upstream(err)
	}
	if household == nil {
		return apierr.NotFound("household")
	}

	plan := entitlement.ParsePlan(household.Plan)
	if !entitlement.CanAccess(plan, entitlement.FeatureBackups) {
		return apierr.Forbidden("backups require the Pro plan").WithCode("UPGRADE_REQUIRED")
	}

	if consume {
		allowed, err := h.quota.Consume(r.Context(), householdID, plan, entitlement.FeatureBackups)
		if err != nil {
			return apierr.Upstream(err)
		}
		if !allowed {
			return apierr.Forbidden("monthly backup quota exhausted").WithCode("QUOTA_EXCEEDED")
		}
	}
	return nil
}

// Run triggers an immediate encrypted backup.
func (h *BackupHandler) Run(w http.ResponseWriter, r *http.Request) {
	if aerr := h.checkAccess(r, true); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}
	if !h.manager.Configured() {
		writeErr(w, h.logger, apierr.New(apierr.KindUpstream, "backup storage is not configured"))
		return
	}

	record, err := h.manager.Run(r.Context())
	if err != nil {
		writeErr(w, h.logger, apierr.Wrap(apierr.KindUpstream, "backup failed", err))
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

// List returns recent backup records.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	if aerr := h.checkAccess(r, false); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	records, err := h.backups.List(20)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if records == nil {
		records = []model.Backup{}
	}
	writeJSON(w, http.StatusOK, records)
}

// Download streams an encrypted backup object.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	if aerr := h.checkAccess(r, false); aerr != nil {
		writeErr(w, h.logger, aerr)
		return
	}

	id, err := parseIDParam(r)
	if err != nil {
		writeErr(w, h.logger, apierr.BadRequest("invalid id"))
		return
	}

	record, err := h.backups.GetByID(id)
	if err != nil {
		writeErr(w, h.logger, apierr.Upstream(err))
		return
	}
	if record == nil || record.Status != "completed" {
		writeErr(w, h.logger, apierr.NotFound("backup"))
		return
	}

	body, err := h.manager.Download(r.Context(), record.ObjectKey)
	if err != nil {
		writeErr(w, h.logger, apierr.Wrap(apierr.KindUpstream, "download failed", err))
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", `attachment; filename="hearth-backup.db.enc"`)
	if _, err := io.Copy(w, body); err != nil {
		h.logger.Error("stream backup", "error", err)
	}
}
