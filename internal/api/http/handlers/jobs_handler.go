package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/workforce-service/internal/service"
)

const manualTrigger = "api"

// JobEnqueuer hands background jobs to the worker queue.
type JobEnqueuer interface {
	EnqueueLicenseSweep(ctx context.Context, trigger string) (string, error)
	EnqueueTerritoryReconcile(ctx context.Context, trigger string) (string, error)
}

// JobsHandler triggers the license sweep and territory reconciliation. With
// no queue configured the job runs inline and its report is returned.
type JobsHandler struct {
	queue       JobEnqueuer
	licenses    *service.LicenseService
	territories *service.TerritoryService
}

// NewJobsHandler constructs handler. queue may be nil.
func NewJobsHandler(queue JobEnqueuer, licenses *service.LicenseService, territories *service.TerritoryService) *JobsHandler {
	return &JobsHandler{queue: queue, licenses: licenses, territories: territories}
}

// LicenseSweep handles POST /admin/jobs/license-sweep.
func (h *JobsHandler) LicenseSweep(c *fiber.Ctx) error {
	if h.queue != nil {
		id, err := h.queue.EnqueueLicenseSweep(c.UserContext(), manualTrigger)
		if err != nil {
			return err
		}
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"taskId": id}})
	}
	report, err := h.licenses.Sweep(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}

// TerritoryReconcile handles POST /admin/jobs/territory-reconcile.
func (h *JobsHandler) TerritoryReconcile(c *fiber.Ctx) error {
	if h.queue != nil {
		id, err := h.queue.EnqueueTerritoryReconcile(c.UserContext(), manualTrigger)
		if err != nil {
			return err
		}
		return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"taskId": id}})
	}
	report, err := h.territories.Reconcile(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
