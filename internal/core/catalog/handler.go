package catalog

import (
	"inventory/internal/config"
	"inventory/internal/core/job"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	job     *job.JobService
	catalog *Service
	stores  []config.StoreDescriptor
	config  config.Config
}

func NewHandler(jobs *job.JobService, svc *Service, registry []config.StoreDescriptor, cfg config.Config) *Handler {
	return &Handler{job: jobs, catalog: svc, stores: registry, config: cfg}
}

type createRequest struct {
	Stores []config.StoreDescriptor `json:"stores"`
}

type createResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
}

type statusResponse struct {
	Success bool               `json:"success"`
	JobID   string             `json:"job_id"`
	Status  string             `json:"status"`
	Error   string             `json:"error,omitempty"`
	Data    *job.CatalogResult `json:"data,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleCreateCatalog enqueues a scrape batch. The body may override the
// store list; credentials always come from server configuration.
func (h *Handler) HandleCreateCatalog(c *fiber.Ctx) error {
	var req createRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
		}
	}
	stores := req.Stores
	if len(stores) == 0 {
		stores = h.stores
	}

	jc := JobConfig{
		Stores:      stores,
		Username:    h.config.PortalUsername,
		Password:    h.config.PortalPassword,
		DownloadDir: h.config.DownloadDir,
	}
	id, err := h.catalog.Enqueue(c.Context(), jc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	return c.JSON(createResponse{Success: true, JobID: id})
}

func (h *Handler) HandleGetCatalog(c *fiber.Ctx) error {
	id := c.Params("jobId")
	j, err := h.job.GetJobStatus(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not_found"})
	}
	resp := statusResponse{Success: true, JobID: j.JobID, Status: string(j.Status), Error: j.Error}
	if j.Results.Catalog != nil {
		resp.Data = j.Results.Catalog
	}
	return c.JSON(resp)
}
