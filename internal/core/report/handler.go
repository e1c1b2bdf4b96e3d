package report

import (
	"os"
	"path/filepath"
	"strings"

	"inventory/internal/config"
	"inventory/internal/core/job"
	"inventory/internal/core/notify"
	"inventory/internal/utils/parser"

	"github.com/gofiber/fiber/v2"
)

type Handler struct {
	job    *job.JobService
	report *Service
	config config.Config
}

func NewHandler(jobs *job.JobService, svc *Service, cfg config.Config) *Handler {
	return &Handler{job: jobs, report: svc, config: cfg}
}

type runRequest struct {
	Brands     []string `json:"brands"`
	Recipients []string `json:"recipients"`
	Emails     string   `json:"emails"`
	StrainType *bool    `json:"strain_type"`
}

type runResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id"`
}

type jobResponse struct {
	Success bool              `json:"success"`
	JobID   string            `json:"job_id"`
	Status  string            `json:"status"`
	Error   string            `json:"error,omitempty"`
	Data    *job.ReportResult `json:"data,omitempty"`
}

type brandsResponse struct {
	Success bool     `json:"success"`
	Brands  []string `json:"brands"`
}

type artifactInfo struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

type artifactsResponse struct {
	Success   bool           `json:"success"`
	Artifacts []artifactInfo `json:"artifacts"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// HandleRunReports enqueues the build+publish+notify pipeline. Recipients
// come either as a list or as one delimited string.
func (h *Handler) HandleRunReports(c *fiber.Ctx) error {
	var req runRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "invalid body"})
	}
	recipients := append([]string{}, req.Recipients...)
	if req.Emails != "" {
		recipients = append(recipients, notify.ParseRecipients(req.Emails)...)
	}
	if len(recipients) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: "no recipients"})
	}
	strain := true
	if req.StrainType != nil {
		strain = *req.StrainType
	}

	jc := JobConfig{
		InputDir:   h.config.DownloadDir,
		OutputDir:  h.config.OutputDir,
		Brands:     req.Brands,
		Recipients: recipients,
		StrainType: strain,
	}
	id, err := h.report.Enqueue(c.Context(), jc)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	return c.JSON(runResponse{Success: true, JobID: id})
}

func (h *Handler) HandleGetReport(c *fiber.Ctx) error {
	id := c.Params("jobId")
	j, err := h.job.GetJobStatus(c.Context(), id)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(errorResponse{Error: "not_found"})
	}
	resp := jobResponse{Success: true, JobID: j.JobID, Status: string(j.Status), Error: j.Error}
	if j.Results.Report != nil {
		resp.Data = j.Results.Report
	}
	return c.JSON(resp)
}

// HandleListBrands scans the current extracts for brand keys an operator can
// select from.
func (h *Handler) HandleListBrands(c *fiber.Ctx) error {
	brands, err := ScanBrands(h.config.DownloadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(brandsResponse{Success: true, Brands: []string{}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}
	if brands == nil {
		brands = []string{}
	}
	return c.JSON(brandsResponse{Success: true, Brands: brands})
}

// HandleListArtifacts lists generated spreadsheets, optionally filtered by
// brand and artifact date (MM-DD-YYYY).
func (h *Handler) HandleListArtifacts(c *fiber.Ctx) error {
	var q struct {
		Brand string `form:"brand"`
		Date  string `form:"date"`
	}
	if err := parser.ParseQuery(c, &q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorResponse{Error: err.Error()})
	}

	entries, err := os.ReadDir(h.config.OutputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return c.JSON(artifactsResponse{Success: true, Artifacts: []artifactInfo{}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(errorResponse{Error: err.Error()})
	}

	out := []artifactInfo{}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".xlsx") {
			continue
		}
		if q.Brand != "" && !strings.Contains(name, "_"+NormalizeBrand(q.Brand)+"_") {
			continue
		}
		if q.Date != "" && !strings.HasSuffix(name, "_"+q.Date+".xlsx") {
			continue
		}
		out = append(out, artifactInfo{Name: name, URL: h.fileURL(name)})
	}
	return c.JSON(artifactsResponse{Success: true, Artifacts: out})
}

// fileURL maps an artifact to its static-files route when the output dir
// lives under the served data dir.
func (h *Handler) fileURL(name string) string {
	rel, err := filepath.Rel(h.config.DataDir, filepath.Join(h.config.OutputDir, name))
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	return "/files/" + filepath.ToSlash(rel)
}
