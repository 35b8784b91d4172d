package report

import (
	"errors"
	"mime/multipart"
	"strconv"

	"facility-report/internal/middleware"
	"facility-report/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ReportController struct {
	ReportService ReportService
	Logger        *zap.Logger
}

func NewReportController(reportService ReportService, logger *zap.Logger) *ReportController {
	return &ReportController{
		ReportService: reportService,
		Logger:        logger,
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrVersionConflict):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func (ctrl *ReportController) fail(c *fiber.Ctx, err error, fallback string) error {
	status := errorStatus(err)
	message := fallback
	if status != fiber.StatusInternalServerError {
		message = err.Error()
	} else {
		ctrl.Logger.Error(fallback, zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"message": message})
}

// optionalImage returns the uploaded image file, or nil when the request
// carries none.
func optionalImage(c *fiber.Ctx) *multipart.FileHeader {
	file, err := c.FormFile("image")
	if err != nil {
		return nil
	}
	return file
}

// Create godoc
// @Summary      Submit a report
// @Description  Create a facility-damage report with an optional image attachment
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        name formData string true "Reporter name"
// @Param        building formData string true "Building (UB, CE, ICT, PKY)"
// @Param        roomNumber formData string true "Room number"
// @Param        category formData string true "Damage category"
// @Param        details formData string true "Details"
// @Param        reportDate formData string false "Report date (YYYY-MM-DD)"
// @Param        image formData file false "Photo of the damage"
// @Success      201 {object} Report
// @Failure      400 {object} map[string]interface{}
// @Failure      401 {object} map[string]interface{}
// @Router       /api/reports [post]
func (ctrl *ReportController) Create(c *fiber.Ctx) error {
	input := CreateInput{
		Name:       c.FormValue("name"),
		Building:   c.FormValue("building"),
		RoomNumber: c.FormValue("roomNumber"),
		Category:   c.FormValue("category"),
		Details:    c.FormValue("details"),
		ReportDate: c.FormValue("reportDate"),
	}

	created, err := ctrl.ReportService.Create(c.UserContext(), input, optionalImage(c), middleware.Claims(c))
	if err != nil {
		return ctrl.fail(c, err, "Error creating report")
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

// List godoc
// @Summary      List reports
// @Description  All reports newest first; optional server-side filtering and pagination
// @Tags         reports
// @Produce      json
// @Param        building query string false "Filter by building"
// @Param        category query string false "Filter by category"
// @Param        status query string false "Filter by status"
// @Param        mine query bool false "Only the caller's reports (requires bearer token)"
// @Param        page query int false "Page number (1-based, with limit)"
// @Param        limit query int false "Page size"
// @Success      200 {array} Report
// @Failure      401 {object} map[string]interface{}
// @Router       /api/reports [get]
func (ctrl *ReportController) List(c *fiber.Ctx) error {
	query := ListQuery{
		Building: c.Query("building"),
		Category: c.Query("category"),
		Status:   c.Query("status"),
	}

	if c.Query("mine") == "true" {
		claims, err := bearerClaims(c)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"message": "Authentication required for mine=true",
			})
		}
		query.OwnerID = claims.UserID
	}

	if limit, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil && limit > 0 {
		query.Limit = limit
		if page, err := strconv.ParseInt(c.Query("page"), 10, 64); err == nil && page > 1 {
			query.Page = page
		}
	}

	reports, total, err := ctrl.ReportService.List(c.UserContext(), query)
	if err != nil {
		return ctrl.fail(c, err, "Error fetching reports")
	}

	c.Set("X-Total-Count", strconv.FormatInt(total, 10))
	return c.JSON(reports)
}

// bearerClaims parses the Authorization header on routes that are public
// but honor an optional token.
func bearerClaims(c *fiber.Ctx) (*utils.UserClaims, error) {
	authHeader := c.Get("Authorization")
	if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
		return nil, errors.New("missing bearer token")
	}
	return utils.ValidateToken(authHeader[7:])
}

// Get godoc
// @Summary      Get one report
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Report ID"
// @Success      200 {object} Report
// @Failure      404 {object} map[string]interface{}
// @Router       /api/reports/{id} [get]
func (ctrl *ReportController) Get(c *fiber.Ctx) error {
	report, err := ctrl.ReportService.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return ctrl.fail(c, err, "Error fetching report")
	}
	return c.JSON(report)
}

func formField(form *multipart.Form, key string) *string {
	if form == nil {
		return nil
	}
	if values, ok := form.Value[key]; ok && len(values) > 0 {
		return &values[0]
	}
	return nil
}

// Update godoc
// @Summary      Edit a report
// @Description  Partial update by the creator or an admin; a new image replaces the old one
// @Tags         reports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Report ID"
// @Param        version formData int false "Version the client last read; stale versions are rejected"
// @Success      200 {object} Report
// @Failure      400 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Failure      409 {object} map[string]interface{}
// @Router       /api/reports/{id} [patch]
func (ctrl *ReportController) Update(c *fiber.Ctx) error {
	form, _ := c.MultipartForm()

	input := UpdateInput{
		Name:       formField(form, "name"),
		Building:   formField(form, "building"),
		RoomNumber: formField(form, "roomNumber"),
		Category:   formField(form, "category"),
		Details:    formField(form, "details"),
		ReportDate: formField(form, "reportDate"),
	}

	if raw := formField(form, "version"); raw != nil {
		version, err := strconv.ParseInt(*raw, 10, 64)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Invalid version",
			})
		}
		input.Version = &version
	}

	updated, err := ctrl.ReportService.Update(c.UserContext(), c.Params("id"), input, optionalImage(c), middleware.Claims(c))
	if err != nil {
		return ctrl.fail(c, err, "Error updating report")
	}

	return c.JSON(updated)
}

type StatusUpdateRequest struct {
	Status  string `json:"status"`
	Note    string `json:"note"`
	Version *int64 `json:"version,omitempty"`
}

// UpdateStatus godoc
// @Summary      Update report status
// @Description  Admin-only workflow update; any of the three statuses may be set directly
// @Tags         reports
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Report ID"
// @Param        input body StatusUpdateRequest true "Status and note"
// @Success      200 {object} Report
// @Failure      400 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/reports/{id}/status [patch]
func (ctrl *ReportController) UpdateStatus(c *fiber.Ctx) error {
	var req StatusUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}

	updated, err := ctrl.ReportService.UpdateStatus(c.UserContext(), c.Params("id"), req.Status, req.Note, req.Version)
	if err != nil {
		return ctrl.fail(c, err, "Error updating report")
	}

	return c.JSON(updated)
}

// Delete godoc
// @Summary      Delete a report
// @Description  Permanent removal by the creator or an admin
// @Tags         reports
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Report ID"
// @Success      200 {object} map[string]interface{}
// @Failure      403 {object} map[string]interface{}
// @Failure      404 {object} map[string]interface{}
// @Router       /api/reports/{id} [delete]
func (ctrl *ReportController) Delete(c *fiber.Ctx) error {
	if err := ctrl.ReportService.Delete(c.UserContext(), c.Params("id"), middleware.Claims(c)); err != nil {
		return ctrl.fail(c, err, "Error deleting report")
	}

	return c.JSON(fiber.Map{"message": "Report deleted successfully"})
}

// Counts godoc
// @Summary      Report statistics
// @Description  Total and per-status counts for the dashboard widget
// @Tags         reports
// @Produce      json
// @Success      200 {object} Counts
// @Router       /api/reports/counts [get]
func (ctrl *ReportController) Counts(c *fiber.Ctx) error {
	counts, err := ctrl.ReportService.Counts(c.UserContext())
	if err != nil {
		return ctrl.fail(c, err, "Error fetching counts")
	}
	return c.JSON(counts)
}

// Export godoc
// @Summary      Export reports as XLSX
// @Tags         reports
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Success      200 {file} file "Spreadsheet"
// @Failure      403 {object} map[string]interface{}
// @Router       /api/reports/export [get]
func (ctrl *ReportController) Export(c *fiber.Ctx) error {
	data, filename, err := ctrl.ReportService.ExportXLSX(c.UserContext())
	if err != nil {
		return ctrl.fail(c, err, "Error exporting reports")
	}

	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	return c.Send(data)
}
