package handler

import (
	"bytes"
	"strings"
	"time"

	"github.com/Puru1375/ai-smart-internship-allocation/internal/apperror"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/dto"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/middleware"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/usecase"
	"github.com/Puru1375/ai-smart-internship-allocation/internal/util"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const exportFileName = "allocation_report.csv"

type AllocationHandler struct {
	allocation *usecase.AllocationUsecase
	matches    *usecase.MatchUsecase
	reports    *usecase.ReportUsecase
}

func NewAllocationHandler(allocation *usecase.AllocationUsecase, matches *usecase.MatchUsecase, reports *usecase.ReportUsecase) *AllocationHandler {
	return &AllocationHandler{allocation: allocation, matches: matches, reports: reports}
}

// RegisterRoutes mounts the allocation API under /allocations. auth must
// populate the caller identity.
func (h *AllocationHandler) RegisterRoutes(app *fiber.App, auth fiber.Handler) {
	g := app.Group("/allocations", auth)

	admin := middleware.RequireRole(middleware.RoleAdmin)
	applicant := middleware.RequireRole(middleware.RoleApplicant)
	organization := middleware.RequireRole(middleware.RoleOrganization)

	g.Post("/run", admin, middleware.RateLimiter(1, 4*time.Second), h.Run)
	g.Get("/results", admin, h.Results)
	g.Get("/stats", admin, h.Stats)
	g.Get("/audit-logs", admin, h.AuditLogs)
	g.Get("/export-csv", admin, h.ExportCSV)
	g.Get("/my-match", applicant, h.MyMatch)
	g.Get("/skill-gap", applicant, h.SkillGap)
	g.Get("/company-matches", organization, h.CompanyMatches)
	g.Post("/update-status", organization, h.UpdateStatus)
}

func (h *AllocationHandler) Run(c *fiber.Ctx) error {
	var req dto.RunAllocationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return util.AppErrorResponse(c, apperror.Wrap(apperror.KindValidation, "invalid request body", err))
		}
	}
	id, _ := middleware.IdentityFrom(c)

	result, err := h.allocation.Run(c.UserContext(), id.UserID, req.Fraction())
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Allocation complete",
		Data:    result,
	})
}

func (h *AllocationHandler) Results(c *fiber.Ctx) error {
	views, err := h.matches.ListAll(c.UserContext())
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get allocation results",
		Data:    views,
	})
}

func (h *AllocationHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.reports.Fairness(c.UserContext())
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get fairness stats",
		Data:    stats,
	})
}

func (h *AllocationHandler) AuditLogs(c *fiber.Ctx) error {
	logs, page, err := h.reports.AuditLogs(c.UserContext(), c.QueryInt("page", 1), c.QueryInt("limit", usecase.DefaultAuditLimit))
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message:    "Success get audit logs",
		Data:       logs,
		Pagination: page,
	})
}

func (h *AllocationHandler) ExportCSV(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.matches.ExportCSV(c.UserContext(), &buf); err != nil {
		return util.AppErrorResponse(c, err)
	}
	c.Attachment(exportFileName)
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	return c.Send(buf.Bytes())
}

func (h *AllocationHandler) MyMatch(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	view, err := h.matches.MyMatch(c.UserContext(), id.UserID)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get match",
		Data:    view,
	})
}

func (h *AllocationHandler) SkillGap(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	gaps, err := h.reports.SkillGap(c.UserContext(), id.UserID)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success analyze skill gap",
		Data:    gaps,
	})
}

func (h *AllocationHandler) CompanyMatches(c *fiber.Ctx) error {
	id, _ := middleware.IdentityFrom(c)
	views, err := h.matches.CompanyMatches(c.UserContext(), id.UserID)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Success get company matches",
		Data:    views,
	})
}

func (h *AllocationHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return util.AppErrorResponse(c, apperror.Wrap(apperror.KindValidation, "invalid request body", err))
	}
	matchID, err := uuid.Parse(strings.TrimSpace(req.MatchID))
	if err != nil {
		return util.AppErrorResponse(c, apperror.Wrap(apperror.KindValidation, "match_id must be a UUID", err))
	}
	id, _ := middleware.IdentityFrom(c)

	m, err := h.matches.Transition(c.UserContext(), id.UserID, matchID, req.Status)
	if err != nil {
		return util.AppErrorResponse(c, err)
	}
	return util.SuccessResponse(c, util.SuccessResponseFormat{
		Message: "Status updated",
		Data:    fiber.Map{"match_id": m.ID, "status": m.Status},
	})
}
