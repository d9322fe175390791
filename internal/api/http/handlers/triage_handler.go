package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportec/triage-service/internal/api/dto"
	"github.com/soportec/triage-service/internal/auth"
	"github.com/soportec/triage-service/internal/domain"
	"github.com/soportec/triage-service/internal/observability"
	"github.com/soportec/triage-service/internal/service"
	apperrors "github.com/soportec/triage-service/pkg/util"
)

// TriageHandler exposes the AutoTriage batch, the manual assignment
// flow, and the stats read surface.
type TriageHandler struct {
	assignments *service.AssignmentService
	stats       *service.StatsService
	metrics     *observability.Metrics
}

// NewTriageHandler constructs handler.
func NewTriageHandler(assignments *service.AssignmentService, stats *service.StatsService, metrics *observability.Metrics) *TriageHandler {
	return &TriageHandler{assignments: assignments, stats: stats, metrics: metrics}
}

// RunBatch POST /triage/run.
func (h *TriageHandler) RunBatch(c *fiber.Ctx) error {
	report, err := h.assignments.RunBatch(c.UserContext())
	if err != nil {
		return err
	}
	h.metrics.RecordTriageRun(report.Assigned)
	return c.JSON(fiber.Map{"data": batchReportResponse(report)})
}

// GetStats GET /triage/stats.
func (h *TriageHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.stats.GetStats(c.UserContext())
	if err != nil {
		return err
	}
	buckets := make([]dto.StatsBucketResponse, 0, len(stats.Buckets))
	for _, bucket := range stats.Buckets {
		buckets = append(buckets, dto.StatsBucketResponse{Hour: bucket.Hour, Count: bucket.Count})
	}
	return c.JSON(fiber.Map{"data": dto.TriageStatsResponse{
		PendingCount: stats.PendingCount,
		Buckets:      buckets,
	}})
}

// RecentAssignments GET /triage/recent.
func (h *TriageHandler) RecentAssignments(c *fiber.Ctx) error {
	results, err := h.assignments.RecentResults(c.UserContext(), parseInt(c.Query("limit"), 50))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResultResponse, 0, len(results))
	for _, result := range results {
		items = append(items, assignmentResultResponse(result))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAssignments GET /tickets/:id/assignments.
func (h *TriageHandler) ListAssignments(c *fiber.Ctx) error {
	results, err := h.assignments.ListResults(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.AssignmentResultResponse, 0, len(results))
	for _, result := range results {
		items = append(items, assignmentResultResponse(result))
	}
	return c.JSON(fiber.Map{"data": items})
}

// PrepareAssignment GET /tickets/:id/assignment.
func (h *TriageHandler) PrepareAssignment(c *fiber.Ctx) error {
	info, err := h.assignments.PrepareManualAssignment(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	view := service.TicketView{Ticket: info.Ticket, Clock: info.Clock}
	return c.JSON(fiber.Map{"data": dto.ManualAssignmentInfoResponse{
		Ticket:     ticketDetail(&view, nil),
		Candidates: candidateResponses(info.Candidates),
	}})
}

// ConfirmAssignment POST /tickets/:id/assignment.
func (h *TriageHandler) ConfirmAssignment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("technician required")
	}
	var req dto.ConfirmAssignmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	result, err := h.assignments.ConfirmManualAssignment(c.UserContext(), principal.Technician, c.Params("id"), req.TechnicianID, req.Justification)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": assignmentResultResponse(*result)})
}

func candidateResponses(candidates []domain.AssignmentCandidate) []dto.CandidateResponse {
	items := make([]dto.CandidateResponse, 0, len(candidates))
	for _, candidate := range candidates {
		items = append(items, dto.CandidateResponse{
			TechnicianID:   candidate.TechnicianID,
			TechnicianName: candidate.TechnicianName,
			Specialties:    candidate.Specialties,
			Workload:       candidate.Workload,
		})
	}
	return items
}

func assignmentResultResponse(result domain.AssignmentResult) dto.AssignmentResultResponse {
	return dto.AssignmentResultResponse{
		ID:            result.ID,
		TicketID:      result.TicketID,
		TechnicianID:  result.TechnicianID,
		Succeeded:     result.Succeeded,
		FailureReason: result.FailureReason,
		Score:         result.Score,
		Justification: result.Justification,
		Candidates:    candidateResponses(result.Candidates),
		Mode:          result.Mode,
		ActorID:       result.ActorID,
		CreatedAt:     result.CreatedAt,
	}
}

func batchReportResponse(report *service.BatchReport) dto.BatchReportResponse {
	assignments := make([]dto.AssignmentResultResponse, 0, len(report.Results))
	for _, result := range report.Results {
		assignments = append(assignments, assignmentResultResponse(result))
	}
	return dto.BatchReportResponse{
		TotalProcessed: report.TotalProcessed,
		Assigned:       report.Assigned,
		Failed:         report.Failed,
		Assignments:    assignments,
	}
}
