package indicators

import (
	"errors"
	"strings"

	"ioc-sync/core/logger"
	"ioc-sync/core/policy"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for indicators.
type Handler struct {
	service *Service
}

// NewHandler creates a new HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes registers the indicator routes.
func (h *Handler) RegisterRoutes(app fiber.Router) {
	group := app.Group("/indicators")
	group.Get("/plan", h.HandlePlan)
	group.Get("/prevalence", h.HandlePrevalence)
	group.Get("/status", h.HandleStatus)
	group.Get("/history", h.HandleHistory)
}

// HandlePlan returns the dry-run plan for a write stage.
// Query: stage (report|deploy, default from config or report), host_groups
// (comma list, empty for global), global, prune.
func (h *Handler) HandlePlan(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	stage, err := h.planStage(c.Query("stage"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	preview, err := h.service.Preview(c.Context(), stage, h.scope(c), c.QueryBool("prune", false))
	if err != nil {
		l.Error("Plan preview failed", zap.Error(err))
		return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(preview)
}

// HandlePrevalence returns the prevalence report for the desired domains.
func (h *Handler) HandlePrevalence(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	threshold := c.QueryInt("threshold", h.service.settings.Policy.PrevalenceThreshold)
	maxItems := c.QueryInt("max", h.service.settings.Policy.PrevalenceMax)

	report, err := h.service.Prevalence(c.Context(), threshold, maxItems)
	if err != nil {
		l.Error("Prevalence report failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(report)
}

// HandleStatus returns the managed record count.
func (h *Handler) HandleStatus(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	status, err := h.service.Status(c.Context())
	if err != nil {
		l.Error("Status check failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(status)
}

// HandleHistory returns the most recent runs.
func (h *Handler) HandleHistory(c *fiber.Ctx) error {
	l := logger.WithRayID(h.service.logger, c)

	runs, err := h.service.History(c.Context(), c.QueryInt("limit", 0))
	if errors.Is(err, ErrHistoryDisabled) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	if err != nil {
		l.Error("History lookup failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{"runs": runs})
}

// planStage picks the stage of a plan request. Plans only exist for write stages.
func (h *Handler) planStage(raw string) (policy.Stage, error) {
	if raw == "" {
		if stage, err := policy.ParseStage(h.service.settings.Policy.DeploymentStage); err == nil && stage.IsWrite() {
			return stage, nil
		}
		return policy.StageReport, nil
	}
	stage, err := policy.ParseStage(raw)
	if err != nil {
		return "", err
	}
	if !stage.IsWrite() {
		return "", errors.New("plan requires the report or deploy stage")
	}
	return stage, nil
}

func (h *Handler) scope(c *fiber.Ctx) policy.Scope {
	var override *string
	if c.Context().QueryArgs().Has("host_groups") {
		v := strings.TrimSpace(c.Query("host_groups"))
		override = &v
	}
	return policy.ResolveScope(h.service.settings.Rollout.HostGroups, override, c.QueryBool("global", false))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, policy.ErrNoActions), errors.Is(err, policy.ErrNoHostGroupsResolved):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadGateway
	}
}
