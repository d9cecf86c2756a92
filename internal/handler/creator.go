package handler

import (
	"errors"
	"net/http"

	"creator-payments/internal/dto"
	"creator-payments/internal/middleware"
	"creator-payments/internal/model"
	"creator-payments/internal/payment"
	"creator-payments/internal/repository"
	"creator-payments/internal/service"

	"github.com/labstack/echo/v4"
)

type CreatorHandler struct {
	creatorService service.CreatorService
}

func NewCreatorHandler(creatorService service.CreatorService) *CreatorHandler {
	return &CreatorHandler{
		creatorService: creatorService,
	}
}

func toCreatorResponse(c *model.Creator) dto.CreatorResponse {
	return dto.CreatorResponse{
		ID:          c.ID,
		DisplayName: c.DisplayName,
		Active:      c.Active,
		PlanTier:    c.PlanTier,
	}
}

func (h *CreatorHandler) RegisterCreator(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.RegisterCreatorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	creator, err := h.creatorService.RegisterCreator(ctx, middleware.UserID(c), req.DisplayName)
	if err != nil {
		var perr *payment.Error
		if errors.As(err, &perr) {
			return errorResponse(c, perr)
		}
		return err
	}

	return c.JSON(http.StatusOK, toCreatorResponse(creator))
}

func (h *CreatorHandler) GetCreator(c echo.Context) error {
	ctx := c.Request().Context()

	creator, err := h.creatorService.GetCreator(ctx, c.Param("creatorID"))
	if errors.Is(err, repository.ErrCreatorNotFound) {
		return errorResponse(c, payment.ErrBeneficiaryNotFound)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toCreatorResponse(creator))
}

// UpdateCreator changes plan tier or suspends a creator. Admin only.
func (h *CreatorHandler) UpdateCreator(c echo.Context) error {
	ctx := c.Request().Context()

	if middleware.Role(c) != middleware.RoleAdmin {
		return echo.NewHTTPError(http.StatusForbidden, "admin only")
	}

	var req dto.UpdateCreatorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}

	var tier *payment.PlanTier
	if req.PlanTier != nil {
		t, err := payment.ParsePlanTier(*req.PlanTier)
		if err != nil {
			return errorResponse(c, payment.Errorf(payment.KindInvalidRequest, "plan_tier must be one of STANDARD, PREMIUM, PARTNER"))
		}
		tier = &t
	}

	creator, err := h.creatorService.UpdateCreator(ctx, c.Param("creatorID"), req.Active, tier)
	if errors.Is(err, repository.ErrCreatorNotFound) {
		return errorResponse(c, payment.ErrBeneficiaryNotFound)
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toCreatorResponse(creator))
}
