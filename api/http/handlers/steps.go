package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pathcraft/backend/api/http/presenter"
	"github.com/pathcraft/backend/pkg/plan"
	"github.com/pathcraft/backend/pkg/progress"
)

type StepsHandler struct {
	uc progress.UseCase
}

func NewStepsHandler(uc progress.UseCase) *StepsHandler { return &StepsHandler{uc: uc} }

// ListForPlan возвращает шаги плана вместе с вычисленным прогрессом.
// @Summary Шаги плана с прогрессом
// @Tags    Шаги
// @Produce json
// @Param   id path string true "ID плана (UUID)"
// @Security BearerAuth
// @Success 200 {array} progress.StepState
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /plans/{id}/steps [get]
func (h *StepsHandler) ListForPlan(c *fiber.Ctx) error {
	planID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный id")
	}
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	items, err := h.uc.ListForPlan(c.Context(), userID, planID)
	if err != nil {
		if errors.Is(err, plan.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "план не найден")
		}
		return presenter.Error(c, http.StatusInternalServerError, "не удалось получить шаги")
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// Start переводит шаг в in_progress.
// @Summary Начать шаг
// @Tags    Шаги
// @Produce json
// @Param   id path string true "ID шага (UUID)"
// @Security BearerAuth
// @Success 200 {object} progress.StepProgress
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /steps/{id}/start [post]
func (h *StepsHandler) Start(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Start)
}

// Complete переводит шаг в completed.
// @Summary Завершить шаг
// @Tags    Шаги
// @Produce json
// @Param   id path string true "ID шага (UUID)"
// @Security BearerAuth
// @Success 200 {object} progress.StepProgress
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Router  /steps/{id}/complete [post]
func (h *StepsHandler) Complete(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Complete)
}

// Reset возвращает шаг в not_started.
// @Summary Сбросить шаг
// @Tags    Шаги
// @Produce json
// @Param   id path string true "ID шага (UUID)"
// @Security BearerAuth
// @Success 200 {object} progress.StepProgress
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /steps/{id}/reset [post]
func (h *StepsHandler) Reset(c *fiber.Ctx) error {
	return h.transition(c, h.uc.Reset)
}

func (h *StepsHandler) transition(c *fiber.Ctx, fn func(ctx context.Context, userID, stepID uuid.UUID) (progress.StepProgress, error)) error {
	stepID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный id")
	}
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	p, err := fn(c.Context(), userID, stepID)
	if err != nil {
		switch {
		case errors.Is(err, plan.ErrNotFound):
			return presenter.Error(c, http.StatusNotFound, "шаг не найден")
		case errors.Is(err, progress.ErrInvalidTransition):
			return presenter.Error(c, http.StatusConflict, err.Error())
		default:
			return presenter.Error(c, http.StatusInternalServerError, "не удалось обновить шаг")
		}
	}
	return presenter.JSON(c, http.StatusOK, p)
}
