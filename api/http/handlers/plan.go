package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pathcraft/backend/api/http/presenter"
	"github.com/pathcraft/backend/pkg/llm"
	"github.com/pathcraft/backend/pkg/plan"
	"github.com/pathcraft/backend/pkg/profile"
)

type PlanHandler struct {
	uc plan.UseCase
}

func NewPlanHandler(uc plan.UseCase) *PlanHandler { return &PlanHandler{uc: uc} }

// GetOrCreate возвращает актуальный план пользователя или генерирует новый,
// если последний план старше окна свежести. ?force=true генерирует заново.
// @Summary Получить или сгенерировать карьерный план
// @Tags    Планы
// @Produce json
// @Param   force query bool false "пропустить кеш и сгенерировать заново"
// @Security BearerAuth
// @Success 200 {object} plan.Plan
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 422 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /plans [post]
func (h *PlanHandler) GetOrCreate(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	opts := plan.GetOrCreateOptions{ForceRefresh: c.QueryBool("force")}

	p, err := h.uc.GetOrCreate(c.Context(), userID, opts)
	if err != nil {
		switch {
		case errors.Is(err, profile.ErrNotFound):
			return presenter.Error(c, http.StatusNotFound, "сначала заполните профиль")
		case errors.Is(err, llm.ErrTimeout):
			return presenter.Error(c, http.StatusBadGateway, "генерация плана не уложилась в таймаут, попробуйте ещё раз")
		case errors.Is(err, plan.ErrPlanGenerationFailed):
			return presenter.Error(c, http.StatusUnprocessableEntity, "не удалось сгенерировать план")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "не удалось получить план")
		}
	}
	return presenter.JSON(c, http.StatusOK, p)
}

// History возвращает историю планов пользователя, новые первыми.
// @Summary История планов
// @Tags    Планы
// @Produce json
// @Security BearerAuth
// @Success 200 {array} plan.Plan
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /plans [get]
func (h *PlanHandler) History(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	limit, offset := parseLimitOffset(c, 20)
	items, err := h.uc.History(c.Context(), userID, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "не удалось получить историю планов")
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// AdminHistory возвращает историю планов произвольного пользователя.
// @Summary История планов пользователя (только для администраторов)
// @Tags    Планы
// @Produce json
// @Param   id path string true "ID пользователя (UUID)"
// @Security BearerAuth
// @Success 200 {array} plan.Plan
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /admin/users/{id}/plans [get]
func (h *PlanHandler) AdminHistory(c *fiber.Ctx) error {
	if _, ok := actorID(c); !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	if !isAdmin(c) {
		return presenter.Error(c, http.StatusForbidden, "требуются права администратора")
	}
	userID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный id пользователя")
	}
	limit, offset := parseLimitOffset(c, 20)
	items, err := h.uc.History(c.Context(), userID, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "не удалось получить историю планов")
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// Get возвращает один план владельца по id.
// @Summary Получить план
// @Tags    Планы
// @Produce json
// @Param   id path string true "ID плана (UUID)"
// @Security BearerAuth
// @Success 200 {object} plan.Plan
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /plans/{id} [get]
func (h *PlanHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный id")
	}
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	p, err := h.uc.Get(c.Context(), userID, id)
	if err != nil {
		return presenter.Error(c, http.StatusNotFound, "план не найден")
	}
	return presenter.JSON(c, http.StatusOK, p)
}
