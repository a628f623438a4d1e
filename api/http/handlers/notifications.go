package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pathcraft/backend/api/http/presenter"
	"github.com/pathcraft/backend/pkg/notification"
)

type NotificationsHandler struct {
	uc notification.UseCase
}

func NewNotificationsHandler(uc notification.UseCase) *NotificationsHandler {
	return &NotificationsHandler{uc: uc}
}

// List возвращает уведомления пользователя, новые первыми.
// @Summary Список уведомлений
// @Tags    Уведомления
// @Produce json
// @Security BearerAuth
// @Success 200 {array} notification.Notification
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /notifications [get]
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.uc.List(c.Context(), userID, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "не удалось получить уведомления")
	}
	return presenter.JSON(c, http.StatusOK, items)
}

// Unread возвращает число непрочитанных уведомлений.
// @Summary Счётчик непрочитанных
// @Tags    Уведомления
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]int
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /notifications/unread [get]
func (h *NotificationsHandler) Unread(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	n, err := h.uc.Unread(c.Context(), userID)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "не удалось получить счётчик")
	}
	return presenter.JSON(c, http.StatusOK, fiber.Map{"unread": n})
}

// MarkRead помечает уведомление прочитанным.
// @Summary Прочитать уведомление
// @Tags    Уведомления
// @Produce json
// @Param   id path string true "ID уведомления (UUID)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /notifications/{id}/read [post]
func (h *NotificationsHandler) MarkRead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный id")
	}
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	if err := h.uc.MarkRead(c.Context(), userID, id); err != nil {
		if errors.Is(err, notification.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "уведомление не найдено")
		}
		return presenter.Error(c, http.StatusInternalServerError, "не удалось обновить уведомление")
	}
	return c.SendStatus(http.StatusNoContent)
}
