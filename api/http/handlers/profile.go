package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/pathcraft/backend/api/http/presenter"
	"github.com/pathcraft/backend/pkg/profile"
)

type ProfileHandler struct {
	uc profile.UseCase
}

func NewProfileHandler(uc profile.UseCase) *ProfileHandler { return &ProfileHandler{uc: uc} }

// Get возвращает карьерный профиль текущего пользователя.
// @Summary Получить профиль
// @Tags    Профиль
// @Produce json
// @Security BearerAuth
// @Success 200 {object} profile.Profile
// @Failure 401 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /profile [get]
func (h *ProfileHandler) Get(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	p, err := h.uc.Get(c.Context(), userID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "профиль не заполнен")
		}
		return presenter.Error(c, http.StatusInternalServerError, "не удалось получить профиль")
	}
	return presenter.JSON(c, http.StatusOK, p)
}

type updateProfileRequest struct {
	Bio           string                 `json:"bio"`
	Skills        []string               `json:"skills"`
	TargetRole    string                 `json:"targetRole"`
	TargetCompany string                 `json:"targetCompany"`
	TargetSalary  string                 `json:"targetSalary"`
	Structured    profile.StructuredData `json:"structured"`
}

// Update сохраняет карьерный профиль текущего пользователя.
// @Summary Обновить профиль
// @Tags    Профиль
// @Accept  json
// @Produce json
// @Param   input body updateProfileRequest true "поля профиля"
// @Security BearerAuth
// @Success 200 {object} profile.Profile
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 401 {object} presenter.ErrorResponse
// @Router  /profile [put]
func (h *ProfileHandler) Update(c *fiber.Ctx) error {
	userID, ok := actorID(c)
	if !ok {
		return presenter.Error(c, http.StatusUnauthorized, "не удалось определить пользователя")
	}
	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "невалидный JSON")
	}
	p, err := h.uc.Save(c.Context(), profile.Profile{
		UserID:        userID,
		Bio:           req.Bio,
		Skills:        req.Skills,
		TargetRole:    req.TargetRole,
		TargetCompany: req.TargetCompany,
		TargetSalary:  req.TargetSalary,
		Structured:    req.Structured,
	})
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "не удалось сохранить профиль")
	}
	return presenter.JSON(c, http.StatusOK, p)
}
