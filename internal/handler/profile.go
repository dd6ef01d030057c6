package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"portal-billing/internal/dto"
	"portal-billing/internal/middleware"
	"portal-billing/internal/model"
	"portal-billing/internal/repository"
)

type ProfileHandler struct {
	profileRepo repository.ProfileRepository
	validate    *validator.Validate
}

func NewProfileHandler(profileRepo repository.ProfileRepository) *ProfileHandler {
	return &ProfileHandler{
		profileRepo: profileRepo,
		validate:    validator.New(),
	}
}

// Get returns the caller's billing profile.
func (h *ProfileHandler) Get(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}

	profile, err := h.profileRepo.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "no profile")
		}
		return err
	}

	return c.JSON(http.StatusOK, dto.ProfileResponse{
		Name:     profile.Name,
		Email:    profile.Email,
		Document: profile.Document,
		Phone:    profile.Phone,
	})
}

// Put upserts the caller's billing profile. Checkout refuses sessions until
// name, document and phone are filled in here.
func (h *ProfileHandler) Put(c echo.Context) error {
	ctx := c.Request().Context()

	userID, ok := middleware.UserID(c)
	if !ok {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing authenticated user")
	}

	var req dto.ProfileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := h.validate.Struct(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.profileRepo.Upsert(ctx, &model.Profile{
		UserID:   userID,
		Name:     req.Name,
		Email:    req.Email,
		Document: req.Document,
		Phone:    req.Phone,
	}); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, dto.ProfileResponse{
		Name:     req.Name,
		Email:    req.Email,
		Document: req.Document,
		Phone:    req.Phone,
	})
}
