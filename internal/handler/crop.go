package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/middleware"
	"github.com/iliyamo/agrodesk/internal/service"
)

type CropHandler struct {
	Svc *service.CropService
}

func NewCropHandler(svc *service.CropService) *CropHandler { return &CropHandler{Svc: svc} }

type createCropReq struct {
	Name              string  `json:"name"`
	Variety           *string `json:"variety"`
	FieldSizeHectares float64 `json:"fieldSizeHectares"`
	SowingDate        string  `json:"sowingDate"`
}

// Create: POST /crop
func (h *CropHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createCropReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	crop, err := h.Svc.Create(ctx, uid, service.CropInput{
		Name:              req.Name,
		Variety:           req.Variety,
		FieldSizeHectares: req.FieldSizeHectares,
		SowingDate:        req.SowingDate,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toCrop(crop))
}

// List: GET /crop
func (h *CropHandler) List(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	crops, err := h.Svc.List(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toCrops(crops))
}
