package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/middleware"
	"github.com/iliyamo/agrodesk/internal/service"
	"github.com/iliyamo/agrodesk/internal/storage"
)

// ImagePresigner issues report photo uploads. *storage.ImageStore
// satisfies it.
type ImagePresigner interface {
	PresignUpload(ctx context.Context, userID uint64, contentType string) (storage.Upload, error)
}

type ReportHandler struct {
	Svc    *service.ReportService
	Images ImagePresigner // nil when object storage is not configured
}

func NewReportHandler(svc *service.ReportService, images ImagePresigner) *ReportHandler {
	return &ReportHandler{Svc: svc, Images: images}
}

// userId is accepted for client compatibility and ignored, the owner
// always comes from the token.
type createReportReq struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Image       *string `json:"image"`
	Area        string  `json:"area"`
	UserID      any     `json:"userId"`
}

type replyReq struct {
	ReportID uint64 `json:"reportId"`
	Reply    string `json:"reply"`
}

type imageReq struct {
	ContentType string `json:"content_type"`
}

// Create: POST /report
func (h *ReportHandler) Create(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req createReportReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Svc.Create(ctx, uid, service.ReportInput{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Area:        req.Area,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toReport(r))
}

// ListOwn: GET /report
func (h *ReportHandler) ListOwn(c echo.Context) error {
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rs, err := h.Svc.ListOwn(ctx, uid)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReports(rs))
}

// ListByArea: POST /get-reports-from-area (admin). The area is the one
// in the caller's token, never a request parameter.
func (h *ReportHandler) ListByArea(c echo.Context) error {
	claims, ok := middleware.Claims(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	rs, err := h.Svc.ListByArea(ctx, claims.Area)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReports(rs))
}

// Reply: POST /reply (admin)
func (h *ReportHandler) Reply(c echo.Context) error {
	var req replyReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	r, err := h.Svc.Reply(ctx, req.ReportID, req.Reply)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReport(r))
}

// PresignImage: POST /report/image
func (h *ReportHandler) PresignImage(c echo.Context) error {
	if h.Images == nil {
		return errorJSON(c, http.StatusServiceUnavailable, "image uploads are not configured")
	}
	uid, ok := middleware.UserID(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "unauthorized")
	}
	var req imageReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	up, err := h.Images.PresignUpload(c.Request().Context(), uid, req.ContentType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, up)
}
