package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/agrodesk/internal/service"
)

type AlertHandler struct {
	Svc *service.AlertService
}

func NewAlertHandler(svc *service.AlertService) *AlertHandler { return &AlertHandler{Svc: svc} }

type createAlertReq struct {
	Location string `json:"location"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// Create: POST /alert (admin)
func (h *AlertHandler) Create(c echo.Context) error {
	var req createAlertReq
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid body")
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	a, err := h.Svc.Create(ctx, service.AlertInput{
		Location: req.Location,
		Title:    req.Title,
		Message:  req.Message,
		Severity: req.Severity,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, toAlert(a))
}

// List: GET /alert?location=... The older client sends the location as
// a JSON body on the GET instead, so that is accepted too.
func (h *AlertHandler) List(c echo.Context) error {
	location := strings.TrimSpace(c.QueryParam("location"))
	if location == "" && c.Request().ContentLength != 0 {
		var body struct {
			Location string `json:"location"`
		}
		if err := json.NewDecoder(c.Request().Body).Decode(&body); err != nil {
			return errorJSON(c, http.StatusBadRequest, "invalid body")
		}
		location = body.Location
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	as, err := h.Svc.ListByLocation(ctx, location)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toAlerts(as))
}
