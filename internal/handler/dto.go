package handler

import (
	"time"

	"github.com/iliyamo/agrodesk/internal/model"
	"github.com/iliyamo/agrodesk/internal/service"
)

// Response bodies. Field names follow the mobile client (userId,
// reportReply, createdAt).

type userResp struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Roles     []string  `json:"roles"`
	Area      string    `json:"area,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUser(id model.Identity) userResp {
	return userResp{
		ID:        id.ID,
		Name:      id.Name,
		Email:     id.Email,
		Roles:     model.RoleStrings(id.Roles),
		Area:      id.Area,
		CreatedAt: id.CreatedAt,
	}
}

type reportResp struct {
	ID          uint64     `json:"id"`
	UserID      uint64     `json:"userId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Image       *string    `json:"image"`
	Area        string     `json:"area"`
	ReportReply *string    `json:"reportReply"`
	RepliedAt   *time.Time `json:"repliedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func toReport(r model.Report) reportResp {
	return reportResp{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Image:       r.Image,
		Area:        r.Area,
		ReportReply: r.Reply,
		RepliedAt:   r.RepliedAt,
		CreatedAt:   r.CreatedAt,
	}
}

func toReports(rs []model.Report) []reportResp {
	out := make([]reportResp, 0, len(rs))
	for _, r := range rs {
		out = append(out, toReport(r))
	}
	return out
}

type cropResp struct {
	ID                uint64    `json:"id"`
	UserID            uint64    `json:"userId"`
	Name              string    `json:"name"`
	Variety           *string   `json:"variety"`
	FieldSizeHectares float64   `json:"fieldSizeHectares"`
	SowingDate        *string   `json:"sowingDate"`
	CreatedAt         time.Time `json:"createdAt"`
}

func toCrop(c model.Crop) cropResp {
	out := cropResp{
		ID:                c.ID,
		UserID:            c.UserID,
		Name:              c.Name,
		Variety:           c.Variety,
		FieldSizeHectares: c.FieldSizeHectares,
		CreatedAt:         c.CreatedAt,
	}
	if c.SowingDate != nil {
		d := c.SowingDate.Format(service.SowingDateLayout)
		out.SowingDate = &d
	}
	return out
}

func toCrops(cs []model.Crop) []cropResp {
	out := make([]cropResp, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCrop(c))
	}
	return out
}

type alertResp struct {
	ID        uint64    `json:"id"`
	Location  string    `json:"location"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Severity  string    `json:"severity"`
	CreatedAt time.Time `json:"createdAt"`
}

func toAlert(a model.Alert) alertResp {
	return alertResp{
		ID:        a.ID,
		Location:  a.Location,
		Title:     a.Title,
		Message:   a.Message,
		Severity:  a.Severity,
		CreatedAt: a.CreatedAt,
	}
}

func toAlerts(as []model.Alert) []alertResp {
	out := make([]alertResp, 0, len(as))
	for _, a := range as {
		out = append(out, toAlert(a))
	}
	return out
}

type sessionResp struct {
	AccessToken      string    `json:"access_token"`
	Name             string    `json:"name"`
	UserID           uint64    `json:"userId"`
	ExpiresAt        time.Time `json:"expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func toSession(s service.Session) sessionResp {
	return sessionResp{
		AccessToken:      s.Access.Token,
		Name:             s.Identity.Name,
		UserID:           s.Identity.ID,
		ExpiresAt:        s.Access.Exp,
		RefreshToken:     s.Refresh.Raw,
		RefreshExpiresAt: s.Refresh.Exp,
	}
}

type profileResp struct {
	userResp
	Reports []reportResp `json:"reports"`
	Crops   []cropResp   `json:"crops"`
}
