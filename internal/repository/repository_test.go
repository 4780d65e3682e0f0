package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/agrodesk/internal/model"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

var userCols = []string{"id", "email", "name", "password_hash", "roles", "area", "created_at", "updated_at"}

func TestUserRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(q("INSERT INTO users (email,name,password_hash,roles,area,created_at,updated_at) VALUES (?,?,?,?,?,?,?)")).
		WithArgs("a@x.com", "Asha", "hash", "user", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	u, err := repo.Create(context.Background(), model.User{
		Email: "  A@X.com ", Name: "Asha", PasswordHash: "hash", Roles: []model.Role{model.RoleUser},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(7), u.ID)
	assert.Equal(t, "a@x.com", u.Email)
	assert.False(t, u.CreatedAt.IsZero())
}

func TestUserRepo_Create_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(q("INSERT INTO users")).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"})

	_, err := repo.Create(context.Background(), model.User{Email: "a@x.com", Roles: []model.Role{model.RoleUser}})
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)
	ts := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1")).
		WithArgs("b@x.com").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(3, "b@x.com", "Bina", "hash", "admin", "Kerala", ts, ts))

	u, err := repo.GetByEmail(context.Background(), "B@x.com")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), u.ID)
	assert.Equal(t, []model.Role{model.RoleAdmin}, u.Roles)
	assert.Equal(t, "Kerala", u.Area)
}

func TestUserRepo_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(q("FROM users WHERE id=?")).WithArgs(uint64(9)).WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

var reportCols = []string{"id", "user_id", "title", "description", "image", "area", "report_reply", "replied_at", "created_at"}

func TestReportRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)
	img := "reports/1/a.jpg"

	mock.ExpectExec(q("INSERT INTO reports (user_id,title,description,image,area,created_at) VALUES (?,?,?,?,?,?)")).
		WithArgs(uint64(1), "Leaf spots", "Brown spots on leaves", img, "Kerala", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(11, 1))

	rep, err := repo.Create(context.Background(), model.Report{
		UserID: 1, Title: "Leaf spots", Description: "Brown spots on leaves", Image: &img, Area: "Kerala",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(11), rep.ID)
	assert.Nil(t, rep.Reply)
}

func TestReportRepo_ListByUser(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)
	newer := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-time.Hour)

	mock.ExpectQuery(q("SELECT "+reportColumns+" FROM reports WHERE user_id=? ORDER BY created_at DESC, id DESC")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows(reportCols).
			AddRow(2, 1, "b", "d", nil, "Kerala", "Noted", newer, newer).
			AddRow(1, 1, "a", "d", "img", "Kerala", nil, nil, older))

	reps, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	assert.Equal(t, uint64(2), reps[0].ID)
	require.NotNil(t, reps[0].Reply)
	assert.Equal(t, "Noted", *reps[0].Reply)
	assert.Nil(t, reps[1].Reply)
	require.NotNil(t, reps[1].Image)
	assert.Equal(t, "img", *reps[1].Image)
}

func TestReportRepo_ListByArea_Empty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)

	mock.ExpectQuery(q("FROM reports WHERE area=? COLLATE utf8mb4_bin ORDER BY created_at DESC, id DESC")).
		WithArgs("Punjab").
		WillReturnRows(sqlmock.NewRows(reportCols))

	reps, err := repo.ListByArea(context.Background(), "Punjab")
	require.NoError(t, err)
	assert.NotNil(t, reps)
	assert.Empty(t, reps)
}

func TestReportRepo_ListByArea_BinaryMatch(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)
	at := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("SELECT "+reportColumns+" FROM reports WHERE area=? COLLATE utf8mb4_bin ORDER BY created_at DESC, id DESC")).
		WithArgs("kerala").
		WillReturnRows(sqlmock.NewRows(reportCols).
			AddRow(3, 2, "wilt", "d", nil, "kerala", nil, nil, at))

	reps, err := repo.ListByArea(context.Background(), "kerala")
	require.NoError(t, err)
	require.Len(t, reps, 1)
	assert.Equal(t, "kerala", reps[0].Area)
}

func TestReportRepo_UpdateReply(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)
	at := time.Now()

	mock.ExpectExec(q("UPDATE reports SET report_reply=?, replied_at=? WHERE id=?")).
		WithArgs("Noted", at.UTC(), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateReply(context.Background(), 5, "Noted", at))
}

func TestReportRepo_UpdateReply_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)

	mock.ExpectExec(q("UPDATE reports SET report_reply=?")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateReply(context.Background(), 404, "Noted", time.Now())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportRepo_QueryError(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReportRepo(db)

	mock.ExpectQuery(q("FROM reports WHERE user_id=?")).WillReturnError(errors.New("db down"))

	_, err := repo.ListByUser(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query reports: db down")
}

func TestCropRepo_CreateAndList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCropRepo(db)
	sown := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	variety := "Jyothi"

	mock.ExpectExec(q("INSERT INTO crops (user_id,name,variety,field_size_hectares,sowing_date,created_at) VALUES (?,?,?,?,?,?)")).
		WithArgs(uint64(1), "Rice", variety, 1.5, sown, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(4, 1))

	c, err := repo.Create(context.Background(), model.Crop{
		UserID: 1, Name: "Rice", Variety: &variety, FieldSizeHectares: 1.5, SowingDate: &sown,
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(4), c.ID)

	mock.ExpectQuery(q("SELECT "+cropColumns+" FROM crops WHERE user_id=?")).
		WithArgs(uint64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "name", "variety", "field_size_hectares", "sowing_date", "created_at"}).
			AddRow(4, 1, "Rice", nil, 1.5, nil, sown))

	crops, err := repo.ListByUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, crops, 1)
	assert.Nil(t, crops[0].Variety)
	assert.Nil(t, crops[0].SowingDate)
}

func TestAlertRepo_CreateAndList(t *testing.T) {
	db, mock := newMock(t)
	repo := NewAlertRepo(db)

	mock.ExpectExec(q("INSERT INTO alerts (location,title,message,severity,created_at) VALUES (?,?,?,?,?)")).
		WithArgs("Kerala", "Heavy rain", "Expect flooding", "warning", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(8, 1))

	a, err := repo.Create(context.Background(), model.Alert{
		Location: "Kerala", Title: "Heavy rain", Message: "Expect flooding", Severity: "warning",
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), a.ID)

	mock.ExpectQuery(q("SELECT "+alertColumns+" FROM alerts WHERE location=?")).
		WithArgs("Kerala").
		WillReturnRows(sqlmock.NewRows([]string{"id", "location", "title", "message", "severity", "created_at"}).
			AddRow(8, "Kerala", "Heavy rain", "Expect flooding", "warning", a.CreatedAt))

	alerts, err := repo.ListByLocation(context.Background(), "Kerala")
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Heavy rain", alerts[0].Title)
}

func TestTokenRepo_ValidateRefresh(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)
	cols := []string{"user_id", "expires_at", "revoked_at"}
	sel := q("SELECT user_id,expires_at,revoked_at FROM refresh_tokens WHERE token_hash=? LIMIT 1")

	mock.ExpectQuery(sel).WithArgs("good").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().Add(time.Hour), nil))
	uid, err := repo.ValidateRefresh(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), uid)

	mock.ExpectQuery(sel).WithArgs("expired").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().Add(-time.Hour), nil))
	_, err = repo.ValidateRefresh(context.Background(), "expired")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(sel).WithArgs("revoked").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(3, time.Now().Add(time.Hour), time.Now()))
	_, err = repo.ValidateRefresh(context.Background(), "revoked")
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectQuery(sel).WithArgs("unknown").WillReturnError(sql.ErrNoRows)
	_, err = repo.ValidateRefresh(context.Background(), "unknown")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTokenRepo_RevokeByHash_AlreadyRevoked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTokenRepo(db)

	mock.ExpectExec(q("UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL")).
		WithArgs(sqlmock.AnyArg(), "h").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.RevokeByHash(context.Background(), "h"), ErrNotFound)
}
