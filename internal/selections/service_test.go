package selections

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
)

func strPtr(s string) *string { return &s }

func seedQuotation(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.QuotationStatus) *models.Quotation {
	t.Helper()
	q := &models.Quotation{
		ID:                 uuid.New(),
		Code:               "QT-2026-" + uuid.NewString()[:4],
		UserID:             userID,
		ProductName:        "Desk lamp",
		ProductURL:         "https://www.alibaba.com/x",
		Quantity:           10,
		DestinationCountry: "Mexico",
		DestinationCity:    "Puebla",
		ShippingMethod:     "air",
		ServiceType:        "express",
		Status:             status,
		TitleOption1:       strPtr("Supplier A"),
		TotalPriceOption1:  decimal.NewNullDecimal(decimal.RequireFromString("1250")),
		TitleOption2:       strPtr("Supplier B"),
		TotalPriceOption2:  decimal.NewNullDecimal(decimal.RequireFromString("990.5")),
		CreatedAt:          time.Now().UTC(),
		UpdatedAt:          time.Now().UTC(),
	}
	require.NoError(t, conn.Create(q).Error)
	return q
}

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	svc, err := NewService(db.NewFromConn(conn), NewRepository(conn), quotations.NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestSelectTwiceKeepsOneRowWithLatestOption(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	q := seedQuotation(t, conn, userID, enums.QuotationStatusPending)

	_, err := svc.Select(context.Background(), userID, q.Code, "1")
	require.NoError(t, err)
	got, err := svc.Select(context.Background(), userID, q.ID.String(), "2")
	require.NoError(t, err)
	require.NotNil(t, got.SelectedOption)
	assert.Equal(t, 2, *got.SelectedOption)

	repo := NewRepository(conn)
	n, err := repo.Count(context.Background(), q.ID, userID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	row, err := repo.Find(context.Background(), q.ID, userID)
	require.NoError(t, err)
	assert.Equal(t, "2", row.SelectedOptionID)

	stored, err := quotations.NewRepository(conn).FindByID(context.Background(), q.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SelectedOption)
	assert.Equal(t, 2, *stored.SelectedOption)
}

func TestSelectRejectsApprovedQuotation(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	q := seedQuotation(t, conn, userID, enums.QuotationStatusApproved)

	_, err := svc.Select(context.Background(), userID, q.Code, "1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	n, err := NewRepository(conn).Count(context.Background(), q.ID, userID)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSelectRejectsMissingOrInvalidSlot(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	q := seedQuotation(t, conn, userID, enums.QuotationStatusPending)

	for _, opt := range []string{"3", "0", "x", "4"} {
		_, err := svc.Select(context.Background(), userID, q.Code, opt)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "option %s", opt)
	}
}

func TestSelectOtherUsersQuotationNotFound(t *testing.T) {
	svc, conn := newTestService(t)
	q := seedQuotation(t, conn, uuid.New(), enums.QuotationStatusPending)

	_, err := svc.Select(context.Background(), uuid.New(), q.Code, "1")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSelectForPaymentAcceptsApprovedQuotation(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	approved := seedQuotation(t, conn, userID, enums.QuotationStatusApproved)
	rejected := seedQuotation(t, conn, userID, enums.QuotationStatusRejected)
	dbClient := db.NewFromConn(conn)

	err := dbClient.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.SelectForPaymentTx(context.Background(), tx, approved, userID, 2)
	})
	require.NoError(t, err)
	stored, err := quotations.NewRepository(conn).FindByID(context.Background(), approved.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.SelectedOption)
	assert.Equal(t, 2, *stored.SelectedOption)
	assert.Equal(t, enums.QuotationStatusApproved, stored.Status)

	err = dbClient.WithTx(context.Background(), func(tx *gorm.DB) error {
		return svc.SelectForPaymentTx(context.Background(), tx, rejected, userID, 1)
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}
