package shipments

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/freightdesk-backend/internal/media"
	"github.com/angelmondragon/freightdesk-backend/internal/quotations"
	"github.com/angelmondragon/freightdesk-backend/pkg/db"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/dbtest"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/freightdesk-backend/pkg/errors"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.New(t)
	svc, err := NewService(ServiceParams{
		DB:         db.NewFromConn(conn),
		Repo:       NewRepository(conn),
		Quotations: quotations.NewRepository(conn),
		Outbox:     outbox.NewService(outbox.NewRepository(conn), nil),
		Images: media.ImageResolver{
			BasePath:    "https://storage.googleapis.com/freightdesk-media/products/",
			HostHint:    "storage.googleapis.com",
			Placeholder: "/images/placeholder.png",
		},
	})
	require.NoError(t, err)
	return svc, conn
}

func seedShipment(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.ShipmentStatus) (*models.Shipment, *models.Quotation) {
	t.Helper()
	now := time.Now().UTC()
	q := &models.Quotation{
		ID:                 uuid.New(),
		Code:               "QT-2026-" + uuid.NewString()[:4],
		UserID:             userID,
		ProductName:        "LED panel",
		ProductURL:         "https://www.alibaba.com/product-detail/3.html",
		Quantity:           100,
		ImageURLs:          pq.StringArray{"panel.jpg"},
		DestinationCountry: "Mexico",
		DestinationCity:    "Leon",
		ShippingMethod:     "air",
		ServiceType:        "express",
		Status:             enums.QuotationStatusApproved,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	require.NoError(t, conn.Create(q).Error)
	s := &models.Shipment{
		ID:          uuid.New(),
		QuotationID: q.ID,
		UserID:      userID,
		Status:      status,
		MediaURLs:   pq.StringArray{"/uploads/box.jpg", "dock.png"},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, conn.Create(s).Error)
	return s, q
}

func validReceiver() ReceiverInput {
	return ReceiverInput{
		Name:    "Ana Ruiz",
		Phone:   "+52 33 1234 5678",
		Address: "Av. Vallarta 100, Guadalajara",
	}
}

func TestSubmitReceiverMovesShipmentToProcessing(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	s, _ := seedShipment(t, conn, userID, enums.ShipmentStatusWaiting)

	in := validReceiver()
	in.SaveAsDefault = true
	view, err := svc.SubmitReceiver(context.Background(), userID, s.ID, in)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusProcessing, view.Status)
	require.NotNil(t, view.Receiver)
	assert.Equal(t, "Ana Ruiz", view.Receiver.Name)

	var receivers []models.ShippingReceiver
	require.NoError(t, conn.Find(&receivers).Error)
	require.Len(t, receivers, 1)
	assert.True(t, receivers[0].IsDefault)
	require.NotNil(t, receivers[0].ShipmentID)
	assert.Equal(t, s.ID, *receivers[0].ShipmentID)

	var events []models.OutboxEvent
	require.NoError(t, conn.Where("aggregate_id = ?", s.ID).Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventShipmentReceiverSubmitted, events[0].EventType)
}

func TestSubmitReceiverValidatesBeforeWriting(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	s, _ := seedShipment(t, conn, userID, enums.ShipmentStatusWaiting)

	for field, mutate := range map[string]func(*ReceiverInput){
		"name":    func(in *ReceiverInput) { in.Name = "  " },
		"phone":   func(in *ReceiverInput) { in.Phone = "" },
		"address": func(in *ReceiverInput) { in.Address = "\t" },
	} {
		in := validReceiver()
		mutate(&in)
		_, err := svc.SubmitReceiver(context.Background(), userID, s.ID, in)
		require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), field)
		details := pkgerrors.As(err).Details().(map[string]any)
		assert.Equal(t, field, details["field"])
	}

	var count int64
	require.NoError(t, conn.Model(&models.ShippingReceiver{}).Count(&count).Error)
	assert.Zero(t, count)
	stored, err := NewRepository(conn).FindByID(context.Background(), s.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ShipmentStatusWaiting, stored.Status)
}

func TestSubmitReceiverRejectsShipmentPastWaiting(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	s, _ := seedShipment(t, conn, userID, enums.ShipmentStatusInTransit)

	_, err := svc.SubmitReceiver(context.Background(), userID, s.ID, validReceiver())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestSubmitReceiverHidesOtherUsersShipment(t *testing.T) {
	svc, conn := newTestService(t)
	s, _ := seedShipment(t, conn, uuid.New(), enums.ShipmentStatusWaiting)

	_, err := svc.SubmitReceiver(context.Background(), uuid.New(), s.ID, validReceiver())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestSaveAsDefaultReplacesPreviousDefault(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	first, _ := seedShipment(t, conn, userID, enums.ShipmentStatusWaiting)
	second, _ := seedShipment(t, conn, userID, enums.ShipmentStatusWaiting)

	in := validReceiver()
	in.SaveAsDefault = true
	_, err := svc.SubmitReceiver(context.Background(), userID, first.ID, in)
	require.NoError(t, err)

	in.Name = "Luis Ortega"
	_, err = svc.SubmitReceiver(context.Background(), userID, second.ID, in)
	require.NoError(t, err)

	def, err := svc.DefaultReceiver(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, "Luis Ortega", def.Name)

	_, err = svc.DefaultReceiver(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListForUserJoinsQuotations(t *testing.T) {
	svc, conn := newTestService(t)
	userID := uuid.New()
	_, q := seedShipment(t, conn, userID, enums.ShipmentStatusWaiting)
	seedShipment(t, conn, uuid.New(), enums.ShipmentStatusWaiting)

	res, err := svc.ListForUser(context.Background(), ListParams{UserID: userID, Limit: 10})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	item := res.Items[0]
	require.NotNil(t, item.Quotation)
	assert.Equal(t, q.Code, item.Quotation.Code)
	assert.Equal(t, "https://storage.googleapis.com/freightdesk-media/products/panel.jpg", item.Quotation.Image.URL)
	require.Len(t, item.Media, 2)
	assert.Equal(t, "/uploads/box.jpg", item.Media[0].URL)
	assert.Nil(t, item.Receiver)

	_, err = svc.ListForUser(context.Background(), ListParams{UserID: userID, Status: "lost"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
