package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

func TestDeriveBarcode(t *testing.T) {
	assert.Equal(t, "HALAL-S4/BEEF-01", DeriveBarcode(models.StoreOwner(4), 0, " beef-01 "))
	assert.Equal(t, "HALAL-S4-L9/BEEF-01", DeriveBarcode(models.SubLocationOwner(9), 4, "BEEF-01"))
	assert.Equal(t, "HALAL/BEEF-01", DeriveBarcode(models.Owner{}, 0, "beef-01"))
}

func TestDeriveBarcode_OwnersNeverCollide(t *testing.T) {
	seen := map[string]string{}
	for _, c := range []struct {
		name   string
		owner  models.Owner
		parent int64
		sku    string
	}{
		{"store L1-X", models.StoreOwner(1), 0, "L1-X"},
		{"sub-location X", models.SubLocationOwner(1), 1, "X"},
		{"store X", models.StoreOwner(1), 0, "X"},
		{"unowned S1-X", models.Owner{}, 0, "S1-X"},
		{"unowned S1-L1-X", models.Owner{}, 0, "S1-L1-X"},
	} {
		code := DeriveBarcode(c.owner, c.parent, c.sku)
		if prev, ok := seen[code]; ok {
			t.Fatalf("%s and %s both derive %s", prev, c.name, code)
		}
		seen[code] = c.name
	}
}

func TestProductCreate_SKUShapedLikeSubLocation(t *testing.T) {
	h := newHarness(t)
	store := h.create(t, productReq("L1-X", 1))
	assert.Equal(t, "HALAL-S1/L1-X", store.Barcode)

	sub, err := h.products.Create(context.Background(), h.manager, h.scope(t, h.manager), productReq("X", 1))
	require.NoError(t, err)
	assert.Equal(t, "HALAL-S1-L1/X", sub.Barcode)
	assert.NotEqual(t, store.Barcode, sub.Barcode)
}

func TestProductCreate_Validation(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *ProductRequest)
		field string
	}{
		{"uncertified", func(r *ProductRequest) { r.IsCertified = false }, "is_certified"},
		{"missing name", func(r *ProductRequest) { r.Name = " " }, "name"},
		{"separator in sku", func(r *ProductRequest) { r.SKU = "BEEF/01" }, "sku"},
		{"negative price", func(r *ProductRequest) { r.Price = dec("-1") }, "price"},
		{"three decimals", func(r *ProductRequest) { r.CostPrice = dec("1.005") }, "cost_price"},
		{"negative stock", func(r *ProductRequest) { r.CurrentStock = intp(-1) }, "current_stock"},
		{"min above max", func(r *ProductRequest) { r.MinimumStock, r.MaximumStock = intp(50), intp(10) }, "minimum_stock"},
		{"bad date", func(r *ProductRequest) { r.ExpiryDate = strp("10/03/2025") }, "expiry_date"},
		{"mfg after expiry", func(r *ProductRequest) {
			r.ManufacturingDate, r.ExpiryDate = strp("2025-05-01"), strp("2025-04-01")
		}, "expiry_date"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := productReq("VAL-1", 5)
			tt.edit(&req)
			_, err := h.products.Create(context.Background(), h.owner, h.scope(t, h.owner), req)
			appErr, ok := utils.AsAppError(err)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, utils.KindValidation, appErr.Kind)
			assert.Equal(t, tt.field, appErr.Field)
			assert.Empty(t, h.db.products)
		})
	}
}

func TestProductCreate_DefaultsAndOpeningEntry(t *testing.T) {
	h := newHarness(t)
	v := h.create(t, productReq("lamb-1", 25))

	assert.Equal(t, "LAMB-1", v.SKU)
	assert.Equal(t, "HALAL-S1/LAMB-1", v.Barcode)
	assert.Equal(t, 10, v.MinimumStock)
	assert.Equal(t, 1000, v.MaximumStock)
	assert.True(t, strings.HasPrefix(v.BarcodeImage, "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(v.QRCodeImage, "data:image/png;base64,"))
	assert.Equal(t, "200", v.StockValue.String())

	history := h.db.history(v.ID)
	require.Len(t, history, 1)
	assert.Equal(t, models.TransactionIn, history[0].TransactionType)
	assert.Equal(t, 0, history[0].PreviousStock)
	assert.Equal(t, 25, history[0].NewStock)

	zero := h.create(t, productReq("lamb-2", 0))
	assert.Empty(t, h.db.history(zero.ID))
}

func TestProductCreate_ManagerLandsInSubLocation(t *testing.T) {
	h := newHarness(t)
	v, err := h.products.Create(context.Background(), h.manager, h.scope(t, h.manager), productReq("SUB-1", 1))
	require.NoError(t, err)
	require.NotNil(t, v.SubLocationID)
	assert.Nil(t, v.StoreID)
	assert.Equal(t, "HALAL-S1-L1/SUB-1", v.Barcode)

	req := productReq("SUB-2", 1)
	req.StoreType, req.StoreID = "store", 1
	_, err = h.products.Create(context.Background(), h.manager, h.scope(t, h.manager), req)
	assert.ErrorIs(t, err, utils.ErrStoreNotFound)
}

func TestProductUpdate_RejectsStock(t *testing.T) {
	h := newHarness(t)
	v := h.create(t, productReq("UPD-1", 5))
	scope := h.scope(t, h.owner)

	_, err := h.products.Update(context.Background(), scope, v.ID, ProductUpdateRequest{CurrentStock: intp(99)})
	assert.Error(t, err)

	name := "Renamed"
	out, err := h.products.Update(context.Background(), scope, v.ID, ProductUpdateRequest{Name: &name, MinimumStock: intp(5)})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", out.Name)
	assert.Equal(t, 5, out.CurrentStock)
}

func TestProductScanBarcode(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.scope(t, h.owner)
	v := h.create(t, productReq("SCAN-1", 5))

	got, err := h.products.ScanBarcode(ctx, scope, ScanRequest{Code: v.Barcode})
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	payload, _ := json.Marshal(QRPayload{ID: v.ID.String()})
	got, err = h.products.ScanBarcode(ctx, scope, ScanRequest{Code: string(payload), ScanType: "qr_code"})
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	payload, _ = json.Marshal(QRPayload{Barcode: v.Barcode})
	got, err = h.products.ScanBarcode(ctx, scope, ScanRequest{Code: string(payload), ScanType: "QR_CODE"})
	require.NoError(t, err)
	assert.Equal(t, v.ID, got.ID)

	_, err = h.products.ScanBarcode(ctx, models.Scope{StoreIDs: []int64{2}}, ScanRequest{Code: v.Barcode})
	assert.ErrorIs(t, err, utils.ErrProductNotFound)

	require.NoError(t, h.products.Delete(ctx, scope, v.ID))
	_, err = h.products.ScanBarcode(ctx, scope, ScanRequest{Code: v.Barcode})
	assert.ErrorIs(t, err, utils.ErrProductNotFound)
}

func TestProductGenerateTicket(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.scope(t, h.owner)
	req := productReq("TIX-1", 5)
	req.ExpiryDate = strp("2025-12-31")
	v := h.create(t, req)

	ticket, err := h.products.GenerateTicket(ctx, h.owner, scope, v.ID)
	require.NoError(t, err)

	var data models.TicketData
	require.NoError(t, json.Unmarshal(ticket.TicketData, &data))
	assert.Equal(t, "CERTIFIED", data.CertifiedStatus)
	assert.Equal(t, "12.50", data.Price)
	require.NotNil(t, data.ExpiryDate)
	assert.Equal(t, "2025-12-31", *data.ExpiryDate)

	list, err := h.products.ListTickets(ctx, scope, &v.ID, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestProductMultiStoreCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.scope(t, h.owner)

	res, err := h.products.MultiStoreCreate(ctx, h.owner, scope, MultiStoreRequest{
		ProductData: productReq("MULTI-1", 4),
		TargetStores: []TargetStore{
			{Type: "store", ID: 1},
			{Type: "sub_location", ID: h.branch.ID},
			{Type: "store", ID: 2},
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.CreatedCount)
	assert.Equal(t, 1, res.FailedCount)
	require.Len(t, res.Results, 3)
	assert.Equal(t, "HALAL-S1/MULTI-1", res.Results[0].Product.Barcode)
	assert.Equal(t, "HALAL-S1-L1/MULTI-1", res.Results[1].Product.Barcode)
	assert.Equal(t, "STORE_NOT_FOUND", res.Results[2].Error.Code)

	again, err := h.products.MultiStoreCreate(ctx, h.owner, scope, MultiStoreRequest{
		ProductData:    productReq("MULTI-1", 4),
		AddToAllStores: true,
	})
	require.NoError(t, err)
	assert.False(t, again.Success)
	assert.Equal(t, 2, again.FailedCount)
}

func TestProductLists(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	scope := h.scope(t, h.owner)
	h.createExpiring(t, "L-SOON", 5)
	h.createExpiring(t, "L-GONE", -5)
	h.create(t, productReq("L-LOW", 3))

	soon, err := h.products.ExpiringSoon(ctx, scope)
	require.NoError(t, err)
	require.Len(t, soon, 1)
	assert.Equal(t, "L-SOON", soon[0].SKU)

	gone, err := h.products.Expired(ctx, scope)
	require.NoError(t, err)
	require.Len(t, gone, 1)
	assert.True(t, gone[0].IsExpired)

	low, err := h.products.LowStock(ctx, scope)
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "L-LOW", low[0].SKU)
}
