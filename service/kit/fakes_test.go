package kitsvc_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"gearrental/model"
	"gearrental/util/daterange"

	"github.com/stretchr/testify/require"
)

type catalogMock struct {
	items    map[int64]model.EquipmentItem
	taxonomy model.CategoryTaxonomy
	listErr  error
}

func (m *catalogMock) GetItem(ctx context.Context, id int64) (*model.EquipmentItem, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, nil
	}
	return &it, nil
}

func (m *catalogMock) ListByCategory(ctx context.Context, categoryID int64) ([]model.EquipmentItem, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []model.EquipmentItem{}
	for _, it := range m.items {
		if it.CategoryID == categoryID {
			out = append(out, it)
		}
	}
	// store order is deliberately not id order
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *catalogMock) GetTaxonomy(ctx context.Context) (model.CategoryTaxonomy, error) {
	return m.taxonomy, nil
}

type templateMock struct {
	byPrimary map[int64]*model.KitTemplate
	err       error
}

func (m *templateMock) FetchKitTemplate(ctx context.Context, primaryItemID int64) (*model.KitTemplate, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byPrimary[primaryItemID], nil
}

type bookingRepoMock struct {
	mu    sync.Mutex
	data  map[int64][]model.ExistingBooking
	calls map[int64]int
}

func (m *bookingRepoMock) lookup(ctx context.Context, itemID int64) ([]model.ExistingBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls == nil {
		m.calls = map[int64]int{}
	}
	m.calls[itemID]++
	return m.data[itemID], nil
}

var errStore = errors.New("store unavailable")

const (
	camerasCat int64 = 1
	lensesCat  int64 = 2
	powerCat   int64 = 3
)

func mustRange(t *testing.T, start, end string) daterange.Range {
	t.Helper()
	r, err := daterange.Parse(start, end)
	require.NoError(t, err)
	return r
}

// fixture: one ARRI camera kit with a lens slot and a power slot.
func fixture() (*catalogMock, *templateMock) {
	cat := &catalogMock{
		items: map[int64]model.EquipmentItem{
			10: {ID: 10, Name: "Alexa 35", CategoryID: camerasCat, Brand: "ARRI", TotalStock: 2, IsKitPrimary: true},
			11: {ID: 11, Name: "Venice 2", CategoryID: camerasCat, Brand: "Sony", TotalStock: 1},
			20: {ID: 20, Name: "Signature Prime 35mm", CategoryID: lensesCat, Brand: "ARRI", TotalStock: 1},
			21: {ID: 21, Name: "CP.3 50mm", CategoryID: lensesCat, Brand: "Zeiss", TotalStock: 1},
			22: {ID: 22, Name: "Cooke S4/i 32mm", CategoryID: lensesCat, Brand: "Cooke", TotalStock: 3},
			23: {ID: 23, Name: "Lens Kit Camera Bundle", CategoryID: lensesCat, Brand: "ARRI", TotalStock: 1, IsKitPrimary: true},
			30: {ID: 30, Name: "B-Mount 98Wh", CategoryID: powerCat, Brand: "bebob", TotalStock: 4},
		},
		taxonomy: model.CategoryTaxonomy{
			Categories: map[int64]model.Category{
				lensesCat: {ID: lensesCat, Name: "Lenses", Keywords: []string{"Signature Prime", "Supreme Prime"}},
				powerCat:  {ID: powerCat, Name: "Power"},
			},
			BrandKeywords: map[string]map[int64][]string{
				"ARRI": {powerCat: {"bebob"}},
			},
		},
	}
	tmpl := &templateMock{byPrimary: map[int64]*model.KitTemplate{
		10: {ID: 100, Name: "Alexa 35 Complete Package", PrimaryItemID: 10, Slots: []model.KitSlot{
			{SlotName: "Lens Set", CategoryID: lensesCat, IsMandatoryDefault: true},
			{SlotName: "Power", CategoryID: powerCat},
		}},
	}}
	return cat, tmpl
}
