package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"viona/internal/events"
	"viona/internal/models"
	"viona/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestStore(t *testing.T) (*BookingStore, *repository.MemoryDocumentStore, *events.EventBus) {
	t.Helper()
	docs := repository.NewMemoryDocumentStore()
	bus := events.NewEventBus()
	logger := zerolog.Nop()
	return NewBookingStore(docs, bus, &logger), docs, bus
}

func testBooking(id string, cat models.RoomCategory, in, out string) models.Booking {
	return models.Booking{
		ID:           id,
		RoomID:       "room_" + id,
		RoomName:     "Room " + id,
		RoomCategory: cat,
		CheckIn:      day(in),
		CheckOut:     day(out),
		CustomerName: "Guest",
		TotalPrice:   100,
		CreatedAt:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

type mockDocs struct {
	mock.Mock
}

func (m *mockDocs) Load(ctx context.Context, key string) ([]byte, bool, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.Bool(1), args.Error(2)
}

func (m *mockDocs) Save(ctx context.Context, key string, doc []byte) error {
	return m.Called(ctx, key, doc).Error(0)
}

func (m *mockDocs) Delete(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *mockDocs) Close() error {
	return m.Called().Error(0)
}

func TestBookingStore_GetAllBookings(t *testing.T) {
	ctx := context.Background()

	t.Run("EmptyWhenAbsent", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		bookings := store.GetAllBookings(ctx)
		assert.NotNil(t, bookings)
		assert.Empty(t, bookings)
	})

	t.Run("EmptyWhenMalformed", func(t *testing.T) {
		store, docs, _ := newTestStore(t)
		require.NoError(t, docs.Save(ctx, models.BookingsDocumentKey, []byte("{not json")))
		assert.Empty(t, store.GetAllBookings(ctx))
	})

	t.Run("EmptyWhenStoreFails", func(t *testing.T) {
		docs := new(mockDocs)
		docs.On("Load", mock.Anything, models.BookingsDocumentKey).Return(nil, false, errors.New("boom"))
		store := NewBookingStore(docs, nil, nil)
		assert.Empty(t, store.GetAllBookings(ctx))
	})
}

func TestBookingStore_SaveBooking(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	a := testBooking("a", models.CategorySuite, "2024-06-01", "2024-06-05")
	b := testBooking("b", models.CategoryTwin, "2024-06-02", "2024-06-03")

	require.NoError(t, store.SaveBooking(ctx, a))
	require.NoError(t, store.SaveBooking(ctx, b))

	all := store.GetAllBookings(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, a, all[0])
	assert.Equal(t, b, all[len(all)-1])

	// duplicate ids are appended as-is
	require.NoError(t, store.SaveBooking(ctx, b))
	assert.Len(t, store.GetAllBookings(ctx), 3)
}

func TestBookingStore_SaveBookingSetsAsideMalformedDocument(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := newTestStore(t)
	require.NoError(t, docs.Save(ctx, models.BookingsDocumentKey, []byte("garbage")))

	a := testBooking("a", models.CategoryDouble, "2024-06-01", "2024-06-02")
	require.NoError(t, store.SaveBooking(ctx, a))
	assert.Equal(t, []models.Booking{a}, store.GetAllBookings(ctx))

	// the unparseable original is kept under its own key
	n, err := docs.PruneBefore(ctx, models.MalformedBookingsKeyPrefix, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestBookingStore_MalformedDocumentNotOverwrittenWhenSetAsideFails(t *testing.T) {
	ctx := context.Background()
	docs := new(mockDocs)
	docs.On("Load", mock.Anything, models.BookingsDocumentKey).Return([]byte("{not json"), true, nil).Once()
	docs.On("Save", mock.Anything, mock.MatchedBy(func(key string) bool {
		return strings.HasPrefix(key, models.MalformedBookingsKeyPrefix)
	}), []byte("{not json")).Return(errors.New("disk full")).Once()
	store := NewBookingStore(docs, nil, nil)

	err := store.SaveBooking(ctx, testBooking("a", models.CategoryDouble, "2024-06-01", "2024-06-02"))
	require.Error(t, err)
	docs.AssertNotCalled(t, "Save", mock.Anything, models.BookingsDocumentKey, mock.Anything)
	docs.AssertExpectations(t)
}

func TestBookingStore_LedgerWithMixedRecords(t *testing.T) {
	ctx := context.Background()
	store, docs, _ := newTestStore(t)

	require.NoError(t, docs.Save(ctx, models.BookingsDocumentKey, []byte(`[
		{"id":"x1","roomId":"cat_suite","roomCategory":"Suite","checkIn":"2024-06-01","checkOut":"2024-06-03","totalPrice":900},
		{"id":"x2","roomId":"cat_twin","roomCategory":"Twin","checkIn":"2024-06-01T00:00:00.000Z","checkOut":"2024-06-02T00:00:00.000Z","totalPrice":150},
		{"id":42,"checkIn":"someday"}
	]`)))

	all := store.GetAllBookings(ctx)
	require.Len(t, all, 2)
	assert.Equal(t, "x1", all[0].ID)
	assert.Equal(t, "x2", all[1].ID)
	assert.Equal(t, 0, store.GetCategoryAvailability(ctx, day("2024-06-02"), day("2024-06-03"))[models.CategorySuite])

	require.NoError(t, store.SaveBooking(ctx, testBooking("new", models.CategoryDouble, "2024-07-01", "2024-07-02")))

	raw, _, err := docs.Load(ctx, models.BookingsDocumentKey)
	require.NoError(t, err)
	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &records))
	require.Len(t, records, 4)
	assert.Equal(t, "x1", records[0]["id"])
	assert.Equal(t, "x2", records[1]["id"])
	// the unreadable record survives the write
	assert.Equal(t, float64(42), records[2]["id"])
	assert.Equal(t, "new", records[3]["id"])

	ids := make([]string, 0, 3)
	for _, b := range store.GetAllBookings(ctx) {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"x1", "x2", "new"}, ids)
}

func TestBookingStore_SaveBookingStoreErrors(t *testing.T) {
	ctx := context.Background()
	a := testBooking("a", models.CategoryDouble, "2024-06-01", "2024-06-02")

	t.Run("LoadFailureDoesNotOverwrite", func(t *testing.T) {
		docs := new(mockDocs)
		docs.On("Load", mock.Anything, models.BookingsDocumentKey).Return(nil, false, errors.New("down")).Once()
		store := NewBookingStore(docs, nil, nil)

		err := store.SaveBooking(ctx, a)
		require.Error(t, err)
		docs.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("SaveFailure", func(t *testing.T) {
		docs := new(mockDocs)
		docs.On("Load", mock.Anything, models.BookingsDocumentKey).Return(nil, false, nil).Once()
		docs.On("Save", mock.Anything, models.BookingsDocumentKey, mock.Anything).Return(repository.ErrClosed).Once()
		store := NewBookingStore(docs, nil, nil)

		err := store.SaveBooking(ctx, a)
		assert.ErrorIs(t, err, repository.ErrClosed)
		docs.AssertExpectations(t)
	})
}

func TestBookingStore_GetCategoryAvailability(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	t.Run("FullInventoryWhenEmpty", func(t *testing.T) {
		got := store.GetCategoryAvailability(ctx, day("2024-06-01"), day("2024-06-02"))
		assert.Equal(t, models.CategoryAvailability{
			models.CategorySuite:  1,
			models.CategoryDouble: 12,
			models.CategoryTwin:   4,
		}, got)
	})

	require.NoError(t, store.SaveBooking(ctx, testBooking("a", models.CategorySuite, "2024-06-01", "2024-06-05")))

	t.Run("OverlappingRange", func(t *testing.T) {
		got := store.GetCategoryAvailability(ctx, day("2024-06-03"), day("2024-06-04"))
		assert.Equal(t, 0, got[models.CategorySuite])
		assert.Equal(t, 12, got[models.CategoryDouble])
	})

	t.Run("BackToBack", func(t *testing.T) {
		got := store.GetCategoryAvailability(ctx, day("2024-06-05"), day("2024-06-06"))
		assert.Equal(t, 1, got[models.CategorySuite])
	})

	t.Run("EndsOnCheckIn", func(t *testing.T) {
		got := store.GetCategoryAvailability(ctx, day("2024-05-28"), day("2024-06-01"))
		assert.Equal(t, 1, got[models.CategorySuite])
	})

	t.Run("ClampedAtZero", func(t *testing.T) {
		require.NoError(t, store.SaveBooking(ctx, testBooking("b", models.CategorySuite, "2024-06-02", "2024-06-04")))
		got := store.GetCategoryAvailability(ctx, day("2024-06-01"), day("2024-06-10"))
		assert.Equal(t, 0, got[models.CategorySuite])
	})

	t.Run("UnknownCategoryIgnored", func(t *testing.T) {
		require.NoError(t, store.SaveBooking(ctx, testBooking("c", models.RoomCategory("Villa"), "2024-06-01", "2024-06-10")))
		got := store.GetCategoryAvailability(ctx, day("2024-06-01"), day("2024-06-10"))
		assert.Len(t, got, 3)
		assert.Equal(t, 4, got[models.CategoryTwin])
	})
}

func TestBookingStore_AvailabilityBounds(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	for i, id := range []string{"a", "b", "c", "d", "e", "f"} {
		in := day("2024-06-01").AddDate(0, 0, i)
		b := testBooking(id, models.CategoryTwin, "2024-06-01", "2024-06-02")
		b.CheckIn, b.CheckOut = in, in.AddDate(0, 0, 2)
		require.NoError(t, store.SaveBooking(ctx, b))
	}

	start := day("2024-05-25")
	for i := 0; i < 20; i++ {
		for n := 1; n < 5; n++ {
			in := start.AddDate(0, 0, i)
			got := store.GetCategoryAvailability(ctx, in, in.AddDate(0, 0, n))
			for _, cat := range models.Categories() {
				assert.GreaterOrEqual(t, got[cat], 0)
				assert.LessOrEqual(t, got[cat], cat.Total())
			}
		}
	}
}

func TestBookingStore_AvailabilityReport(t *testing.T) {
	ctx := context.Background()
	store, _, bus := newTestStore(t)

	var published []*events.Event
	bus.Subscribe(events.EventOverbookingDetected, func(e *events.Event) error {
		published = append(published, e)
		return nil
	})

	require.NoError(t, store.SaveBooking(ctx, testBooking("a", models.CategorySuite, "2024-06-01", "2024-06-05")))

	report := store.AvailabilityReport(ctx, day("2024-06-02"), day("2024-06-03"))
	assert.False(t, report.HasOverbooking())
	assert.Equal(t, 1, report.Overlaps[models.CategorySuite])
	assert.Empty(t, published)

	require.NoError(t, store.SaveBooking(ctx, testBooking("b", models.CategorySuite, "2024-06-02", "2024-06-04")))
	require.NoError(t, store.SaveBooking(ctx, testBooking("c", models.CategorySuite, "2024-06-03", "2024-06-06")))

	report = store.AvailabilityReport(ctx, day("2024-06-03"), day("2024-06-04"))
	assert.True(t, report.HasOverbooking())
	assert.Equal(t, 0, report.Remaining[models.CategorySuite])
	assert.Equal(t, 3, report.Overlaps[models.CategorySuite])
	assert.Equal(t, 2, report.Overbooked[models.CategorySuite])
	assert.Equal(t, 0, report.Overbooked[models.CategoryDouble])
	assert.Len(t, published, 1)
}

func TestBookingStore_ReserveBooking(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	first := testBooking("a", models.CategorySuite, "2024-06-01", "2024-06-05")
	require.NoError(t, store.ReserveBooking(ctx, first))

	clash := testBooking("b", models.CategorySuite, "2024-06-04", "2024-06-06")
	assert.ErrorIs(t, store.ReserveBooking(ctx, clash), ErrNotAvailable)

	next := testBooking("c", models.CategorySuite, "2024-06-05", "2024-06-07")
	require.NoError(t, store.ReserveBooking(ctx, next))

	inverted := testBooking("d", models.CategoryTwin, "2024-06-05", "2024-06-05")
	assert.ErrorIs(t, store.ReserveBooking(ctx, inverted), ErrInvalidDateRange)

	assert.Len(t, store.GetAllBookings(ctx), 2)
}

func TestBookingStore_ReserveBookingConcurrent(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, rejected int

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b := testBooking(string(rune('a'+i)), models.CategoryTwin, "2024-08-01", "2024-08-03")
			err := store.ReserveBooking(ctx, b)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrNotAvailable) {
				rejected++
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, models.CategoryTwin.Total(), ok)
	assert.Equal(t, 10-models.CategoryTwin.Total(), rejected)
	report := store.AvailabilityReport(ctx, day("2024-08-01"), day("2024-08-03"))
	assert.False(t, report.HasOverbooking())
}

func TestBookingStore_SiteConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultWhenAbsent", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		assert.Equal(t, models.DefaultSiteConfig(), store.GetSiteConfig(ctx))
	})

	t.Run("DefaultWhenMalformed", func(t *testing.T) {
		store, docs, _ := newTestStore(t)
		require.NoError(t, docs.Save(ctx, models.SiteConfigDocumentKey, []byte("[")))
		assert.Equal(t, models.DefaultSiteConfig(), store.GetSiteConfig(ctx))
	})

	t.Run("RoundTrip", func(t *testing.T) {
		store, _, bus := newTestStore(t)
		var updates int
		bus.Subscribe(events.EventSiteConfigUpdated, func(_ *events.Event) error {
			updates++
			return nil
		})

		cfg := models.DefaultSiteConfig()
		cfg.Hero.Image = "/new-hero.jpg"
		cfg.Rooms[0].Price = 500
		cfg.Rooms = cfg.Rooms[:2]

		require.NoError(t, store.UpdateSiteConfig(ctx, cfg))
		assert.Equal(t, cfg, store.GetSiteConfig(ctx))
		assert.Equal(t, 1, updates)
	})

	t.Run("InvalidRejected", func(t *testing.T) {
		store, docs, _ := newTestStore(t)
		cfg := models.DefaultSiteConfig()
		cfg.Rooms[1].ID = cfg.Rooms[0].ID

		assert.ErrorIs(t, store.UpdateSiteConfig(ctx, cfg), ErrInvalidSiteConfig)
		_, ok, err := docs.Load(ctx, models.SiteConfigDocumentKey)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("Reset", func(t *testing.T) {
		store, _, _ := newTestStore(t)
		cfg := models.DefaultSiteConfig()
		cfg.Hero.Image = "/x.jpg"
		require.NoError(t, store.UpdateSiteConfig(ctx, cfg))
		require.NoError(t, store.ResetSiteConfig(ctx))
		assert.Equal(t, models.DefaultSiteConfig(), store.GetSiteConfig(ctx))
	})
}

func TestBookingStore_Stats(t *testing.T) {
	ctx := context.Background()
	store, _, _ := newTestStore(t)

	a := testBooking("a", models.CategorySuite, "2024-06-01", "2024-06-05")
	a.TotalPrice = 1800
	b := testBooking("b", models.CategoryTwin, "2024-06-01", "2024-06-02")
	b.TotalPrice = 240
	c := testBooking("c", models.CategoryTwin, "2024-06-03", "2024-06-04")
	c.TotalPrice = 240
	for _, bk := range []models.Booking{a, b, c} {
		require.NoError(t, store.SaveBooking(ctx, bk))
	}

	stats := store.Stats(ctx)
	assert.Equal(t, 3, stats.TotalOrders)
	assert.Equal(t, 2280, stats.TotalRevenue)
	assert.Equal(t, 1, stats.ByCategory[models.CategorySuite])
	assert.Equal(t, 2, stats.ByCategory[models.CategoryTwin])
}
