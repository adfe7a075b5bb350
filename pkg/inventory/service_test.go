package inventory

import (
	"context"
	"net/http"
	"testing"

	"github.com/Sternrassler/steam-inventory-client/internal/testutil"
	"github.com/Sternrassler/steam-inventory-client/pkg/client"
	"github.com/Sternrassler/steam-inventory-client/pkg/econ"
	"github.com/Sternrassler/steam-inventory-client/pkg/pagination"
	"github.com/Sternrassler/steam-inventory-client/pkg/provider"
	"github.com/Sternrassler/steam-inventory-client/pkg/steamid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSteamID   = "76561197960287930"
	communityPath = "/inventory/76561197960287930/730/2"
	steamApisPath = "/steam/inventory/76561197960287930/730/2"
	webAPIPath    = "/IEconService/GetInventoryItemsWithDescriptions/v1/"
)

func newTestService(t *testing.T, mock *testutil.MockProvider) *Service {
	t.Helper()
	cfg := client.DefaultConfig("inventory-test/1.0")
	cfg.RateLimit = 0
	httpClient, err := client.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { httpClient.Close() })

	base := provider.WithBaseURL(mock.URL())
	registry := provider.NewRegistry(
		provider.NewCommunity(httpClient, base),
		provider.NewWebAPI(httpClient, base),
		provider.NewSteamApis(httpClient, base),
		provider.NewSteamSupply(httpClient, base),
		provider.NewSteamApiIO(httpClient, base),
	)

	return NewService(httpClient,
		WithRegistry(registry),
		WithRetryPolicy(pagination.RetryPolicy{}),
		WithLogger(zerolog.Nop()),
	)
}

// callbackRecorder captures callback invocations.
type callbackRecorder struct {
	calls     int
	err       error
	inventory []econ.Item
	currency  []econ.Item
	total     int
}

func (r *callbackRecorder) callback(err error, inventory, currency []econ.Item, total int) {
	r.calls++
	r.err = err
	r.inventory = inventory
	r.currency = currency
	r.total = total
}

func communityRequest() Request {
	return Request{
		Provider:  provider.KindCommunity,
		Target:    testSteamID,
		AppID:     econ.AppCS2,
		ContextID: econ.ContextCS2Items,
	}
}

func TestFetchInventory_MultiPage(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	mock.Enqueue(communityPath,
		testutil.NewJSONResponse(testutil.FixturePage{AppID: 730, ContextID: "2", Items: testutil.Items(1, 3), MoreItems: true, Total: 7}.JSON()),
		testutil.NewJSONResponse(testutil.FixturePage{AppID: 730, ContextID: "2", Items: testutil.Items(4, 3), MoreItems: true, Total: 7}.JSON()),
		testutil.NewJSONResponse(testutil.FixturePage{AppID: 730, ContextID: "2", Items: testutil.Items(7, 1), Total: 7}.JSON()),
	)

	svc := newTestService(t, mock)
	rec := &callbackRecorder{}
	svc.FetchInventory(context.Background(), communityRequest(), rec.callback)

	require.Equal(t, 1, rec.calls)
	require.NoError(t, rec.err)
	assert.Equal(t, 7, rec.total)
	require.Len(t, rec.inventory, 7)
	assert.Empty(t, rec.currency)
	for i, item := range rec.inventory {
		assert.Equal(t, i+1, item.Pos)
		assert.Equal(t, "2", item.ContextID)
	}

	reqs := mock.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "", reqs[0].Query.Get("start_assetid"))
	assert.Equal(t, "3", reqs[1].Query.Get("start_assetid"))
	assert.Equal(t, "6", reqs[2].Query.Get("start_assetid"))
	assert.Equal(t, "english", reqs[0].Query.Get("l"), "language defaults to english")
}

func TestFetchInventory_Language(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.Enqueue(communityPath, testutil.NewJSONResponse(testutil.EmptyInventoryJSON))

	req := communityRequest()
	req.Language = "french"
	rec := &callbackRecorder{}
	newTestService(t, mock).FetchInventory(context.Background(), req, rec.callback)

	require.NoError(t, rec.err)
	assert.Equal(t, "french", mock.Requests()[0].Query.Get("l"))
}

func TestFetchInventory_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
	}{
		{name: "unparsable target", mutate: func(r *Request) { r.Target = "gaben" }},
		{name: "nil target", mutate: func(r *Request) { r.Target = nil }},
		{name: "unsupported target type", mutate: func(r *Request) { r.Target = 3.14 }},
		{name: "unknown provider", mutate: func(r *Request) { r.Provider = "backpack" }},
		{name: "missing api key", mutate: func(r *Request) { r.Provider = provider.KindWebAPI }},
		{name: "missing context", mutate: func(r *Request) { r.ContextID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockProvider()
			defer mock.Close()

			req := communityRequest()
			tt.mutate(&req)
			rec := &callbackRecorder{}
			newTestService(t, mock).FetchInventory(context.Background(), req, rec.callback)

			require.Equal(t, 1, rec.calls)
			assert.ErrorIs(t, rec.err, provider.ErrInvalidInput)
			assert.Nil(t, rec.inventory)
			assert.Nil(t, rec.currency)
			assert.Zero(t, rec.total)
			assert.Zero(t, mock.RequestCount(), "no request is sent for invalid input")
		})
	}
}

func TestFetchInventory_PrivateProfile(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetResponse(communityPath, testutil.NewPrivateInventoryResponse())

	rec := &callbackRecorder{}
	newTestService(t, mock).FetchInventory(context.Background(), communityRequest(), rec.callback)

	require.Equal(t, 1, rec.calls)
	assert.ErrorIs(t, rec.err, provider.ErrPrivateProfile)
	assert.Nil(t, rec.inventory)
	assert.Equal(t, 1, mock.RequestCount())
}

func TestFetchInventory_EmptyInventory(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.Enqueue(communityPath, testutil.NewJSONResponse(`{"success":true,"total_inventory_count":0}`))

	rec := &callbackRecorder{}
	newTestService(t, mock).FetchInventory(context.Background(), communityRequest(), rec.callback)

	require.NoError(t, rec.err)
	assert.NotNil(t, rec.inventory)
	assert.Empty(t, rec.inventory)
	assert.NotNil(t, rec.currency)
	assert.Empty(t, rec.currency)
	assert.Zero(t, rec.total)
}

func TestFetch_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.SetResponse(steamApisPath, testutil.NewStatusResponse(http.StatusServiceUnavailable, ""))

	req := communityRequest()
	req.Provider = provider.KindSteamApis
	req.APIKey = "KEY"

	res, err := newTestService(t, mock).Fetch(context.Background(), req)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, pagination.ErrRetryExhausted)
	assert.ErrorIs(t, err, provider.ErrProvider)
	assert.NotErrorIs(t, err, provider.ErrTransient, "exhausted errors must not invite another retry")
	assert.Equal(t, 6, mock.RequestCount(), "steamapis retries 5 times")

	var perr *provider.Error
	require.ErrorAs(t, err, &perr)
	assert.False(t, perr.Temporary())
	assert.Equal(t, http.StatusServiceUnavailable, perr.StatusCode)
	assert.Equal(t, provider.KindSteamApis, perr.Provider)
}

func TestFetch_RecoversFromTransient(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.Enqueue(webAPIPath,
		testutil.NewServerErrorResponse(),
		testutil.NewRateLimitResponse(),
		testutil.NewJSONResponse(testutil.FixturePage{AppID: 730, ContextID: "2", Items: testutil.Items(1, 2), Total: 2, Envelope: true}.JSON()),
	)

	req := communityRequest()
	req.Provider = provider.KindWebAPI
	req.APIKey = "KEY"
	req.Target = steamid.MustParse("STEAM_0:0:11101")

	res, err := newTestService(t, mock).Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Retries)
	assert.Len(t, res.Inventory, 2)
	assert.Equal(t, provider.KindWebAPI, res.Provider)
	assert.Equal(t, testSteamID, res.SteamID.String())
	assert.NotEmpty(t, res.FetchID)
}

func TestFetch_TradableOnlyAndCurrency(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	items := []testutil.FixtureItem{
		{ID: "1", ClassID: "10", Tradable: true},
		{ID: "2", ClassID: "11", Tradable: false},
		{ID: "3", ClassID: "12", Tradable: true, Currency: true, Amount: 40},
		{ID: "4", ClassID: "10", Tradable: true},
	}
	mock.Enqueue(communityPath, testutil.NewJSONResponse(testutil.FixturePage{AppID: 730, ContextID: "2", Items: items, Total: 4}.JSON()))

	req := communityRequest()
	req.TradableOnly = true

	res, err := newTestService(t, mock).Fetch(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Inventory, 2)
	require.Len(t, res.Currency, 1)
	assert.Equal(t, "1", res.Inventory[0].ID)
	assert.Equal(t, 1, res.Inventory[0].Pos)
	assert.Equal(t, "3", res.Currency[0].CurrencyID)
	assert.Equal(t, int64(40), res.Currency[0].Amount)
	assert.Equal(t, 2, res.Currency[0].Pos)
	assert.Equal(t, "4", res.Inventory[1].ID)
	assert.Equal(t, 3, res.Inventory[1].Pos)
	assert.Equal(t, 4, res.TotalInventoryCount)
}

func TestFetch_MalformedItem(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	body := `{"success":1,"assets":[{"appid":730,"contextid":"2","classid":"1","instanceid":"0","amount":"1"}],"descriptions":[{"classid":"1","instanceid":"0"}],"total_inventory_count":1}`
	mock.Enqueue(communityPath, testutil.NewJSONResponse(body))

	_, err := newTestService(t, mock).Fetch(context.Background(), communityRequest())

	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
	assert.ErrorIs(t, err, econ.ErrMalformedItem)
}

func TestFetch_MalformedResponse(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	mock.Enqueue(communityPath, testutil.NewJSONResponse(`{"success":1,"total_inventory_count":12}`))

	_, err := newTestService(t, mock).Fetch(context.Background(), communityRequest())

	assert.ErrorIs(t, err, provider.ErrMalformedResponse)
}

func TestFetch_ContextCancelled(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestService(t, mock).Fetch(ctx, communityRequest())

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, mock.RequestCount())
}

func TestNewService_DefaultRegistry(t *testing.T) {
	httpClient, err := client.New(client.DefaultConfig("inventory-test/1.0"))
	require.NoError(t, err)

	svc := NewService(httpClient)

	assert.Len(t, svc.Providers(), 5)
}

func TestResolveTarget(t *testing.T) {
	want := steamid.ID(76561197960287930)
	ptr := want
	invalid := steamid.ID(1)

	tests := []struct {
		name    string
		target  any
		wantErr bool
	}{
		{name: "id", target: want},
		{name: "pointer", target: &ptr},
		{name: "uint64", target: uint64(want)},
		{name: "steam64 string", target: "76561197960287930"},
		{name: "steam2 string", target: "STEAM_1:0:11101"},
		{name: "steam3 string", target: "[U:1:22202]"},
		{name: "nil pointer", target: (*steamid.ID)(nil), wantErr: true},
		{name: "invalid id", target: invalid, wantErr: true},
		{name: "garbage", target: "not a steamid", wantErr: true},
		{name: "int", target: 5, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveTarget(tt.target)
			if tt.wantErr {
				assert.ErrorIs(t, err, steamid.ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestFetch_DescriptionCurrencyFlagKeepsAsset(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()
	body := `{"success":1,"assets":[{"appid":753,"contextid":"6","assetid":"111","classid":"5","instanceid":"0","amount":"1"}],` +
		`"descriptions":[{"appid":753,"classid":"5","instanceid":"0","currency":1,"tradable":1}],"total_inventory_count":1}`
	mock.Enqueue("/inventory/76561197960287930/753/6", testutil.NewJSONResponse(body))

	req := communityRequest()
	req.AppID = econ.AppSteam
	req.ContextID = econ.ContextSteamItems

	res, err := newTestService(t, mock).Fetch(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, res.Inventory, 1)
	assert.Empty(t, res.Currency)
	assert.Equal(t, "111", res.Inventory[0].AssetID)
	assert.Empty(t, res.Inventory[0].CurrencyID)
}
