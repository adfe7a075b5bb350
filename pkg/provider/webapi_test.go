package provider

import (
	"context"
	"net/http"
	"testing"

	"github.com/Sternrassler/steam-inventory-client/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebAPI_FetchPage(t *testing.T) {
	mock := testutil.NewMockProvider()
	defer mock.Close()

	body := testutil.FixturePage{AppID: 730, ContextID: "2", Items: testutil.Items(1, 2), Total: 2, Envelope: true}.JSON()
	mock.Enqueue(webAPIPath, testutil.NewJSONResponse(body))

	p := NewWebAPI(newTestClient(t), WithBaseURL(mock.URL()))
	page, err := p.FetchPage(context.Background(), testRequest(), "")
	require.NoError(t, err)

	assert.Len(t, page.Assets, 2)
	assert.False(t, page.MoreItems)
	assert.Equal(t, 2, page.TotalInventoryCount)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	q := reqs[0].Query
	assert.Equal(t, "KEY", q.Get("key"))
	assert.Equal(t, "76561197960287930", q.Get("steamid"))
	assert.Equal(t, "730", q.Get("appid"))
	assert.Equal(t, "2", q.Get("contextid"))
	assert.Equal(t, "true", q.Get("get_descriptions"))
	assert.Equal(t, "english", q.Get("language"))
	assert.Equal(t, "5000", q.Get("count"))
}

func TestWebAPI_Classify(t *testing.T) {
	p := NewWebAPI(nil)

	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: "", wantErr: ErrInvalidCredential},
		{name: "forbidden key", status: http.StatusForbidden, body: "<html>Verify your <pre>key=</pre> parameter</html>", wantErr: ErrInvalidCredential},
		{name: "forbidden private", status: http.StatusForbidden, body: "", wantErr: ErrPrivateProfile},
		{name: "429", status: http.StatusTooManyRequests, wantErr: ErrTransient},
		{name: "500", status: http.StatusInternalServerError, wantErr: ErrTransient},
		{name: "502", status: http.StatusBadGateway, wantErr: ErrTransient},
		{name: "503", status: http.StatusServiceUnavailable, wantErr: ErrTransient},
		{name: "504", status: http.StatusGatewayTimeout, wantErr: ErrTransient},
		{name: "404", status: http.StatusNotFound, wantErr: ErrProvider},
		{name: "no envelope", status: http.StatusOK, body: `{"assets":[]}`, wantErr: ErrMalformedResponse},
		{name: "envelope without lists", status: http.StatusOK, body: `{"response":{"total_inventory_count":4}}`, wantErr: ErrMalformedResponse},
		{name: "not json", status: http.StatusOK, body: "<html>", wantErr: ErrMalformedResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.classify(tt.status, []byte(tt.body))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWebAPI_ClassifyEmptyInventory(t *testing.T) {
	page, err := NewWebAPI(nil).classify(http.StatusOK, []byte(`{"response":{"total_inventory_count":0}}`))
	require.NoError(t, err)
	assert.True(t, page.Empty)
}
