package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/de-tools/data-pump/pkg/models/api"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/de-tools/data-pump/pkg/pump/synthetic"
	"github.com/de-tools/data-pump/pkg/services/report"
	"github.com/de-tools/data-pump/pkg/store/duckdb"
	"github.com/de-tools/data-pump/pkg/store/duckdb/reports"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) *report.Service {
	t.Helper()
	db, err := duckdb.NewDB(duckdb.Settings{DbPath: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, err := reports.NewStore(db)
	require.NoError(t, err)
	r := pump.NewRegistry()
	require.NoError(t, synthetic.Register(r))
	return report.NewService(store, report.NewEngine(r))
}

const busySailings = `{
	"name": "busy sailings",
	"pump": "ferry_carries",
	"fields": ["travel_date", "number_of_passengers"],
	"filters": [{"field": "number_of_passengers", "op": ">=", "param": "min"}],
	"sort": [{"field": "number_of_passengers", "direction": "desc"}],
	"options": {"days": {"value": 1}},
	"parameters": [{"name": "min", "type": "integer", "default": 0}]
}`

func TestWebAPI_Endpoints(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	router := ConfigureRouter(Config{
		Dependencies: Dependencies{
			Service: newService(t),
			Logger:  logger,
		},
	})
	testServer := httptest.NewServer(router)
	defer testServer.Close()

	send := func(t *testing.T, method, path, body string) (int, []byte) {
		t.Helper()
		req, err := http.NewRequest(method, testServer.URL+path, bytes.NewBufferString(body))
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err, "Failed to send request")
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err, "Failed to read response body")
		return resp.StatusCode, data
	}

	status, body := send(t, http.MethodGet, "/api/v1/pumps", "")
	require.Equal(t, http.StatusOK, status)
	var pumps []api.Pump
	require.NoError(t, json.Unmarshal(body, &pumps))
	require.Len(t, pumps, 2)
	assert.Equal(t, synthetic.FerryCarriesName, pumps[0].Name)
	assert.Equal(t, synthetic.DailyTotalsName, pumps[1].Name)

	status, body = send(t, http.MethodGet, "/api/v1/pumps/"+synthetic.DailyTotalsName, "")
	require.Equal(t, http.StatusOK, status)
	var daily api.Pump
	require.NoError(t, json.Unmarshal(body, &daily))
	assert.Equal(t, []string{"travel_date", "sailings", "number_of_passengers", "number_of_vehicles"}, daily.OutputShape)

	status, body = send(t, http.MethodPost, "/api/v1/reports", busySailings)
	require.Equal(t, http.StatusCreated, status, string(body))
	var saved api.SaveResponse
	require.NoError(t, json.Unmarshal(body, &saved))
	require.NotEmpty(t, saved.ID)

	status, body = send(t, http.MethodGet, "/api/v1/reports", "")
	require.Equal(t, http.StatusOK, status)
	var summaries []api.ReportSummary
	require.NoError(t, json.Unmarshal(body, &summaries))
	require.Len(t, summaries, 1)
	assert.Equal(t, "busy sailings", summaries[0].Name)

	tests := []struct {
		name     string
		body     string
		status   int
		expected int
	}{
		{name: "defaults", status: http.StatusOK, expected: 4},
		{name: "all filtered", body: `{"parameters": {"min": 100000}}`, status: http.StatusOK, expected: 0},
		{name: "text parameter", body: `{"parameters": {"min": "0"}}`, status: http.StatusOK, expected: 4},
		{name: "bad parameter", body: `{"parameters": {"min": "lots"}}`, status: http.StatusBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			status, body := send(t, http.MethodPost, "/api/v1/reports/"+saved.ID+"/run", tc.body)
			assert.Equal(t, tc.status, status, "Status code mismatch")
			if tc.status != http.StatusOK {
				return
			}
			var table api.ResultTable
			require.NoError(t, json.Unmarshal(body, &table))
			assert.Equal(t, []string{"travel_date", "number_of_passengers"}, table.Columns)
			assert.Len(t, table.Rows, tc.expected)
		})
	}

	status, _ = send(t, http.MethodDelete, "/api/v1/reports/"+saved.ID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = send(t, http.MethodGet, "/api/v1/reports/"+saved.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func TestWebAPI_Serve(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	w := NewWebAPI(Config{
		Addr:            addr,
		ShutdownTimeout: time.Second,
		Dependencies: Dependencies{
			Service: newService(t),
			Logger:  zerolog.Nop(),
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Serve(ctx) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/api/v1/pumps")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
