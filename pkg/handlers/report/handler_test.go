package report

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/de-tools/data-pump/pkg/models/api"
	"github.com/de-tools/data-pump/pkg/models/domain"
	"github.com/de-tools/data-pump/pkg/pump"
	"github.com/de-tools/data-pump/pkg/pump/memory"
	"github.com/de-tools/data-pump/pkg/services/report"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Save(ctx context.Context, cfg domain.ReportConfig) (string, error) {
	args := m.Called(ctx, cfg)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Load(ctx context.Context, id string) (*domain.ReportConfig, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReportConfig), args.Error(1)
}

func (m *mockStore) List(ctx context.Context) ([]domain.ReportConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.ReportConfig), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

type brokenPump struct {
	pump.Base
}

func (brokenPump) Generate(context.Context, pump.Options) ([]domain.Row, error) {
	return nil, errors.New("upstream timeout")
}

var peopleSchema = pump.NewSchema().
	DeclareField("age", domain.TypeInteger).
	DeclareField("gender", domain.TypeString).
	MustBuild()

func setup(t *testing.T) (*mockStore, http.Handler) {
	t.Helper()
	r := pump.NewRegistry()
	people := memory.New(peopleSchema, []domain.Row{{int64(25), "M"}, {int64(30), "F"}, {int64(41), "M"}})
	require.NoError(t, r.Register("people", memory.Definition("people fixture", people)))
	require.NoError(t, r.Register("broken", pump.Definition{
		Schema: peopleSchema,
		Factory: func(context.Context) (pump.DataPump, error) {
			return brokenPump{Base: pump.NewBase(peopleSchema)}, nil
		},
	}))

	store := new(mockStore)
	h := NewHandler(report.NewService(store, report.NewEngine(r)))

	router := chi.NewRouter()
	router.Get("/pumps", h.ListPumps)
	router.Get("/pumps/{pump}", h.GetPump)
	router.Get("/reports", h.ListReports)
	router.Post("/reports", h.SaveReport)
	router.Get("/reports/{id}", h.GetReport)
	router.Delete("/reports/{id}", h.DeleteReport)
	router.Post("/reports/{id}/run", h.RunReport)
	return store, router
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func adults(t *testing.T) *domain.ReportConfig {
	t.Helper()
	minAge, err := domain.NewParameter("min_age", domain.TypeInteger, domain.WithDefault(int64(18)))
	require.NoError(t, err)
	cfg := domain.NewReport("people").
		Named("adults").
		Filter("age", domain.Compare(domain.OpGte, domain.Param("min_age"))).
		GroupOn("gender").
		Parameter(minAge).
		Build()
	cfg.ID = "r-1"
	return &cfg
}

func TestHandler_Pumps(t *testing.T) {
	_, h := setup(t)

	rec := do(t, h, http.MethodGet, "/pumps", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var pumps []api.Pump
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&pumps))
	require.Len(t, pumps, 2)
	assert.Equal(t, "broken", pumps[0].Name)

	rec = do(t, h, http.MethodGet, "/pumps/people", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var p api.Pump
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	assert.Equal(t, []api.Field{{Name: "age", DataType: "integer"}, {Name: "gender", DataType: "string"}}, p.Fields)
	assert.Equal(t, "people fixture", p.Description)

	rec = do(t, h, http.MethodGet, "/pumps/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_RunReport(t *testing.T) {
	store, h := setup(t)
	store.On("Load", mock.Anything, "r-1").Return(adults(t), nil)
	store.On("Load", mock.Anything, "missing").Return(nil, domain.ErrReportNotFound)

	t.Run("default parameters", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/reports/r-1/run", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.JSONEq(t, `{
			"columns": ["age", "gender"],
			"groups": [
				{"field": "gender", "value": "M", "rows": [[25, "M"], [41, "M"]]},
				{"field": "gender", "value": "F", "rows": [[30, "F"]]}
			]
		}`, rec.Body.String())
	})

	t.Run("json parameters", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/reports/r-1/run", `{"parameters": {"min_age": 40}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{
			"columns": ["age", "gender"],
			"groups": [{"field": "gender", "value": "M", "rows": [[41, "M"]]}]
		}`, rec.Body.String())
	})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"unknown report", "/reports/missing/run", "", http.StatusNotFound},
		{"wrong parameter type", "/reports/r-1/run", `{"parameters": {"min_age": "old"}}`, http.StatusBadRequest},
		{"malformed body", "/reports/r-1/run", `{"parameters": `, http.StatusBadRequest},
		{"unknown body field", "/reports/r-1/run", `{"params": {}}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
			var e api.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestHandler_RunReport_PumpFailure(t *testing.T) {
	store, h := setup(t)
	cfg := domain.NewReport("broken").Build()
	store.On("Load", mock.Anything, "b-1").Return(&cfg, nil)

	rec := do(t, h, http.MethodPost, "/reports/b-1/run", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "upstream timeout")
}

func TestHandler_SaveReport(t *testing.T) {
	store, h := setup(t)
	store.On("Save", mock.Anything, mock.MatchedBy(func(c domain.ReportConfig) bool {
		return c.Name == "by gender" && c.ID == ""
	})).Return("new-id", nil).Once()
	store.On("Save", mock.Anything, mock.MatchedBy(func(c domain.ReportConfig) bool {
		return c.ID == "r-9"
	})).Return("r-9", nil).Once()

	rec := do(t, h, http.MethodPost, "/reports", `{"name": "by gender", "pump": "people", "groups": ["gender"]}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"id": "new-id"}`, rec.Body.String())

	rec = do(t, h, http.MethodPost, "/reports", `{"id": "r-9", "name": "again", "pump": "people"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodPost, "/reports", `{"name": "x", "pump": "people", "sort": [{"field": "height"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/reports", `{"name": "x", "pump": "ghost"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/reports", `{"name": "x", "pump": "people", "filters": [{"field": "age", "op": "~", "value": 1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store.AssertExpectations(t)
}

func TestHandler_ReportsCRUD(t *testing.T) {
	store, h := setup(t)
	store.On("List", mock.Anything).Return([]domain.ReportConfig{*adults(t)}, nil)
	store.On("Load", mock.Anything, "r-1").Return(adults(t), nil)
	store.On("Delete", mock.Anything, "r-1").Return(nil)
	store.On("Delete", mock.Anything, "gone").Return(domain.ErrReportNotFound)

	rec := do(t, h, http.MethodGet, "/reports", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id": "r-1", "name": "adults", "pump": "people"}]`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/reports/r-1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var def api.ReportConfig
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&def))
	assert.Equal(t, "min_age", def.Filters[0].Param)
	assert.Equal(t, ">=", def.Filters[0].Op)
	assert.Equal(t, "18", def.Parameters[0].Default)

	rec = do(t, h, http.MethodDelete, "/reports/r-1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/reports/gone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{domain.ErrReportNotFound, http.StatusNotFound},
		{domain.ErrUnknownPumpType, http.StatusNotFound},
		{domain.ErrMissingParameter, http.StatusBadRequest},
		{domain.ErrValueNotInDomain, http.StatusBadRequest},
		{&report.RunError{Stage: report.StageGenerated, Err: domain.ErrPumpGenerationFailed}, http.StatusBadGateway},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.status, StatusFor(tt.err), "%v", tt.err)
	}
}
