package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/pettyvault/src/model"
	"github.com/username/pettyvault/src/session"
	"github.com/username/pettyvault/src/utils"
)

func newTestStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	return store
}

func TestClientAttachesAuthHeaders(t *testing.T) {
	var gotAuth, gotCompany string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCompany = r.Header.Get(utils.CompanyIDHeader)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []model.PettyFund{}})
	}))
	defer srv.Close()

	store := newTestStore(t)
	require.NoError(t, store.Set(session.KeyToken, "tok-123"))
	require.NoError(t, store.Set(session.KeyCompanyID, "co-456"))

	c := New(srv.URL, store)
	_, err := c.ListFunds()
	require.NoError(t, err)

	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "co-456", gotCompany)
}

func TestClientOmitsHeadersWhenStoreEmpty(t *testing.T) {
	var gotAuth, gotCompany string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotCompany = r.Header.Get(utils.CompanyIDHeader)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []model.PettyFund{}})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	_, err := c.ListFunds()
	require.NoError(t, err)

	assert.Empty(t, gotAuth)
	assert.Empty(t, gotCompany)
}

func TestClientUnwrapsDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/funds", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"id": "f1", "name": "Travel", "currentBalance": 500.0},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	funds, err := c.ListFunds()
	require.NoError(t, err)
	require.Len(t, funds, 1)
	assert.Equal(t, "Travel", funds[0].Name)
	assert.Equal(t, 500.0, funds[0].CurrentBalance)
}

func TestClientSurfacesServerErrorMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Fund balance is insufficient for this requisition",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	_, err := c.Approve("req-1")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Fund balance is insufficient for this requisition", apiErr.Message)
}

func TestClientFallsBackToStatusText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>nginx</html>"))
	}))
	defer srv.Close()

	c := New(srv.URL, newTestStore(t))
	_, err := c.ListFunds()

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Equal(t, http.StatusText(http.StatusBadGateway), apiErr.Message)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/funds", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{"data": []model.PettyFund{}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/", newTestStore(t))
	_, err := c.ListFunds()
	require.NoError(t, err)
}

func TestRequisitionPayloadValidation(t *testing.T) {
	valid := RequisitionPayload{Title: "Taxi", Amount: 80, FundID: "f1"}
	assert.NoError(t, valid.Validate())

	missing := RequisitionPayload{Amount: 80, FundID: "f1"}
	assert.Error(t, missing.Validate())

	negative := RequisitionPayload{Title: "Taxi", Amount: -1, FundID: "f1"}
	assert.Error(t, negative.Validate())
}

func TestTransactionPayloadValidation(t *testing.T) {
	valid := TransactionPayload{FundID: "f1", Amount: 50, Type: "CREDIT"}
	assert.NoError(t, valid.Validate())

	badType := TransactionPayload{FundID: "f1", Amount: 50, Type: "TRANSFER"}
	assert.Error(t, badType.Validate())
}
