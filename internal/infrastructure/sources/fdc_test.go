package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nutriweek/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testLogger() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func TestNewFDCClient(t *testing.T) {
	client := NewFDCClient("test-api-key", "https://api.example.com", testLogger())

	assert.Equal(t, "test-api-key", client.apiKey)
	assert.Equal(t, "https://api.example.com", client.baseURL)
	assert.Equal(t, domain.SourceFDC, client.Name())

	defaulted := NewFDCClient("key", "", testLogger())
	assert.Equal(t, defaultFDCBaseURL, defaulted.baseURL)
}

func TestFDCSearchByName_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/foods/search", r.URL.Path)
		assert.Equal(t, "salmon", r.URL.Query().Get("query"))
		assert.Equal(t, "test-api-key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "5", r.URL.Query().Get("pageSize"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"foods": [{
				"fdcId": 123456,
				"description": "Atlantic salmon",
				"gtinUpc": "0123456789012",
				"foodNutrients": [
					{"nutrientId": 1005, "unitName": "UG", "value": 40},
					{"nutrientId": 1185, "unitName": "G", "value": 0.12},
					{"nutrientId": 1008, "unitName": "KCAL", "value": 208}
				]
			}]
		}`))
	}))
	defer server.Close()

	client := NewFDCClient("test-api-key", server.URL, testLogger())
	results, err := client.SearchByName(context.Background(), "salmon", 5)

	require.NoError(t, err)
	require.Len(t, results, 1)
	food := results[0]
	assert.Equal(t, domain.SourceFDC, food.Source)
	assert.Equal(t, "123456", food.SourceID)
	assert.Equal(t, "Atlantic salmon", food.FoodName)
	assert.Equal(t, "0123456789012", food.Barcode)
	assert.InDelta(t, 0.04, food.Nutrients[domain.Selenium], 1e-9)
	assert.InDelta(t, 120, food.Nutrients[domain.DHA], 1e-9)
	// Untracked nutrients are dropped, tracked ones default to zero.
	assert.Len(t, food.Nutrients, len(domain.NutrientKeys))
	assert.Zero(t, food.Nutrients[domain.Iron])
}

func TestFDCSearchByName_EmptyResults(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods": []}`))
	}))
	defer server.Close()

	client := NewFDCClient("test-api-key", server.URL, testLogger())
	results, err := client.SearchByName(context.Background(), "nothing", 10)

	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestFDCSearchByName_ServerErrorRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"foods": [{"fdcId": 1, "description": "after retry"}]}`))
	}))
	defer server.Close()

	client := NewFDCClient("test-api-key", server.URL, testLogger())
	results, err := client.SearchByName(context.Background(), "retry", 10)

	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 3, attempts)
}

func TestFDCSearchByName_ClientErrorNoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewFDCClient("test-api-key", server.URL, testLogger())
	results, err := client.SearchByName(context.Background(), "bad", 10)

	assert.Nil(t, results)
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestFDCSearchByName_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewFDCClient("test-api-key", server.URL, testLogger())
	_, err := client.SearchByName(context.Background(), "broken", 10)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode response")
}

func TestFDCLookupByID(t *testing.T) {
	t.Run("success with nested nutrient shape", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/food/123456", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"fdcId": 123456,
				"description": "Fortified cereal",
				"servingSize": 40,
				"servingSizeUnit": "g",
				"householdServingFullText": "1 cup",
				"foodNutrients": [
					{"nutrient": {"id": 1004, "unitName": "MG"}, "amount": 2.5},
					{"nutrient": {"id": 1177, "unitName": "UG"}, "amount": 400}
				]
			}`))
		}))
		defer server.Close()

		client := NewFDCClient("test-api-key", server.URL, testLogger())
		food, err := client.LookupByID(context.Background(), "123456")

		require.NoError(t, err)
		require.NotNil(t, food)
		assert.Equal(t, "Fortified cereal", food.FoodName)
		assert.Equal(t, "1 cup", food.ServingName)
		assert.InDelta(t, 40, food.ServingSizeG, 1e-9)
		assert.InDelta(t, 2.5, food.Nutrients[domain.Iron], 1e-9)
		assert.InDelta(t, 0.4, food.Nutrients[domain.FolateDFE], 1e-9)
	})

	t.Run("missing id returns nil without error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := NewFDCClient("test-api-key", server.URL, testLogger())
		food, err := client.LookupByID(context.Background(), "nonexistent")

		require.NoError(t, err)
		assert.Nil(t, food)
	})
}

func TestFDCLookupByBarcode(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Branded", r.URL.Query().Get("dataType"))
			assert.Equal(t, "0123456789012", r.URL.Query().Get("query"))
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"foods": [{"fdcId": 7, "description": "Branded bar", "gtinUpc": "0123456789012"}]}`))
		}))
		defer server.Close()

		client := NewFDCClient("test-api-key", server.URL, testLogger())
		food, err := client.LookupByBarcode(context.Background(), "0123456789012")

		require.NoError(t, err)
		require.NotNil(t, food)
		assert.Equal(t, "0123456789012", food.Barcode)
	})

	t.Run("no match returns nil", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"foods": []}`))
		}))
		defer server.Close()

		client := NewFDCClient("test-api-key", server.URL, testLogger())
		food, err := client.LookupByBarcode(context.Background(), "0000000000000")

		require.NoError(t, err)
		assert.Nil(t, food)
	})
}
