package metrics_test

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"bunga/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CaptureAndRead(t *testing.T) {
	recorder := metrics.NewRecorder()
	assert.Empty(t, recorder.All(), "a new recorder starts empty")

	recorder.Capture("db", "GetAll", 5*time.Millisecond)
	recorder.Capture("http", "GET /products", 12*time.Millisecond)
	recorder.Capture("db", "Create", 3*time.Millisecond)

	all := recorder.All()
	require.Len(t, all, 3)
	// Capture order is preserved.
	assert.Equal(t, "GetAll", all[0].Name)
	assert.Equal(t, "GET /products", all[1].Name)
	assert.Equal(t, "Create", all[2].Name)

	dbOnly := recorder.ByTypes("db")
	require.Len(t, dbOnly, 2)
	for _, m := range dbOnly {
		assert.Equal(t, "db", m.Type)
	}

	assert.Empty(t, recorder.ByTypes("queue"))
	assert.Len(t, recorder.ByTypes("db", "http"), 3)
}

func TestRecorder_Clear(t *testing.T) {
	recorder := metrics.NewRecorder()
	recorder.Capture("db", "GetAll", time.Millisecond)
	require.Len(t, recorder.All(), 1)

	recorder.Clear()
	assert.Empty(t, recorder.All())

	// The recorder stays usable after a clear.
	recorder.Capture("db", "GetAll", time.Millisecond)
	assert.Len(t, recorder.All(), 1)
}

func TestRecorder_IndependentInstances(t *testing.T) {
	first := metrics.NewRecorder()
	second := metrics.NewRecorder()

	first.Capture("db", "GetAll", time.Millisecond)

	assert.Len(t, first.All(), 1)
	assert.Empty(t, second.All(), "recorders never share state")
}

func TestRecorder_NilReceiver(t *testing.T) {
	var recorder *metrics.Recorder

	assert.NotPanics(t, func() {
		recorder.Capture("db", "GetAll", time.Millisecond)
		recorder.Clear()
	})
	assert.Nil(t, recorder.All())
	assert.Nil(t, recorder.ByTypes("db"))
}

func TestRecorder_ConcurrentCapture(t *testing.T) {
	recorder := metrics.NewRecorder()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				recorder.Capture("db", "GetAll", time.Microsecond)
			}
		}()
	}
	wg.Wait()

	assert.Len(t, recorder.All(), 400)
}

func TestRecorder_PrometheusHandler(t *testing.T) {
	recorder := metrics.NewRecorder()
	recorder.Capture("db", "GetAll", 5*time.Millisecond)

	request := httptest.NewRequest("GET", "/metrics", nil)
	response := httptest.NewRecorder()
	recorder.Handler().ServeHTTP(response, request)

	require.Equal(t, 200, response.Code)
	body, err := io.ReadAll(response.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "bunga_operation_duration_seconds"),
		"captures are mirrored into the histogram")
}
