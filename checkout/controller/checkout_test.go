package controller

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewRejectsUnknownSteps(t *testing.T) {
	router := mux.NewRouter()
	AttachCheckoutController(router, nil, nil)

	tests := []string{"none", "complete", "shipping-options", "payment-intent"}
	for _, step := range tests {
		t.Run(step, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/checkout/"+step, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, r)

			assert.Equal(t, http.StatusNotFound, w.Code)
			body := map[string]interface{}{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, "failed", body["status"])
		})
	}
}
