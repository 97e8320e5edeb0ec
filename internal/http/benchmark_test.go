package httpserver

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Clark-Hu/store-ratings/internal/domain"
)

func BenchmarkHandleSubmitRating(b *testing.B) {
	ts := buildTestServer(b)
	st, _ := ts.ownedStore(b, "Bench")
	_, token := ts.account(b, "bench@example.com", domain.RoleUser)
	handler := ts.Handler()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		payload := []byte(fmt.Sprintf(`{"storeId":%d,"ratingValue":%d}`, st.ID, i%5+1))
		req := httptest.NewRequest(http.MethodPost, "/api/ratings", bytes.NewReader(payload))
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", rec.Code)
		}
	}
}
