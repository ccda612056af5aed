package chat

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	chatcore "UzChat/service/chat"
	"UzChat/service/storage"
)

func TestAdminPresenceView(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := storage.NewMemStore()
	gw := chatcore.NewGateway(store, chatcore.Config{})
	h := NewHandler(store, gw)

	r := gin.New()
	r.GET("/api/admin/users/:id/presence", h.HandlerAdminPresence)

	cl := chatcore.NewClient("c1", nil, 16)
	cl.Bind("u1")
	gw.Registry().Bind("u1", cl)

	for _, tc := range []struct {
		user   string
		online bool
	}{
		{"u1", true},
		{"ghost", false},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/admin/users/"+tc.user+"/presence", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("%s: status = %d", tc.user, w.Code)
		}
		var out map[string]any
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s: bad body %q: %v", tc.user, w.Body.String(), err)
		}
		if out["userId"] != tc.user || out["online"] != tc.online {
			t.Fatalf("%s: body = %v", tc.user, out)
		}
		if _, ok := out["mirror"]; ok {
			t.Fatalf("%s: mirror reported without redis configured", tc.user)
		}
	}
}
