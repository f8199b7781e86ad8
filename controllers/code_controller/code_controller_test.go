package code_controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
	"github.com/cate-nduta/Lash-Business-sub009/models/code_models"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	logger.InitLoggers()
	os.Exit(m.Run())
}

func newRouter(registry code_models.Registry) *gin.Engine {
	r := gin.New()
	controller := NewCodeController(registry)
	r.POST("/codes/validate", controller.ValidateCode)
	r.POST("/codes/redeem", controller.RedeemCode)
	r.POST("/admin/codes", controller.IssueCode)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodPost, path, bytes.NewBuffer(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCodeEndpoints(t *testing.T) {
	registry := code_models.NewMemoryRegistry()
	r := newRouter(registry)

	rc, err := registry.Issue(context.Background(), "alice@example.com", code_models.CodeTypeReferral,
		code_models.Effect{Kind: code_models.EffectPercentDiscount, Percent: 10}, 0)
	require.NoError(t, err)

	t.Run("ValidateValidCode", func(t *testing.T) {
		w := postJSON(t, r, "/codes/validate", map[string]any{
			"code":              rc.Code,
			"redeemer_identity": "bob@example.com",
			"context":           "checkout",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Valid  bool               `json:"valid"`
			Effect code_models.Effect `json:"effect"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Valid)
		assert.Equal(t, 10, resp.Effect.Percent)
	})

	t.Run("ValidateSelfReferral", func(t *testing.T) {
		w := postJSON(t, r, "/codes/validate", map[string]any{
			"code":              rc.Code,
			"redeemer_identity": "alice@example.com",
			"context":           "checkout",
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Valid  bool   `json:"valid"`
			Reason string `json:"reason"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Valid)
		assert.Contains(t, resp.Reason, "owner")
	})

	t.Run("RedeemThenRepeat", func(t *testing.T) {
		w := postJSON(t, r, "/codes/redeem", map[string]any{
			"code":              rc.Code,
			"redeemer_identity": "bob@example.com",
			"context":           "checkout",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = postJSON(t, r, "/codes/redeem", map[string]any{
			"code":              rc.Code,
			"redeemer_identity": "carol@example.com",
			"context":           "checkout",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("ValidateUnknownCode", func(t *testing.T) {
		w := postJSON(t, r, "/codes/validate", map[string]any{
			"code":              "LASH-NOPE2345",
			"redeemer_identity": "bob@example.com",
			"context":           "checkout",
		})
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"valid":false`)
	})

	t.Run("IssueCode", func(t *testing.T) {
		w := postJSON(t, r, "/admin/codes", map[string]any{
			"owner_identity": "winner@example.com",
			"type":           "prize",
			"effect":         map[string]any{"kind": "free_item", "item_name": "lash serum"},
			"ttl_days":       14,
		})
		require.Equal(t, http.StatusCreated, w.Code)

		var issued code_models.RedeemableCode
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &issued))
		assert.True(t, issued.Active)
		require.NotNil(t, issued.ExpiresAt)
	})

	t.Run("IssueRejectsMalformedEffect", func(t *testing.T) {
		w := postJSON(t, r, "/admin/codes", map[string]any{
			"owner_identity": "winner@example.com",
			"type":           "prize",
			"effect":         map[string]any{"kind": "percent_discount", "percent": 150},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "percent")

		w = postJSON(t, r, "/admin/codes", map[string]any{
			"owner_identity": "winner@example.com",
			"type":           "prize",
			"effect":         map[string]any{"kind": "free_item"},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("RejectsBadContext", func(t *testing.T) {
		w := postJSON(t, r, "/codes/validate", map[string]any{
			"code":              rc.Code,
			"redeemer_identity": "bob@example.com",
			"context":           "in-store",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
