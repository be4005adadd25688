package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"petzap/internal/apierror"
	"petzap/internal/dto"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

func TestRespondError_StatusByKind(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{apierror.Validation("quantidade inválida"), http.StatusUnprocessableEntity, "validation"},
		{apierror.Precondition("Caixa fechado"), http.StatusConflict, "precondition"},
		{apierror.Conflict("Agendamento já pago"), http.StatusConflict, "conflict"},
		{apierror.NotFound("Carrinho não encontrado"), http.StatusNotFound, "not_found"},
		{apierror.Persistence("falha ao salvar", errors.New("conn reset")), http.StatusServiceUnavailable, "persistence"},
		{errors.New("boom"), http.StatusInternalServerError, ""},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tc.err)

		assert.Equal(t, tc.status, w.Code, tc.err.Error())
		var body apierror.APIError
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, tc.kind, body.Kind)
		assert.NotContains(t, body.Detail, "conn reset")
	}
}

func TestBindAndValidate_Decimal(t *testing.T) {
	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req dto.CashMovementRequest
		if !bindAndValidate(c, &req) {
			return
		}
		c.String(http.StatusOK, req.Amount.String())
	})

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body)))
		return w
	}

	w := post(`{"type":"withdrawal","amount":"12.50"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "12.5", w.Body.String())

	w = post(`{"type":"withdrawal","amount":0}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var verr apierror.ValidationError
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &verr))
	assert.Contains(t, verr.Fields, "Amount")

	w = post(`{"type":"saque","amount":5}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = post(`{"type":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPathUUID(t *testing.T) {
	r := gin.New()
	r.GET("/x/:id", func(c *gin.Context) {
		if id, ok := pathUUID(c, "id"); ok {
			c.String(http.StatusOK, id.String())
		}
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x/6f1c3f2e-7a4b-4f6e-9d2a-1b2c3d4e5f60", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
