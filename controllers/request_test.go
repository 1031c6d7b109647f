package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"shopora/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeBodyOrderRequiresAddress(t *testing.T) {
	var req createOrderRequest
	err := decodeBody(jsonRequest(t, `{"phone":"555-0100","payment_method":"card"}`), &req)

	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "Address")
}

func TestDecodeBodyOrderRejectsUnknownPaymentMethod(t *testing.T) {
	var req createOrderRequest
	err := decodeBody(jsonRequest(t, `{"address":"1 Main St","phone":"555-0100","payment_method":"check"}`), &req)

	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDecodeBodyOrderValid(t *testing.T) {
	var req createOrderRequest
	err := decodeBody(jsonRequest(t, `{"address":"1 Main St","phone":"555-0100","payment_method":"card"}`), &req)

	require.NoError(t, err)
	assert.Equal(t, "1 Main St", req.Address)
	assert.Equal(t, "card", req.PaymentMethod)
}

func TestDecodeBodyRegisterRejectsShortPassword(t *testing.T) {
	var req registerRequest
	err := decodeBody(jsonRequest(t, `{"name":"Ada","email":"ada@example.com","password":"short"}`), &req)

	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDecodeBodyMalformedJSON(t *testing.T) {
	var req createOrderRequest
	err := decodeBody(jsonRequest(t, `{"address":`), &req)

	var apiErr *utils.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDecodeOptionalBodyEmpty(t *testing.T) {
	var req variantRequest
	err := decodeOptionalBody(httptest.NewRequest(http.MethodPost, "/", nil), &req)

	require.NoError(t, err)
	assert.Empty(t, req.Color)
	assert.Empty(t, req.Size)
}

func TestDecodeOptionalBodyChunkedRequest(t *testing.T) {
	// No declared content length, as with Transfer-Encoding chunked; the
	// variant selection must still be decoded.
	req := jsonRequest(t, `{"color":"red","size":"M"}`)
	req.ContentLength = -1

	var body variantRequest
	require.NoError(t, decodeOptionalBody(req, &body))
	assert.Equal(t, "red", body.Color)
	assert.Equal(t, "M", body.Size)
}

func TestDecodeOptionalBodyMalformed(t *testing.T) {
	var req variantRequest
	err := decodeOptionalBody(jsonRequest(t, `{"color":`), &req)

	var apiErr *utils.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestDecodeBodyCouponPercentOverHundredPassesValidation(t *testing.T) {
	// Struct tags only bound the shape; the handler enforces the 100%
	// ceiling so the error message can name the field meaningfully.
	var req createCouponRequest
	err := decodeBody(jsonRequest(t, `{"code":"BIG","discount_type":"percentage","discount_value":150,"expires_at":"2030-01-01T00:00:00Z"}`), &req)
	require.NoError(t, err)
	assert.Equal(t, float64(150), req.DiscountValue)
}
