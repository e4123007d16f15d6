package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFoundf("Booking not found")
	err := fmt.Errorf("load booking: %w", base)
	assert.Equal(t, NotFound, KindOf(err))
	assert.True(t, Is(err, NotFound))
	assert.Equal(t, Internal, KindOf(errors.New("boom")))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		Validation:    http.StatusBadRequest,
		NotFound:      http.StatusNotFound,
		Conflict:      http.StatusConflict,
		Upstream:      http.StatusBadGateway,
		Configuration: http.StatusInternalServerError,
		Internal:      http.StatusInternalServerError,
		Timeout:       http.StatusGatewayTimeout,
	}
	for k, want := range cases {
		assert.Equal(t, want, HTTPStatus(k), k.String())
	}
}

func TestClientMessageHidesUpstreamDetail(t *testing.T) {
	err := Upstreamf(errors.New("401"), "stripe rejected key sk_test_x")
	assert.Equal(t, GenericMessage, ClientMessage(err))
	assert.Equal(t, "Email is already subscribed", ClientMessage(Conflictf("Email is already subscribed")))
	assert.Equal(t, GenericMessage, ClientMessage(Configf("BITCOIN_PAYMENT_ADDRESS is not set")))
}

func TestHelpersFormatMessages(t *testing.T) {
	err := Validationf("only %d left in stock", 3)
	assert.Equal(t, "only 3 left in stock", err.Message)
	assert.Equal(t, Validation, err.Kind)

	err = Conflictf("Cannot change booking from %s to %s", "confirmed", "pending")
	assert.Equal(t, "Cannot change booking from confirmed to pending", err.Message)

	cause := errors.New("dial tcp: refused")
	err = Upstreamf(cause, "%s lookup failed", "price")
	assert.Equal(t, "price lookup failed", err.Message)
	assert.ErrorIs(t, err, cause)

	assert.Equal(t, "100% sure", Validationf("%s", "100% sure").Message)
}
