package lambda

import (
	"context"
	"errors"
	"net/http"
	"testing"

	alerttransport "pestcrm_backend/internal/alerts/transport"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

const serviceKey = "svc-test-key"

func request(auth string) events.LambdaFunctionURLRequest {
	return events.LambdaFunctionURLRequest{Headers: map[string]string{"authorization": auth}}
}

func TestInvokeRunsJobWithServiceKey(t *testing.T) {
	resp := Invoke(context.Background(), request("Bearer "+serviceKey), serviceKey, func(context.Context) (any, error) {
		return alerttransport.PipelineAlertsResponse{Success: true, AlertsGenerated: 4, NotificationsCreated: 1, Timestamp: "2026-10-15T12:00:00.000Z"}, nil
	})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"success":true,"alertsGenerated":4,"notificationsCreated":1,"timestamp":"2026-10-15T12:00:00.000Z"}`, resp.Body)
}

func TestInvokeRejectsWrongKeyWithoutRunning(t *testing.T) {
	ran := false
	resp := Invoke(context.Background(), request("Bearer nope"), serviceKey, func(context.Context) (any, error) {
		ran = true
		return nil, nil
	})

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.False(t, ran)
}

func TestInvokeAcceptsCanonicalHeaderName(t *testing.T) {
	req := events.LambdaFunctionURLRequest{Headers: map[string]string{"Authorization": "Bearer " + serviceKey}}
	resp := Invoke(context.Background(), req, serviceKey, func(context.Context) (any, error) {
		return map[string]bool{"success": true}, nil
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInvokeRendersJobFailure(t *testing.T) {
	resp := Invoke(context.Background(), request("Bearer "+serviceKey), serviceKey, func(context.Context) (any, error) {
		return nil, errors.New("list organizations: connection refused")
	})

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.JSONEq(t, `{"success":false,"error":"list organizations: connection refused"}`, resp.Body)
}
