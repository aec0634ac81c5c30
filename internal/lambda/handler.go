package lambda

import (
	"context"
	"encoding/json"
	"net/http"

	"pestcrm_backend/internal/jobs"
	"pestcrm_backend/platform/httpkit"

	"github.com/aws/aws-lambda-go/events"
)

// JobFunc runs one job and returns its success body.
type JobFunc func(ctx context.Context) (any, error)

// Invoke authorizes a function URL request against serviceKey, runs the job
// and renders the same JSON bodies the HTTP API returns.
func Invoke(ctx context.Context, req events.LambdaFunctionURLRequest, serviceKey string, run JobFunc) events.LambdaFunctionURLResponse {
	if !httpkit.ValidServiceKey(header(req.Headers, "authorization"), serviceKey) {
		return respond(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "unauthorized"})
	}

	body, err := run(ctx)
	if err != nil {
		return respond(http.StatusInternalServerError, jobs.NewFailureResponse(err))
	}
	return respond(http.StatusOK, body)
}

// Failure renders a job failure that happened before the job could start.
func Failure(err error) events.LambdaFunctionURLResponse {
	return respond(http.StatusInternalServerError, jobs.NewFailureResponse(err))
}

func respond(status int, payload any) events.LambdaFunctionURLResponse {
	data, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		data = []byte(`{"success":false,"error":"encode response"}`)
	}
	return events.LambdaFunctionURLResponse{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(data),
	}
}

// header looks up a function URL header. AWS lowercases header names, but
// test events often do not.
func header(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if http.CanonicalHeaderKey(k) == http.CanonicalHeaderKey(name) {
			return v
		}
	}
	return ""
}
