package handlers

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/throttle-demo-go/internal/middleware"
)

// RegisterRoutes registers the quota API. The admin surface is exempt
// from its own throttle middleware: limiting access to the reset
// endpoint with the limiter it resets would wedge operators out.
func RegisterRoutes(api huma.API, quotaHandler *QuotaHandler) {
	adminMetadata := map[string]any{
		middleware.MetadataKey: middleware.EndpointConfig{Disabled: true},
	}

	huma.Register(api, huma.Operation{
		OperationID: "record-attempt",
		Method:      http.MethodPost,
		Path:        "/v1/attempts",
		Summary:     "Record an attempt",
		Description: "Records one attempt against a logical key unless the key is over its budget.",
		Tags:        []string{"Quotas"},
		Metadata:    adminMetadata,
	}, quotaHandler.RecordAttempt)

	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/v1/quotas/{key}",
		Summary:     "Inspect a quota",
		Description: "Reports remaining budget and reset time for a logical key without recording an attempt.",
		Tags:        []string{"Quotas"},
		Metadata:    adminMetadata,
	}, quotaHandler.GetQuota)

	huma.Register(api, huma.Operation{
		OperationID: "clear-quota",
		Method:      http.MethodDelete,
		Path:        "/v1/quotas/{key}",
		Summary:     "Clear a quota",
		Description: "Deletes the stored record for a logical key, immediately un-limiting it.",
		Tags:        []string{"Quotas"},
		Metadata:    adminMetadata,
	}, quotaHandler.ClearQuota)
}
