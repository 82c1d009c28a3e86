// Package api contains the JSON contract of the /api/v1 endpoints.
package api

// StatusSuccess is the status of every successful response.
const StatusSuccess = "success"

// SeriesRequest selects the time series returned by /api/v1/environment/series.
// An empty site means every site.
type SeriesRequest struct {
	Site string `json:"site" query:"site" validate:"omitempty,site"`
}

// Response is the envelope around every successful /api/v1 payload.
type Response struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data"`
	Count  int         `json:"count"`
}

// NewResponse wraps data with its item count.
func NewResponse(data interface{}, count int) Response {
	return Response{Status: StatusSuccess, Data: data, Count: count}
}
