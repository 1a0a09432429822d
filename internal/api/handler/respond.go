package handler

import "github.com/labstack/echo/v4"

// envelope is the success response shape shared by every endpoint:
// {"status":"success","data":{<resource>:...}}, with a results count on
// list endpoints.
type envelope struct {
	Status  string         `json:"status"`
	Results *int           `json:"results,omitempty"`
	Data    map[string]any `json:"data"`
}

func respond(c echo.Context, code int, name string, data any) error {
	return c.JSON(code, envelope{
		Status: "success",
		Data:   map[string]any{name: data},
	})
}

func respondList(c echo.Context, name string, results int, data any) error {
	return c.JSON(200, envelope{
		Status:  "success",
		Results: &results,
		Data:    map[string]any{name: data},
	})
}
