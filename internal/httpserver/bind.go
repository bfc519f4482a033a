package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shopcart/internal/service"
)

// decodeBody reads exactly one JSON object into dst, rejecting unknown
// fields, and runs struct validation on it.
func decodeBody(c echo.Context, dst any) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty body: %w", service.ErrInvalidArgument)
		}
		return fmt.Errorf("decode body: %v: %w", err, service.ErrInvalidArgument)
	}
	if dec.More() {
		return fmt.Errorf("unexpected data after body: %w", service.ErrInvalidArgument)
	}

	if err := c.Validate(dst); err != nil {
		return fmt.Errorf("validate body: %v: %w", err, service.ErrInvalidArgument)
	}
	return nil
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s is not a valid id: %w", name, service.ErrInvalidArgument)
	}
	return id, nil
}
