package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/kursadbilgin/igdm-dispatch/internal/domain"
)

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
