package handlers

import (
	"errors"
	"fmt"
	"log"

	"storefront/internal/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// sendError writes err as a JSON error body with the status of its kind.
// Unclassified errors are logged and hidden behind a generic message.
func sendError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("Error handling %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(status).JSON(fiber.Map{
			"status":  "error",
			"message": "Something went wrong",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"status":  "fail",
		"message": apperrors.Message(err),
	})
}

// parseBody decodes the request body into v and runs its validation tags.
func parseBody(c *fiber.Ctx, v interface{}) error {
	if err := c.BodyParser(v); err != nil {
		log.Printf("Error parsing request body: %v", err)
		return apperrors.Wrap(apperrors.ErrValidation, "Invalid request body", err)
	}
	if err := validate.Struct(v); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
			e := validationErrors[0]
			return apperrors.Wrap(apperrors.ErrValidation,
				fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()), err)
		}
		return apperrors.Wrap(apperrors.ErrValidation, "Validation failed", err)
	}
	return nil
}

func sendData(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(fiber.Map{
		"status": "success",
		"data":   fiber.Map{"data": data},
	})
}

func sendList(c *fiber.Ctx, results int, data interface{}) error {
	return c.JSON(fiber.Map{
		"status":  "success",
		"results": results,
		"data":    fiber.Map{"data": data},
	})
}
