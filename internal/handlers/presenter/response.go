// Package presenter writes API responses in one shape.
package presenter

import "github.com/gofiber/fiber/v2"

type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

func JSON(c *fiber.Ctx, status int, v any) error {
	return c.Status(status).JSON(v)
}

func Error(c *fiber.Ctx, status int, message string) error {
	return JSON(c, status, ErrorResponse{Error: message, Code: status})
}
