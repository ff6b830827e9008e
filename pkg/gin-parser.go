package pkg

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func ParseAndValidate(c *gin.Context, dto interface{}) error {
	if err := c.ShouldBindJSON(dto); err != nil {
		return fmt.Errorf("malformed request body: %w", err)
	}
	if err := validate.Struct(dto); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
