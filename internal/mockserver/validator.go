package mockserver

import (
	"github.com/balkashynov/saj/internal/models"
)

// echoValidator lets handlers call c.Validate(&body) with the record tags
type echoValidator struct{}

// Validate satisfies the echo.Validator interface
func (echoValidator) Validate(i any) error {
	return models.Validate(i)
}
