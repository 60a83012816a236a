package models

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// fieldLabels maps struct fields to the labels shown in the forms
var fieldLabels = map[string]string{
	"Name":            "Nome",
	"CpfCnpj":         "CPF/CNPJ",
	"Number":          "Número",
	"ClientID":        "Cliente",
	"Status":          "Status",
	"DateTime":        "Data/Hora",
	"DurationMinutes": "Duração",
	"LawyerID":        "Advogado",
	"Username":        "Usuário",
	"FullName":        "Nome completo",
}

// ValidationError lists every failing field of a record, in Portuguese
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Validate runs the presence checks declared on a record's struct tags.
// Failures are returned as *ValidationError.
func Validate(record any) error {
	validateOnce.Do(func() {
		validate = validator.New()
	})

	if err := validate.Struct(record); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return &ValidationError{Messages: msgs}
		}
		return err
	}
	return nil
}

// fieldError converts a single validation failure into a form message
func fieldError(fe validator.FieldError) string {
	label, ok := fieldLabels[fe.Field()]
	if !ok {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " é obrigatório"
	case "min":
		return fmt.Sprintf("%s deve ser no mínimo %s", label, fe.Param())
	default:
		return fmt.Sprintf("%s inválido (%s)", label, fe.Tag())
	}
}
