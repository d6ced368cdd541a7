package model

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"promptregistry/pkg/apperrors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Prompt is one immutable version of a named prompt. Only Active ever changes
// after insert, and only from true to false.
type Prompt struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Category  string    `json:"category"`
	Version   int       `json:"version"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePromptRequest struct {
	Name     string `json:"name" validate:"notblank"`
	Content  string `json:"content" validate:"notblank"`
	Category string `json:"category" validate:"notblank"`
	Active   *bool  `json:"active" validate:"required"`
}

// Validate reports every missing field in a single ErrValidation.
func (r CreatePromptRequest) Validate() error {
	return validateStruct(r)
}

// UpdatePromptRequest carries a new version's content. Nil (or blank) Category
// inherits the superseded version's category; nil Active means true.
type UpdatePromptRequest struct {
	Content  string  `json:"content" validate:"notblank"`
	Category *string `json:"category,omitempty"`
	Active   *bool   `json:"active,omitempty"`
}

func (r UpdatePromptRequest) Validate() error {
	return validateStruct(r)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		panic(err)
	}
	return v
}

var fieldMessages = map[string]string{
	"Active": "Active status is required",
}

func validateStruct(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msg, ok := fieldMessages[fe.Field()]
		if !ok {
			msg = fe.Field() + " is required"
		}
		problems = append(problems, msg)
	}
	return fmt.Errorf("%w: %s", apperrors.ErrValidation, strings.Join(problems, "; "))
}
