package cli

import (
	"fmt"

	"github.com/dmitrijs2005/quickqr/internal/client/api"
)

type loginForm struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type registerForm struct {
	Username string `validate:"required"`
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Confirm  string `validate:"eqfield=Password"`
}

type generateForm struct {
	URL  string `validate:"required,url"`
	Name string
}

// check validates form and wraps failures in api.ErrValidation.
func (a *App) check(form any) error {
	if err := a.validate.Struct(form); err != nil {
		return fmt.Errorf("%w: %w", api.ErrValidation, err)
	}
	return nil
}
