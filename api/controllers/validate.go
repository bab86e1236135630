package controllers

import (
	"net/http"

	"github.com/angelmondragon/totem-backend/api/responses"
	"github.com/angelmondragon/totem-backend/api/validators"
	"github.com/angelmondragon/totem-backend/pkg/cpf"
	"github.com/angelmondragon/totem-backend/pkg/logger"
)

type cpfValidateRequest struct {
	CPF string `json:"cpf" validate:"max=32"`
}

type cpfValidateResponse struct {
	Digits    string     `json:"digits"`
	Formatted string     `json:"formatted"`
	Masked    string     `json:"masked"`
	Status    cpf.Status `json:"status"`
	Valid     bool       `json:"valid"`
}

// ValidateCPF reports the keypad feedback state for a possibly partial CPF.
func ValidateCPF(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body cpfValidateRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		digits := cpf.Clean(body.CPF)
		status := cpf.Check(digits)
		shown := digits
		if len(shown) > cpf.Length {
			shown = shown[:cpf.Length]
		}
		responses.WriteSuccess(w, cpfValidateResponse{
			Digits:    digits,
			Formatted: cpf.Format(shown),
			Masked:    cpf.Mask(shown),
			Status:    status,
			Valid:     status == cpf.StatusValid,
		})
	}
}
