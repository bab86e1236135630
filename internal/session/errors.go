package session

import (
	"github.com/angelmondragon/totem-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
)

func transitionError(action string, screen enums.Screen) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s is not allowed on the %s screen", action, screen).
		WithDetails(map[string]string{"action": action, "screen": screen.String()})
}

func stepError(action string, step enums.InputStep) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s is not allowed on the %s step", action, step).
		WithDetails(map[string]string{"action": action, "input_step": step.String()})
}

func overlayError(action string) error {
	return pkgerrors.Newf(pkgerrors.CodeStateConflict, "%s is blocked while an overlay is open", action).
		WithDetails(map[string]string{"action": action})
}

func invalid(message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message)
}
