package enums

import "fmt"

// CustomizationStep is the sub-step inside the customize screen.
type CustomizationStep string

const (
	CustomizationStepComplements CustomizationStep = "complements"
	CustomizationStepIngredients CustomizationStep = "ingredients"
)

var validCustomizationSteps = []CustomizationStep{
	CustomizationStepComplements,
	CustomizationStepIngredients,
}

// String implements fmt.Stringer.
func (c CustomizationStep) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CustomizationStep.
func (c CustomizationStep) IsValid() bool {
	for _, candidate := range validCustomizationSteps {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCustomizationStep converts raw input into a CustomizationStep.
func ParseCustomizationStep(value string) (CustomizationStep, error) {
	for _, candidate := range validCustomizationSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid customization step %q", value)
}
