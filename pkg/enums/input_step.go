package enums

import "fmt"

// InputStep is the sub-step inside the customer data screen.
type InputStep string

const (
	InputStepReceipt InputStep = "receipt"
	InputStepCPF     InputStep = "cpf"
	InputStepName    InputStep = "name"
	InputStepPayment InputStep = "payment"
)

var validInputSteps = []InputStep{
	InputStepReceipt,
	InputStepCPF,
	InputStepName,
	InputStepPayment,
}

// String implements fmt.Stringer.
func (i InputStep) String() string {
	return string(i)
}

// IsValid reports whether the value is a known InputStep.
func (i InputStep) IsValid() bool {
	for _, candidate := range validInputSteps {
		if candidate == i {
			return true
		}
	}
	return false
}

// ParseInputStep converts raw input into a InputStep.
func ParseInputStep(value string) (InputStep, error) {
	for _, candidate := range validInputSteps {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid input step %q", value)
}
