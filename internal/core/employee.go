package core

// Employee status values as stored.
const (
	EmployeeActive  = "Ativo"
	EmployeeOnLeave = "Afastado"
	EmployeeGone    = "Inativo"
)

// Employee is a plaza staff member. The roster is reference data for the HR
// dashboard; attendance events live in Records with the hr category.
type Employee struct {
	ID             string `json:"id"`
	RegistrationID string `json:"registrationId"`
	Name           string `json:"name"`
	Role           string `json:"role"`
	Plaza          string `json:"plaza"`
	Gender         string `json:"gender"`
	AdmissionDate  string `json:"admissionDate"`
	Status         string `json:"status"`
}
