package dto

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ProviderTokenRequest carries a provider-issued identity token for the
// federated login endpoints.
type ProviderTokenRequest struct {
	Token string `json:"token"`
}

type AuthResponse struct {
	Access string `json:"access"`
}

type VerifyResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"userId"`
}

type ErrorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	DB        string `json:"db"`
}
