package domain

import "time"

// Provider identifica el camino de autenticación de un paciente.
type Provider string

const (
	ProviderLocal  Provider = "local"
	ProviderGoogle Provider = "google"
)

// DisplayName devuelve el nombre legible del proveedor.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderGoogle:
		return "Google"
	case ProviderLocal:
		return "email and password"
	}
	return string(p)
}

type Patient struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	PasswordHash  string     `json:"-"`
	GoogleID      string     `json:"-"`
	Avatar        string     `json:"avatar,omitempty"`
	Provider      Provider   `json:"provider"`
	IsVerified    bool       `json:"is_verified"`
	LoginAttempts int        `json:"-"`
	LockUntil     *time.Time `json:"-"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// IsLocked indica si la cuenta sigue bloqueada en el instante now.
func (p Patient) IsLocked(now time.Time) bool {
	return p.LockUntil != nil && now.Before(*p.LockUntil)
}

// HasLocalCredential indica si existe un hash de contraseña.
func (p Patient) HasLocalCredential() bool {
	return p.PasswordHash != ""
}

// Sanitized devuelve una copia sin material de credenciales.
func (p Patient) Sanitized() Patient {
	p.PasswordHash = ""
	return p
}

// ProfileSnippet es la vista mínima que viaja al cliente tras el login OAuth.
type ProfileSnippet struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Avatar   string   `json:"avatar,omitempty"`
	Provider Provider `json:"provider"`
}

func (p Patient) Snippet() ProfileSnippet {
	return ProfileSnippet{
		ID:       p.ID,
		Name:     p.Name,
		Email:    p.Email,
		Avatar:   p.Avatar,
		Provider: p.Provider,
	}
}

// ExternalProfile es el perfil devuelto por un proveedor de identidad.
type ExternalProfile struct {
	Provider    Provider
	Subject     string
	DisplayName string
	Email       string
	AvatarURL   string
}
