package messaging

import "time"

// PasswordChanged se publica después de un cambio de contraseña exitoso.
type PasswordChanged struct {
	AccountID string
	Username  string
	Email     string
	At        time.Time
}

// AccountDeleted se publica después de un soft delete.
type AccountDeleted struct {
	AccountID string
}

// CloudTokenRegistered se publica al registrar (o reemplazar) un token push.
type CloudTokenRegistered struct {
	Device string
	Owner  string // vacío para tokens de cliente
}
