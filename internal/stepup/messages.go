package stepup

import "fmt"

// Message es la respuesta de presentación para el caller HTTP. Es puramente
// informativa: el control de flujo nunca depende de estos textos.
type Message struct {
	Message           string `json:"message"`
	RemainingAttempts *int   `json:"remaining_attempts,omitempty"`
}

// FormatAttempts construye el mensaje de código inválido según los intentos
// restantes. nil o 0 => mensaje genérico de inválido/expirado.
func FormatAttempts(remaining *int) Message {
	if remaining == nil || *remaining <= 0 {
		return Message{Message: "The code is invalid or has expired."}
	}
	if *remaining == 1 {
		return Message{
			Message:           "The code is invalid. You have 1 attempt remaining.",
			RemainingAttempts: remaining,
		}
	}
	return Message{
		Message:           fmt.Sprintf("The code is invalid. You have %d attempts remaining.", *remaining),
		RemainingAttempts: remaining,
	}
}
