package ports

import "context"

// Assistant define el puerto de salida para el asistente de IA que sugiere mejoras de texto.
// Cualquier adaptador (Anthropic, Gemini, no-op, mock) debe implementar esta interfaz.
// La aplicación solo conoce este contrato, no la implementación concreta.
type Assistant interface {
	// Suggest devuelve una versión mejorada de text. hint describe el campo
	// (p. ej. "descripción de objetivo"). Una cadena vacía significa "sin sugerencia".
	// El contexto debe llevar un timeout para evitar bloqueos en llamadas externas.
	Suggest(ctx context.Context, text, hint string) (string, error)
}
