package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jhoicas/okr-api/internal/application/ports"
	"github.com/jhoicas/okr-api/pkg/config"
)

// Proveedores soportados en AI_PROVIDER.
const (
	ProviderNone      = "none"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// systemPrompt define el rol del modelo y el formato de salida, común a todos los proveedores.
const systemPrompt = `Eres un consultor experto en OKR (Objectives and Key Results) que revisa textos escritos por usuarios durante el onboarding de una plataforma de gestión de objetivos.
Recibirás un campo (su propósito) y el texto del usuario. Devuelve ÚNICAMENTE un objeto JSON válido con esta estructura exacta:
{
  "suggestion": "<versión mejorada del texto, en el mismo idioma del usuario>"
}

Reglas:
- Mantén el sentido original; mejora claridad, concreción y orientación a resultados medibles.
- Máximo 300 caracteres.
- Si el texto ya es adecuado devuelve "suggestion": "".
- No incluyas texto fuera del JSON.`

// maxSuggestionLen límite de la sugerencia devuelta al caller.
const maxSuggestionLen = 300

// suggestionPayload JSON que esperamos recibir del modelo.
type suggestionPayload struct {
	Suggestion string `json:"suggestion"`
}

// jsonBlockRe extrae el primer objeto JSON del texto aunque el modelo lo envuelva en markdown.
var jsonBlockRe = regexp.MustCompile(`(?s)\{.*\}`)

// New construye el asistente configurado. Devuelve nil si no hay proveedor o falta la API key:
// los servicios tratan un asistente nil como "IA deshabilitada".
func New(cfg config.AIConfig) ports.Assistant {
	switch strings.ToLower(cfg.Provider) {
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil
		}
		return NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil
		}
		return NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil
	}
}

// Nop asistente que nunca sugiere nada.
type Nop struct{}

var _ ports.Assistant = Nop{}

// Suggest devuelve siempre "", respetando la cancelación del contexto.
func (Nop) Suggest(ctx context.Context, _, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", nil
}

func userPrompt(text, hint string) string {
	return fmt.Sprintf("Campo: %s\nTexto: %s", hint, text)
}

// parseSuggestion extrae y recorta la sugerencia del texto crudo del modelo.
func parseSuggestion(raw string) (string, error) {
	clean := extractJSON(raw)
	if clean == "" {
		return "", fmt.Errorf("AI: no se encontró JSON válido en la respuesta del modelo (respuesta: %s)", raw)
	}
	var p suggestionPayload
	if err := json.Unmarshal([]byte(clean), &p); err != nil {
		return "", fmt.Errorf("AI: parsear JSON de sugerencia: %w (JSON extraído: %s)", err, clean)
	}
	s := strings.TrimSpace(p.Suggestion)
	if r := []rune(s); len(r) > maxSuggestionLen {
		s = string(r[:maxSuggestionLen])
	}
	return s, nil
}

// extractJSON extrae el primer objeto JSON de un texto libre.
// Primero quita bloques markdown (```json … ```); si aún no empieza por '{' usa la regex.
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, "```"); idx != -1 {
		after := text[idx+3:]
		if nl := strings.Index(after, "\n"); nl != -1 {
			after = after[nl+1:]
		}
		if end := strings.LastIndex(after, "```"); end != -1 {
			after = after[:end]
		}
		text = strings.TrimSpace(after)
	}
	if strings.HasPrefix(text, "{") {
		return text
	}
	return strings.TrimSpace(jsonBlockRe.FindString(text))
}

// defaultHTTPTimeout timeout de red; el caller impone además su propio context.WithTimeout.
const defaultHTTPTimeout = 20 * time.Second
