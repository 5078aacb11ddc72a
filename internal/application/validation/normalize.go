package validation

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"unicode"
)

// SnakeCase convierte "employeeCount" en "employee_count". Las claves ya en snake_case no cambian.
func SnakeCase(s string) string {
	rs := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range rs {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := rs[i-1]
				nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
				if prev != '_' && (unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower)) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeKeys copia data con todas las claves (anidadas incluidas) en snake_case.
// Si llegan "employeeCount" y "employee_count", gana la clave snake_case.
func NormalizeKeys(data map[string]any) map[string]any {
	if data == nil {
		return map[string]any{}
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		if SnakeCase(k) == k {
			out[k] = normalizeValue(v)
		}
	}
	for k, v := range data {
		sk := SnakeCase(k)
		if sk == k {
			continue
		}
		if _, ok := out[sk]; !ok {
			out[sk] = normalizeValue(v)
		}
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return NormalizeKeys(t)
	case []any:
		cp := make([]any, len(t))
		for i, e := range t {
			cp[i] = normalizeValue(e)
		}
		return cp
	}
	return v
}

// cacheKey hash SHA-256 del paso y del JSON canónico (encoding/json ordena las claves de los mapas).
func cacheKey(step int, data map[string]any) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	fmt.Fprintf(h, "validation:step:%d:", step)
	h.Write(raw)
	return "validation:" + hex.EncodeToString(h.Sum(nil)), nil
}

// decode vuelca data en el esquema vía JSON. Devuelve los campos con tipo incorrecto,
// con índices de lista ("objectives[1].key_results[0].target_value").
func decode(data map[string]any, dst any) ([]typeMismatch, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var work map[string]any
	if err := json.Unmarshal(raw, &work); err != nil {
		return nil, err
	}
	var mismatches []typeMismatch
	// encoding/json sigue decodificando tras un error de tipo pero solo reporta el primero,
	// y sin índices; se quita el valor culpable y se reintenta para recoger el resto.
	for attempts := 0; attempts < 16; attempts++ {
		err = json.Unmarshal(raw, dst)
		if err == nil {
			return mismatches, nil
		}
		var ute *json.UnmarshalTypeError
		if !errors.As(err, &ute) {
			return mismatches, err
		}
		path := strings.Split(ute.Field, ".")
		dropped := dropMismatched(work, path, "", matchValue(ute.Value, true))
		if len(dropped) == 0 {
			dropped = dropMismatched(work, path, "", matchValue(ute.Value, false))
		}
		if len(dropped) == 0 {
			return append(mismatches, typeMismatch{Field: ute.Field, Expected: ute.Type.String(), Got: ute.Value}), nil
		}
		got, _, _ := strings.Cut(ute.Value, " ")
		for _, f := range dropped {
			mismatches = append(mismatches, typeMismatch{Field: f, Expected: ute.Type.String(), Got: got})
		}
		if raw, err = json.Marshal(work); err != nil {
			return mismatches, err
		}
		reflect.ValueOf(dst).Elem().Set(reflect.Zero(reflect.TypeOf(dst).Elem()))
	}
	return mismatches, nil
}

type typeMismatch struct {
	Field    string
	Expected string
	Got      string
}

// matchValue reconoce el valor JSON descrito por UnmarshalTypeError.Value
// ("string", "number", "number 1.5", "bool", "array", "object").
func matchValue(desc string, literal bool) func(any) bool {
	kind, lit, _ := strings.Cut(desc, " ")
	return func(v any) bool {
		if jsonKind(v) != kind {
			return false
		}
		if !literal || lit == "" {
			return true
		}
		want, err := strconv.ParseFloat(lit, 64)
		f, ok := v.(float64)
		return err == nil && ok && f == want
	}
}

func jsonKind(v any) string {
	switch v.(type) {
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "bool"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "null"
}

// dropMismatched recorre path por mapas y listas y quita solo los valores que
// cumplen bad: la clave en un mapa o, dentro de una lista, el elemento (pasa a null
// para no desplazar los índices). Devuelve las rutas exactas quitadas.
func dropMismatched(node any, path []string, prefix string, bad func(any) bool) []string {
	if len(path) == 0 {
		return nil
	}
	switch t := node.(type) {
	case map[string]any:
		v, ok := t[path[0]]
		if !ok {
			return nil
		}
		here := path[0]
		if prefix != "" {
			here = prefix + "." + path[0]
		}
		if len(path) > 1 {
			return dropMismatched(v, path[1:], here, bad)
		}
		if bad(v) {
			delete(t, path[0])
			return []string{here}
		}
		list, ok := v.([]any)
		if !ok {
			return nil
		}
		var out []string
		for i, e := range list {
			if bad(e) {
				list[i] = nil
				out = append(out, fmt.Sprintf("%s[%d]", here, i))
			}
		}
		return out
	case []any:
		var out []string
		for i, e := range t {
			out = append(out, dropMismatched(e, path, fmt.Sprintf("%s[%d]", prefix, i), bad)...)
		}
		return out
	}
	return nil
}

// NormalizeURL agrega https:// si falta, pasa el host a minúsculas y quita la barra final.
// Devuelve ok=false si el resultado no es una URL http(s) con host válido.
func NormalizeURL(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" || !strings.Contains(host, ".") || strings.ContainsAny(host, " _") ||
		strings.HasPrefix(host, ".") || strings.HasSuffix(host, ".") {
		return "", false
	}
	if p := u.Port(); p != "" {
		u.Host = host + ":" + p
	} else {
		u.Host = host
	}
	u.Fragment = ""
	out := u.String()
	return strings.TrimSuffix(out, "/"), true
}

// URLHost host sin "www." de una URL ya normalizable; vacío si no es válida.
func URLHost(raw string) string {
	n, ok := NormalizeURL(raw)
	if !ok {
		return ""
	}
	u, err := url.Parse(n)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Hostname(), "www.")
}

// EmailDomain dominio en minúsculas de un email; vacío si no tiene "@".
func EmailDomain(email string) string {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(email[at+1:]))
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" || name == "-" {
		return f.Name
	}
	return name
}

// Decode normaliza las claves de data y la vuelca en dst, descartando los campos
// con tipo incorrecto. Lo usa el pipeline de transformación, que es tolerante.
func Decode(data map[string]any, dst any) error {
	_, err := decode(NormalizeKeys(data), dst)
	return err
}
