package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/okr-api/internal/application/validation"
)

func TestSnakeCase(t *testing.T) {
	cases := map[string]string{
		"employeeCount": "employee_count",
		"company_size":  "company_size",
		"keyResults":    "key_results",
		"websiteURL":    "website_url",
		"HTTPServer":    "http_server",
		"step1":         "step1",
	}
	for in, want := range cases {
		assert.Equal(t, want, validation.SnakeCase(in), in)
	}
}

func TestNormalizeKeys_SnakeCaseGana(t *testing.T) {
	out := validation.NormalizeKeys(map[string]any{
		"employeeCount":  float64(1),
		"employee_count": float64(2),
		"objectives":     []any{map[string]any{"keyResults": []any{}}},
	})
	assert.Equal(t, float64(2), out["employee_count"])
	assert.NotContains(t, out, "employeeCount")
	obj := out["objectives"].([]any)[0].(map[string]any)
	assert.Contains(t, obj, "key_results")
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in, want string
		ok       bool
	}{
		{"Acme.CO", "https://acme.co", true},
		{"http://www.Acme.co/", "http://www.acme.co", true},
		{"https://acme.co/about/", "https://acme.co/about", true},
		{"ftp://acme.co", "", false},
		{"no es url", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := validation.NormalizeURL(tc.in)
		assert.Equal(t, tc.ok, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
}

func TestSizeMatches(t *testing.T) {
	assert.False(t, validation.SizeMatches("startup", 500))
	assert.True(t, validation.SizeMatches("startup", 30))
	assert.True(t, validation.SizeMatches("enterprise", 20000))
	assert.False(t, validation.SizeMatches("enterprise", 200))
	assert.True(t, validation.SizeMatches("desconocido", 7))
}

func TestDecode_TipoInvalidoSoloAfectaAlElemento(t *testing.T) {
	var out validation.OKRSetup
	err := validation.Decode(map[string]any{
		"objectives": []any{map[string]any{"title": "Crecer", "keyResults": []any{
			map[string]any{"title": "Uno", "targetValue": float64(10)},
			map[string]any{"title": "Dos", "targetValue": "abc"},
			map[string]any{"title": "Tres", "targetValue": float64(30)},
		}}},
	}, &out)
	require.NoError(t, err)

	krs := out.Objectives[0].KeyResults
	require.Len(t, krs, 3)
	require.NotNil(t, krs[0].TargetValue)
	assert.Equal(t, float64(10), *krs[0].TargetValue)
	assert.Nil(t, krs[1].TargetValue)
	assert.Equal(t, "Dos", krs[1].Title)
	require.NotNil(t, krs[2].TargetValue)
	assert.Equal(t, float64(30), *krs[2].TargetValue)
}

func TestDecode_ElementoDeListaConTipoInvalido(t *testing.T) {
	var out validation.OKRSetup
	err := validation.Decode(map[string]any{
		"objectives": []any{
			map[string]any{"title": "Crecer"},
			"no es objeto",
			map[string]any{"title": "Retener"},
		},
	}, &out)
	require.NoError(t, err)

	require.Len(t, out.Objectives, 3)
	assert.Equal(t, "Crecer", out.Objectives[0].Title)
	assert.Empty(t, out.Objectives[1].Title)
	assert.Equal(t, "Retener", out.Objectives[2].Title)
}
