package slugs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/permitindex/internal/types"
)

func TestComputeSlug(t *testing.T) {
	tests := []struct {
		name    string
		agency  string
		request string
		want    string
	}{
		{"basic", "CA Dept of Public Health", "Food Truck Operating Permit", "ca-dept-of-public-health-food-truck-operating-permit"},
		{"trailing space", "CA Dept of Public Health", "Food Truck Operating Permit ", "ca-dept-of-public-health-food-truck-operating-permit"},
		{"punctuation runs", "NYC DOB", "Permit -- (Type A/B)", "nyc-dob-permit-type-a-b"},
		{"leading and trailing symbols", "#TX DMV!", "...Title Transfer...", "tx-dmv-title-transfer"},
		{"digits kept", "IRS", "Form 1040-ES", "irs-form-1040-es"},
		{"diacritics folded", "Peña County", "Licencia Única", "pena-county-licencia-unica"},
		{"unicode upper case", "ÉTAT", "Permis", "etat-permis"},
		{"ampersand", "Parks & Rec", "Event Permit", "parks-rec-event-permit"},
		{"sharp s transliterated", "Amt", "Straße Permit", "amt-strasse-permit"},
		{"nordic letters transliterated", "Ærø Kommune", "Licence", "aero-kommune-licence"},
		{"polish l", "Łódź", "Zezwolenie", "lodz-zezwolenie"},
		{"cjk kept", "東京都", "営業許可", "東京都-営業許可"},
		{"cyrillic lower-cased", "МВД", "Разрешение", "мвд-разрешение"},
		{"devanagari spacing marks kept", "नगर निगम", "अनुमति", "नगर-निगम-अनुमति"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeSlug(tt.agency, tt.request)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeSlug_Deterministic(t *testing.T) {
	first, err := ComputeSlug("CA DMV", "Vehicle Registration Renewal")
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := ComputeSlug("CA DMV", "Vehicle Registration Renewal")
		require.NoError(t, err)
		require.Equal(t, first, again)
	}
}

func TestComputeSlug_MissingKeyField(t *testing.T) {
	tests := []struct {
		name    string
		agency  string
		request string
	}{
		{"empty agency", "", "Permit"},
		{"whitespace agency", "   ", "Permit"},
		{"empty request", "CA DMV", ""},
		{"symbols only", "!!!", "???"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ComputeSlug(tt.agency, tt.request)
			require.Error(t, err)
			var dataErr *types.DataError
			require.True(t, errors.As(err, &dataErr))
			assert.Equal(t, types.KindMissingKeyField, dataErr.Kind)
		})
	}
}

func TestComputeSlug_NonASCIIKeysStayDistinct(t *testing.T) {
	keys := [][2]string{
		{"Amt", "Straße Permit"},
		{"Amt", "Strae Permit"},
		{"Ærø Kommune", "Licence"},
		{"Rø Kommune", "Licence"},
		{"東京都", "営業許可"},
		{"大阪府", "営業許可"},
	}

	seen := make(map[string][2]string)
	for _, k := range keys {
		slug, err := ComputeSlug(k[0], k[1])
		require.NoError(t, err, "key %v", k)
		require.NotEmpty(t, slug)
		if prev, ok := seen[slug]; ok {
			t.Fatalf("keys %v and %v share slug %q", prev, k, slug)
		}
		seen[slug] = k
	}
}

func TestEscapePath(t *testing.T) {
	assert.Equal(t, "/ca-dmv-title/", EscapePath("/ca-dmv-title/"))
	assert.Equal(t, "/%E6%9D%B1%E4%BA%AC/", EscapePath("/東京/"))
}

func TestNormalize_NoDoubleHyphens(t *testing.T) {
	assert.Equal(t, "a-b", Normalize("  a  ---  b  "))
	assert.Equal(t, "", Normalize(" -- "))
}

func TestCanonicalPath(t *testing.T) {
	assert.Equal(t, "/ca-dmv-title/", CanonicalPath("ca-dmv-title"))
}
