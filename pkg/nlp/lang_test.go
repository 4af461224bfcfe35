package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"plain english", "the roads in this city are terrible", "en"},
		{"devanagari", "सड़कों की हालत बहुत खराब है", "hi"},
		{"tamil", "சாலைகள் மிகவும் மோசமாக உள்ளன", "ta"},
		{"bengali", "রাস্তার অবস্থা খুব খারাপ", "bn"},
		{"telugu", "రోడ్లు చాలా దారుణంగా ఉన్నాయి", "te"},
		{"mixed script decides by first indic rune", "power cut फिर से हो गया", "hi"},
		{"hinglish", "sarkar ne kuch nahi kiya, sadak ki halat bahut kharab hai", "hi-Latn"},
		{"single hindi word is still english", "the minister visited the gaon yesterday morning", "en"},
		{"empty", "", "unknown"},
		{"numbers only", "12345 67890", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectLanguage(tt.text))
		})
	}
}

func TestDetectLanguage_Stable(t *testing.T) {
	text := "bijli paani sab band hai is sheher mein"
	first := DetectLanguage(text)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, DetectLanguage(text))
	}
}
