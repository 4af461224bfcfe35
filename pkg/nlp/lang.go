package nlp

import (
	"regexp"
	"strings"
)

// script ranges for the languages the system monitors; first matching
// rune decides the language
var scriptRanges = []struct {
	lo, hi rune
	code   string
}{
	{0x0900, 0x097F, "hi"}, // Devanagari (Hindi/Marathi)
	{0x0B80, 0x0BFF, "ta"}, // Tamil
	{0x0C00, 0x0C7F, "te"}, // Telugu
	{0x0980, 0x09FF, "bn"}, // Bengali
	{0x0A80, 0x0AFF, "gu"}, // Gujarati
	{0x0C80, 0x0CFF, "kn"}, // Kannada
	{0x0D00, 0x0D7F, "ml"}, // Malayalam
	{0x0A00, 0x0A7F, "pa"}, // Punjabi
	{0x0600, 0x06FF, "ur"}, // Urdu
}

// common romanized-Hindi words used to detect Hindi written in Latin script
var hinglishWords = map[string]struct{}{}

func init() {
	words := []string{
		"hai", "hain", "nahi", "nahin", "kya", "kaise", "kab",
		"kon", "kaun", "kaha", "kahaan", "kyun", "kyon",
		"acha", "accha", "bahut", "bohot", "bhi", "aur",
		"lekin", "magar", "par", "agar", "toh", "phir",
		"yeh", "woh", "ye", "wo", "iska", "uska",
		"sabse", "sab", "kuch", "koi", "kitna",
		"desh", "sarkar", "sarkaar", "pradhan", "mantri",
		"chunav", "chunaav", "janta", "janata", "neta",
		"ji", "sahab", "sahib", "bhai", "didi",
		"paisa", "paise", "rupay", "crore", "lakh",
		"ghar", "sadak", "bijli", "paani", "pani",
		"kaam", "karna", "karke", "karenge", "karega",
		"hoga", "hogi", "honge", "tha", "thi", "the",
		"chahiye", "chahte", "sakta", "sakti", "sakte",
		"jitna", "jeetna", "haarna", "milega", "milegi",
		"rajya", "dilli", "gaon", "sheher",
		"log", "logo", "logon", "zyada", "kam", "thoda",
		"achha", "bura", "sahi", "galat",
		"liye", "wale", "wala", "wali",
		"mai", "mein", "se", "ko", "ka", "ki", "ke",
		"pe", "tak", "ab", "jab", "tab",
	}
	for _, w := range words {
		hinglishWords[w] = struct{}{}
	}
}

var latinWordRe = regexp.MustCompile(`[a-zA-Z]+`)

// DetectLanguage returns a language code for the text: a script-based code
// for Indic scripts and Urdu, "hi-Latn" for romanized Hindi, "en" for
// mostly-ASCII text and "unknown" otherwise. Same input always yields the
// same code.
func DetectLanguage(text string) string {
	if text == "" {
		return "unknown"
	}

	for _, ch := range text {
		for _, sr := range scriptRanges {
			if ch >= sr.lo && ch <= sr.hi {
				return sr.code
			}
		}
	}

	// romanized Hindi: enough known words among the Latin-script tokens
	words := latinWordRe.FindAllString(strings.ToLower(text), -1)
	if len(words) > 0 {
		seen := map[string]struct{}{}
		matched := 0
		for _, w := range words {
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			if _, ok := hinglishWords[w]; ok {
				matched++
			}
		}
		if ratio := float64(matched) / float64(len(seen)); ratio > 0.2 && matched >= 2 {
			return "hi-Latn"
		}
	}

	asciiCount := 0
	for _, ch := range text {
		if ch < 128 {
			asciiCount++
		}
	}
	if float64(asciiCount)/float64(len([]rune(text))) > 0.8 {
		return "en"
	}

	return "unknown"
}
