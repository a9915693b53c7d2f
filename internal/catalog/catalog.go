package catalog

import "fmt"

// Language is an immutable entry of the language catalog
type Language struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Flag  string `json:"flag"`
	Voice string `json:"voice"`
}

// Label returns the flag and name, as shown in language pickers
func (l Language) Label() string {
	return fmt.Sprintf("%s %s", l.Flag, l.Name)
}

// DefaultVoice is used when a language has no voice of its own
const DefaultVoice = "Kore"

// Some languages borrow a prebuilt voice; the TTS model speaks any language
// with any voice, the voice only changes timbre.
var languages = []Language{
	{Code: "en", Name: "English", Flag: "🇺🇸", Voice: "Puck"},
	{Code: "zh", Name: "Chinese (Simplified)", Flag: "🇨🇳", Voice: "Kore"},
	{Code: "es", Name: "Spanish", Flag: "🇪🇸", Voice: "Charon"},
	{Code: "fr", Name: "French", Flag: "🇫🇷", Voice: "Fenrir"},
	{Code: "de", Name: "German", Flag: "🇩🇪", Voice: "Puck"},
	{Code: "ja", Name: "Japanese", Flag: "🇯🇵", Voice: "Kore"},
	{Code: "ko", Name: "Korean", Flag: "🇰🇷", Voice: "Zephyr"},
	{Code: "pt", Name: "Portuguese", Flag: "🇧🇷", Voice: "Aoede"},
	{Code: "ru", Name: "Russian", Flag: "🇷🇺", Voice: "Charon"},
	{Code: "ar", Name: "Arabic", Flag: "🇸🇦", Voice: "Zephyr"},
}

// All returns a copy of the catalog in display order
func All() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	return out
}

// Lookup finds a language by its code
func Lookup(code string) (Language, bool) {
	for _, l := range languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// MustLookup is Lookup for codes known at compile time
func MustLookup(code string) Language {
	l, ok := Lookup(code)
	if !ok {
		panic(fmt.Sprintf("catalog: unknown language code %q", code))
	}
	return l
}

// Codes returns all language codes, used for flag help and validation
func Codes() []string {
	codes := make([]string, len(languages))
	for i, l := range languages {
		codes[i] = l.Code
	}
	return codes
}

// VoiceFor returns the voice of a language, falling back to DefaultVoice
func VoiceFor(l Language) string {
	if l.Voice == "" {
		return DefaultVoice
	}
	return l.Voice
}
