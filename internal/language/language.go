package language

import "strings"

type entry struct {
	code2     string   // ISO 639-1
	code3     string   // ISO 639-2
	tesseract string   // traineddata name
	display   string   // human-readable name
	aliases   []string // config spellings and word forms
}

var languages = []entry{
	{"zh", "zho", "chi_sim", "Chinese (Simplified)", []string{"ch", "chi", "chinese", "zh-cn", "zh-hans", "chi_sim"}},
	{"zh", "zho", "chi_tra", "Chinese (Traditional)", []string{"cht", "zh-tw", "zh-hant", "chi_tra"}},
	{"en", "eng", "eng", "English", []string{"english"}},
	{"ja", "jpn", "jpn", "Japanese", []string{"japan", "japanese"}},
	{"ko", "kor", "kor", "Korean", []string{"korean"}},
	{"fr", "fra", "fra", "French", []string{"fre", "french"}},
	{"de", "deu", "deu", "German", []string{"ger", "german"}},
	{"es", "spa", "spa", "Spanish", []string{"spanish"}},
	{"ru", "rus", "rus", "Russian", []string{"russian"}},
	{"ar", "ara", "ara", "Arabic", []string{"arabic"}},
	{"th", "tha", "tha", "Thai", []string{"thai"}},
	{"vi", "vie", "vie", "Vietnamese", []string{"vietnamese"}},
}

var byKey map[string]*entry

func init() {
	byKey = make(map[string]*entry, len(languages)*4)
	// Later entries never override earlier ones, so "zh" stays simplified.
	add := func(key string, e *entry) {
		if _, ok := byKey[key]; !ok {
			byKey[key] = e
		}
	}
	for i := range languages {
		e := &languages[i]
		add(e.code2, e)
		add(e.code3, e)
		for _, alias := range e.aliases {
			add(alias, e)
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	return byKey[code]
}

// ToTesseract returns the tesseract traineddata name for code. Unknown codes
// pass through unchanged; empty input yields "eng".
func ToTesseract(code string) string {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return "eng"
	}
	if e := lookup(trimmed); e != nil {
		return e.tesseract
	}
	return trimmed
}

// ToISO2 converts any recognized code or word to ISO 639-1. Unknown 2-letter
// codes pass through; anything else unknown yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName returns a human-readable name, or the uppercased input when
// the code is unknown.
func DisplayName(code string) string {
	if strings.TrimSpace(code) == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(strings.TrimSpace(code))
}

// Known reports whether code maps to a supported language.
func Known(code string) bool {
	return lookup(code) != nil
}
