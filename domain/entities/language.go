package entities

// Language identifies one of the four announcement languages.
type Language string

const (
	LanguageEnglish  Language = "english"
	LanguageHindi    Language = "hindi"
	LanguageMarathi  Language = "marathi"
	LanguageGujarati Language = "gujarati"
)

// GenerationOrder is the order languages are processed during a generation
// run. MergeOrder is the order the per-language outputs are merged into the
// final track. The merge order is a hard requirement and must never follow
// the loop order implicitly.
var (
	GenerationOrder = []Language{LanguageEnglish, LanguageMarathi, LanguageHindi, LanguageGujarati}
	MergeOrder      = []Language{LanguageEnglish, LanguageHindi, LanguageMarathi, LanguageGujarati}
)

// translateCodes maps a language to its machine-translation target code.
var translateCodes = map[Language]string{
	LanguageEnglish:  "en",
	LanguageHindi:    "hi",
	LanguageMarathi:  "mr",
	LanguageGujarati: "gu",
}

// ParseLanguage normalizes a user-supplied language name.
func ParseLanguage(s string) (Language, bool) {
	lang := Language(s)
	_, ok := translateCodes[lang]
	return lang, ok
}

// TranslateCode returns the ISO 639-1 code used by the Translator.
func (l Language) TranslateCode() string {
	return translateCodes[l]
}

// LocaleCode returns the BCP-47 locale used by the speech services. All
// announcement voices are Indian locales.
func (l Language) LocaleCode() string {
	return translateCodes[l] + "-IN"
}

// Valid reports whether l is one of the four supported languages.
func (l Language) Valid() bool {
	_, ok := translateCodes[l]
	return ok
}

func (l Language) String() string {
	return string(l)
}
