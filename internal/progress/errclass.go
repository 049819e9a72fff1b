package progress

import (
	"strings"

	"golang.org/x/text/language"
)

// ErrorCategory is a coarse user-facing classification of a failed run.
type ErrorCategory string

const (
	CategoryInvalidInput     ErrorCategory = "invalid_input"
	CategoryUnknownEncoder   ErrorCategory = "unknown_encoder"
	CategoryPermissionDenied ErrorCategory = "permission_denied"
	CategoryGeneric          ErrorCategory = "generic"
)

// classifiers are checked in order; the first matching substring wins.
var classifiers = []struct {
	needle   string
	category ErrorCategory
}{
	{needle: "Invalid data found when processing input", category: CategoryInvalidInput},
	{needle: "Unknown encoder", category: CategoryUnknownEncoder},
	{needle: "Permission denied", category: CategoryPermissionDenied},
}

// Classify maps ffmpeg diagnostic text to an error category.
func Classify(stderr string) ErrorCategory {
	for _, c := range classifiers {
		if strings.Contains(stderr, c.needle) {
			return c.category
		}
	}
	return CategoryGeneric
}

var supportedLocales = []language.Tag{
	language.English,
	language.TraditionalChinese,
}

var localeMatcher = language.NewMatcher(supportedLocales)

var messages = map[language.Tag]map[ErrorCategory]string{
	language.English: {
		CategoryInvalidInput:     "Input file not found or its format is invalid.",
		CategoryUnknownEncoder:   "Unsupported encoder. Check the hardware acceleration settings.",
		CategoryPermissionDenied: "Permission denied. Cannot write to the output path.",
		CategoryGeneric:          "Execution failed. Check that the parameters are correct.",
	},
	language.TraditionalChinese: {
		CategoryInvalidInput:     "找不到輸入檔案或格式無效。",
		CategoryUnknownEncoder:   "不支援的編碼器，請檢查硬體加速設定。",
		CategoryPermissionDenied: "權限不足，無法寫入輸出路徑。",
		CategoryGeneric:          "執行失敗，請檢查參數是否正確。",
	},
}

// Message returns the category's text for the closest supported locale.
// Unknown or malformed locales fall back to English.
func Message(category ErrorCategory, locale string) string {
	tag := matchLocale(locale)
	if msg, ok := messages[tag][category]; ok {
		return msg
	}
	return messages[tag][CategoryGeneric]
}

// Describe classifies stderr and returns the localized message.
func Describe(stderr, locale string) string {
	return Message(Classify(stderr), locale)
}

func matchLocale(locale string) language.Tag {
	desired, err := language.Parse(strings.TrimSpace(locale))
	if err != nil {
		return language.English
	}
	_, index, confidence := localeMatcher.Match(desired)
	if confidence == language.No {
		return language.English
	}
	return supportedLocales[index]
}
