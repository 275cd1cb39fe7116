package chunker

import (
	"path/filepath"
	"regexp"
	"strings"
)

// Marker levels per language, strongest first. Every language decays to
// paragraph and line markers before the fixed-window fallback kicks in.
var languageMarkers = map[string][][]string{
	"go": {
		{"\nfunc "},
		{"\ntype ", "\nvar ", "\nconst "},
		{"\n\n"},
		{"\n"},
	},
	"python": {
		{"\nclass "},
		{"\ndef ", "\n    def ", "\n\tdef "},
		{"\n\n"},
		{"\n"},
	},
	"java": {
		{"\npublic class ", "\nclass ", "\npublic interface ", "\ninterface ", "\npublic enum ", "\nenum "},
		{"\n    public ", "\n    private ", "\n    protected ", "\n    static "},
		{"\n\n"},
		{"\n"},
	},
	"kotlin": {
		{"\nclass ", "\nobject ", "\ninterface "},
		{"\nfun ", "\n    fun ", "\nsuspend fun "},
		{"\n\n"},
		{"\n"},
	},
	"javascript": {
		{"\nfunction ", "\nexport function ", "\nexport default ", "\nasync function "},
		{"\nclass ", "\nexport class "},
		{"\nconst ", "\nlet "},
		{"\n\n"},
		{"\n"},
	},
	"markdown": {
		{"\n# "},
		{"\n## "},
		{"\n### "},
		{"\n\n"},
		{"\n"},
	},
}

var defaultMarkers = [][]string{
	{"\n\n"},
	{"\n"},
}

var languageAliases = map[string]string{
	"golang":     "go",
	"py":         "python",
	"js":         "javascript",
	"jsx":        "javascript",
	"typescript": "javascript",
	"ts":         "javascript",
	"tsx":        "javascript",
	"kt":         "kotlin",
	"md":         "markdown",
}

func canonicalLanguage(language string) string {
	lang := strings.ToLower(strings.TrimSpace(language))
	if alias, ok := languageAliases[lang]; ok {
		return alias
	}
	return lang
}

func markerLevels(language string) [][]string {
	if levels, ok := languageMarkers[canonicalLanguage(language)]; ok {
		return levels
	}
	return defaultMarkers
}

// Best-effort identifier extraction: first declaration name visible in the
// fragment, used for the recall-boosting header and chunk metadata.
var identPatterns = map[string][]*regexp.Regexp{
	"go": {
		regexp.MustCompile(`(?m)^func\s+(?:\([^)]+\)\s*)?([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)^type\s+([A-Za-z_]\w*)`),
	},
	"python": {
		regexp.MustCompile(`(?m)^\s*class\s+([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)^\s*def\s+([A-Za-z_]\w*)`),
	},
	"java": {
		regexp.MustCompile(`(?m)^\s*(?:public\s+|private\s+|protected\s+)?(?:final\s+|abstract\s+)?(?:class|interface|enum)\s+([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)^\s*(?:public|private|protected)\s+(?:static\s+)?[\w<>\[\],\s]+\s([A-Za-z_]\w*)\s*\(`),
	},
	"kotlin": {
		regexp.MustCompile(`(?m)^\s*(?:class|object|interface)\s+([A-Za-z_]\w*)`),
		regexp.MustCompile(`(?m)^\s*(?:suspend\s+)?fun\s+([A-Za-z_]\w*)`),
	},
	"javascript": {
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?(?:function|class)\s+([A-Za-z_$]\w*)`),
		regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:const|let)\s+([A-Za-z_$]\w*)\s*=`),
	},
	"markdown": {
		regexp.MustCompile(`(?m)^#{1,6}\s+(.+?)\s*$`),
	},
}

func extractIdentifier(text, language string) string {
	patterns, ok := identPatterns[canonicalLanguage(language)]
	if !ok {
		return ""
	}
	for _, re := range patterns {
		if match := re.FindStringSubmatch(text); len(match) > 1 {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}

var extLanguages = map[string]string{
	".go":       "go",
	".py":       "python",
	".java":     "java",
	".kt":       "kotlin",
	".kts":      "kotlin",
	".js":       "javascript",
	".jsx":      "javascript",
	".ts":       "javascript",
	".tsx":      "javascript",
	".md":       "markdown",
	".markdown": "markdown",
}

// LanguageForPath maps a file extension to a chunker language tag. Unknown
// extensions get the generic paragraph/line markers.
func LanguageForPath(path string) string {
	if lang, ok := extLanguages[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return ""
}
