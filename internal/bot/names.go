package bot

import "strings"

// CleanName normalizes user input into a channel-safe name: surrounding
// quotes stripped, lower-cased, words joined with dashes.
func CleanName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) >= 2 && name[0] == name[len(name)-1] && (name[0] == '\'' || name[0] == '"') {
		name = name[1 : len(name)-1]
	}
	return strings.Join(strings.Fields(strings.ToLower(name)), "-")
}

// CapName turns a channel-safe name back into a display title for sheet and
// folder names, e.g. "round-one" into "Round One".
func CapName(name string) string {
	words := strings.Fields(strings.ReplaceAll(name, "-", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

// puzzleURL derives the hunt-site URL for a puzzle channel from the resolved
// base URL and separator. The scheme follows the common hunt layout of
// https://site/puzzle/puzzle_name.
func puzzleURL(base, sep, channelName string) string {
	if base == "" {
		return ""
	}
	if sep == "" {
		sep = "_"
	}
	slug := strings.ReplaceAll(strings.ToLower(channelName), "-", sep)
	return strings.TrimRight(base, "/") + "/" + slug
}
