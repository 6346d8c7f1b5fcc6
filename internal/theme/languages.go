package theme

// languageColors follows GitHub linguist for the languages that show up most on profiles.
var languageColors = map[string]string{
	"Go":               "#00ADD8",
	"JavaScript":       "#F1E05A",
	"TypeScript":       "#3178C6",
	"Python":           "#3572A5",
	"Java":             "#B07219",
	"Kotlin":           "#A97BFF",
	"Rust":             "#DEA584",
	"C":                "#555555",
	"C++":              "#F34B7D",
	"C#":               "#178600",
	"Ruby":             "#701516",
	"PHP":              "#4F5D95",
	"Swift":            "#F05138",
	"Dart":             "#00B4AB",
	"Scala":            "#C22D40",
	"Shell":            "#89E051",
	"HTML":             "#E34C26",
	"CSS":              "#563D7C",
	"SCSS":             "#C6538C",
	"Vue":              "#41B883",
	"Svelte":           "#FF3E00",
	"Lua":              "#000080",
	"Haskell":          "#5E5086",
	"Elixir":           "#6E4A7E",
	"Clojure":          "#DB5855",
	"Zig":              "#EC915C",
	"Nix":              "#7E7EFF",
	"Dockerfile":       "#384D54",
	"Makefile":         "#427819",
	"Jupyter Notebook": "#DA5B0B",
	"Objective-C":      "#438EFF",
	"Perl":             "#0298C3",
	"R":                "#198CE7",
	"Julia":            "#A270BA",
	"OCaml":            "#EF7A08",
	"Erlang":           "#B83998",
	"F#":               "#B845FC",
	"Solidity":         "#AA6746",
	"HCL":              "#844FBA",
	"Vim Script":       "#199F4B",
}

// series colors languages linguist does not know, cycling by position.
var series = []string{"#4C71F2", "#F2994A", "#27AE60", "#EB5757", "#9B51E0", "#2D9CDB", "#F2C94C", "#6FCF97"}

// LanguageColor returns the linguist color for lang, or a series color picked by index.
func LanguageColor(lang string, index int) string {
	if c, ok := languageColors[lang]; ok {
		return c
	}
	if index < 0 {
		index = -index
	}
	return series[index%len(series)]
}
