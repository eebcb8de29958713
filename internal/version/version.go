package version

import "fmt"

// Name is the program name shown in banners and the status line.
const Name = "grocerydesk"

// These variables are populated at build time via -ldflags.
var (
	Version = "dev"
	Commit  = ""
	Date    = ""
)

func String() string {
	base := Version
	if Commit != "" {
		base += fmt.Sprintf(" (%s)", Commit)
	}
	if Date != "" {
		base += fmt.Sprintf(" %s", Date)
	}
	return base
}

// Banner is "grocerydesk <version>".
func Banner() string { return Name + " " + String() }
