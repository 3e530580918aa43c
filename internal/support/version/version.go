// Package version хранит версию сборки; значения подставляются через -ldflags -X.
package version

var (
	Version = "dev"
	Commit  = "none"
)

// String — "dev (none)" или "1.2.0 (abc123)".
func String() string {
	return Version + " (" + Commit + ")"
}
