package version

// Flag contains extra info about the version. It is helpful for tracking
// versions while developing. It should always be empty on the master branch.
const Flag = ""

var (
	// Base version number.
	Base = "0.1.0"

	// Version is the full version string.
	Version = Base
)

func init() {
	if Flag != "" {
		Version += "-" + Flag
	}
}
