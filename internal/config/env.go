package config

import "os"

// noServerJarEnv disables launching the embedded server jar. Orthogonal to
// the sync core; used by headless and development setups.
const noServerJarEnv = "HUNTLY_NO_SERVER_JAR"

// ServerJarDisabled reports whether the embedded server is disabled through
// the environment.
func ServerJarDisabled() bool {
	switch os.Getenv(noServerJarEnv) {
	case "1", "true", "TRUE":
		return true
	default:
		return false
	}
}
