//go:build !unix

package lease

// probeWritable checks write access with a real probe write.
func probeWritable(folder string) error {
	return probeFile(folder)
}
