//go:build !unix

package fs

// No flock here; native mode degrades to the marker protocol.
func tryNative(path string) (func(), bool, error) {
	return tryMarker(path)
}
