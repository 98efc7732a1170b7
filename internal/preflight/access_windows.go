package preflight

import "os"

// checkAccess creates and removes a scratch file; ACLs make mode bits
// meaningless on Windows.
func checkAccess(path string) error {
	f, err := os.CreateTemp(path, ".tonearm-access-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
