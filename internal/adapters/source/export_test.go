package source

// SetMaxBodyBytes lowers the body limit for a test and returns a restore func.
func SetMaxBodyBytes(n int) (restore func()) {
	prev := maxBodyBytes
	maxBodyBytes = n
	return func() { maxBodyBytes = prev }
}
