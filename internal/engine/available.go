package engine

// Available reports whether engine kind k can serve requests in this build.
func Available(k Kind) bool {
	if k == KindLlama {
		return llamaBuilt
	}
	return true
}
