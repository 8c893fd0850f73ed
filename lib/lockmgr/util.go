package lockmgr

// contains reports whether holder appears in entries
func contains(entries []string, holder string) bool {
	for _, e := range entries {
		if e == holder {
			return true
		}
	}
	return false
}

// onlyHolder scans every entry and reports whether none belongs to another identity.
// This is O(len(entries)) per write-upgrade decision; reader fan-out per resource is small.
func onlyHolder(entries []string, holder string) bool {
	for _, e := range entries {
		if e != holder {
			return false
		}
	}
	return true
}

// removeFirst removes the first entry equal to holder
func removeFirst(entries []string, holder string) ([]string, bool) {
	for i, e := range entries {
		if e == holder {
			return append(entries[:i], entries[i+1:]...), true
		}
	}
	return entries, false
}
