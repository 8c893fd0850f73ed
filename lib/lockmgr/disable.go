package lockmgr

// --------------------------------------------------------------------------
// Quiesce protocol: Enabled(idle) -> Enabled(pending) -> Disabled -> Enabled
// --------------------------------------------------------------------------

func (t *lockTableImpl[P]) Disable(name, holder string, payload P) DisableResult[P] {
	var result DisableResult[P]

	st, ok := t.states[name]
	if !ok {
		result.Outcome = Denied
		result.Reason = ManagementResourceNotFound
		return result
	}

	// a holder may not disable a resource it has locked
	if contains(st.readers, holder) || contains(st.writers, holder) {
		result.Outcome = Denied
		result.Reason = AccessHeldByRequester
		return result
	}

	st.pendingDisable = true
	result.Flushed = st.waitQueue
	st.waitQueue = nil

	if st.idle() {
		result.Disabled = st.res.IsEnabled()
		st.res.Disable()
		st.pendingDisable = false
		result.Outcome = Granted
		return result
	}

	st.disableWaiters = append(st.disableWaiters, DisableWaiter[P]{Holder: holder, Payload: payload})
	result.Outcome = Queued
	return result
}

// Enable keeps any disable waiters. They are granted when a later disable completes.
func (t *lockTableImpl[P]) Enable(name string) bool {
	st, ok := t.states[name]
	if !ok {
		return false
	}

	changed := !st.res.IsEnabled()
	st.pendingDisable = false
	st.res.Enable()
	return changed
}
