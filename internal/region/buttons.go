package region

// ConsumeOpenButton atomically reads and clears open_button, returning
// whether it had been set. Used by the door loop's button-effect
// evaluation (spec §4.C).
func (r *Region) ConsumeOpenButton() (bool, error) {
	var was bool
	err := r.mutate(func(data []byte) error {
		was = getBool(data, offOpenButton)
		putBool(data, offOpenButton, false)
		return nil
	})
	return was, err
}

// ConsumeCloseButtonForAbort atomically reads and clears close_button and,
// if it had been set, also raises the early-exit flag in the same write.
// The door loop is the caller and acts on the returned value; nothing in
// this repository reads the early-exit flag back.
func (r *Region) ConsumeCloseButtonForAbort() (bool, error) {
	var was bool
	err := r.mutate(func(data []byte) error {
		was = getBool(data, offCloseButton)
		putBool(data, offCloseButton, false)
		if was {
			putBool(data, offEarlyExit, true)
		}
		return nil
	})
	return was, err
}
