package ifexists

// On windows assume a 120 character wide terminal.
func terminalWidth() uint { return 120 }
