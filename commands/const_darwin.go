package commands

const (
	_etc = "/usr/local/etc/org.sagebionetworks.brats"

	DEFAULT_CONFIG      = _etc + "/brats-app-sheets.yaml"
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
