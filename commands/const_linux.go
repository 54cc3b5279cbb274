package commands

const (
	_etc = "/usr/local/etc/brats"

	DEFAULT_CONFIG      = _etc + "/brats-app-sheets.yaml"
	DEFAULT_CREDENTIALS = _etc + "/.google/credentials.json"
)
