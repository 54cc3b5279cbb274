package commands

const (
	_etc = `C:\ProgramData\brats`

	DEFAULT_CONFIG      = _etc + `\brats-app-sheets.yaml`
	DEFAULT_CREDENTIALS = _etc + `\.google\credentials.json`
)
