/*
Package brats-app-sheets validates BraTS data access requests submitted through a Google Form.

brats-app-sheets can be used from the command line but is really intended to be run from a cron job. Each run reads
the form responses from a Google Sheets worksheet, skips the responses that already have an entry in the log
worksheet and, for each new response, checks the Synapse user against the challenge and data access teams. Eligible
users are invited to the data access team, everybody else is sent a Synapse notification explaining why not, and the
outcome is appended to the log worksheet.

brats-app-sheets supports the following commands:

  - validate, to validate the new data access requests (the default command)
  - pending, to list the data access requests that have not been validated yet
  - get, to download the responses or log worksheet as a TSV file
  - authorise, to authorise application access to the Google Sheets spreadsheet
  - version
*/
package sheets
