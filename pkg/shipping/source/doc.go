// Package source loads shipping profiles from YAML files and keeps
// the store in sync with them. A directory of profile files can be
// watched for changes and re-synced on edit.
package source
